package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
	"github.com/balkashynov/samwise/internal/parser"
)

type rowKind int

const (
	rowTag rowKind = iota
	rowTask
)

// row is one selectable line on the board: a tag header or a task under it.
type row struct {
	kind rowKind
	tag  models.Tag
	task models.Task
}

// BoardModel is the bubbletea model for the focus board.
type BoardModel struct {
	ctx    context.Context
	src    Source
	userID string
	now    func() time.Time

	rows     []row
	selected int
	checked  map[int64]bool
	points   int64

	focusOnly bool
	adding    bool
	input     textinput.Model

	keys keyMap
	help help.Model

	status             string
	err                error
	checkedThisSession int
}

// NewBoardModel loads the user's board. Only in-focus tags are shown until
// the focus filter is switched off.
func NewBoardModel(ctx context.Context, src Source, userID string) (BoardModel, error) {
	input := textinput.New()
	input.Placeholder = "Task content #tag due:3days"
	input.CharLimit = 200
	input.Width = 60
	input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	input.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	h := help.New()
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))
	h.Styles.ShortKey = helpStyle.Bold(true)
	h.Styles.ShortDesc = helpStyle
	h.Styles.ShortSeparator = helpStyle
	h.Styles.FullKey = helpStyle.Bold(true)
	h.Styles.FullDesc = helpStyle
	h.Styles.FullSeparator = helpStyle

	m := BoardModel{
		ctx:       ctx,
		src:       src,
		userID:    userID,
		now:       time.Now,
		focusOnly: true,
		input:     input,
		keys:      defaultKeyMap(),
		help:      h,
	}
	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

// reload rebuilds rows from the store, keeping the selection on the same record when possible.
func (m *BoardModel) reload() error {
	var keep *row
	if r, ok := m.current(); ok {
		keep = &r
	}

	tags, err := m.src.ListTags(m.ctx, m.userID, models.Active)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	points, err := m.src.TotalPoints(m.ctx, m.userID)
	if err != nil {
		return fmt.Errorf("failed to load points: %w", err)
	}

	var (
		rows []row
		ids  []int64
	)
	for _, tag := range tags {
		if m.focusOnly && !tag.InFocus {
			continue
		}
		rows = append(rows, row{kind: rowTag, tag: tag})
		tasks, err := m.src.ListTasks(m.ctx, db.TaskQuery{TagID: tag.TagID, TopLevel: true, State: models.Active})
		if err != nil {
			return fmt.Errorf("failed to load tasks for %s: %w", tag.TagName, err)
		}
		for _, task := range tasks {
			rows = append(rows, row{kind: rowTask, tag: tag, task: task})
			ids = append(ids, task.TaskID)
		}
	}
	checked, err := m.src.CheckedTasks(m.ctx, m.userID, ids)
	if err != nil {
		return fmt.Errorf("failed to load check state: %w", err)
	}

	m.rows = rows
	m.checked = checked
	m.points = points
	m.selected = 0
	if keep != nil {
		for i, r := range rows {
			if r.kind == keep.kind && r.tag.TagID == keep.tag.TagID && r.task.TaskID == keep.task.TaskID {
				m.selected = i
				break
			}
		}
	}
	return nil
}

func (m BoardModel) current() (row, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.selected], true
}

// Init initializes the model
func (m BoardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.handleAddKeys(msg)
		}
		return m.handleBoardKeys(msg)
	}
	return m, nil
}

func (m BoardModel) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Check):
		m.toggleCheck()

	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()

	case key.Matches(msg, m.keys.FocusOnly):
		m.focusOnly = !m.focusOnly
		m.setErr(m.reload())

	case key.Matches(msg, m.keys.Refresh):
		m.setErr(m.reload())

	case key.Matches(msg, m.keys.Add):
		if _, ok := m.current(); !ok {
			m.status = "Create a tag first: samwise tag add <name>"
			return m, nil
		}
		m.adding = true
		m.input.Reset()
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m BoardModel) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.addTask(m.input.Value())
		m.adding = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *BoardModel) toggleCheck() {
	r, ok := m.current()
	if !ok || r.kind != rowTask {
		return
	}
	id := r.task.TaskID
	if m.checked[id] {
		if _, err := m.src.UncheckTask(m.ctx, m.userID, id); err != nil {
			m.setErr(err)
			return
		}
		m.status = fmt.Sprintf("Unchecked #%d", id)
	} else {
		res, err := m.src.CheckTask(m.ctx, m.userID, id)
		if err != nil {
			m.setErr(err)
			return
		}
		m.status = fmt.Sprintf("Checked #%d", id)
		if res.Points != nil {
			m.checkedThisSession++
			m.status += " +1 point"
		}
	}
	m.setErr(m.reload())
}

func (m *BoardModel) toggleFocus() {
	r, ok := m.current()
	if !ok {
		return
	}
	tag, err := m.src.SetTagFocus(m.ctx, r.tag.TagID, !r.tag.InFocus)
	if err != nil {
		m.setErr(err)
		return
	}
	if tag.InFocus {
		m.status = fmt.Sprintf("%s is in focus", tag.TagName)
	} else {
		m.status = fmt.Sprintf("%s is out of focus", tag.TagName)
	}
	m.setErr(m.reload())
}

// addTask creates a task from quick-add input. A #tag in the input picks the
// tag by name; otherwise the selected row's tag is used.
func (m *BoardModel) addTask(input string) {
	now := m.now()
	parsed := parser.ParseTaskInput(input, now)
	if len(parsed.Errors) > 0 {
		m.status = parsed.Errors[0]
		return
	}
	r, _ := m.current()
	tagID := r.tag.TagID
	if parsed.TagName != "" {
		tagID = 0
		for _, candidate := range m.rows {
			if candidate.kind == rowTag && strings.EqualFold(candidate.tag.TagName, parsed.TagName) {
				tagID = candidate.tag.TagID
				break
			}
		}
		if tagID == 0 {
			m.status = fmt.Sprintf("No tag named %s on the board", parsed.TagName)
			return
		}
	}

	start, end := parsed.Dates(now)
	var opts []models.TaskOption
	if parsed.ParentTask != nil {
		if err := m.ownsTask(*parsed.ParentTask); err != nil {
			m.setErr(err)
			return
		}
		opts = append(opts, models.WithParentTask(*parsed.ParentTask))
	}

	task, err := models.NewTask(parsed.Content, start, end, tagID, 0, opts...)
	if err != nil {
		m.setErr(err)
		return
	}
	task, err = m.src.AddTask(m.ctx, m.userID, task)
	if err != nil {
		m.setErr(err)
		return
	}
	m.status = fmt.Sprintf("Added #%d", task.TaskID)
	m.setErr(m.reload())
}

// ownsTask reports ErrNotFound unless the task exists under one of the user's tags.
func (m *BoardModel) ownsTask(id int64) error {
	task, err := m.src.GetTask(m.ctx, id)
	if err != nil {
		return err
	}
	tag, err := m.src.GetTag(m.ctx, task.TagID)
	if err != nil {
		return err
	}
	if tag.UserID != m.userID {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (m *BoardModel) setErr(err error) {
	m.err = err
	if err != nil {
		m.status = err.Error()
	}
}

// View renders the TUI
func (m BoardModel) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentMain))
	pointsStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	scope := "focused tags"
	if !m.focusOnly {
		scope = "all tags"
	}
	b.WriteString(headerStyle.Render("samwise board"))
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render(" · " + scope + " · "))
	b.WriteString(pointsStyle.Render(fmt.Sprintf("%d pts", m.points)))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).
			Render("Nothing in focus. Press tab to show all tags."))
		b.WriteString("\n")
	}

	now := m.now()
	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, i == m.selected, now))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.adding {
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).Padding(0, 1)
		b.WriteString(box.Render(m.input.View()))
		b.WriteString("\n")
	} else if m.status != "" {
		color := ColorSecondaryText
		if m.err != nil {
			color = ColorError
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m BoardModel) renderRow(r row, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render("▸ ")
	}

	if r.kind == rowTag {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(r.tag.Color))
		label := "#" + r.tag.TagName
		if !r.tag.InFocus {
			style = style.Faint(true)
			label += " (out of focus)"
		}
		return cursor + style.Render(label)
	}

	mark := "○"
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	if m.checked[r.task.TaskID] {
		mark = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("✓")
		textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Strikethrough(true)
	}
	if selected {
		textStyle = textStyle.Bold(true)
	}

	due := parser.FormatDate(r.task.EndDate, now)
	dueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	if r.task.EndDate.Before(now) && !m.checked[r.task.TaskID] {
		dueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
	}
	return fmt.Sprintf("%s  %s %s  %s", cursor, mark, textStyle.Render(r.task.Content), dueStyle.Render(due))
}
