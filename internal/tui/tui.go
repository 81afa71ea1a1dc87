package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
)

// Source is the slice of the store the board reads and writes. *db.Store satisfies it.
type Source interface {
	ListTags(ctx context.Context, userID string, state models.StateFilter) ([]models.Tag, error)
	ListTasks(ctx context.Context, q db.TaskQuery) ([]models.Task, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CheckedTasks(ctx context.Context, userID string, taskIDs []int64) (map[int64]bool, error)
	CheckTask(ctx context.Context, userID string, taskID int64) (*db.CheckResult, error)
	UncheckTask(ctx context.Context, userID string, taskID int64) (*models.Action, error)
	SetTagFocus(ctx context.Context, id int64, inFocus bool) (*models.Tag, error)
	AddTask(ctx context.Context, userID string, t *models.Task) (*models.Task, error)
	TotalPoints(ctx context.Context, userID string) (int64, error)
}

// RunBoard starts the interactive focus board for userID.
func RunBoard(ctx context.Context, src Source, userID string) error {
	model, err := NewBoardModel(ctx, src, userID)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(BoardModel); ok {
		if m.checkedThisSession > 0 {
			fmt.Printf("✅ %d task(s) checked, %d point(s) total\n", m.checkedThisSession, m.points)
		}
		if m.err != nil {
			fmt.Printf("❌ Error: %v\n", m.err)
		}
	}
	return nil
}
