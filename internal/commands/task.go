package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
	"github.com/balkashynov/samwise/internal/parser"
)

func newTaskCmd(a *app) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	taskCmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskEditCmd(a),
		newTaskMoveCmd(a),
		newTaskArchiveCmd(a),
		newTaskUnarchiveCmd(a),
		newTaskCheckCmd(a),
		newTaskUncheckCmd(a),
		newTaskReorderCmd(a),
	)
	return taskCmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		tagRef string
		start  string
		due    string
		parent int64
	)
	cmd := &cobra.Command{
		Use:   "add CONTENT...",
		Short: "Add a task under a tag",
		Long: `Add a task under one of your tags.

Smart parsing syntax:
  #tag        - Tag name (or use --tag)
  ^42         - Parent task id (or use --parent)
  start:date  - Start date (default: now)
  due:date    - Due date (default: end of today)

Dates: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X hours, X days, X weeks

Example:
  samwise task add "Write report #Work due:3days"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			parsed := parser.ParseTaskInput(strings.Join(args, " "), now)
			if len(parsed.Errors) > 0 {
				return fmt.Errorf("found issues with parsing: %s", strings.Join(parsed.Errors, ", "))
			}
			if tagRef == "" {
				tagRef = parsed.TagName
			}
			if tagRef == "" {
				return fmt.Errorf("a tag is required: add #tag to the content or pass --tag")
			}

			if start != "" {
				t, err := parser.ParseDate(start, now)
				if err != nil {
					return fmt.Errorf("invalid start date: %w", err)
				}
				parsed.StartDate = &t
			}
			if due != "" {
				t, err := parser.ParseDate(due, now)
				if err != nil {
					return fmt.Errorf("invalid due date: %w", err)
				}
				parsed.EndDate = &t
			}
			startDate, endDate := parsed.Dates(now)

			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := resolveTag(cmd.Context(), store, userID, tagRef)
			if err != nil {
				return err
			}
			var opts []models.TaskOption
			if parent == 0 && parsed.ParentTask != nil {
				parent = *parsed.ParentTask
			}
			if parent != 0 {
				if _, _, err := ownedTask(cmd.Context(), store, userID, parent); err != nil {
					return err
				}
				opts = append(opts, models.WithParentTask(parent))
			}

			task, err := models.NewTask(parsed.Content, startDate.UTC(), endDate.UTC(), tag.TagID, 0, opts...)
			if err != nil {
				return err
			}
			task, err = store.AddTask(cmd.Context(), userID, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ New task \"%s\" added to %s - ID: %d\n", task.Content, renderTag(tag), task.TaskID)
			fmt.Fprintf(cmd.OutOrStdout(), "Due: %s\n", parser.FormatDate(task.EndDate, now))
			return nil
		},
	}
	cmd.Flags().StringVarP(&tagRef, "tag", "t", "", "Tag name or id")
	cmd.Flags().StringVar(&start, "start", "", "Start date")
	cmd.Flags().StringVar(&due, "due", "", "Due date")
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "Parent task id")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var (
		tagRef string
		state  string
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks grouped by tag, with subtasks indented",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := models.ParseStateFilter(state)
			if !ok {
				return fmt.Errorf("invalid --state '%s': use active, archived or all", state)
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			q := db.TaskQuery{UserID: userID, State: filter}
			if tagRef != "" {
				tag, err := resolveTag(ctx, store, userID, tagRef)
				if err != nil {
					return err
				}
				q.TagID = tag.TagID
			}
			tasks, err := store.ListTasks(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found. Use 'samwise task add \"content #tag\"' to create your first task.")
				return nil
			}
			tags, err := store.ListTags(ctx, userID, models.AnyState)
			if err != nil {
				return err
			}
			checked, err := store.CheckedTasks(ctx, userID, taskIDs(tasks))
			if err != nil {
				return err
			}
			printTaskTree(out, tags, tasks, checked, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&tagRef, "tag", "t", "", "Only tasks under this tag")
	cmd.Flags().StringVarP(&state, "state", "s", "active", "Filter by state: active, archived, all")
	return cmd
}

func printTaskTree(out io.Writer, tags []models.Tag, tasks []models.Task, checked map[int64]bool, now time.Time) {
	children := map[int64][]models.Task{}
	present := map[int64]bool{}
	for _, t := range tasks {
		present[t.TaskID] = true
	}
	byTag := map[int64][]models.Task{}
	for _, t := range tasks {
		// A task whose parent is filtered out is shown at the top level.
		if t.ParentTask != nil && present[*t.ParentTask] {
			children[*t.ParentTask] = append(children[*t.ParentTask], t)
			continue
		}
		byTag[t.TagID] = append(byTag[t.TagID], t)
	}

	var printTask func(t models.Task, depth int)
	printTask = func(t models.Task, depth int) {
		mark := "○"
		if checked[t.TaskID] {
			mark = "✓"
		}
		suffix := ""
		if t.Archived {
			suffix = " [archived]"
		}
		fmt.Fprintf(out, "  %s%s #%-4d %-40s %s%s\n",
			strings.Repeat("  ", depth), mark, t.TaskID, truncate(t.Content, 40), parser.FormatDate(t.EndDate, now), suffix)
		for _, c := range children[t.TaskID] {
			printTask(c, depth+1)
		}
	}

	for i := range tags {
		group := byTag[tags[i].TagID]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintln(out, renderTag(&tags[i]))
		for _, t := range group {
			printTask(t, 0)
		}
		delete(byTag, tags[i].TagID)
	}
	// Tasks whose tag no longer exists.
	for tagID, group := range byTag {
		fmt.Fprintf(out, "(missing tag %d)\n", tagID)
		for _, t := range group {
			printTask(t, 0)
		}
	}
}

func taskIDs(tasks []models.Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.TaskID
	}
	return ids
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func newTaskEditCmd(a *app) *cobra.Command {
	var (
		content string
		start   string
		due     string
		tagRef  string
	)
	cmd := &cobra.Command{
		Use:   "edit TASK_ID",
		Short: "Change a task's content, dates or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, _, err := ownedTask(ctx, store, userID, id); err != nil {
				return err
			}

			now := time.Now()
			var upd db.TaskUpdate
			if cmd.Flags().Changed("content") {
				upd.Content = &content
			}
			if start != "" {
				t, err := parser.ParseDate(start, now)
				if err != nil {
					return fmt.Errorf("invalid start date: %w", err)
				}
				t = t.UTC()
				upd.StartDate = &t
			}
			if due != "" {
				t, err := parser.ParseDate(due, now)
				if err != nil {
					return fmt.Errorf("invalid due date: %w", err)
				}
				t = t.UTC()
				upd.EndDate = &t
			}
			if tagRef != "" {
				tag, err := resolveTag(ctx, store, userID, tagRef)
				if err != nil {
					return err
				}
				upd.TagID = &tag.TagID
			}
			if upd == (db.TaskUpdate{}) {
				return fmt.Errorf("nothing to change: use --content, --start, --due or --tag")
			}

			task, err := store.UpdateTask(ctx, id, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Task #%d updated: %s\n", task.TaskID, task.Content)
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().StringVar(&start, "start", "", "New start date")
	cmd.Flags().StringVar(&due, "due", "", "New due date")
	cmd.Flags().StringVarP(&tagRef, "tag", "t", "", "Move to this tag")
	return cmd
}

func newTaskMoveCmd(a *app) *cobra.Command {
	var (
		parent int64
		top    bool
	)
	cmd := &cobra.Command{
		Use:   "move TASK_ID (--parent ID | --top)",
		Short: "Make a task a subtask of another, or move it back to the top level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top == (parent != 0) {
				return fmt.Errorf("pass exactly one of --parent or --top")
			}
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, _, err := ownedTask(ctx, store, userID, id); err != nil {
				return err
			}
			var target *int64
			if !top {
				if _, _, err := ownedTask(ctx, store, userID, parent); err != nil {
					return err
				}
				target = &parent
			}
			task, err := store.SetParentTask(ctx, id, target)
			if err != nil {
				return err
			}
			if task.ParentTask == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Task #%d is now a top-level task\n", task.TaskID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Task #%d is now a subtask of #%d\n", task.TaskID, *task.ParentTask)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "New parent task id")
	cmd.Flags().BoolVar(&top, "top", false, "Detach from the current parent")
	return cmd
}

func newTaskArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "archive TASK_ID",
		Aliases: []string{"rm"},
		Short:   "Archive a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if _, _, err := ownedTask(cmd.Context(), store, userID, id); err != nil {
				return err
			}
			task, err := store.DeleteTask(cmd.Context(), userID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗃️  Archived task #%d: %s\n", task.TaskID, task.Content)
			return nil
		},
	}
}

func newTaskUnarchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive TASK_ID",
		Short: "Restore an archived task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if _, _, err := ownedTask(cmd.Context(), store, userID, id); err != nil {
				return err
			}
			task, err := store.UnarchiveTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📤 Unarchived task #%d: %s\n", task.TaskID, task.Content)
			return nil
		},
	}
}

func newTaskCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "check TASK_ID",
		Aliases: []string{"done"},
		Short:   "Check off a task and earn a point",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if _, _, err := ownedTask(cmd.Context(), store, userID, id); err != nil {
				return err
			}
			res, err := store.CheckTask(cmd.Context(), userID, id)
			if err != nil {
				return err
			}
			if res.Points == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Task #%d was already checked\n", id)
				return nil
			}
			total, err := store.TotalPoints(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Checked task #%d: %s (+1 point, %d total)\n", id, res.Task.Content, total)
			return nil
		},
	}
}

func newTaskUncheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "uncheck TASK_ID",
		Aliases: []string{"undone"},
		Short:   "Uncheck a task (points already earned are kept)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if _, _, err := ownedTask(cmd.Context(), store, userID, id); err != nil {
				return err
			}
			if _, err := store.UncheckTask(cmd.Context(), userID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "↩️  Unchecked task #%d\n", id)
			return nil
		},
	}
}

func newTaskReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder TASK_ID...",
		Short: "Set the display order of sibling tasks (listed ids become 1..n)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs("task", args)
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, _, err := ownedTask(cmd.Context(), store, userID, id); err != nil {
					return err
				}
			}
			if err := store.ReorderTasks(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Reordered %d task(s)\n", len(ids))
			return nil
		},
	}
}
