package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
	"github.com/balkashynov/samwise/internal/tui"
)

func newTagCmd(a *app) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	tagCmd.AddCommand(
		newTagAddCmd(a),
		newTagListCmd(a),
		newTagEditCmd(a),
		newTagFocusCmd(a),
		newTagArchiveCmd(a),
		newTagUnarchiveCmd(a),
		newTagReorderCmd(a),
	)
	return tagCmd
}

func newTagAddCmd(a *app) *cobra.Command {
	var (
		color   string
		order   int
		noFocus bool
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Long: `Create a tag for the acting user.

New tags are in focus unless --no-focus is given, and are placed after
the user's existing tags unless --order is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := models.NewTag(userID, strings.TrimPrefix(args[0], "#"), color, order, models.WithInFocus(!noFocus))
			if err != nil {
				return err
			}
			tag, err = store.AddTag(cmd.Context(), tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ New tag %s added - ID: %d\n", renderTag(tag), tag.TagID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&color, "color", "c", tui.DefaultTagColor, "Display color (#rrggbb or ANSI number)")
	cmd.Flags().IntVar(&order, "order", 0, "Display position (default: last)")
	cmd.Flags().BoolVar(&noFocus, "no-focus", false, "Create the tag out of focus")
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tags",
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
			tags, err := store.ListTags(cmd.Context(), userID, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tags) == 0 {
				fmt.Fprintln(out, "No tags found. Use 'samwise tag add NAME' to create your first tag.")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-6s %-6s %-9s %s\n", "ID", "ORDER", "FOCUS", "STATE", "NAME")
			fmt.Fprintln(out, strings.Repeat("-", 50))
			for i := range tags {
				tag := &tags[i]
				focus := "-"
				if tag.InFocus {
					focus = "●"
				}
				fmt.Fprintf(out, "%-5d %-6d %-6s %-9s %s\n", tag.TagID, tag.Order, focus, tag.State(), renderTag(tag))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "active", "Filter by state: active, archived, all")
	return cmd
}

func newTagEditCmd(a *app) *cobra.Command {
	var (
		name  string
		color string
		order int
	)
	cmd := &cobra.Command{
		Use:   "edit TAG",
		Short: "Rename, recolor or move a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := resolveTag(cmd.Context(), store, userID, args[0])
			if err != nil {
				return err
			}
			var upd db.TagUpdate
			if cmd.Flags().Changed("name") {
				upd.TagName = &name
			}
			if cmd.Flags().Changed("color") {
				upd.Color = &color
			}
			if cmd.Flags().Changed("order") {
				upd.Order = &order
			}
			if upd == (db.TagUpdate{}) {
				return fmt.Errorf("nothing to change: use --name, --color or --order")
			}
			tag, err = store.UpdateTag(cmd.Context(), tag.TagID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Tag %d updated: %s\n", tag.TagID, renderTag(tag))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&color, "color", "c", "", "New color")
	cmd.Flags().IntVar(&order, "order", 0, "New display position")
	return cmd
}

func newTagFocusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "focus TAG [on|off]",
		Short: "Toggle or set whether a tag is in focus",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := resolveTag(cmd.Context(), store, userID, args[0])
			if err != nil {
				return err
			}
			inFocus := !tag.InFocus
			if len(args) == 2 {
				switch strings.ToLower(args[1]) {
				case "on", "true", "yes":
					inFocus = true
				case "off", "false", "no":
					inFocus = false
				default:
					return fmt.Errorf("invalid focus value '%s': use on or off", args[1])
				}
			}
			tag, err = store.SetTagFocus(cmd.Context(), tag.TagID, inFocus)
			if err != nil {
				return err
			}
			if tag.InFocus {
				fmt.Fprintf(cmd.OutOrStdout(), "🎯 %s is in focus\n", renderTag(tag))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "💤 %s is out of focus\n", renderTag(tag))
			}
			return nil
		},
	}
}

func newTagArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "archive TAG",
		Aliases: []string{"rm"},
		Short:   "Archive a tag and its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := resolveTag(cmd.Context(), store, userID, args[0])
			if err != nil {
				return err
			}
			tag, err = store.DeleteTag(cmd.Context(), userID, tag.TagID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗃️  Archived tag #%d: %s\n", tag.TagID, tag.TagName)
			return nil
		},
	}
}

func newTagUnarchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unarchive TAG",
		Short: "Restore an archived tag (its tasks stay archived)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			tag, err := resolveTag(cmd.Context(), store, userID, args[0])
			if err != nil {
				return err
			}
			tag, err = store.UnarchiveTag(cmd.Context(), tag.TagID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📤 Unarchived tag #%d: %s\n", tag.TagID, tag.TagName)
			return nil
		},
	}
}

func newTagReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder TAG_ID...",
		Short: "Set the display order of tags (listed ids become 1..n)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs("tag", args)
			if err != nil {
				return err
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if err := store.ReorderTags(cmd.Context(), userID, ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Reordered %d tag(s)\n", len(ids))
			return nil
		},
	}
}

func renderTag(tag *models.Tag) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(tag.Color)).
		Render("#" + tag.TagName)
}
