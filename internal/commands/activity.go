package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/models"
	"github.com/balkashynov/samwise/internal/parser"
	"github.com/balkashynov/samwise/internal/tui"
)

func newLogCmd(a *app) *cobra.Command {
	var (
		types []string
		since string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the action log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := db.ActionQuery{Limit: limit}
			for _, t := range types {
				at, err := models.ParseActionType(t)
				if err != nil {
					return err
				}
				q.Types = append(q.Types, at)
			}
			if since != "" {
				t, err := sinceDate(since)
				if err != nil {
					return err
				}
				q.Since = t
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			q.UserID = userID
			actions, err := store.ListActions(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(actions) == 0 {
				fmt.Fprintln(out, "No actions recorded.")
				return nil
			}
			for _, act := range actions {
				extra := ""
				if len(act.ExtraData) > 0 {
					b, err := json.Marshal(act.ExtraData)
					if err != nil {
						return err
					}
					extra = string(b)
				}
				fmt.Fprintf(out, "%-5d %s  %-8s %s\n",
					act.ActionID, act.TimeCreated.Local().Format("02/01/2006 15:04:05"), act.Action, extra)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only these action types: check, uncheck, add, delete")
	cmd.Flags().StringVar(&since, "since", "", "Only actions since this many hours/days/weeks ago (e.g. 7days)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count actions per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var from time.Time
			if since != "" {
				t, err := sinceDate(since)
				if err != nil {
					return err
				}
				from = t
			}
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			stats, err := store.ActionStats(cmd.Context(), userID, from)
			if err != nil {
				return err
			}
			total, err := store.TotalPoints(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, at := range models.ActionTypes {
				fmt.Fprintf(out, "%-8s %d\n", at, stats[at])
			}
			fmt.Fprintf(out, "%-8s %d\n", "points", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only count actions since this many hours/days/weeks ago")
	return cmd
}

func newPointsCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Show earned points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			total, err := store.TotalPoints(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "⭐ %d point(s)\n", total)
			if !verbose {
				return nil
			}
			points, err := store.ListPoints(cmd.Context(), userID)
			if err != nil {
				return err
			}
			for _, p := range points {
				fmt.Fprintf(out, "  #%-5d action %-5d %s\n", p.PointID, p.ActionID, p.TimeCreated.Local().Format("02/01/2006 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every point with the action that earned it")
	return cmd
}

func newBoardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive focus board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			if _, err := store.GetUser(cmd.Context(), userID); err != nil {
				return err
			}
			return tui.RunBoard(cmd.Context(), store, userID)
		},
	}
}

// sinceDate turns a relative span like "7days" into the instant that long ago.
func sinceDate(span string) (time.Time, error) {
	now := time.Now()
	ahead, err := parser.ParseDate(span, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since: %w", err)
	}
	if !ahead.After(now) {
		return time.Time{}, fmt.Errorf("invalid --since '%s': use a span like 24hours or 7days", span)
	}
	return now.Add(-ahead.Sub(now)).UTC(), nil
}
