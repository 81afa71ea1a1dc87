package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/balkashynov/samwise/internal/config"
	"github.com/balkashynov/samwise/internal/db"
	"github.com/balkashynov/samwise/internal/logger"
	"github.com/balkashynov/samwise/internal/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what every command needs. The store is opened lazily so that
// commands like version never touch the database.
type app struct {
	loadConfig func() (*config.Config, error)

	cfg    *config.Config
	log    zerolog.Logger
	store  *db.Store
	userID string
}

func newApp(load func() (*config.Config, error)) *app {
	return &app{loadConfig: load, log: zerolog.Nop()}
}

func (a *app) init() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New("samwise", cfg.LogLevel, cfg.LogFormat)
	return nil
}

// db returns the open store, opening it on first use.
func (a *app) db() (*db.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.init(); err != nil {
		return nil, err
	}
	store, err := db.Open(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = store
	return store, nil
}

// user resolves the acting user from --user or SAMWISE_USER.
func (a *app) user() (string, error) {
	if a.userID != "" {
		return a.userID, nil
	}
	if err := a.init(); err != nil {
		return "", err
	}
	if a.cfg.User == "" {
		return "", errors.New("no acting user: pass --user or set SAMWISE_USER")
	}
	return a.cfg.User, nil
}

// session opens the store and resolves the acting user in one go.
func (a *app) session() (*db.Store, string, error) {
	store, err := a.db()
	if err != nil {
		return nil, "", err
	}
	userID, err := a.user()
	if err != nil {
		return nil, "", err
	}
	return store, userID, nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close database")
	}
	a.store = nil
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "samwise",
		Short: "A personal task and tag tracker",
		Long: `samwise keeps your tasks grouped under tags, lets you focus on a few tags
at a time, and rewards every checked task with a point.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.userID, "user", "u", "", "Acting user id (default $SAMWISE_USER)")

	rootCmd.AddCommand(newUserCmd(a))
	rootCmd.AddCommand(newTagCmd(a))
	rootCmd.AddCommand(newTaskCmd(a))
	rootCmd.AddCommand(newLogCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newPointsCmd(a))
	rootCmd.AddCommand(newBoardCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	a := newApp(config.New)
	defer a.close()

	err := newRootCmd(a).ExecuteContext(ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("command failed")
	}
	return err
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, s)
	}
	return id, nil
}

func parseIDs(kind string, args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveTag finds one of the user's tags by id or case-insensitive name.
func resolveTag(ctx context.Context, store *db.Store, userID, ref string) (*models.Tag, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		tag, err := store.GetTag(ctx, id)
		if err != nil {
			return nil, err
		}
		if tag.UserID != userID {
			return nil, fmt.Errorf("tag %d: %w", id, models.ErrNotFound)
		}
		return tag, nil
	}
	tags, err := store.ListTags(ctx, userID, models.AnyState)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(ref, "#")
	for i := range tags {
		if strings.EqualFold(tags[i].TagName, name) {
			return &tags[i], nil
		}
	}
	return nil, fmt.Errorf("tag %q: %w", name, models.ErrNotFound)
}

// ownedTask loads a task and checks that its tag belongs to the user.
func ownedTask(ctx context.Context, store *db.Store, userID string, id int64) (*models.Task, *models.Tag, error) {
	task, err := store.GetTask(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tag, err := store.GetTag(ctx, task.TagID)
	if err != nil && !db.IsNotFound(err) {
		return nil, nil, err
	}
	if tag == nil || tag.UserID != userID {
		return nil, nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return task, tag, nil
}
