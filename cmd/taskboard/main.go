package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/taskboard/internal/backend"
	"github.com/DaDevFox/task-systems/taskboard/internal/config"
	"github.com/DaDevFox/task-systems/taskboard/internal/domain"
	"github.com/DaDevFox/task-systems/taskboard/internal/events"
	"github.com/DaDevFox/task-systems/taskboard/internal/idresolver"
	"github.com/DaDevFox/task-systems/taskboard/internal/logging"
	"github.com/DaDevFox/task-systems/taskboard/internal/store"
)

// skipStoreAnnotation marks commands that run without opening the task store
const skipStoreAnnotation = "taskboard/skip-store"

// app holds the state shared by all commands of one invocation
type app struct {
	configPath  string
	backendFlag string
	logLevel    string

	cfg      *config.Config
	logger   *logrus.Logger
	bus      *events.PubSub
	repo     *store.Repository
	resolver *idresolver.Resolver
	closer   io.Closer

	// pick chooses a task interactively when no ID argument is given
	pick func(tasks []domain.Task) (domain.Task, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{pick: fuzzyPick}
	err := newRootCommand(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Personal task board",
		Long:          "Create, edit, filter and sort tasks kept in a local store or a remote task API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if cmd.Annotations[skipStoreAnnotation] == "true" {
				return nil
			}
			return a.openStore(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/taskboard/config.toml)")
	rootCmd.PersistentFlags().StringVar(&a.backendFlag, "backend", "", "Storage backend: local or remote (overrides config)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(newAddCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newShowCommand(a))
	rootCmd.AddCommand(newEditCommand(a))
	rootCmd.AddCommand(newDeleteCommand(a))
	rootCmd.AddCommand(newDoneCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.backendFlag != "" {
		cfg.Backend = config.BackendKind(a.backendFlag)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if a.logger == nil {
		logging.SetLevel(cfg.Log.Level)
		logging.SetFormatter(cfg.Log.Format)
		a.logger = logging.Logger
	}
	a.cfg = cfg
	return nil
}

// openStore builds the repository and loads the collection. A load that fails
// at the storage layer leaves the board empty; the command still runs so the
// user can retry or overwrite the stored collection.
func (a *app) openStore(cmd *cobra.Command) error {
	b, closer, err := backend.New(a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.closer = closer

	a.bus = events.NewPubSub(a.logger)
	a.bus.Subscribe(events.EventStorageFailed, func(_ context.Context, event events.Event) error {
		a.logger.WithFields(logrus.Fields{
			"op":      event.Op,
			"backend": a.cfg.Backend,
		}).Debug("storage failure reported")
		return nil
	})

	a.repo = store.New(b, store.WithLogger(a.logger), store.WithEvents(a.bus))
	if err := a.repo.Load(cmd.Context()); err != nil {
		if !store.IsDataAccess(err) {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		a.logger.WithError(err).WithField("backend", a.cfg.Backend).Warn("continuing with an empty task list")
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load tasks, starting with an empty board: %v\n", err)
	}
	a.resolver = idresolver.New(a.repo.Tasks())
	return nil
}

func (a *app) close() error {
	if a.bus != nil {
		a.bus.Wait()
	}
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// refreshResolver reindexes IDs after the collection changed
func (a *app) refreshResolver() {
	a.resolver.Update(a.repo.Tasks())
}

// maxSuggestions caps the IDs offered when a prefix matches nothing
const maxSuggestions = 3

// similarIDs drops trailing characters from prefix until some IDs match
func (a *app) similarIDs(prefix string) []string {
	runes := []rune(prefix)
	for n := len(runes) - 1; n > 0; n-- {
		if similar := a.resolver.Suggest(string(runes[:n]), maxSuggestions); len(similar) > 0 {
			return similar
		}
	}
	return nil
}

// selectTask resolves args[0] as an ID prefix, or picks interactively from
// candidates when no argument was given.
func (a *app) selectTask(args []string, candidates []domain.Task) (domain.Task, error) {
	if len(args) > 0 {
		task, err := a.resolver.Task(args[0])
		if errors.Is(err, idresolver.ErrNoMatch) {
			if similar := a.similarIDs(args[0]); len(similar) > 0 {
				return domain.Task{}, fmt.Errorf("%w (did you mean %s?)", err, strings.Join(similar, ", "))
			}
		}
		return task, err
	}
	if len(candidates) == 0 {
		return domain.Task{}, fmt.Errorf("no tasks to choose from")
	}
	if a.pick == nil {
		return domain.Task{}, fmt.Errorf("a task ID is required")
	}

	task, err := a.pick(candidates)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task selection failed: %w", err)
	}
	return task, nil
}
