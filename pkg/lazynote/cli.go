package lazynote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/WYI1223/LazyLife/pkg/service"
	"github.com/WYI1223/LazyLife/pkg/store"
)

// Version is reported by the version command.
const Version = "0.2.0"

// Main is the entry point of the lazynote command. It can be called directly from tests;
// cancelling ctx stops a running server.
func Main(ctx context.Context, args []string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type globalOptions struct {
	configPath string
	dbDriver   string
	dbDSN      string
	logLevel   string
	logDir     string
}

// config loads the configuration and applies the flags given on the command line.
func (o *globalOptions) config() (*Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbDriver != "" {
		cfg.Storage.Driver = o.dbDriver
	}
	if o.dbDSN != "" {
		cfg.Storage.DSN = o.dbDSN
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logDir != "" {
		cfg.Log.Dir = o.logDir
	}
	return cfg, nil
}

// withApp creates the application, optionally opens the repositories, and runs fn.
func withApp(ctx context.Context, cfg *Config, open bool, fn func(*App) error) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	if open {
		if err := app.Open(ctx); err != nil {
			return err
		}
	}
	return fn(app)
}

func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "lazynote",
		Short:        "Local-first notes, tasks and events",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.dbDriver, "db-driver", "", "database driver: sqlite or postgres")
	flags.StringVar(&opts.dbDSN, "db-dsn", "", "database connection string or SQLite file")
	flags.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn or error")
	flags.StringVar(&opts.logDir, "log-dir", "", "absolute directory for session log files")

	root.AddCommand(
		newMigrateCommand(opts),
		newServeCommand(opts),
		newInboxCommand(opts),
		newTodayCommand(opts),
		newUpcomingCommand(opts),
		newCalendarCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), cfg, false, func(app *App) error {
				if err := app.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		addr     string
		readOnly bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("read-only") {
				cfg.ReadOnly = readOnly
			}
			return withApp(cmd.Context(), cfg, true, func(app *App) error {
				return app.Run(cmd.Context(), cfg.Server.Addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, e.g. :8080")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "reject every write")
	return cmd
}

type sectionFlags struct {
	limit  int
	offset int
}

func (f *sectionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "limit", 50, "maximum number of items")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "number of items to skip")
}

func (f *sectionFlags) page() store.Page {
	return store.Page{Limit: f.limit, Offset: f.offset}
}

// sectionCommand prints the section returned by fetch as JSON.
func sectionCommand(opts *globalOptions, use, short string, fetch func(context.Context, *service.TaskService, store.Page) ([]service.SectionAtom, error)) *cobra.Command {
	var flags sectionFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), cfg, true, func(app *App) error {
				items, err := fetch(cmd.Context(), app.tasks, flags.page())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newInboxCommand(opts *globalOptions) *cobra.Command {
	return sectionCommand(opts, "inbox", "List unscheduled open atoms",
		func(ctx context.Context, tasks *service.TaskService, page store.Page) ([]service.SectionAtom, error) {
			return tasks.FetchInbox(ctx, page)
		})
}

func newTodayCommand(opts *globalOptions) *cobra.Command {
	return sectionCommand(opts, "today", "List open atoms due or running today",
		func(ctx context.Context, tasks *service.TaskService, page store.Page) ([]service.SectionAtom, error) {
			return tasks.FetchToday(ctx, localDay(time.Now()), page)
		})
}

func newUpcomingCommand(opts *globalOptions) *cobra.Command {
	return sectionCommand(opts, "upcoming", "List open atoms scheduled after today",
		func(ctx context.Context, tasks *service.TaskService, page store.Page) ([]service.SectionAtom, error) {
			return tasks.FetchUpcoming(ctx, localDay(time.Now()).EndOfDay, page)
		})
}

func newCalendarCommand(opts *globalOptions) *cobra.Command {
	var days int
	cmd := sectionCommand(opts, "calendar", "List events overlapping the next days, starting today",
		func(ctx context.Context, tasks *service.TaskService, page store.Page) ([]service.SectionAtom, error) {
			start := localDay(time.Now()).BeginOfDay
			end := time.UnixMilli(start).AddDate(0, 0, max(days, 1)).UnixMilli()
			return tasks.FetchByTimeRange(ctx, start, end, page)
		})
	cmd.Flags().IntVar(&days, "days", 7, "number of days to cover")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of lazynote",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lazynote version %s\n", Version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
