package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	serveradapter "github.com/evanschultz/taskflow/internal/adapters/server"
	"github.com/evanschultz/taskflow/internal/adapters/storage/sqlite"
	"github.com/evanschultz/taskflow/internal/apiclient"
	"github.com/evanschultz/taskflow/internal/app"
	"github.com/evanschultz/taskflow/internal/backend"
	"github.com/evanschultz/taskflow/internal/config"
	"github.com/evanschultz/taskflow/internal/domain"
	"github.com/evanschultz/taskflow/internal/platform"
	"github.com/evanschultz/taskflow/internal/tui"
)

var version = "dev"

// program is the subset of tea.Program the TUI command needs.
type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the reference service. Tests swap it out.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, fang.WithNotifySignal(os.Interrupt)); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, extra ...fang.Option) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	opts := append([]fang.Option{
		fang.WithVersion(version),
		fang.WithoutManpage(),
		fang.WithoutCompletions(),
	}, extra...)
	return fang.Execute(ctx, root, opts...)
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	apiURL     string
	output     string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	envOpts := platform.OptionsFromEnv(os.Getenv)
	opts := &globalOptions{
		appName: envOpts.AppName,
		devMode: version == "dev",
	}
	if opts.appName == "" {
		opts.appName = platform.DefaultAppName
	}
	if dev, ok := parseBoolEnv("TASKFLOW_DEV_MODE"); ok {
		opts.devMode = dev
	}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "A kanban board for tasks kept by a remote task service",
		Long: "taskflow opens a three-column board (To Do, In Progress, Done) backed by a remote task service.\n" +
			"Subcommands query the same service from scripts, or run the reference service locally.",
		Args: cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOutputFormat(opts.output)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts, stderr)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (serve)")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&opts.apiURL, "api-url", "", "task service base URL")
	flags.StringVarP(&opts.output, "output", "o", "json", "output format for one-shot commands: json or yaml")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newServeCommand(opts, stderr),
		newTasksCommand(opts, stdout, stderr),
		newCategoriesCommand(opts, stdout, stderr),
		newStatsCommand(opts, stdout, stderr),
	)
	return root
}

// runtimeEnv is the resolved state one command runs with.
type runtimeEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
}

func (e *runtimeEnv) Close(stderr io.Writer) {
	if err := e.logger.Close(); err != nil && e.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// setup resolves paths and config with flag > env > file > default
// precedence and opens the runtime logger.
func setup(opts *globalOptions, command string, stderr io.Writer) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TASKFLOW_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	cfg = config.ApplyEnv(cfg, os.Getenv)
	if db := strings.TrimSpace(opts.dbPath); db != "" {
		cfg.Database.Path = db
	}
	if base := strings.TrimSpace(opts.apiURL); base != "" {
		cfg.API.BaseURL = strings.TrimRight(base, "/")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	logger.Debug("configuration loaded", "api_base_url", cfg.API.BaseURL, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &runtimeEnv{paths: paths, configPath: configPath, cfg: cfg, logger: logger}, nil
}

// newClient builds the task-service client from resolved config.
func (e *runtimeEnv) newClient() (*apiclient.Client, error) {
	client, err := apiclient.New(e.cfg.API.BaseURL,
		apiclient.WithTimeout(e.cfg.API.Timeout.Std()),
		apiclient.WithUserAgent("taskflow/"+version),
	)
	if err != nil {
		return nil, fmt.Errorf("configure api client: %w", err)
	}
	return client, nil
}

func runTUI(opts *globalOptions, stderr io.Writer) error {
	env, err := setup(opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer env.Close(stderr)
	logger := env.logger

	logger.Info("command flow start", "command", "tui")
	client, err := env.newClient()
	if err != nil {
		return err
	}
	svc := app.NewService(client, logger)
	m := tui.NewModel(
		svc,
		app.NewStore(time.Now),
		tui.WithNotificationTTL(env.cfg.UI.NotificationTTL.Std()),
		tui.WithShowDescription(env.cfg.UI.ShowDescription),
		tui.WithPalette(env.cfg.ResolvedPalette(domain.Palette())),
	)
	logger.Info("starting tui program loop", "api_base_url", client.BaseURL())
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: opts.appName,
				DevMode: opts.devMode,
			})
			if err != nil {
				return err
			}
			configPath := paths.ConfigPath
			if opts.configPath != "" {
				configPath = opts.configPath
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference task service over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(opts, "serve", stderr)
			if err != nil {
				return err
			}
			defer env.Close(stderr)
			logger := env.logger

			serverCfg := serveradapter.Config{
				HTTPBind:      env.cfg.Server.HTTPBind,
				APIEndpoint:   env.cfg.Server.APIEndpoint,
				MCPEndpoint:   env.cfg.Server.MCPEndpoint,
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			flags := cmd.Flags()
			if flags.Changed("http") {
				serverCfg.HTTPBind = httpBind
			}
			if flags.Changed("api-endpoint") {
				serverCfg.APIEndpoint = apiEndpoint
			}
			if flags.Changed("mcp-endpoint") {
				serverCfg.MCPEndpoint = mcpEndpoint
			}

			logger.Info("command flow start", "command", "serve")
			logger.Info("opening sqlite repository", "db_path", env.cfg.Database.Path)
			if err := config.EnsureConfigDir(env.cfg.Database.Path); err != nil {
				return fmt.Errorf("create database dir: %w", err)
			}
			repo, err := sqlite.Open(env.cfg.Database.Path)
			if err != nil {
				logger.Error("sqlite open failed", "db_path", env.cfg.Database.Path, "err", err)
				return fmt.Errorf("open sqlite repository: %w", err)
			}
			defer func() {
				if closeErr := repo.Close(); closeErr != nil {
					logger.Warn("sqlite close failed", "db_path", env.cfg.Database.Path, "err", closeErr)
				}
			}()
			logger.Info("sqlite repository ready", "db_path", env.cfg.Database.Path, "migrations", "ensured")

			svc := backend.NewService(repo, uuid.NewString, time.Now)
			if err := svc.EnsureDefaultCategories(cmd.Context()); err != nil {
				logger.Error("seeding default categories failed", "err", err)
				return fmt.Errorf("seed default categories: %w", err)
			}

			if err := serveCommandRunner(cmd.Context(), serverCfg, serveradapter.Dependencies{
				Service: svc,
				Ready:   repo,
				Logger:  logger,
			}); err != nil {
				logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config server.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

// parseBoolEnv reads a boolean env var. ok is false when it is unset or not
// a boolean literal.
func parseBoolEnv(name string) (value bool, ok bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
