package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/nts"
	"github.com/desertthunder/ntscat/internal/services"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	registry   *services.Registry
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	logFile    string
	closers    []io.Closer
	tuiOptions []tea.ProgramOption
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	TUIOptions []tea.ProgramOption // Extra bubbletea options for --tui runs
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		tuiOptions: opts.TUIOptions,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "ntscat",
		Usage:   "Catalog NTS show tracklists and enrich tracks with Spotify, Last.fm & MusicBrainz metadata",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		enrichCommand, showCommand, catalogCommand, sourcesCommand, runsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file and environment, then configures logging.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", configPath)
	}

	if err := shared.LoadEnv(); err != nil {
		r.logger.Warn("failed to load .env", "error", err)
	}
	r.config.ApplyEnv()

	r.logFile = cmd.String("log-file")
	if r.logFile == "" {
		r.logFile = r.config.Log.File
	}
	if r.logFile != "" {
		logger, closer, err := shared.NewFileLogger(os.Stderr, r.logFile)
		if err != nil {
			return ctx, err
		}
		r.closers = append(r.closers, closer)
		r.SetLogger(logger)
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	switch {
	case cmd.Bool("verbose"):
		level = log.DebugLevel
	case cmd.Bool("quiet"):
		level = log.WarnLevel
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// after releases log files opened by before.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	for _, c := range r.closers {
		c.Close()
	}
	r.closers = nil
	return nil
}

// SetLogger replaces the logger and drops sources built with the previous one.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.registry = nil
}

// sources returns the source registry, building it from the current config on first use.
func (r *Runner) sources() *services.Registry {
	if r.registry == nil {
		r.registry = services.NewRegistry(r.config, shared.NewCredentialStore(r.config), r.logger)
	}
	return r.registry
}

func (r *Runner) ntsClient() *nts.Client {
	return nts.NewClient(r.config.NTS, nts.WithHTTPClient(r.httpClient), nts.WithLogger(r.logger))
}

// openDatabase opens and migrates the sink database, honoring a --db override.
func (r *Runner) openDatabase(cmd *cli.Command) (*sql.DB, error) {
	cfg := r.config.Database
	if path := cmd.String("db"); path != "" {
		cfg.Path = path
	}
	r.logger.Debug("opening database", "path", cfg.Path)
	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
