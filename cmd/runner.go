package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifetch/internal/repositories"
	"github.com/desertthunder/spotifetch/internal/services"
	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	defaultConfigPath = "config.toml"
	defaultEnvFile    = ".env"
	defaultTUILog     = "./tmp/spotifetch-tui.log"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Config and client are resolved in the root Before hook unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	client     services.Client
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "spotifetch",
		Usage:   "Fetch, export and snapshot Spotify playlists",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with CLIENT_ID and CLIENT_SECRET",
				Value: defaultEnvFile,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
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
		setupCommand, authCommand, playlistCommand, apiCommand, snapshotCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads configuration, applies the environment and log level, then builds the Spotify client.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		config, err := shared.LoadOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if err := r.config.ApplyEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if level != "" {
		if err := shared.SetLogLevelString(r.logger, level); err != nil {
			return ctx, err
		}
	}

	if r.client == nil && r.config.Credentials.Spotify.HasCredentials() {
		r.client = services.NewSpotifyClientFromConfig(r.config.Credentials.Spotify, services.WithLogger(r.logger))
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// requireClient returns the Spotify client or [shared.ErrMissingCredentials].
func (r *Runner) requireClient() (services.Client, error) {
	if r.client == nil {
		return nil, fmt.Errorf("%w: set %s and %s or [credentials.spotify] in %s",
			shared.ErrMissingCredentials, shared.EnvClientID, shared.EnvClientSecret, r.configPath)
	}
	return r.client, nil
}

// snapshots opens the snapshot database on first use.
func (r *Runner) snapshots() (*repositories.SnapshotRepository, error) {
	if r.db == nil {
		r.logger.Debug("opening snapshot database", "path", r.config.Database.Path)
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot database: %w", err)
		}
		r.db = db
	}
	return repositories.NewSnapshotRepository(r.db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
