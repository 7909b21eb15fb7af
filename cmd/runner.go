package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topgenres/internal/auth"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/services"
	"github.com/desertthunder/topgenres/internal/session"
	"github.com/desertthunder/topgenres/internal/shared"
	"github.com/desertthunder/topgenres/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The credential medium and the Spotify client are built lazily from config so that
// commands like setup work before a client id is configured.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	client     services.ListeningData
	profiler   services.Profiler
	kv         store.KeyValue
	closer     io.Closer
	navigate   session.Navigator
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Client     services.ListeningData
	Profiler   services.Profiler
	Store      store.KeyValue
	Navigator  session.Navigator
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Navigator == nil {
		opts.Navigator = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		client:     opts.Client,
		profiler:   opts.Profiler,
		kv:         opts.Store,
		navigate:   opts.Navigator,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, genresCommand, statusCommand, disconnectCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config named by --config unless one was injected, and applies --debug.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config != nil && !cmd.IsSet("config") {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config, err := shared.LoadOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("config loaded", "path", r.configPath, "backend", config.Store.Backend)
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the credential medium, if one was opened.
func (r *Runner) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// credentials opens the configured key-value medium on first use.
func (r *Runner) credentials(ctx context.Context) (*store.CredentialStore, error) {
	if r.kv == nil {
		kv, closer, err := store.Open(ctx, r.cfg())
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		r.kv, r.closer = kv, closer
	}

	return store.NewCredentialStore(r.kv,
		store.WithKey(r.cfg().Store.Key),
		store.WithClock(r.now),
		store.WithLogger(r.logger),
	), nil
}

func (r *Runner) spotify() *services.SpotifyClient {
	return services.NewSpotifyClientFromConfig(r.cfg().Spotify, r.logger)
}

func (r *Runner) listening() services.ListeningData {
	if r.client == nil {
		r.client = r.spotify()
	}
	return r.client
}

func (r *Runner) profiles() services.Profiler {
	if r.profiler == nil {
		r.profiler = r.spotify()
	}
	return r.profiler
}

func (r *Runner) codec() *auth.Codec {
	codec := auth.NewCodec(r.cfg().Credentials.Spotify)
	codec.Now = r.now
	return codec
}

// controller builds a session controller over the configured store and client.
// A nil aggregate uses [genres.Aggregate].
func (r *Runner) controller(ctx context.Context, nav session.Navigator, aggregate func([]models.Artist) models.GenreTable) (*session.Controller, error) {
	creds, err := r.credentials(ctx)
	if err != nil {
		return nil, err
	}

	return session.New(session.Options{
		Store:     creds,
		Client:    r.listening(),
		Codec:     r.codec(),
		Navigator: nav,
		Logger:    r.logger,
		Aggregate: aggregate,
		Now:       r.now,
	}), nil
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

// sessionError converts a settled non-Ready state into a command error.
func sessionError(state session.State) error {
	switch state.Status {
	case session.Disconnected:
		return fmt.Errorf("%w: run 'topgenres connect' first", shared.ErrNotAuthenticated)
	case session.Failed:
		return errors.New(state.Message)
	default:
		return nil
	}
}
