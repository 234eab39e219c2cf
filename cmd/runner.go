package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/metrics"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/repositories"
	"github.com/desertthunder/pitchlog/internal/services"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/tasks"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and the taxonomy backend are opened on first use so commands that need neither start instantly.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	backend    taxonomy.Backend
	source     *taxonomy.WatchedSource
	metrics    *metrics.Manager
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB          // opened from the config when nil
	Backend    taxonomy.Backend // chosen by taxonomy.source when nil
	Metrics    *metrics.Manager
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewManager()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		backend:    opts.Backend,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, taxonomyCommand, eventsCommand, logCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured SQLite database and applies migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// taxonomyBackend resolves taxonomy.source to the local tables or the remote REST service.
func (r *Runner) taxonomyBackend(ctx context.Context) (taxonomy.Backend, error) {
	if r.backend != nil {
		return r.backend, nil
	}

	switch r.config.Taxonomy.Source {
	case "remote":
		remote := r.config.Remote
		if remote.BaseURL == "" {
			return nil, fmt.Errorf("%w: remote.base_url", shared.ErrMissingConfig)
		}
		r.logger.Debug("using remote taxonomy", "url", remote.BaseURL)
		r.backend = services.NewRESTBackend(services.NewKeyedAPIService(ctx, remote.BaseURL, remote.APIKey))
	default:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		r.backend = repositories.NewTaxonomyBackend(db)
	}
	return r.backend, nil
}

// taxonomySource wraps the backend with change notifications, polling at remote.poll_interval.
func (r *Runner) taxonomySource(ctx context.Context) (*taxonomy.WatchedSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	backend, err := r.taxonomyBackend(ctx)
	if err != nil {
		return nil, err
	}
	r.source = taxonomy.NewWatchedSource(backend, r.config.Remote.PollInterval.Duration, shared.WithLogger(r.logger, "component", "taxonomy"))
	return r.source, nil
}

// taxonomyStore builds a store over the watched source and reports every load to the metrics manager.
func (r *Runner) taxonomyStore(ctx context.Context) (*taxonomy.Store, error) {
	src, err := r.taxonomySource(ctx)
	if err != nil {
		return nil, err
	}

	store := taxonomy.NewStore(src,
		taxonomy.WithStoreLogger(shared.WithLogger(r.logger, "component", "store")),
		taxonomy.WithReloadRate(r.config.Taxonomy.ReloadsPerSec),
	)
	store.OnReload(r.metrics.ObserveReload)
	return store, nil
}

// engine builds the maintenance engine; writes go through the watched source so running watchers reload.
func (r *Runner) engine(ctx context.Context) (*tasks.Engine, error) {
	src, err := r.taxonomySource(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.NewEngine(src,
		tasks.WithEngineLogger(shared.WithLogger(r.logger, "component", "tasks")),
		tasks.WithRepairHook(r.metrics.RowRepaired),
		tasks.WithReservedKeys(r.reservedKeys()...),
	), nil
}

// reservedKeys are the wizard's save and cancel keys, with the TUI defaults when unset.
func (r *Runner) reservedKeys() []string {
	save, cancel := r.config.Wizard.SaveKeys, r.config.Wizard.CancelKeys
	if len(save) == 0 {
		save = []string{"enter", "b"}
	}
	if len(cancel) == 0 {
		cancel = []string{"esc"}
	}
	return append(slices.Clone(save), cancel...)
}

// eventLog opens the match log backed by the game_events table.
func (r *Runner) eventLog() (*session.EventLog, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return session.NewEventLog(repositories.NewEventRepository(db), shared.WithLogger(r.logger, "component", "events")), nil
}

// roster flattens the configured teams into players, deriving missing ids from team and number.
func (r *Runner) roster() []models.Player {
	var players []models.Player
	for _, team := range r.config.Roster.Teams {
		for _, p := range team.Players {
			id := p.ID
			if id == "" {
				id = fmt.Sprintf("%s-%d", team.Name, p.Number)
			}
			players = append(players, models.Player{ID: id, Name: p.Name, Number: p.Number, Team: team.Name})
		}
	}
	return players
}

// Close releases the database if the runner opened one.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
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

// printProgress writes progress updates until the channel closes, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		switch update.Phase {
		case tasks.FetchRows:
			r.writePlain("📥 %s\n", update.Message)
		default:
			r.writePlain("   %s\n", update.Message)
		}
	}
}
