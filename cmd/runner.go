package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/alignx/internal/matching"
	"github.com/desertthunder/alignx/internal/repositories"
	"github.com/desertthunder/alignx/internal/services"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/desertthunder/alignx/internal/tasks"
	"github.com/urfave/cli/v3"
)

var _ tasks.TaskAPI = (*services.AlignmentService)(nil)
var _ tasks.AssetSource = (*services.ManifestService)(nil)
var _ tasks.RecordStore = (*repositories.RecordRepository)(nil)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, the record store and the workflow are opened on first use so that commands which never touch
// them (api, auth status with a configured key) work without a writable database.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	taskAPI    tasks.TaskAPI
	assets     tasks.AssetSource
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	ownsDB   bool
	records  tasks.RecordStore
	settings *repositories.SettingsRepository
	cache    *tasks.Reconciler
	flow     *tasks.Workflow
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Tasks      tasks.TaskAPI     // Defaults to an AlignmentService over API
	Assets     tasks.AssetSource // Defaults to a ManifestService over the configured manifest
	DB         *sql.DB           // An already migrated database; opened from config when nil
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.Config.API.APIKey, opts.HTTPClient)
	}
	if opts.Tasks == nil {
		opts.Tasks = services.NewAlignmentService(opts.API)
	}
	if opts.Assets == nil && opts.Config.Assets.Manifest != "" {
		opts.Assets = services.NewManifestService(opts.Config.Assets.Manifest, opts.HTTPClient)
	}

	cache := tasks.NewReconciler(tasks.ReconcilerOpts{
		AllowedFormats: opts.Config.Assets.AllowedFormats,
		Matcher: matching.FuzzyMatcher{
			MinSharedTokens:     opts.Config.Matching.MinSharedTokens,
			MinFirstTokenShared: opts.Config.Matching.MinFirstTokenShared,
		},
	})

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		taskAPI:    opts.Tasks,
		assets:     opts.Assets,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		cache:      cache,
	}
	if opts.DB != nil {
		r.useDB(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, alignCommand, assetsCommand, recordsCommand, exportCommand, apiCommand, serveCommand,
		tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and any workflow built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database when the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) useDB(db *sql.DB) {
	r.db = db
	r.records = repositories.NewRecordRepository(db)
	r.settings = repositories.NewSettingsRepository(db)
}

// openDB opens and migrates the configured database once.
func (r *Runner) openDB() error {
	if r.db != nil {
		return nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	r.ownsDB = true
	r.useDB(db)
	return nil
}

// resolveKey falls back to the key stored by `auth login` when neither the config nor the environment set one.
func (r *Runner) resolveKey() {
	if r.api.HasKey() || r.settings == nil {
		return
	}
	key, ok, err := r.settings.Get(repositories.SettingAPIKey)
	if err != nil {
		r.logger.Warn("could not read stored API key", "error", err)
		return
	}
	if ok {
		r.api.SetKey(key)
	}
}

// workflow returns the task workflow, opening the database and restoring persisted records into an empty cache
// on first use.
//
// A database that cannot be opened is logged and the workflow runs without persistence.
func (r *Runner) workflow() *tasks.Workflow {
	if r.flow != nil {
		return r.flow
	}

	if err := r.openDB(); err != nil {
		r.logger.Warn("running without alignment records", "error", err)
	}
	r.resolveKey()

	opts := tasks.WorkflowOpts{
		Assets: r.assets,
		Poll: tasks.PollOpts{
			Interval:    r.config.Polling.Interval(),
			Increment:   r.config.Polling.Increment,
			Ceiling:     r.config.Polling.Ceiling,
			MaxAttempts: r.config.Polling.MaxAttempts,
		},
		Logger: shared.WithLogger(r.logger, "component", "workflow"),
	}
	if r.records != nil {
		opts.Records = r.records
	}
	r.flow = tasks.NewWorkflow(r.taskAPI, r.cache, opts)

	if cached, _ := r.cache.Len(); cached > 0 {
		return r.flow
	}
	if n, err := r.flow.Restore(); err != nil {
		r.logger.Warn("could not restore alignment records", "error", err)
	} else if n > 0 {
		r.logger.Debug("restored alignments from records", "count", n)
	}
	return r.flow
}

// loadAssets applies the manifest to the cache. A missing manifest is not an error.
func (r *Runner) loadAssets(ctx context.Context) (int, error) {
	n, err := r.workflow().LoadAssets(ctx, nil)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Debug("no asset manifest configured")
		return 0, nil
	}
	return n, err
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
