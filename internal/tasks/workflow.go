package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/alignx/internal/matching"
	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
)

// TaskAPI is the remote alignment API.
type TaskAPI interface {
	TaskGetter
	CreateTask(ctx context.Context, audioURL string) (*models.Task, error)
	ListTasks(ctx context.Context, limit int) ([]*models.Task, error)
	FetchTranscript(ctx context.Context, url string) (*models.Transcript, error)
}

// AssetSource provides the demo asset manifest.
type AssetSource interface {
	FetchManifest(ctx context.Context) ([]models.Asset, error)
}

// RecordStore persists alignment records keyed by task id.
type RecordStore interface {
	GetAll() ([]models.AlignmentRecord, error)
	Put(rec models.AlignmentRecord) error
	Clear() error
}

// recordReplacer is implemented by stores that can swap every record atomically.
type recordReplacer interface {
	ReplaceAll(records []models.AlignmentRecord) error
}

// WorkflowOpts configures a [Workflow]. Assets and Records are optional.
type WorkflowOpts struct {
	Assets  AssetSource
	Records RecordStore
	Poll    PollOpts
	Logger  *log.Logger
}

// Workflow runs the user-facing task operations against the API and keeps the [Reconciler] and the record store
// in step with the results.
type Workflow struct {
	api     TaskAPI
	cache   *Reconciler
	assets  AssetSource
	records RecordStore
	poller  *Poller
	logger  *log.Logger
}

// NewWorkflow creates a Workflow.
func NewWorkflow(api TaskAPI, cache *Reconciler, opts WorkflowOpts) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Workflow{
		api:     api,
		cache:   cache,
		assets:  opts.Assets,
		records: opts.Records,
		poller:  NewPoller(api, opts.Poll),
		logger:  logger,
	}
}

// Cache returns the reconciler the workflow writes to.
func (w *Workflow) Cache() *Reconciler {
	return w.cache
}

// Submit creates an alignment task for audioURL and polls it to a terminal status.
//
// The final task is cached and recorded. A failed task is returned together with [shared.ErrTaskFailed]. A
// completed task that carries no alignment target yields [shared.ErrNoAlignmentTarget].
func (w *Workflow) Submit(ctx context.Context, audioURL string, progress chan<- ProgressUpdate) (*models.Task, error) {
	if audioURL == "" {
		return nil, fmt.Errorf("%w: audio URL", shared.ErrMissingArgument)
	}

	sendProgress(progress, submitUpdate(audioURL))
	created, err := w.api.CreateTask(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, fmt.Errorf("%w: create response has no task id", shared.ErrAPIRequest)
	}
	w.logger.Debug("task created", "id", created.ID, "url", audioURL)
	sendProgress(progress, submittedUpdate(created))
	w.cache.UpsertTask(created)

	task, err := w.poller.Poll(ctx, created.ID, progress)
	if task != nil {
		w.store(task, audioURL)
	}
	if err != nil {
		return task, err
	}
	if !task.IsAlignment() {
		return task, fmt.Errorf("%w: %s", shared.ErrNoAlignmentTarget, task.ID)
	}

	if cached, ok := w.cache.Task(task.ID); ok {
		return cached, nil
	}
	return task, nil
}

// Check fetches a task once and stores the result. A task that is still running is not an error.
func (w *Workflow) Check(ctx context.Context, id string) (*models.Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	task, err := w.api.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.store(task, "") {
		return task, fmt.Errorf("%w: %s", shared.ErrNoAlignmentTarget, id)
	}
	if cached, ok := w.cache.Task(id); ok {
		return cached, nil
	}
	return task, nil
}

// Sync lists recent tasks, replaces the task cache with the alignment tasks among them and replaces the persisted
// records to match. It returns the number of cached tasks.
func (w *Workflow) Sync(ctx context.Context, limit int, progress chan<- ProgressUpdate) (int, error) {
	sendProgress(progress, syncUpdate(1, 3, "Fetching recent tasks..."))
	list, err := w.api.ListTasks(ctx, limit)
	if err != nil {
		return 0, err
	}

	n := w.cache.ReplaceTasks(list)
	sendProgress(progress, syncUpdate(2, 3, fmt.Sprintf("Cached %d of %d tasks", n, len(list))))
	w.logger.Debug("tasks synced", "listed", len(list), "cached", n)

	if w.records != nil {
		tasks := w.cache.Tasks()
		records := make([]models.AlignmentRecord, len(tasks))
		for i, t := range tasks {
			records[i] = models.RecordFromTask(t, "")
		}
		if err := w.replaceRecords(records); err != nil {
			return n, fmt.Errorf("tasks synced but records were not saved: %w", err)
		}
	}
	sendProgress(progress, syncUpdate(3, 3, fmt.Sprintf("Synced %d alignments", n)))
	return n, nil
}

// LoadAssets fetches the manifest and applies it to the asset cache. It returns the number of kept assets.
func (w *Workflow) LoadAssets(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	if w.assets == nil {
		return 0, fmt.Errorf("%w: asset manifest", shared.ErrMissingConfig)
	}

	assets, err := w.assets.FetchManifest(ctx)
	if err != nil {
		return 0, err
	}
	kept := w.cache.ApplyAssets(assets)
	sendProgress(progress, assetsUpdate(kept, len(assets)))
	w.logger.Debug("assets loaded", "manifest", len(assets), "kept", kept)
	return kept, nil
}

// Restore fills the task cache from persisted records so alignments can be listed offline.
func (w *Workflow) Restore() (int, error) {
	if w.records == nil {
		return 0, nil
	}
	records, err := w.records.GetAll()
	if err != nil {
		return 0, err
	}
	tasks := make([]*models.Task, len(records))
	for i, rec := range records {
		tasks[i] = rec.Task()
	}
	return w.cache.ReplaceTasks(tasks), nil
}

// Playback is a loaded alignment ready to preview.
type Playback struct {
	Task       *models.Task
	Transcript *models.Transcript
	JSONURL    string
	AudioURL   string
}

// Load resolves a task's alignment output and fetches the transcript.
//
// The task is taken from the cache, or fetched and cached when unknown. Audio is chosen from the matched asset,
// the task's own audio URL and typedURL, in that order. When none is playable the playback is still returned,
// together with [shared.ErrNoPlayableAudio].
func (w *Workflow) Load(ctx context.Context, id, typedURL string, progress chan<- ProgressUpdate) (*Playback, error) {
	task, ok := w.cache.Task(id)
	if !ok {
		fetched, err := w.api.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		w.cache.UpsertTask(fetched)
		if task, ok = w.cache.Task(id); !ok {
			task = fetched
		}
	}

	out := models.FindAlignmentOutput(task, nil)
	if out == nil || out.Location() == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoAlignmentOutput, id)
	}

	jsonURL := out.Location()
	sendProgress(progress, transcriptUpdate(task, jsonURL))
	transcript, err := w.api.FetchTranscript(ctx, jsonURL)
	if err != nil {
		return nil, err
	}

	pb := &Playback{Task: task, Transcript: transcript, JSONURL: jsonURL}
	audio, ok := matching.ChoosePlayableAudio(task.ValidSrc, task.AudioURL(), typedURL)
	if !ok {
		return pb, fmt.Errorf("%w: %s", shared.ErrNoPlayableAudio, id)
	}
	pb.AudioURL = audio
	return pb, nil
}

// store caches a task and, when admitted, persists its record. Record failures are logged, not returned.
func (w *Workflow) store(task *models.Task, sourceURL string) bool {
	if !w.cache.UpsertTask(task) {
		return false
	}
	if w.records == nil {
		return true
	}

	cached, ok := w.cache.Task(task.ID)
	if !ok {
		cached = task
	}
	if err := w.records.Put(models.RecordFromTask(cached, sourceURL)); err != nil {
		w.logger.Warn("could not save alignment record", "id", task.ID, "error", err)
	}
	return true
}

func (w *Workflow) replaceRecords(records []models.AlignmentRecord) error {
	if r, ok := w.records.(recordReplacer); ok {
		return r.ReplaceAll(records)
	}
	if err := w.records.Clear(); err != nil {
		return err
	}
	var errs []error
	for _, rec := range records {
		errs = append(errs, w.records.Put(rec))
	}
	return errors.Join(errs...)
}
