package tasks

import (
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/alignx/internal/matching"
	"github.com/desertthunder/alignx/internal/models"
)

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	AllowedFormats []string              // Asset formats kept by ApplyAssets; nil means models.DefaultAssetFormats
	Matcher        matching.FuzzyMatcher // Used by AssetsForTask; zero value means matching.DefaultFuzzyMatcher
	Now            func() time.Time      // Clock used for asset expiry
}

// Reconciler owns the task cache and the asset cache and derives every projection from them.
//
// Tasks are kept in insertion order; an upsert of a known id replaces it in place. Every mutation re-runs the
// task/asset matcher over the whole task cache so derived fields stay consistent. All methods are safe for
// concurrent use; concurrent upserts of one id are last-write-wins.
type Reconciler struct {
	mu      sync.RWMutex
	tasks   []*models.Task
	assets  []models.Asset
	allowed []string
	matcher matching.FuzzyMatcher
	now     func() time.Time
}

// Snapshot is a copy of both caches.
type Snapshot struct {
	Tasks  []*models.Task
	Assets []models.Asset
}

// NewReconciler creates an empty Reconciler.
func NewReconciler(opts ReconcilerOpts) *Reconciler {
	if opts.Matcher == (matching.FuzzyMatcher{}) {
		opts.Matcher = matching.DefaultFuzzyMatcher()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{allowed: opts.AllowedFormats, matcher: opts.Matcher, now: opts.Now}
}

// UpsertTask admits, replaces or evicts a single task.
//
// A task without an alignment target is not admitted, and a cached task with the same id is evicted. It reports
// whether the task is cached afterwards.
func (r *Reconciler) UpsertTask(task *models.Task) bool {
	if task == nil || task.ID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(task.ID)
	if !task.IsAlignment() {
		if idx >= 0 {
			r.tasks = slices.Delete(r.tasks, idx, idx+1)
			r.rematch()
		}
		return false
	}

	c := task.Clone()
	if idx >= 0 {
		r.tasks[idx] = c
	} else {
		r.tasks = append(r.tasks, c)
	}
	r.rematch()
	return true
}

// ReplaceTasks replaces the whole task cache with the alignment tasks of the list and returns how many were kept.
//
// Later duplicates of an id replace earlier ones in place.
func (r *Reconciler) ReplaceTasks(list []*models.Task) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = r.tasks[:0:0]
	for _, task := range list {
		if task == nil || task.ID == "" || !task.IsAlignment() {
			continue
		}
		c := task.Clone()
		if idx := r.indexOf(task.ID); idx >= 0 {
			r.tasks[idx] = c
			continue
		}
		r.tasks = append(r.tasks, c)
	}
	r.rematch()
	return len(r.tasks)
}

// RemoveTask evicts a task and reports whether it was cached.
func (r *Reconciler) RemoveTask(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.tasks = slices.Delete(r.tasks, idx, idx+1)
	return true
}

// ApplyAssets replaces the asset cache wholesale with the filtered manifest and returns how many assets were kept.
func (r *Reconciler) ApplyAssets(assets []models.Asset) int {
	kept := models.FilterAssets(assets, r.now(), r.allowed)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.assets = kept
	if len(r.tasks) > 0 {
		r.rematch()
	}
	return len(kept)
}

// Task returns a copy of the cached task with the given id.
func (r *Reconciler) Task(id string) (*models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return r.tasks[idx].Clone(), true
}

// Tasks returns copies of the cached tasks in insertion order.
func (r *Reconciler) Tasks() []*models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneTasks(r.tasks)
}

// Assets returns the cached assets in manifest order.
func (r *Reconciler) Assets() []models.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.assets)
}

// Asset returns the cached asset with the given src.
func (r *Reconciler) Asset(src string) (models.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assets {
		if a.Src == src {
			return a, true
		}
	}
	return models.Asset{}, false
}

// Len returns the number of cached tasks and assets.
func (r *Reconciler) Len() (tasks, assets int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks), len(r.assets)
}

// Snapshot copies both caches.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Tasks: cloneTasks(r.tasks), Assets: slices.Clone(r.assets)}
}

// Restore replaces both caches with a snapshot. Assets are taken as-is; tasks go through admission.
func (r *Reconciler) Restore(s Snapshot) {
	r.mu.Lock()
	r.assets = slices.Clone(s.Assets)
	r.mu.Unlock()
	r.ReplaceTasks(s.Tasks)
}

// RankedAlignments lists cached tasks newest first.
//
// Tasks are ordered by [models.Task.Timestamp] descending; ties keep insertion order. previous is kept selected
// when it is still cached.
func (r *Reconciler) RankedAlignments(previous string) Projection[*models.Task] {
	r.mu.RLock()
	ranked := cloneTasks(r.tasks)
	r.mu.RUnlock()

	slices.SortStableFunc(ranked, func(a, b *models.Task) int {
		return b.Timestamp().Compare(a.Timestamp())
	})
	return project(ranked, TaskKey, previous)
}

// AlignmentsForAsset lists cached tasks that reference the asset.
//
// A task references the asset when any of its resolved audio URLs has exactly the asset's base name. Tasks keep
// insertion order.
func (r *Reconciler) AlignmentsForAsset(assetSrc, previous string) Projection[*models.Task] {
	name := matching.BaseNameFromURL(assetSrc)
	if name == "" {
		return project[*models.Task](nil, TaskKey, previous)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var related []*models.Task
	for _, task := range r.tasks {
		if slices.Contains(matching.ResolvedBaseNames(task), name) {
			related = append(related, task.Clone())
		}
	}
	return project(related, TaskKey, previous)
}

// AssetsForTask lists cached assets whose base name fuzzily matches any resolved audio base name of the task.
//
// An unknown task yields the empty projection. Assets keep manifest order.
func (r *Reconciler) AssetsForTask(taskID, previous string) Projection[models.Asset] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(taskID)
	if idx < 0 {
		return project[models.Asset](nil, AssetKey, previous)
	}
	names := matching.ResolvedBaseNames(r.tasks[idx])

	var related []models.Asset
	for _, a := range r.assets {
		base := matching.BaseNameFromURL(a.Src)
		if slices.ContainsFunc(names, func(n string) bool { return r.matcher.Equal(base, n) }) {
			related = append(related, a)
		}
	}
	return project(related, AssetKey, previous)
}

// AssetList projects the asset cache in manifest order.
func (r *Reconciler) AssetList(previous string) Projection[models.Asset] {
	return project(r.Assets(), AssetKey, previous)
}

func (r *Reconciler) indexOf(id string) int {
	return slices.IndexFunc(r.tasks, func(t *models.Task) bool { return t.ID == id })
}

// rematch must be called with the write lock held.
func (r *Reconciler) rematch() {
	matching.MatchTasksToAssets(r.tasks, r.assets)
}

func cloneTasks(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
