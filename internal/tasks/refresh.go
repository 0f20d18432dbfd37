package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
	"golang.org/x/time/rate"
)

// RefreshOpts contains configuration for bulk status re-checks.
type RefreshOpts struct {
	Workers   int     // Concurrent workers (default: 4, max: 10)
	RateLimit float64 // Requests per second (default: 2)
	All       bool    // Re-check terminal tasks too
	IDs       []string
}

// RefreshItem is the outcome of re-checking one task.
type RefreshItem struct {
	TaskID   string
	Status   models.StatusInfo
	Admitted bool
	Err      error
}

// RefreshResult summarizes a bulk re-check.
type RefreshResult struct {
	RunID     string
	Total     int
	Updated   int
	Completed int
	Failed    int
	Errors    int
	Duration  time.Duration
	Items     []RefreshItem
}

// RefreshAll re-checks cached tasks concurrently with rate limiting and progress tracking.
//
// By default only tasks whose status is not terminal are fetched. Each fetched task goes through the same
// cache-and-record path as [Workflow.Check]. Individual failures are collected in the result; only a cancelled
// context aborts the run.
func (w *Workflow) RefreshAll(ctx context.Context, progress chan<- ProgressUpdate, opts RefreshOpts) (*RefreshResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	ids := opts.IDs
	if len(ids) == 0 {
		for _, t := range w.cache.Tasks() {
			if opts.All || !t.StatusInfo().IsTerminal() {
				ids = append(ids, t.ID)
			}
		}
	}

	start := time.Now()
	result := &RefreshResult{RunID: shared.GenerateID(), Total: len(ids), Items: make([]RefreshItem, 0, len(ids))}
	if len(ids) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan string, len(ids))
	results := make(chan RefreshItem, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go w.refreshWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		result.Items = append(result.Items, res)
		switch {
		case res.Err != nil:
			result.Errors++
		case res.Status.IsCompleted():
			result.Updated++
			result.Completed++
		case res.Status.IsFailed():
			result.Updated++
			result.Failed++
		default:
			result.Updated++
		}
		sendProgress(progress, refreshUpdate(done, len(ids), res))
	}
	result.Duration = time.Since(start)

	w.logger.Debug("refresh finished", "run", result.RunID, "total", result.Total, "errors", result.Errors)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// refreshWorker re-checks task ids from the jobs channel.
func (w *Workflow) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan string,
	results chan<- RefreshItem,
) {
	defer wg.Done()

	for id := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- RefreshItem{TaskID: id, Err: err}
			continue
		}

		task, err := w.api.GetTask(ctx, id)
		if err != nil {
			results <- RefreshItem{TaskID: id, Err: fmt.Errorf("failed to fetch task: %w", err)}
			continue
		}
		results <- RefreshItem{TaskID: id, Status: task.StatusInfo(), Admitted: w.store(task, "")}
	}
}
