package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/server"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/desertthunder/alignx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// progress starts a goroutine that prints updates. The returned stop func closes the channel and waits for the
// printer to drain it.
func (r *Runner) progress() (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			switch update.Phase {
			case tasks.Submit:
				r.writePlain("📤 %s\n", update.Message)
			case tasks.Poll:
				r.writePlain("   %s\n", update.Message)
			case tasks.Refresh:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}

// AlignSubmit creates an alignment task and, unless --no-wait is set, polls it to completion.
func (r *Runner) AlignSubmit(ctx context.Context, cmd *cli.Command) error {
	audioURL := strings.TrimSpace(cmd.StringArg("url"))
	if audioURL == "" {
		return fmt.Errorf("%w: audio URL", shared.ErrMissingArgument)
	}

	flow := r.workflow()
	r.logger.Info("submitting alignment", "url", audioURL)

	if cmd.Bool("no-wait") {
		task, err := r.taskAPI.CreateTask(ctx, audioURL)
		if err != nil {
			return err
		}
		r.cache.UpsertTask(task)
		if cmd.Bool("json") {
			return r.writeJSON(server.NewAlignmentView(task), true)
		}
		r.writePlain("✓ Task created: %s\n", task.ID)
		return r.writePlain("Run 'alignx align check %s' to follow it\n", task.ID)
	}

	progress, stop := r.progress()
	task, err := flow.Submit(ctx, audioURL, progress)
	stop()

	if err != nil {
		if task != nil && errors.Is(err, shared.ErrTaskFailed) {
			r.writeTask(task)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(server.NewAlignmentView(task), true)
	}
	r.writePlainHeader("Alignment Complete!")
	return r.writeTask(task)
}

// AlignCheck fetches a task once. A task that has not finished is reported, not treated as an error.
func (r *Runner) AlignCheck(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	task, err := r.workflow().Check(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(server.NewAlignmentView(task), true)
	}
	return r.writeTask(task)
}

// AlignSync replaces the cached alignments and saved records with the most recent tasks.
func (r *Runner) AlignSync(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit <= 0 {
		limit = r.config.API.ListLimit
	}

	progress, stop := r.progress()
	n, err := r.workflow().Sync(ctx, limit, progress)
	stop()
	if err != nil {
		return err
	}
	return r.writePlain("✓ %d alignments cached\n", n)
}

// AlignList prints the ranked alignment projection, newest first.
func (r *Runner) AlignList(ctx context.Context, cmd *cli.Command) error {
	flow := r.workflow()
	if cmd.Bool("sync") {
		if _, err := flow.Sync(ctx, r.config.API.ListLimit, nil); err != nil {
			return err
		}
	}
	if _, err := r.loadAssets(ctx); err != nil {
		r.logger.Warn("assets not loaded", "error", err)
	}

	p := r.cache.RankedAlignments(cmd.String("selected"))
	if cmd.Bool("json") {
		return r.writeJSON(alignmentViews(p.Items), true)
	}
	if p.Empty() {
		return r.writePlain("No alignments yet. Run 'alignx align sync' or 'alignx align submit <url>'\n")
	}

	r.writePlainHeader(fmt.Sprintf("Alignments (%d)", len(p.Items)))
	for i, task := range p.Items {
		marker := " "
		if i == p.ActiveIndex {
			marker = ">"
		}
		r.writePlain("%s %s\n", marker, formatter.AlignmentLabel(task))
	}
	return nil
}

// AlignShow prints one alignment and the assets it matches.
func (r *Runner) AlignShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	flow := r.workflow()
	if _, err := r.loadAssets(ctx); err != nil {
		r.logger.Warn("assets not loaded", "error", err)
	}

	task, ok := r.cache.Task(id)
	if !ok {
		var err error
		if task, err = flow.Check(ctx, id); err != nil {
			return err
		}
	}

	related := r.cache.AssetsForTask(id, "")
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"alignment": server.NewAlignmentView(task),
			"assets":    related.Items,
		}, true)
	}

	if err := r.writeTask(task); err != nil {
		return err
	}
	if related.Empty() {
		return r.writePlainln("No matching assets")
	}
	r.writePlainln("Matching assets (%d):", len(related.Items))
	for _, a := range related.Items {
		r.writePlain("  %s\n", formatter.AssetLabel(a))
	}
	return nil
}

// AlignRefresh re-checks cached tasks concurrently.
func (r *Runner) AlignRefresh(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.RefreshOpts{
		Workers:   cmd.Int("workers"),
		RateLimit: cmd.Float("rate"),
		All:       cmd.Bool("all"),
	}
	if opts.Workers <= 0 {
		opts.Workers = r.config.Refresh.Workers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = r.config.Refresh.RateLimit
	}

	progress, stop := r.progress()
	result, err := r.workflow().RefreshAll(ctx, progress, opts)
	stop()
	if err != nil {
		return err
	}

	if result.Total == 0 {
		return r.writePlain("Nothing to refresh\n")
	}

	r.writePlainHeader("Refresh Complete!")
	r.writePlain("Checked: %d in %s\n", result.Total, result.Duration.Round(time.Millisecond))
	r.writePlain("Completed: %d  Failed: %d  Errors: %d\n", result.Completed, result.Failed, result.Errors)
	for _, item := range result.Items {
		if item.Err != nil {
			r.writePlain("  ✗ %s: %v\n", item.TaskID, item.Err)
		}
	}
	return nil
}

func (r *Runner) writeTask(task *models.Task) error {
	v := server.NewAlignmentView(task)
	r.writePlain("ID:      %s\n", v.ID)
	r.writePlain("Status:  %s\n", formatter.StatusLabel(v.Status))
	r.writePlain("Updated: %s\n", formatter.FormatTimestamp(v.Timestamp))
	if v.AudioURL != "" {
		r.writePlain("Audio:   %s\n", v.AudioURL)
	}
	if v.ValidSrc != "" {
		r.writePlain("Asset:   %s\n", formatter.ShortFilename(v.ValidSrc))
	}
	if v.JSONURL != "" {
		r.writePlain("JSON:    %s\n", v.JSONURL)
	}
	return nil
}

func alignmentViews(list []*models.Task) []server.AlignmentView {
	views := make([]server.AlignmentView, len(list))
	for i, t := range list {
		views[i] = server.NewAlignmentView(t)
	}
	return views
}
