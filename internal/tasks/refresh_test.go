package tasks

import (
	"context"
	"testing"

	"github.com/desertthunder/alignx/internal/shared"
	tu "github.com/desertthunder/alignx/internal/testing"
)

func TestRefreshAll(t *testing.T) {
	tt := []struct {
		name      string
		opts      RefreshOpts
		total     int
		completed int
		failed    int
		errors    int
	}{
		{"non-terminal only", RefreshOpts{RateLimit: 1000}, 3, 1, 1, 1},
		{"all tasks", RefreshOpts{RateLimit: 1000, All: true, Workers: 2}, 4, 2, 1, 1},
		{"explicit ids", RefreshOpts{RateLimit: 1000, IDs: []string{"p1"}}, 1, 1, 0, 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.cache.UpsertTask(tu.AlignmentTask("done", "completed", ""))
			f.cache.UpsertTask(tu.AlignmentTask("p1", "pending", ""))
			f.cache.UpsertTask(tu.AlignmentTask("p2", "processing", ""))
			f.cache.UpsertTask(tu.AlignmentTask("p3", "pending", ""))
			f.api.Script("done", tu.AlignmentTask("done", "completed", ""))
			f.api.Script("p1", completedTask("p1", ""))
			f.api.Script("p2", tu.AlignmentTask("p2", "failed", ""))
			f.api.GetErrs["p3"] = shared.ErrAPIRequest
			progress := make(chan ProgressUpdate, 16)

			res, err := f.flow.RefreshAll(context.Background(), progress, tc.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.RunID == "" {
				t.Error("expected run id")
			}
			if res.Total != tc.total || res.Completed != tc.completed || res.Failed != tc.failed || res.Errors != tc.errors {
				t.Errorf("unexpected result %+v", res)
			}
			if len(res.Items) != tc.total {
				t.Errorf("expected %d items, got %d", tc.total, len(res.Items))
			}
			if len(drain(progress)) != tc.total {
				t.Error("expected one progress update per task")
			}

			task, _ := f.cache.Task("p1")
			if tc.total > 0 && task.StatusInfo().Normalized != "completed" {
				t.Errorf("expected p1 to be refreshed, got %q", task.Status)
			}
			if !tc.opts.All && f.api.Calls("done") != 0 {
				t.Error("expected terminal task not to be fetched")
			}
		})
	}

	t.Run("nothing to refresh", func(t *testing.T) {
		f := newFixture()
		f.cache.UpsertTask(tu.AlignmentTask("done", "completed", ""))

		res, err := f.flow.RefreshAll(context.Background(), nil, RefreshOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Total != 0 {
			t.Errorf("expected nothing to refresh, got %d", res.Total)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture()
		f.cache.UpsertTask(tu.AlignmentTask("p1", "pending", ""))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := f.flow.RefreshAll(ctx, nil, RefreshOpts{RateLimit: 1000})
		if err == nil {
			t.Fatal("expected context error")
		}
		if res.Errors != 1 {
			t.Errorf("expected the pending task to be reported as an error, got %+v", res)
		}
	})
}
