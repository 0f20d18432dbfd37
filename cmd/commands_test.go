package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/repositories"
	"github.com/desertthunder/alignx/internal/server"
	"github.com/desertthunder/alignx/internal/services"
	"github.com/desertthunder/alignx/internal/shared"
	tu "github.com/desertthunder/alignx/internal/testing"
)

func testTranscript() *models.Transcript {
	return &models.Transcript{Lines: []models.Line{
		{Words: []models.Word{{Text: "hello", Start: 0.5, End: 1}, {Text: "world", Start: 1, End: 1.5}}},
		{Words: []models.Word{{Text: "again", Start: 2, End: 2.5}}},
	}}
}

func TestAlignCommands(t *testing.T) {
	t.Run("submit polls and saves a record", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Created = tu.AlignmentTask("t1", "processing", "https://cdn.example.com/song.mp3")
		tr.mock.Script("t1",
			tu.AlignmentTask("t1", "processing", "https://cdn.example.com/song.mp3"),
			completedTask("t1", "https://cdn.example.com/song.mp3", "2025-03-01T10:00:00Z"),
		)

		if err := tr.run(t, "align", "submit", "https://cdn.example.com/song.mp3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := tr.out.String()
		if !strings.Contains(out, "Alignment Complete!") {
			t.Errorf("expected completion header, got %q", out)
		}
		if !strings.Contains(out, testJSONURL) {
			t.Errorf("expected JSON URL in output, got %q", out)
		}

		rec, err := repositories.NewRecordRepository(tr.conn).Get("t1")
		if err != nil {
			t.Fatalf("expected record, got %v", err)
		}
		if rec.SourceURL != "https://cdn.example.com/song.mp3" {
			t.Errorf("expected submitted URL as source, got %s", rec.SourceURL)
		}
		if rec.JSONURL != testJSONURL {
			t.Errorf("expected JSON URL %s, got %s", testJSONURL, rec.JSONURL)
		}
	})

	t.Run("submit without URL", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "align", "submit")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if tr.mock.CreateCalls != 0 {
			t.Errorf("expected no create call, got %d", tr.mock.CreateCalls)
		}
	})

	t.Run("submit reports a failed task", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Created = tu.AlignmentTask("t2", "processing", "https://cdn.example.com/bad.mp3")
		tr.mock.Script("t2", tu.AlignmentTask("t2", "failed", "https://cdn.example.com/bad.mp3"))

		err := tr.run(t, "align", "submit", "https://cdn.example.com/bad.mp3")
		if !errors.Is(err, shared.ErrTaskFailed) {
			t.Fatalf("expected ErrTaskFailed, got %v", err)
		}
		if !strings.Contains(tr.out.String(), "Failed") {
			t.Errorf("expected failed status in output, got %q", tr.out.String())
		}
	})

	t.Run("submit without waiting", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Created = tu.AlignmentTask("t3", "pending", "https://cdn.example.com/song.mp3")

		if err := tr.run(t, "align", "submit", "--no-wait", "https://cdn.example.com/song.mp3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tr.mock.Calls("t3") != 0 {
			t.Errorf("expected no polling, got %d calls", tr.mock.Calls("t3"))
		}
		if !strings.Contains(tr.out.String(), "Task created: t3") {
			t.Errorf("expected created message, got %q", tr.out.String())
		}
	})

	t.Run("check rejects a task without alignment target", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Script("sep", &models.Task{ID: "sep", Status: "completed", Targets: []models.Target{{Model: "separation"}}})

		err := tr.run(t, "align", "check", "sep")
		if !errors.Is(err, shared.ErrNoAlignmentTarget) {
			t.Errorf("expected ErrNoAlignmentTarget, got %v", err)
		}
		if _, ok := tr.cache.Task("sep"); ok {
			t.Error("expected task to stay out of the cache")
		}
	})

	t.Run("check prints a running task", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Script("t4", tu.AlignmentTask("t4", "processing", "https://cdn.example.com/song.mp3"))

		if err := tr.run(t, "align", "check", "t4"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(tr.out.String(), "Processing") {
			t.Errorf("expected status label, got %q", tr.out.String())
		}
	})

	t.Run("sync then list newest first", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.List = []*models.Task{
			completedTask("old", "https://cdn.example.com/old.mp3", "2025-01-01T00:00:00Z"),
			completedTask("new", "https://cdn.example.com/new.mp3", "2025-06-01T00:00:00Z"),
			{ID: "sep", Targets: []models.Target{{Model: "separation"}}},
		}

		if err := tr.run(t, "align", "sync", "--limit", "5"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if !strings.Contains(tr.out.String(), "2 alignments cached") {
			t.Errorf("expected cached count, got %q", tr.out.String())
		}
		if got := tr.mock.ListLimits; len(got) != 1 || got[0] != 5 {
			t.Errorf("expected list limit 5, got %v", got)
		}

		tr.out.Reset()
		if err := tr.run(t, "align", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}

		var views []server.AlignmentView
		if err := json.Unmarshal(tr.out.Bytes(), &views); err != nil {
			t.Fatalf("expected JSON output, got %v: %s", err, tr.out.String())
		}
		if len(views) != 2 || views[0].ID != "new" || views[1].ID != "old" {
			t.Errorf("expected [new old], got %+v", views)
		}

		count, err := repositories.NewRecordRepository(tr.conn).Count()
		if err != nil || count != 2 {
			t.Errorf("expected 2 saved records, got %d (%v)", count, err)
		}
	})

	t.Run("list marks the selected alignment", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.cache.ReplaceTasks([]*models.Task{
			completedTask("a", "https://cdn.example.com/a.mp3", "2025-01-01T00:00:00Z"),
			completedTask("b", "https://cdn.example.com/b.mp3", "2025-02-01T00:00:00Z"),
		})

		if err := tr.run(t, "align", "list", "--selected", "a"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(tr.out.String(), "> a.mp3") {
			t.Errorf("expected selected marker on a, got %q", tr.out.String())
		}
	})

	t.Run("list with nothing cached", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run(t, "align", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(tr.out.String(), "No alignments yet") {
			t.Errorf("expected empty message, got %q", tr.out.String())
		}
	})

	t.Run("show lists matching assets", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.manifest.Assets = []models.Asset{
			{Src: "https://demo.example.com/foo_master.mp3", Title: "Foo", Format: "audio/mpeg"},
			{Src: "https://demo.example.com/other.mp3", Title: "Other", Format: "audio/mpeg"},
		}
		tr.cache.UpsertTask(completedTask("t5", "https://cdn.example.com/foo-master.mp3", "2025-01-01T00:00:00Z"))

		if err := tr.run(t, "align", "show", "t5"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		out := tr.out.String()
		if !strings.Contains(out, "Matching assets (1)") || !strings.Contains(out, "Foo") {
			t.Errorf("expected fuzzy asset match, got %q", out)
		}
		if strings.Contains(out, "Other") {
			t.Errorf("expected unrelated asset to be excluded, got %q", out)
		}
	})

	t.Run("refresh re-checks unfinished tasks", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.cache.ReplaceTasks([]*models.Task{
			tu.AlignmentTask("run", "processing", "https://cdn.example.com/a.mp3"),
			completedTask("done", "https://cdn.example.com/b.mp3", "2025-01-01T00:00:00Z"),
		})
		tr.mock.Script("run", completedTask("run", "https://cdn.example.com/a.mp3", "2025-02-01T00:00:00Z"))

		if err := tr.run(t, "align", "refresh", "--rate", "100"); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if tr.mock.Calls("done") != 0 {
			t.Error("expected finished task to be skipped")
		}
		if !strings.Contains(tr.out.String(), "Completed: 1") {
			t.Errorf("expected completed count, got %q", tr.out.String())
		}
		task, _ := tr.cache.Task("run")
		if !task.StatusInfo().IsCompleted() {
			t.Errorf("expected cached task to be completed, got %s", task.StatusInfo().Raw)
		}
	})
}

func TestAssetCommands(t *testing.T) {
	assets := []models.Asset{
		{Src: "https://demo.example.com/song.mp3", Title: "Song", Format: "audio/mpeg"},
		{Src: "https://demo.example.com/clip.mov", Title: "Clip", Format: "video/quicktime"},
		{Src: "https://demo.example.com/old.mp3", Title: "Old", Format: "audio/mpeg", Expiry: "2000-01-01T00:00:00Z"},
	}

	t.Run("load counts playable assets", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.manifest.Assets = assets

		if err := tr.run(t, "assets", "load"); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !strings.Contains(tr.out.String(), "1 playable assets") {
			t.Errorf("expected one playable asset, got %q", tr.out.String())
		}
	})

	t.Run("load without manifest", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.assets = nil

		err := tr.run(t, "assets", "load")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("list as JSON", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.manifest.Assets = assets

		if err := tr.run(t, "assets", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var got []models.Asset
		if err := json.Unmarshal(tr.out.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Song" {
			t.Errorf("expected only Song, got %+v", got)
		}
	})

	t.Run("related finds alignments by base name", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.manifest.Assets = assets
		tr.cache.ReplaceTasks([]*models.Task{
			completedTask("match", "https://cdn.example.com/uploads/song.mp3?sig=1", "2025-01-01T00:00:00Z"),
			completedTask("miss", "https://cdn.example.com/uploads/songs.mp3", "2025-01-01T00:00:00Z"),
		})

		if err := tr.run(t, "assets", "related", "https://demo.example.com/song.mp3"); err != nil {
			t.Fatalf("related failed: %v", err)
		}
		out := tr.out.String()
		if !strings.Contains(out, "match") {
			t.Errorf("expected matching alignment, got %q", out)
		}
		if strings.Contains(out, "miss") {
			t.Errorf("expected exact base name match only, got %q", out)
		}
	})

	t.Run("related with unknown asset", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.manifest.Assets = assets

		err := tr.run(t, "assets", "related", "https://demo.example.com/nope.mp3")
		if !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})
}

func TestRecordCommands(t *testing.T) {
	seed := func(t *testing.T, tr *testRunner) {
		t.Helper()
		repo := repositories.NewRecordRepository(tr.conn)
		for _, task := range []*models.Task{
			completedTask("r1", "https://cdn.example.com/first.mp3", "2025-01-01T00:00:00Z"),
			completedTask("r2", "https://cdn.example.com/second.mp3", "2025-02-01T00:00:00Z"),
		} {
			if err := repo.Put(models.RecordFromTask(task, "")); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}
		}
	}

	t.Run("list", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		if err := tr.run(t, "records", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		out := tr.out.String()
		if strings.Index(out, "r2") > strings.Index(out, "r1") {
			t.Errorf("expected most recent first, got %q", out)
		}
	})

	t.Run("export markdown to stdout", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		if err := tr.run(t, "records", "export", "--format", "md"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		out := tr.out.String()
		if !strings.Contains(out, "**Records**: 2") || !strings.Contains(out, "`r1`") {
			t.Errorf("expected markdown table, got %q", out)
		}
	})

	t.Run("export csv to file", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)
		path := filepath.Join(t.TempDir(), "records.csv")

		if err := tr.run(t, "records", "export", "--output", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "Task ID,Status,Timestamp") {
			t.Errorf("expected CSV header, got %q", content)
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "records", "export", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		if err := tr.run(t, "records", "clear"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		count, err := repositories.NewRecordRepository(tr.conn).Count()
		if err != nil || count != 0 {
			t.Errorf("expected no records, got %d (%v)", count, err)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("writes an LRC file", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Script("t1", completedTask("t1", "https://cdn.example.com/song.mp3", "2025-01-01T00:00:00Z"))
		tr.mock.Transcripts[testJSONURL] = testTranscript()
		path := filepath.Join(t.TempDir(), "t1.lrc")

		if err := tr.run(t, "export", "--output", path, "t1"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "[00:00.50]hello world") {
			t.Errorf("expected timed first line, got %q", content)
		}
		if !strings.Contains(tr.out.String(), "2 lines (3 words)") {
			t.Errorf("expected summary, got %q", tr.out.String())
		}
	})

	t.Run("task without output", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mock.Script("t2", tu.AlignmentTask("t2", "processing", "https://cdn.example.com/song.mp3"))

		err := tr.run(t, "export", "t2")
		if !errors.Is(err, shared.ErrNoAlignmentOutput) {
			t.Errorf("expected ErrNoAlignmentOutput, got %v", err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores the key", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run(t, "auth", "login", "--key", "secret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		key, ok, err := repositories.NewSettingsRepository(tr.conn).Get(repositories.SettingAPIKey)
		if err != nil || !ok || key != "secret" {
			t.Errorf("expected saved key, got %q ok=%v err=%v", key, ok, err)
		}
		if !tr.Runner.api.HasKey() {
			t.Error("expected key to be applied to the client")
		}
	})

	t.Run("login reads a cURL file", func(t *testing.T) {
		tr := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "curl.sh")
		curl := "curl 'https://api.example.com/tasks' \\\n  -H 'x-api-key: from-curl'\n"
		if err := os.WriteFile(path, []byte(curl), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := tr.run(t, "auth", "login", "--curl-file", path); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		key, _, _ := repositories.NewSettingsRepository(tr.conn).Get(repositories.SettingAPIKey)
		if key != "from-curl" {
			t.Errorf("expected key from cURL, got %q", key)
		}
	})

	t.Run("login without key", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "auth", "login")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("status without key", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run(t, "auth", "status")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("logout removes the key", func(t *testing.T) {
		tr := newTestRunner(t)
		settings := repositories.NewSettingsRepository(tr.conn)
		settings.Set(repositories.SettingAPIKey, "secret")

		if err := tr.run(t, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, ok, _ := settings.Get(repositories.SettingAPIKey); ok {
			t.Error("expected key to be removed")
		}
	})
}

func TestAPICommands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(services.HeaderAPIKey) != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/tasks":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"tasks":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/tasks":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"new"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("missing"))
		}
	}))
	defer srv.Close()

	newRunner := func(t *testing.T) (*Runner, *bytes.Buffer) {
		config := testConfig()
		config.API.BaseURL = srv.URL
		config.API.APIKey = "k"
		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: config, DB: testDB(t), Output: out, Logger: shared.NewLogger(&bytes.Buffer{})})
		return r, out
	}

	t.Run("get prints compact JSON", func(t *testing.T) {
		r, out := newRunner(t)
		tr := &testRunner{Runner: r, out: out}

		if err := tr.run(t, "api", "get", "--json", "/tasks"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if strings.TrimSpace(out.String()) != `{"tasks":[]}` {
			t.Errorf("expected compact body, got %q", out.String())
		}
	})

	t.Run("get surfaces error status", func(t *testing.T) {
		r, _ := newRunner(t)
		tr := &testRunner{Runner: r}

		err := tr.run(t, "api", "get", "/nope")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post validates JSON", func(t *testing.T) {
		r, _ := newRunner(t)
		tr := &testRunner{Runner: r}

		err := tr.run(t, "api", "post", "--data", "{bad", "/tasks")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("post sends body", func(t *testing.T) {
		r, out := newRunner(t)
		tr := &testRunner{Runner: r, out: out}

		if err := tr.run(t, "api", "post", "--data", `{"url":"x"}`, "/tasks"); err != nil {
			t.Fatalf("post failed: %v", err)
		}
		if !strings.Contains(out.String(), `"id": "new"`) {
			t.Errorf("expected pretty response, got %q", out.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("database creates config and schema", func(t *testing.T) {
		dir := t.TempDir()
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		t.Cleanup(func() { os.Chdir(wd) })
		configPath := filepath.Join(dir, "config.toml")

		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: testConfig(), Output: out, Logger: shared.NewLogger(&bytes.Buffer{})})
		tr := &testRunner{Runner: r, out: out}

		if err := tr.run(t, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		tu.AssertFileExists(t, configPath)
		tu.AssertFileExists(t, filepath.Join(dir, "alignx.db"))
	})

	t.Run("status lists applied migrations", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run(t, "setup", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		out := tr.out.String()
		if !strings.Contains(out, "create_alignment_records") || strings.Contains(out, "pending") {
			t.Errorf("expected applied migrations, got %q", out)
		}
	})
}
