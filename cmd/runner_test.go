package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/repositories"
	"github.com/desertthunder/alignx/internal/services"
	"github.com/desertthunder/alignx/internal/shared"
	tu "github.com/desertthunder/alignx/internal/testing"
	"github.com/urfave/cli/v3"
)

const testJSONURL = "https://cdn.example.com/out/alignment.json"

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Polling.IntervalSeconds = 0.001
	config.Assets.Manifest = ""
	config.API.APIKey = ""
	return config
}

func completedTask(id, audioURL, updatedAt string) *models.Task {
	task := tu.AlignmentTask(id, "completed", audioURL)
	task.UpdatedAt = updatedAt
	task.Outputs = []models.Output{{Name: "alignment", Format: "json", Link: testJSONURL}}
	return task
}

type testRunner struct {
	*Runner
	mock     *tu.MockTaskAPI
	manifest *tu.MockAssetSource
	out      *bytes.Buffer
	conn     *sql.DB
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()
	api := tu.NewMockTaskAPI()
	assets := &tu.MockAssetSource{}
	out := &bytes.Buffer{}
	db := testDB(t)

	r := NewRunner(RunnerOpts{
		Config: testConfig(),
		Tasks:  api,
		Assets: assets,
		DB:     db,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: out,
	})
	return &testRunner{Runner: r, mock: api, manifest: assets, out: out, conn: db}
}

// run executes args against a fresh command tree built from the runner.
func (tr *testRunner) run(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "alignx", Commands: tr.register()}
	return app.Run(context.Background(), append([]string{"alignx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := testConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://example.com", "", httpClient)
			tasksAPI := tu.NewMockTaskAPI()
			assets := &tu.MockAssetSource{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
				Tasks:      tasksAPI,
				Assets:     assets,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.taskAPI != tasksAPI {
				t.Error("expected task API to be set")
			}
			if runner.assets != assets {
				t.Error("expected asset source to be set")
			}
			if runner.cache == nil {
				t.Error("expected cache to be created")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("builds services from config", func(t *testing.T) {
			config := testConfig()
			config.API.BaseURL = "http://api.test"
			config.API.APIKey = "k"
			config.Assets.Manifest = "./assets.json"

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.api.BaseURL() != "http://api.test" {
				t.Errorf("expected base URL from config, got %s", runner.api.BaseURL())
			}
			if !runner.api.HasKey() {
				t.Error("expected API key from config")
			}
			if _, ok := runner.taskAPI.(*services.AlignmentService); !ok {
				t.Errorf("expected AlignmentService, got %T", runner.taskAPI)
			}
			if _, ok := runner.assets.(*services.ManifestService); !ok {
				t.Errorf("expected ManifestService, got %T", runner.assets)
			}
		})

		t.Run("without manifest has no asset source", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: testConfig()})

			if runner.assets != nil {
				t.Errorf("expected no asset source, got %T", runner.assets)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with database wires repositories", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: testConfig(), DB: testDB(t)})

			if runner.records == nil || runner.settings == nil {
				t.Fatal("expected repositories to be created")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("expected Close to leave a borrowed database alone, got %v", err)
			}
			if runner.db == nil {
				t.Error("expected borrowed database to stay open")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("count: %d", 3); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\ncount: 3\n" {
				t.Errorf("expected wrapped line, got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "align", "assets", "records", "export", "api", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("workflow", func(t *testing.T) {
		t.Run("restores saved records on first use", func(t *testing.T) {
			tr := newTestRunner(t)
			repo := repositories.NewRecordRepository(tr.conn)
			rec := models.RecordFromTask(completedTask("saved-1", "https://cdn.example.com/a.mp3", "2025-01-01T00:00:00Z"), "")
			if err := repo.Put(rec); err != nil {
				t.Fatalf("failed to seed record: %v", err)
			}

			flow := tr.workflow()

			if flow != tr.workflow() {
				t.Error("expected workflow to be built once")
			}
			if _, ok := tr.cache.Task("saved-1"); !ok {
				t.Error("expected saved record to be restored into the cache")
			}
		})

		t.Run("uses saved API key when none is configured", func(t *testing.T) {
			tr := newTestRunner(t)
			settings := repositories.NewSettingsRepository(tr.conn)
			if err := settings.Set(repositories.SettingAPIKey, "saved-key"); err != nil {
				t.Fatalf("failed to seed key: %v", err)
			}

			tr.workflow()

			if !tr.Runner.api.HasKey() {
				t.Error("expected saved key to be applied")
			}
		})
	})
}
