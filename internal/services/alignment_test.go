package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/alignx/internal/shared"
)

func newAlignmentServer(t *testing.T, handler http.HandlerFunc) (*AlignmentService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAlignmentService(NewAPIService(server.URL, "key", nil)), server
}

func TestAlignmentService(t *testing.T) {
	t.Run("CreateTask", func(t *testing.T) {
		t.Run("Posts Alignment Target", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}

				body, _ := io.ReadAll(r.Body)
				var req struct {
					URL     string `json:"url"`
					Targets []struct {
						Model   string   `json:"model"`
						Formats []string `json:"formats"`
					} `json:"targets"`
				}
				if err := json.Unmarshal(body, &req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if req.URL != "https://cdn/song.mp3" {
					t.Errorf("unexpected url %q", req.URL)
				}
				if len(req.Targets) != 1 || req.Targets[0].Model != "alignment" || req.Targets[0].Formats[0] != "json" {
					t.Errorf("unexpected targets %+v", req.Targets)
				}

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"task-1","status":"pending","targets":[{"model":"alignment","status":"pending"}]}`))
			})

			task, err := svc.CreateTask(context.Background(), " https://cdn/song.mp3 ")
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			if task.ID != "task-1" || !task.IsAlignment() {
				t.Errorf("unexpected task %+v", task)
			}
		})

		t.Run("Surfaces Server Message", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"message":"url is not reachable"}`))
			})

			_, err := svc.CreateTask(context.Background(), "https://cdn/missing.mp3")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "url is not reachable") || !strings.Contains(err.Error(), "400") {
				t.Errorf("expected status and message in error, got %v", err)
			}
		})

		t.Run("Requires Key", func(t *testing.T) {
			svc := NewAlignmentService(NewAPIService("http://example.com", "", nil))
			if _, err := svc.CreateTask(context.Background(), "https://cdn/a.mp3"); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Requires URL", func(t *testing.T) {
			svc := NewAlignmentService(NewAPIService("http://example.com", "key", nil))
			if _, err := svc.CreateTask(context.Background(), "  "); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("GetTask", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/tasks/abc" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(`{"id":"abc","status":"completed","targets":[{"model":"alignment"}]}`))
			})

			task, err := svc.GetTask(context.Background(), "abc")
			if err != nil {
				t.Fatalf("GetTask failed: %v", err)
			}
			if !task.StatusInfo().IsCompleted() {
				t.Errorf("expected completed task, got %+v", task.StatusInfo())
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})
			if _, err := svc.GetTask(context.Background(), "nope"); !errors.Is(err, shared.ErrTaskNotFound) {
				t.Errorf("expected ErrTaskNotFound, got %v", err)
			}
		})

		t.Run("Rejected Key", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid api key"}`))
			})
			_, err := svc.GetTask(context.Background(), "abc")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("ListTasks", func(t *testing.T) {
		payloads := map[string]string{
			"tasks":   `{"tasks":[{"id":"a"},{"id":"b"}]}`,
			"data":    `{"data":[{"id":"a"},{"id":"b"}]}`,
			"results": `{"results":[{"id":"a"},{"id":"b"}]}`,
			"root":    `[{"id":"a"},{"id":"b"}]`,
		}

		for name, payload := range payloads {
			t.Run(name, func(t *testing.T) {
				svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Query().Get("limit") != "50" {
						t.Errorf("expected limit=50, got %q", r.URL.RawQuery)
					}
					w.Write([]byte(payload))
				})

				tasks, err := svc.ListTasks(context.Background(), 50)
				if err != nil {
					t.Fatalf("ListTasks failed: %v", err)
				}
				if len(tasks) != 2 {
					t.Errorf("expected 2 tasks, got %d", len(tasks))
				}
			})
		}

		t.Run("Server Error", func(t *testing.T) {
			svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("upstream exploded"))
			})
			_, err := svc.ListTasks(context.Background(), 0)
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "upstream exploded") {
				t.Errorf("expected ErrAPIRequest with body text, got %v", err)
			}
		})
	})

	t.Run("FetchTranscript", func(t *testing.T) {
		svc, server := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"lines":[{"words":[{"text":"hi","start":0,"end":0.4}]}]}`))
		})

		tr, err := svc.FetchTranscript(context.Background(), server.URL+"/out/alignment.json?sig=1")
		if err != nil {
			t.Fatalf("FetchTranscript failed: %v", err)
		}
		if tr.WordCount() != 1 {
			t.Errorf("expected 1 word, got %d", tr.WordCount())
		}
	})

	t.Run("Verify", func(t *testing.T) {
		svc, _ := newAlignmentServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("limit") != "1" {
				t.Errorf("expected limit=1, got %q", r.URL.RawQuery)
			}
			w.Write([]byte(`[]`))
		})
		if err := svc.Verify(context.Background()); err != nil {
			t.Errorf("Verify failed: %v", err)
		}
	})
}
