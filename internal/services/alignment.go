package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
)

// AlignmentService talks to the tasks endpoints of the alignment API.
type AlignmentService struct {
	api *APIService
}

// NewAlignmentService creates a new AlignmentService on top of api.
func NewAlignmentService(api *APIService) *AlignmentService {
	return &AlignmentService{api: api}
}

// Name returns the service name.
func (s *AlignmentService) Name() string {
	return "AudioShake Alignment"
}

type createTaskTarget struct {
	Model   string   `json:"model"`
	Formats []string `json:"formats"`
}

type createTaskRequest struct {
	URL     string             `json:"url"`
	Targets []createTaskTarget `json:"targets"`
}

func (s *AlignmentService) requireKey() error {
	if !s.api.HasKey() {
		return fmt.Errorf("%w: set an API key with `alignx auth login`", shared.ErrNotAuthenticated)
	}
	return nil
}

func (s *AlignmentService) decodeTask(resp *APIResponse, id string) (*models.Task, error) {
	if resp.StatusCode == http.StatusNotFound && id != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, statusError(resp))
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}
	return models.ParseTask(resp.Body)
}

// CreateTask submits audioURL for alignment with JSON output.
func (s *AlignmentService) CreateTask(ctx context.Context, audioURL string) (*models.Task, error) {
	if err := s.requireKey(); err != nil {
		return nil, err
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return nil, fmt.Errorf("%w: audio URL is required", shared.ErrMissingArgument)
	}

	body, err := json.Marshal(createTaskRequest{
		URL:     audioURL,
		Targets: []createTaskTarget{{Model: models.ModelAlignment, Formats: []string{"json"}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.api.Post(ctx, "/tasks", body)
	if err != nil {
		return nil, err
	}
	return s.decodeTask(resp, "")
}

// GetTask fetches the current representation of a task.
func (s *AlignmentService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if err := s.requireKey(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	resp, err := s.api.Get(ctx, "/tasks/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return s.decodeTask(resp, id)
}

// ListTasks fetches up to limit recent tasks. A non-positive limit lets the server decide.
func (s *AlignmentService) ListTasks(ctx context.Context, limit int) ([]*models.Task, error) {
	if err := s.requireKey(); err != nil {
		return nil, err
	}

	path := "/tasks"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	resp, err := s.api.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, statusError(resp))
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}
	return models.ParseTaskList(resp.Body)
}

// FetchTranscript downloads the alignment result at jsonURL.
func (s *AlignmentService) FetchTranscript(ctx context.Context, jsonURL string) (*models.Transcript, error) {
	jsonURL = strings.TrimSpace(jsonURL)
	if jsonURL == "" {
		return nil, fmt.Errorf("%w: transcript URL is required", shared.ErrMissingArgument)
	}

	resp, err := s.api.Do(ctx, http.MethodGet, jsonURL, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}
	return models.ParseTranscript(resp.Body)
}

// Verify checks the configured key by listing a single task.
func (s *AlignmentService) Verify(ctx context.Context) error {
	_, err := s.ListTasks(ctx, 1)
	return err
}
