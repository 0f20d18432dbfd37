package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/desertthunder/alignx/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// Handlers serves read models over the reconciler caches.
type Handlers struct {
	cache   *tasks.Reconciler
	checker Checker
	logger  *log.Logger
}

// AlignmentView is the JSON shape of a cached task.
type AlignmentView struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Status     string    `json:"status"`
	Normalized string    `json:"normalizedStatus"`
	AudioURL   string    `json:"audioUrl,omitempty"`
	ValidSrc   string    `json:"validSrc,omitempty"`
	AssetTitle string    `json:"assetTitle,omitempty"`
	JSONURL    string    `json:"jsonUrl,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProjectionView is the JSON shape of a projection.
type ProjectionView[T any] struct {
	Items  []T    `json:"items"`
	Active string `json:"active"`
	Empty  bool   `json:"empty"`
}

type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewAlignmentView flattens a task for display.
func NewAlignmentView(task *models.Task) AlignmentView {
	info := task.StatusInfo()
	v := AlignmentView{
		ID:         task.ID,
		Label:      formatter.AlignmentLabel(task),
		Status:     info.Raw,
		Normalized: info.Normalized,
		AudioURL:   task.AudioURL(),
		ValidSrc:   task.ValidSrc,
		AssetTitle: task.AssetTitle,
		Timestamp:  task.Timestamp(),
	}
	if out := models.FindAlignmentOutput(task, nil); out != nil {
		v.JSONURL = out.Location()
	}
	return v
}

func alignmentProjection(p tasks.Projection[*models.Task]) ProjectionView[AlignmentView] {
	items := make([]AlignmentView, len(p.Items))
	for i, t := range p.Items {
		items[i] = NewAlignmentView(t)
	}
	return ProjectionView[AlignmentView]{Items: items, Active: p.Active, Empty: p.Empty()}
}

func assetProjection(p tasks.Projection[models.Asset]) ProjectionView[models.Asset] {
	items := p.Items
	if items == nil {
		items = []models.Asset{}
	}
	return ProjectionView[models.Asset]{Items: items, Active: p.Active, Empty: p.Empty()}
}

// Health reports cache sizes.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	nTasks, nAssets := h.cache.Len()
	h.json(w, http.StatusOK, map[string]any{"status": "ok", "alignments": nTasks, "assets": nAssets})
}

// ListAlignments returns the ranked alignment projection.
func (h *Handlers) ListAlignments(w http.ResponseWriter, r *http.Request) {
	p := h.cache.RankedAlignments(r.URL.Query().Get("selected"))
	h.json(w, http.StatusOK, alignmentProjection(p))
}

// GetAlignment returns one cached task.
func (h *Handlers) GetAlignment(w http.ResponseWriter, r *http.Request) {
	task, ok := h.cache.Task(chi.URLParam(r, "id"))
	if !ok {
		h.error(w, http.StatusNotFound, "not_found", "alignment not found")
		return
	}
	h.json(w, http.StatusOK, NewAlignmentView(task))
}

// AssetsForAlignment returns the assets fuzzily related to a task.
func (h *Handlers) AssetsForAlignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.cache.Task(id); !ok {
		h.error(w, http.StatusNotFound, "not_found", "alignment not found")
		return
	}
	p := h.cache.AssetsForTask(id, r.URL.Query().Get("selected"))
	h.json(w, http.StatusOK, assetProjection(p))
}

// RefreshAlignment re-fetches a task from the API.
func (h *Handlers) RefreshAlignment(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		h.error(w, http.StatusServiceUnavailable, "unavailable", "refresh is not configured")
		return
	}

	task, err := h.checker.Check(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, shared.ErrTaskNotFound):
		h.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrNoAlignmentTarget):
		h.error(w, http.StatusUnprocessableEntity, "not_alignment", err.Error())
	case errors.Is(err, shared.ErrNotAuthenticated):
		h.error(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case err != nil:
		h.logger.Warn("refresh failed", "error", err)
		h.error(w, http.StatusBadGateway, "upstream", err.Error())
	default:
		h.json(w, http.StatusOK, NewAlignmentView(task))
	}
}

// ListAssets returns the asset cache in manifest order.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	p := h.cache.AssetList(r.URL.Query().Get("selected"))
	h.json(w, http.StatusOK, assetProjection(p))
}

// AlignmentsForAsset returns the tasks that reference an asset by base name.
func (h *Handlers) AlignmentsForAsset(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		h.error(w, http.StatusBadRequest, "bad_request", "missing src parameter")
		return
	}
	p := h.cache.AlignmentsForAsset(src, r.URL.Query().Get("selected"))
	h.json(w, http.StatusOK, alignmentProjection(p))
}

func (h *Handlers) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) error(w http.ResponseWriter, code int, kind, message string) {
	h.json(w, code, errorView{Code: kind, Message: message})
}
