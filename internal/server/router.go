package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/alignx/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the alignment endpoints.
//
//	GET  /health
//	GET  /alignments?selected=
//	GET  /alignments/{id}
//	GET  /alignments/{id}/assets?selected=
//	POST /alignments/{id}/refresh
//	GET  /assets?selected=
//	GET  /assets/alignments?src=&selected=
func NewRouter(cache *tasks.Reconciler, checker Checker, logger *log.Logger) http.Handler {
	h := &Handlers{cache: cache, checker: checker, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/health", h.Health)

	r.Route("/alignments", func(r chi.Router) {
		r.Get("/", h.ListAlignments)
		r.Get("/{id}", h.GetAlignment)
		r.Get("/{id}/assets", h.AssetsForAlignment)
		r.Post("/{id}/refresh", h.RefreshAlignment)
	})

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.ListAssets)
		r.Get("/alignments", h.AlignmentsForAsset)
	})

	return r
}

// RequestLogger logs one line per request at debug level.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
