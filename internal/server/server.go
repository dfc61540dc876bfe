// Package server exposes the renderer over HTTP.
//
// Routes:
//
//	GET /health           liveness, ?deep=true also pings the cache
//	GET /render.png       one finished frame, cached by view
//	GET /render/stream    the same frame as Server-Sent Events, one event per batch
//
// Both render routes read the view from the query string; see ParseView.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gogpu/fractal/internal/cache"
	"github.com/gogpu/fractal/internal/logger"
)

// DefaultMaxPixels bounds PixelWidth*PixelHeight*ss^2 of a request.
const DefaultMaxPixels = 4096 * 4096

// Deps holds what the handlers need.
type Deps struct {
	// Cache stores encoded frames. Nil disables caching.
	Cache cache.Store
	// Log receives request and render logs.
	Log *logger.Logger
	// Workers is passed to fractal.WithWorkers for every render.
	Workers int
	// BatchRows is passed to fractal.WithBatchRows; 0 keeps the default.
	BatchRows int
	// MaxPixels caps the rendered area; 0 means DefaultMaxPixels.
	MaxPixels int
	// RenderTimeout bounds one render; 0 means no bound beyond the request.
	RenderTimeout time.Duration
}

// Handler serves the render routes.
type Handler struct {
	cache     cache.Store
	log       *logger.Logger
	workers   int
	batchRows int
	maxPixels int
	timeout   time.Duration
}

// New builds the handler set from d.
func New(d Deps) *Handler {
	h := &Handler{
		cache:     d.Cache,
		log:       d.Log,
		workers:   d.Workers,
		batchRows: d.BatchRows,
		maxPixels: d.MaxPixels,
		timeout:   d.RenderTimeout,
	}
	if h.log == nil {
		h.log = logger.New(logger.Config{Level: "error"})
	}
	if h.maxPixels <= 0 {
		h.maxPixels = DefaultMaxPixels
	}
	return h
}

// NewRouter returns the chi router serving every route.
func NewRouter(d Deps) http.Handler {
	h := New(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogging(h.log))
	r.Use(recovery(h.log))

	r.Get("/health", h.Health)
	r.Get("/render.png", h.RenderPNG)
	r.Get("/render/stream", h.RenderStream)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, CodeNotFound, "no route for "+r.URL.Path)
	})
	return r
}
