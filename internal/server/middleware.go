package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/gogpu/fractal/internal/logger"
)

// requestLogging logs every request once it completes, at a level chosen
// by its status. The request ID set by middleware.RequestID is carried
// into the context for handlers.
func requestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if id := middleware.GetReqID(ctx); id != "" {
				ctx = logger.ContextWithRequestID(ctx, id)
				r = r.WithContext(ctx)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLog := log.FromContext(ctx)
			logFn := reqLog.Info
			if status >= 500 {
				logFn = reqLog.Error
			} else if status >= 400 {
				logFn = reqLog.Warn
			}
			logFn("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"size", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// recovery turns a handler panic into a 500 envelope.
func recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.FromContext(r.Context()).Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					writeErr(w, http.StatusInternalServerError, CodeInternal, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
