package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/cache"
)

// Health reports liveness. With ?deep=true it also pings a remote cache.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"service": "fractald",
		"version": fractal.Version,
	}

	if r.URL.Query().Get("deep") == "true" {
		check := map[string]any{"status": "ok"}
		if p, ok := h.cache.(cache.Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			start := time.Now()
			if err := p.Ping(ctx); err != nil {
				check["status"] = "error"
				check["error"] = err.Error()
				health["status"] = "degraded"
				h.log.FromContext(r.Context()).Warn("health check degraded", "error", err.Error())
			}
			check["latency_ms"] = time.Since(start).Milliseconds()
			cancel()
		} else if h.cache == nil {
			check["status"] = "disabled"
		}
		health["checks"] = map[string]any{"cache": check}
	}

	writeJSON(w, http.StatusOK, health)
}

// RenderPNG renders the requested view and replies with a PNG. Frames are
// served from the cache when present; X-Cache tells which.
func (h *Handler) RenderPNG(w http.ResponseWriter, r *http.Request) {
	v, ss, ok := h.requestView(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	key := cache.Key(v, "png@"+strconv.Itoa(ss)+"x")
	if h.cache != nil {
		body, hit, err := h.cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache get failed", "key", key, "error", err.Error())
		}
		if hit {
			writePNG(w, body, "HIT")
			return
		}
	}

	ctx, cancel := h.renderContext(ctx)
	defer cancel()

	start := time.Now()
	img, err := h.render(ctx, v, ss)
	if err != nil {
		h.renderFailed(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Error("png encode failed", "error", err.Error())
		writeErr(w, http.StatusInternalServerError, CodeInternal, "encoding failed")
		return
	}
	log.Debug("frame rendered",
		"width", v.PixelWidth,
		"height", v.PixelHeight,
		"ss", ss,
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, buf.Bytes()); err != nil {
			log.Warn("cache set failed", "key", key, "error", err.Error())
		}
	}
	writePNG(w, buf.Bytes(), "MISS")
}

// bandEvent is the payload of one "band" event.
type bandEvent struct {
	Row  int    `json:"row"`
	Rows int    `json:"rows"`
	PNG  string `json:"png"`
}

// doneEvent is the payload of the final "done" event.
type doneEvent struct {
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	DurationMS int64 `json:"duration_ms"`
}

// RenderStream renders the requested view progressively and sends every
// finished batch as a "band" event carrying a PNG of those rows, then a
// "done" event. A render error after the stream started is sent as an
// "error" event.
func (h *Handler) RenderStream(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.requestView(w, r)
	if !ok {
		return
	}
	rc := http.NewResponseController(w)
	log := h.log.FromContext(r.Context())

	ctx, cancel := h.renderContext(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var (
		streamErr error
		scratch   bytes.Buffer
	)
	onPartial := func(row, rows int, pixels []byte) {
		if streamErr != nil {
			return
		}
		band := &image.RGBA{
			Pix:    pixels,
			Stride: v.PixelWidth * 4,
			Rect:   image.Rect(0, 0, v.PixelWidth, rows),
		}
		scratch.Reset()
		if err := png.Encode(&scratch, band); err != nil {
			streamErr = err
			cancel()
			return
		}
		ev := bandEvent{Row: row, Rows: rows, PNG: base64.StdEncoding.EncodeToString(scratch.Bytes())}
		if err := writeEvent(w, "band", ev); err != nil {
			streamErr = err
			cancel()
			return
		}
		_ = rc.Flush()
	}

	start := time.Now()
	_, err := fractal.RenderProgressive(ctx, v, onPartial, h.options()...)
	switch {
	case streamErr != nil:
		log.Debug("stream aborted", "error", streamErr.Error())
		return
	case err != nil:
		log.Warn("stream render failed", "error", err.Error())
		_ = writeEvent(w, "error", map[string]string{"message": err.Error()})
	default:
		_ = writeEvent(w, "done", doneEvent{
			Width:      v.PixelWidth,
			Height:     v.PixelHeight,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}
	_ = rc.Flush()
}

// requestView parses and validates the query, replying with a 400 envelope
// on failure.
func (h *Handler) requestView(w http.ResponseWriter, r *http.Request) (fractal.View, int, bool) {
	q := r.URL.Query()
	v, err := ParseView(q)
	if err == nil {
		err = v.Validate()
	}
	ss := 1
	if err == nil {
		ss, err = parseSupersample(q)
	}

	var pe *ParamError
	var ve *fractal.ViewError
	switch {
	case err == nil:
	case errors.As(err, &pe):
		writeErrDetails(w, http.StatusBadRequest, CodeBadRequest, err.Error(), map[string]any{"param": pe.Name})
		return v, 0, false
	case errors.As(err, &ve):
		writeErrDetails(w, http.StatusBadRequest, CodeInvalidView, err.Error(), map[string]any{"field": ve.Field})
		return v, 0, false
	default:
		writeErr(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return v, 0, false
	}

	tooLarge := v.PixelWidth > h.maxPixels || v.PixelHeight > h.maxPixels
	if area := v.PixelWidth * v.PixelHeight * ss * ss; tooLarge || area > h.maxPixels {
		writeErr(w, http.StatusBadRequest, CodeTooLarge,
			fmt.Sprintf("%dx%d at %dx exceeds %d pixels", v.PixelWidth, v.PixelHeight, ss, h.maxPixels))
		return v, 0, false
	}
	return v, ss, true
}

func (h *Handler) options() []fractal.Option {
	opts := []fractal.Option{fractal.WithWorkers(h.workers)}
	if h.batchRows > 0 {
		opts = append(opts, fractal.WithBatchRows(h.batchRows))
	}
	return opts
}

func (h *Handler) renderContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(ctx, h.timeout)
	}
	return context.WithCancel(ctx)
}

func (h *Handler) render(ctx context.Context, v fractal.View, ss int) (image.Image, error) {
	if ss > 1 {
		img, err := fractal.Supersample(ctx, v, ss, h.options()...)
		if err != nil {
			return nil, err
		}
		return img, nil
	}
	pm, err := fractal.Render(ctx, v, h.options()...)
	if err != nil {
		return nil, err
	}
	return pm.ToImage(), nil
}

func (h *Handler) renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	log := h.log.FromContext(r.Context())
	switch {
	case errors.Is(err, fractal.ErrInvalidView):
		writeErr(w, http.StatusBadRequest, CodeInvalidView, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("render timed out", "error", err.Error())
		writeErr(w, http.StatusGatewayTimeout, CodeTimeout, "render timed out")
	case r.Context().Err() != nil:
		// Client went away; nobody reads the reply.
		log.Debug("render abandoned by client")
	default:
		log.Error("render failed", "error", err.Error())
		writeErr(w, http.StatusInternalServerError, CodeInternal, "render failed")
	}
}

func writePNG(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
