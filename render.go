package fractal

import (
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// MaxSupersample bounds the supersampling factor accepted by Supersample.
const MaxSupersample = 4

// Render computes v to completion on a private scheduler and returns the
// frame. It blocks the calling goroutine, which becomes the scheduler's
// host, and stops early with ctx.Err() when ctx is done.
func Render(ctx context.Context, v View, opts ...Option) (*Pixmap, error) {
	return RenderProgressive(ctx, v, nil, opts...)
}

// RenderProgressive is Render with a partial-frame callback, invoked on
// the calling goroutine for every batch.
func RenderProgressive(ctx context.Context, v View, onPartial PartialFunc, opts ...Option) (*Pixmap, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	s := NewScheduler(opts...)
	defer s.Close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var out *Pixmap
	h, err := s.Start(v, onPartial, func(pm *Pixmap) {
		out = pm
		stop()
	})
	if err != nil {
		return nil, err
	}

	_ = s.Loop().Run(runCtx)
	if out != nil {
		return out, nil
	}
	h.Cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrCancelled
}

// Supersample renders v at factor times its resolution and scales the
// result back down with a Catmull-Rom filter, anti-aliasing the filaments
// of the set boundary. factor 1 is a plain Render.
func Supersample(ctx context.Context, v View, factor int, opts ...Option) (*image.RGBA, error) {
	if factor < 1 || factor > MaxSupersample {
		return nil, fmt.Errorf("fractal: supersample factor %d out of range [1, %d]", factor, MaxSupersample)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	big := v
	big.PixelWidth *= factor
	big.PixelHeight *= factor

	pm, err := Render(ctx, big, opts...)
	if err != nil {
		return nil, err
	}
	if factor == 1 {
		return pm.ToImage(), nil
	}
	return Downsample(pm, v.PixelWidth, v.PixelHeight), nil
}

// Downsample scales pm to w x h with a Catmull-Rom filter.
func Downsample(pm *Pixmap, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), pm.ToImage(), pm.Bounds(), xdraw.Src, nil)
	return dst
}
