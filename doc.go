// Package fractal renders generalized Mandelbrot sets progressively.
//
// # Overview
//
// fractal turns a [View] (center point, plane width, pixel dimensions,
// iteration and colouring parameters) into an RGBA [Pixmap] by iterating
// z = z^p + c for every pixel. Work is split into small row batches so an
// interactive host can keep handling input while an expensive frame is
// still being computed.
//
// # Quick Start
//
//	import "github.com/gogpu/fractal"
//
//	v := fractal.DefaultView(800, 600)
//	pm, err := fractal.Render(ctx, v)
//	if err != nil {
//	    return err
//	}
//	_ = pm.SavePNG("mandelbrot.png")
//
// # Progressive Rendering
//
// A [Scheduler] drives one job at a time. Each batch is delivered through a
// [PartialFunc] and the finished buffer through a [CompleteFunc]:
//
//	s := fractal.NewScheduler(fractal.WithWorkers(4))
//	defer s.Close()
//
//	h, err := s.Render(v, onRows, onDone)
//	...
//	go s.Loop().Run(ctx) // or pump s.Loop().RunPending() from a UI tick
//
// Starting a new job supersedes the previous one. Superseded batches are
// discarded by a token comparison, never interrupted mid-flight.
//
// # Interaction
//
// [Pan] and [AnchoredZoom] compute the next View from pointer deltas.
// [Controller] couples them with a Scheduler so that every gesture restarts
// the render.
//
// # Coordinate System
//
//   - Pixel origin (0,0) at top-left, X right, Y down
//   - Plane Y grows with pixel Y (no axis flip)
//   - Pixel (px, py) samples the plane point PixelToComplex(px, py), so the
//     pixel (w/2, h/2) sits exactly on the view center
package fractal

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
