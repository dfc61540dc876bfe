// Command fractalview is an interactive fractal explorer.
//
// Drag with the left mouse button to pan and scroll to zoom at the cursor.
// Keys:
//
//	+ / -     zoom in or out at the window center
//	arrows    pan by a tenth of the window
//	[ / ]     lower or raise the exponent by 0.1
//	I / K     double or halve the iteration limit
//	R         reset the view
//	Esc       quit
//
// Frames fill in batch by batch; every gesture cancels the frame in flight.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/logger"
)

var (
	width   = flag.Int("w", 960, "initial window width")
	height  = flag.Int("h", 640, "initial window height")
	iter    = flag.Int("iter", fractal.DefaultMaxIterations, "maximum iterations")
	exp     = flag.Float64("exp", fractal.DefaultExponent, "exponent p of z^p + c")
	workers = flag.Int("workers", 0, "parallel workers (0 or 1: cooperative)")
	batch   = flag.Int("batch", fractal.DefaultBatchRows, "rows per batch")
	verbose = flag.Bool("v", false, "log scheduler activity")
)

func main() {
	flag.Parse()

	if *verbose {
		l := logger.New(logger.Config{Level: "debug", Format: "text", ServiceName: "fractalview"})
		fractal.SetLogger(l.Logger)
	}

	v := fractal.DefaultView(*width, *height)
	v.MaxIterations = *iter
	v.Exponent = *exp
	if err := v.Validate(); err != nil {
		log.Fatalf("Bad view: %v", err)
	}

	g, err := newGame(v, fractal.WithWorkers(*workers), fractal.WithBatchRows(*batch))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer g.close()

	ebiten.SetWindowTitle("fractalview")
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalf("Window failed: %v", err)
	}
}
