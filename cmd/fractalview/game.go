package main

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/fractal"
)

// renderBudget is the share of each 60 Hz tick handed to the render loop.
const renderBudget = 10 * time.Millisecond

// game drives a Controller from ebiten's Update and shows its frames.
// Everything runs on ebiten's game goroutine, which is also the goroutine
// that owns the Scheduler and its Loop.
type game struct {
	sched *fractal.Scheduler
	ctrl  *fractal.Controller
	home  fractal.View

	// frame mirrors the current view's pixels, filled in as batches land.
	frame   []byte
	img     *ebiten.Image
	dirty   bool
	done    bool
	titled  bool
	started time.Time
	elapsed time.Duration

	dragging     bool
	lastX, lastY int

	// Pending window size from Layout, applied in Update.
	outW, outH int
}

func newGame(v fractal.View, opts ...fractal.Option) (*game, error) {
	g := &game{
		sched: fractal.NewScheduler(opts...),
		home:  v,
		outW:  v.PixelWidth,
		outH:  v.PixelHeight,
	}
	g.ctrl = fractal.NewController(g.sched, v, g.partial, g.complete)
	g.allocate(v)
	if err := g.ctrl.SetView(v); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) close() {
	g.sched.Close()
}

func (g *game) allocate(v fractal.View) {
	if n := v.PixelWidth * v.PixelHeight * 4; len(g.frame) != n {
		g.frame = make([]byte, n)
	}
	if g.img == nil || g.img.Bounds().Dx() != v.PixelWidth || g.img.Bounds().Dy() != v.PixelHeight {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(v.PixelWidth, v.PixelHeight)
	}
}

func (g *game) partial(row, rows int, pixels []byte) {
	stride := g.ctrl.View().PixelWidth * 4
	copy(g.frame[row*stride:], pixels)
	g.dirty = true
}

func (g *game) complete(*fractal.Pixmap) {
	g.done = true
	g.elapsed = time.Since(g.started)
}

// apply runs one gesture and, when it produced a new view, resets the
// progress state. Rejected views keep the old frame on screen.
func (g *game) apply(gesture func() error) {
	before := g.ctrl.Handle()
	if err := gesture(); err != nil {
		fractal.Logger().Debug("fractalview: gesture rejected", "error", err)
		return
	}
	if g.ctrl.Handle() != before {
		g.done = false
		g.started = time.Now()
	}
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if g.outW != g.ctrl.View().PixelWidth || g.outH != g.ctrl.View().PixelHeight {
		g.allocate(fractal.Resize(g.outW, g.outH, g.ctrl.View()))
		g.apply(func() error { return g.ctrl.Resize(g.outW, g.outH) })
	}

	g.handleMouse()
	g.handleKeys()

	g.sched.Loop().RunFor(renderBudget)
	return nil
}

func (g *game) handleMouse() {
	x, y := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			dx, dy := float64(x-g.lastX), float64(y-g.lastY)
			g.apply(func() error { return g.ctrl.Pan(dx, dy) })
		}
		g.dragging = true
		g.lastX, g.lastY = x, y
	} else {
		g.dragging = false
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		g.apply(func() error { return g.ctrl.Wheel(float64(x), float64(y), wy) })
	}
}

func (g *game) handleKeys() {
	v := g.ctrl.View()
	cx, cy := float64(v.PixelWidth)/2, float64(v.PixelHeight)/2
	stepX, stepY := float64(v.PixelWidth)/10, float64(v.PixelHeight)/10

	pressed := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if inpututil.IsKeyJustPressed(k) {
				return true
			}
		}
		return false
	}

	switch {
	case pressed(ebiten.KeyEqual, ebiten.KeyKPAdd):
		g.apply(func() error { return g.ctrl.ZoomIn(cx, cy) })
	case pressed(ebiten.KeyMinus, ebiten.KeyKPSubtract):
		g.apply(func() error { return g.ctrl.ZoomOut(cx, cy) })
	case pressed(ebiten.KeyArrowLeft):
		g.apply(func() error { return g.ctrl.Pan(stepX, 0) })
	case pressed(ebiten.KeyArrowRight):
		g.apply(func() error { return g.ctrl.Pan(-stepX, 0) })
	case pressed(ebiten.KeyArrowUp):
		g.apply(func() error { return g.ctrl.Pan(0, stepY) })
	case pressed(ebiten.KeyArrowDown):
		g.apply(func() error { return g.ctrl.Pan(0, -stepY) })
	case pressed(ebiten.KeyBracketLeft):
		g.setView(func(v *fractal.View) { v.Exponent -= 0.1 })
	case pressed(ebiten.KeyBracketRight):
		g.setView(func(v *fractal.View) { v.Exponent += 0.1 })
	case pressed(ebiten.KeyI):
		g.setView(func(v *fractal.View) { v.MaxIterations *= 2 })
	case pressed(ebiten.KeyK):
		g.setView(func(v *fractal.View) { v.MaxIterations = max(v.MaxIterations/2, 1) })
	case pressed(ebiten.KeyR):
		home := g.home
		home.PixelWidth, home.PixelHeight = v.PixelWidth, v.PixelHeight
		g.apply(func() error { return g.ctrl.SetView(home) })
	}
}

func (g *game) setView(edit func(*fractal.View)) {
	v := g.ctrl.View()
	edit(&v)
	g.apply(func() error { return g.ctrl.SetView(v) })
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.dirty {
		g.img.WritePixels(g.frame)
		g.dirty = false
	}
	screen.DrawImage(g.img, nil)

	if g.done != g.titled {
		g.titled = g.done
		ebiten.SetWindowTitle(g.title())
	}
}

func (g *game) title() string {
	v := g.ctrl.View()
	status := "rendering"
	if g.done {
		status = fmt.Sprintf("%v", g.elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("fractalview  c=%.10g%+.10gi  w=%.3g  p=%.2g  iter=%d  (%s)",
		v.CenterX, v.CenterY, v.ViewWidth, v.Exponent, v.MaxIterations, status)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outW, g.outH = max(outsideWidth, 1), max(outsideHeight, 1)
	return g.outW, g.outH
}
