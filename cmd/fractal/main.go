// Command fractal renders a generalized Mandelbrot set to a PNG file.
//
// Usage:
//
//	fractal [flags]
//
// Example, a deep spiral of the classic set with a caption:
//
//	fractal -cx -0.7436 -cy 0.1318 -width 0.002 -iter 2000 -ss 2 -caption -o spiral.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "fractal:", err)
		os.Exit(1)
	}
}

// config is the parsed command line.
type config struct {
	view    fractal.View
	workers int
	batch   int
	ss      int
	caption bool
	output  string
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	fs := flag.NewFlagSet("fractal", flag.ContinueOnError)
	fs.SetOutput(stderr)

	v := fractal.DefaultView(800, 600)
	var c config

	fs.Float64Var(&v.CenterX, "cx", v.CenterX, "real part of the view center")
	fs.Float64Var(&v.CenterY, "cy", v.CenterY, "imaginary part of the view center")
	fs.Float64Var(&v.ViewWidth, "width", v.ViewWidth, "visible span of the real axis")
	fs.IntVar(&v.PixelWidth, "w", v.PixelWidth, "image width in pixels")
	fs.IntVar(&v.PixelHeight, "h", v.PixelHeight, "image height in pixels")
	fs.IntVar(&v.MaxIterations, "iter", v.MaxIterations, "maximum iterations")
	fs.Float64Var(&v.Exponent, "exp", v.Exponent, "exponent p of z^p + c")
	fs.Float64Var(&v.Bailout, "bailout", v.Bailout, "escape radius (>= 2)")
	fs.Float64Var(&v.Hue, "hue", v.Hue, "base hue in degrees [0, 360)")
	fs.Float64Var(&v.Saturation, "sat", v.Saturation, "saturation percent")
	fs.Float64Var(&v.Lightness, "light", v.Lightness, "lightness percent")
	fs.IntVar(&c.workers, "workers", 0, "parallel workers (0 or 1: cooperative)")
	fs.IntVar(&c.batch, "batch", fractal.DefaultBatchRows, "rows per batch")
	fs.IntVar(&c.ss, "ss", 1, fmt.Sprintf("supersampling factor [1, %d]", fractal.MaxSupersample))
	fs.BoolVar(&c.caption, "caption", false, "draw the view parameters onto the image")
	fs.StringVar(&c.output, "o", "fractal.png", "output file")
	fs.BoolVar(&c.verbose, "v", false, "log render progress to stderr")

	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if fs.NArg() > 0 {
		return c, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	c.view = v
	return c, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := c.view.Validate(); err != nil {
		return err
	}

	if c.verbose {
		log := logger.New(logger.Config{Level: "debug", Format: "text", Output: stderr, ServiceName: "fractal"})
		fractal.SetLogger(log.Logger)
		defer fractal.SetLogger(nil)
	}

	opts := []fractal.Option{fractal.WithWorkers(c.workers), fractal.WithBatchRows(c.batch)}

	start := time.Now()
	img, err := render(ctx, c, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	elapsed := time.Since(start)

	if c.caption {
		drawCaption(img, captionText(c.view))
	}
	if err := savePNG(c.output, img); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "%s: %dx%d, %d iterations, %d samples in %v\n",
		c.output, c.view.PixelWidth, c.view.PixelHeight, c.view.MaxIterations,
		c.view.PixelWidth*c.view.PixelHeight*c.ss*c.ss, elapsed.Round(time.Millisecond))
	return nil
}

func render(ctx context.Context, c config, opts []fractal.Option) (*image.RGBA, error) {
	if c.ss != 1 {
		return fractal.Supersample(ctx, c.view, c.ss, opts...)
	}
	pm, err := fractal.Render(ctx, c.view, opts...)
	if err != nil {
		return nil, err
	}
	return pm.ToImage(), nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
