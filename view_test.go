package fractal

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultView(t *testing.T) {
	v := DefaultView(800, 600)
	if err := v.Validate(); err != nil {
		t.Fatalf("DefaultView().Validate() = %v", err)
	}
	if v.CenterX != -0.5 || v.CenterY != 0 || v.ViewWidth != 3.5 {
		t.Errorf("DefaultView framing = (%v, %v, %v), want (-0.5, 0, 3.5)", v.CenterX, v.CenterY, v.ViewWidth)
	}
	if got, want := v.Scale(), 3.5/800; got != want {
		t.Errorf("Scale() = %v, want %v", got, want)
	}
	if got, want := v.PlaneHeight(), 3.5*600/800; got != want {
		t.Errorf("PlaneHeight() = %v, want %v", got, want)
	}
}

func TestView_Validate(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name   string
		mutate func(*View)
		field  string
	}{
		{"zero width", func(v *View) { v.PixelWidth = 0 }, "PixelWidth"},
		{"negative height", func(v *View) { v.PixelHeight = -3 }, "PixelHeight"},
		{"zero plane width", func(v *View) { v.ViewWidth = 0 }, "ViewWidth"},
		{"NaN plane width", func(v *View) { v.ViewWidth = nan }, "ViewWidth"},
		{"infinite center x", func(v *View) { v.CenterX = inf }, "CenterX"},
		{"NaN center y", func(v *View) { v.CenterY = nan }, "CenterY"},
		{"zero iterations", func(v *View) { v.MaxIterations = 0 }, "MaxIterations"},
		{"zero exponent", func(v *View) { v.Exponent = 0 }, "Exponent"},
		{"NaN exponent", func(v *View) { v.Exponent = nan }, "Exponent"},
		{"small bailout", func(v *View) { v.Bailout = 1.99 }, "Bailout"},
		{"infinite bailout", func(v *View) { v.Bailout = inf }, "Bailout"},
		{"hue 360", func(v *View) { v.Hue = 360 }, "Hue"},
		{"negative hue", func(v *View) { v.Hue = -1 }, "Hue"},
		{"saturation over 100", func(v *View) { v.Saturation = 100.5 }, "Saturation"},
		{"negative lightness", func(v *View) { v.Lightness = -0.1 }, "Lightness"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultView(10, 10)
			tt.mutate(&v)

			err := v.Validate()
			if !errors.Is(err, ErrInvalidView) {
				t.Fatalf("Validate() = %v, want ErrInvalidView", err)
			}
			var ve *ViewError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %T, want *ViewError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("ViewError.Field = %q, want %q", ve.Field, tt.field)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Error() = %q, want it to name %s", err.Error(), tt.field)
			}
		})
	}
}

func TestView_ValidateBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*View)
	}{
		{"bailout exactly 2", func(v *View) { v.Bailout = 2 }},
		{"one iteration", func(v *View) { v.MaxIterations = 1 }},
		{"fractional exponent", func(v *View) { v.Exponent = 0.5 }},
		{"hue just under 360", func(v *View) { v.Hue = 359.999 }},
		{"full saturation and lightness", func(v *View) { v.Saturation, v.Lightness = 100, 100 }},
		{"zero saturation and lightness", func(v *View) { v.Saturation, v.Lightness = 0, 0 }},
		{"single pixel", func(v *View) { v.PixelWidth, v.PixelHeight = 1, 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultView(10, 10)
			tt.mutate(&v)
			if err := v.Validate(); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestView_ValidateReportsFirstField(t *testing.T) {
	v := DefaultView(0, 0)
	v.Bailout = 0

	var ve *ViewError
	if !errors.As(v.Validate(), &ve) {
		t.Fatal("Validate() did not return a *ViewError")
	}
	if ve.Field != "PixelWidth" {
		t.Errorf("first failing field = %q, want PixelWidth", ve.Field)
	}
}
