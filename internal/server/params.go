package server

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gogpu/fractal"
)

// Default raster size of a request that names none.
const (
	DefaultPixelWidth  = 512
	DefaultPixelHeight = 512
)

// ParamError reports a query parameter that is not a number.
type ParamError struct {
	Name  string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("query parameter %s=%q: %v", e.Name, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// ParseView builds a View from query parameters, starting from the
// classic framing of a DefaultPixelWidth x DefaultPixelHeight raster:
//
//	cx, cy  center            w      plane width
//	px, py  raster size       iter   max iterations
//	exp     exponent          bail   bailout radius
//	hue     base hue          sat, light  saturation, lightness (percent)
//
// It returns a *ParamError for malformed numbers. The View is not
// validated.
func ParseView(q url.Values) (fractal.View, error) {
	v := fractal.DefaultView(DefaultPixelWidth, DefaultPixelHeight)

	floats := []struct {
		name string
		dst  *float64
	}{
		{"cx", &v.CenterX},
		{"cy", &v.CenterY},
		{"w", &v.ViewWidth},
		{"exp", &v.Exponent},
		{"bail", &v.Bailout},
		{"hue", &v.Hue},
		{"sat", &v.Saturation},
		{"light", &v.Lightness},
	}
	for _, p := range floats {
		if err := parseFloat(q, p.name, p.dst); err != nil {
			return v, err
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"px", &v.PixelWidth},
		{"py", &v.PixelHeight},
		{"iter", &v.MaxIterations},
	}
	for _, p := range ints {
		if err := parseInt(q, p.name, p.dst); err != nil {
			return v, err
		}
	}
	return v, nil
}

// parseSupersample reads the ss parameter, defaulting to 1.
func parseSupersample(q url.Values) (int, error) {
	ss := 1
	if err := parseInt(q, "ss", &ss); err != nil {
		return 0, err
	}
	if ss < 1 || ss > fractal.MaxSupersample {
		return 0, &ParamError{Name: "ss", Value: q.Get("ss"), Err: fmt.Errorf("must be in [1, %d]", fractal.MaxSupersample)}
	}
	return ss, nil
}

func parseFloat(q url.Values, name string, dst *float64) error {
	s := q.Get(name)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return &ParamError{Name: name, Value: s, Err: err}
	}
	*dst = f
	return nil
}

func parseInt(q url.Values, name string, dst *int) error {
	s := q.Get(name)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return &ParamError{Name: name, Value: s, Err: err}
	}
	*dst = n
	return nil
}
