package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/fractal"
)

// KeyPrefix starts every key produced by Key.
const KeyPrefix = "fractal:frame:"

// ErrTooLarge is returned by Memory.Set for a value bigger than the
// store's whole byte budget.
var ErrTooLarge = errors.New("cache: value exceeds byte budget")

// Store is a byte-oriented frame cache.
type Store interface {
	// Get returns the value for key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key returns the cache key of v rendered as variant, e.g. "png" or
// "png@2x". Every field of v takes part, in its exact float encoding.
func Key(v fractal.View, variant string) string {
	b := make([]byte, 0, 160)
	for _, f := range [...]float64{v.CenterX, v.CenterY, v.ViewWidth, v.Exponent, v.Bailout, v.Hue, v.Saturation, v.Lightness} {
		b = strconv.AppendFloat(b, f, 'g', -1, 64)
		b = append(b, '|')
	}
	for _, n := range [...]int{v.PixelWidth, v.PixelHeight, v.MaxIterations} {
		b = strconv.AppendInt(b, int64(n), 10)
		b = append(b, '|')
	}
	b = append(b, variant...)

	sum := xxhash.Sum64(b)
	return KeyPrefix + strconv.FormatUint(sum, 16)
}
