package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gogpu/fractal"
)

func TestKey(t *testing.T) {
	base := fractal.DefaultView(64, 48)
	k := Key(base, "png")

	if !strings.HasPrefix(k, KeyPrefix) {
		t.Errorf("Key() = %q, want prefix %q", k, KeyPrefix)
	}
	if Key(base, "png") != k {
		t.Error("Key() is not stable")
	}

	variants := []struct {
		name   string
		mutate func(*fractal.View)
	}{
		{"center x", func(v *fractal.View) { v.CenterX += 1e-15 }},
		{"center y", func(v *fractal.View) { v.CenterY = 0.1 }},
		{"plane width", func(v *fractal.View) { v.ViewWidth = 3 }},
		{"pixel width", func(v *fractal.View) { v.PixelWidth = 65 }},
		{"pixel height", func(v *fractal.View) { v.PixelHeight = 49 }},
		{"iterations", func(v *fractal.View) { v.MaxIterations++ }},
		{"exponent", func(v *fractal.View) { v.Exponent = 3 }},
		{"bailout", func(v *fractal.View) { v.Bailout = 4 }},
		{"hue", func(v *fractal.View) { v.Hue = 10 }},
		{"saturation", func(v *fractal.View) { v.Saturation = 90 }},
		{"lightness", func(v *fractal.View) { v.Lightness = 40 }},
	}
	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			v := base
			tt.mutate(&v)
			if Key(v, "png") == k {
				t.Errorf("changing %s did not change the key", tt.name)
			}
		})
	}

	if Key(base, "png@2x") == k {
		t.Error("variant does not take part in the key")
	}
}

func TestRedis_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedis(rdb, time.Minute)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if store.TTL() != time.Minute {
		t.Errorf("TTL() = %v, want 1m", store.TTL())
	}
	if err := store.Ping(ctx); err == nil {
		t.Error("Ping() against a closed port should fail")
	}
	if _, ok, err := store.Get(ctx, "k"); err == nil || ok {
		t.Errorf("Get() = (_, %v, %v), want a connection error", ok, err)
	}
	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Error("Set() against a closed port should fail")
	}
}
