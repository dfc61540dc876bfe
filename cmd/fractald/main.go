// Command fractald serves rendered fractal frames over HTTP.
//
// Configuration comes from the environment:
//
//	HTTP_ADDR       listen address (default :8080)
//	REDIS_ADDR      Redis address; unset keeps frames in process memory
//	CACHE_TTL       frame lifetime, e.g. 10m (default 1h)
//	CACHE_MB        in-memory cache budget in MiB (default 256)
//	WORKERS         parallel workers per render (default GOMAXPROCS)
//	RENDER_TIMEOUT  bound on one render (default 30s)
//	MAX_PIXELS      largest accepted width*height*ss^2
//	LOG_LEVEL       debug, info, warn or error (default info)
//	LOG_FORMAT      json or text (default json)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/internal/cache"
	"github.com/gogpu/fractal/internal/logger"
	"github.com/gogpu/fractal/internal/server"
	"github.com/gogpu/fractal/internal/shutdown"
)

func main() {
	log := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: "fractald",
		AddSource:   getEnv("LOG_SOURCE", "false") == "true",
	})
	log.Info("starting fractald", "version", fractal.Version)

	addr := getEnv("HTTP_ADDR", ":8080")
	ttl := getDuration(log, "CACHE_TTL", time.Hour)
	workers := getInt(log, "WORKERS", runtime.GOMAXPROCS(0))

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	var store cache.Store
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		log.Info("connecting to Redis", "addr", redisAddr)
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		rc := cache.NewRedis(rdb, ttl)
		shutdownMgr.Register("redis", func(context.Context) error {
			return rc.Close()
		})
		if err := rc.Ping(ctx); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		log.Info("Redis connected")
		store = rc
	} else {
		mc := cache.NewMemory(
			cache.WithMaxBytes(int64(getInt(log, "CACHE_MB", 256))<<20),
			cache.WithTTL(ttl),
		)
		log.Info("using in-memory frame cache")
		store = mc
	}

	router := server.NewRouter(server.Deps{
		Cache:         store,
		Log:           log,
		Workers:       workers,
		MaxPixels:     getInt(log, "MAX_PIXELS", server.DefaultMaxPixels),
		RenderTimeout: getDuration(log, "RENDER_TIMEOUT", 30*time.Second),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "workers", workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	if err := shutdownMgr.Wait(ctx); err != nil {
		log.Error("shutdown finished with errors", "error", err.Error())
		os.Exit(1)
	}
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

func getInt(log *logger.Logger, key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.LogFatal("invalid integer in environment", err, "key", key)
	}
	return n
}

func getDuration(log *logger.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.LogFatal("invalid duration in environment", err, "key", key)
	}
	return d
}
