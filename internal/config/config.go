// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geocell/pkg/cover"
)

type CacheCfg struct {
	// Backend is one of "none", "lru", "redis".
	Backend   string
	RedisAddr string
	TTL       time.Duration
	LRUSize   int
	OpTimeout time.Duration
}

type Config struct {
	Addr     string
	LogLevel string

	// MaxCells is the default covering cap when a request does not pass
	// max_cells. Clamped into [1, cover.MaxCellsCeiling].
	MaxCells int

	Cache CacheCfg

	MetricsEnabled bool
	MetricsAddr    string
	MetricsPath    string
}

func FromEnv() Config {
	maxCells := getint("MAX_CELLS", cover.DefaultMaxCells)
	if maxCells < 1 {
		maxCells = 1
	}
	if maxCells > cover.MaxCellsCeiling {
		maxCells = cover.MaxCellsCeiling
	}

	backend := strings.ToLower(getenv("CACHE_BACKEND", "none"))
	switch backend {
	case "none", "lru", "redis":
	default:
		backend = "none"
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		MaxCells: maxCells,
		Cache: CacheCfg{
			Backend:   backend,
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			TTL:       getduration("CACHE_TTL", 5*time.Minute),
			LRUSize:   getint("CACHE_LRU_SIZE", 4096),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		},
		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
