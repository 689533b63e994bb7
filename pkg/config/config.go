// Package config loads linter configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds linter configuration.
type Config struct {
	// CacheDir is the root of the artifact cache.
	CacheDir string
	// ReleasesURL is the base URL of the release endpoint.
	ReleasesURL string
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string
	// HTTPTimeout bounds a single artifact request.
	HTTPTimeout time.Duration
	// OpTimeout bounds a cache population (download plus extraction).
	OpTimeout time.Duration
	// MaxRetries bounds download attempts per request.
	MaxRetries uint
	// MaxDepth bounds the runner indirection chain.
	MaxDepth int
	// RuleBundle optionally points at a YAML rule-gate bundle.
	RuleBundle string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cacheDir := os.Getenv("GENVM_LINT_CACHE_DIR")
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cacheDir = filepath.Join(base, "genvm-lint")
	}

	releasesURL := os.Getenv("GENVM_LINT_RELEASES_URL")
	if releasesURL == "" {
		releasesURL = "https://artifacts.genlayer.com/genvm"
	}

	logLevel := os.Getenv("GENVM_LINT_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		CacheDir:    cacheDir,
		ReleasesURL: releasesURL,
		LogLevel:    logLevel,
		HTTPTimeout: durationEnv("GENVM_LINT_HTTP_TIMEOUT", 60*time.Second),
		OpTimeout:   durationEnv("GENVM_LINT_OP_TIMEOUT", 5*time.Minute),
		MaxRetries:  uintEnv("GENVM_LINT_MAX_RETRIES", 3),
		MaxDepth:    intEnv("GENVM_LINT_MAX_DEPTH", 8),
		RuleBundle:  os.Getenv("GENVM_LINT_RULE_BUNDLE"),
	}
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(name); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}

func uintEnv(name string, fallback uint) uint {
	if raw := os.Getenv(name); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
