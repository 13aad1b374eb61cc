// Package config resolves runtime settings from the environment and an
// optional .env file. Command-line flags override these values in cmd/.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	GitHubToken      string        // Optional bearer token; raises the anonymous rate ceiling.
	SOfficeBinary    string        // Document conversion binary used by the heavy PDF lane.
	HTTPTimeout      time.Duration // Per-call timeout for GitHub requests.
	ConvertTimeout   time.Duration // Per-file timeout for external conversion.
	MaxFileSizeMB    int           // Largest local file accepted into a queue.
	RateLimitCalls   int           // Calls allowed per RateLimitWindow.
	RateLimitWindow  time.Duration // Sliding window for the advisory rate limiter.
	GlobalIgnoreFile string        // Optional ignore file applied to every tree and local walk.
	Debug            bool          // Development logger with debug level.
}

// Defaults mirror the limits the tool has always shipped with.
const (
	DefaultSOffice        = "soffice"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultConvertTimeout = 120 * time.Second
	DefaultMaxFileSizeMB  = 50
	DefaultRateCalls      = 60
	DefaultRateWindow     = time.Hour
)

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can avoid the
// process environment.
func FromEnv(getenv func(string) string) *Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	return &Config{
		GitHubToken:      firstNonEmpty(get("GITHUB_TOKEN"), get("GH_TOKEN")),
		SOfficeBinary:    firstNonEmpty(get("DOCUSTREAM_SOFFICE"), DefaultSOffice),
		HTTPTimeout:      parseDuration(get("DOCUSTREAM_HTTP_TIMEOUT"), DefaultHTTPTimeout),
		ConvertTimeout:   parseDuration(get("DOCUSTREAM_CONVERT_TIMEOUT"), DefaultConvertTimeout),
		MaxFileSizeMB:    parsePositiveInt(get("DOCUSTREAM_MAX_FILE_MB"), DefaultMaxFileSizeMB),
		RateLimitCalls:   parsePositiveInt(get("DOCUSTREAM_RATE_CALLS"), DefaultRateCalls),
		RateLimitWindow:  parseDuration(get("DOCUSTREAM_RATE_WINDOW"), DefaultRateWindow),
		GlobalIgnoreFile: get("DOCUSTREAM_GLOBAL_IGNORE"),
		Debug:            parseBool(get("DOCUSTREAM_DEBUG")),
	}
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// Bare integers are seconds.
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func parsePositiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
