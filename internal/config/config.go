// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database path, error exposure and
// observability.
//
// Before reading the environment, Load merges an optional dotenv file
// (ENV_FILE, default ".env"). Variables already set in the process win over
// the file; a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-rest-errors")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ErrorsConfig controls how much of an unexpected error reaches clients.
type ErrorsConfig struct {
	// HideInternal replaces raw messages and stack traces in 500
	// unknown_error responses with a generic message (ERRORS_HIDE_INTERNAL).
	HideInternal bool
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath       string        // SQLite path
	DBSlowQuery  time.Duration // queries slower than this are logged at warn; 0 disables
	MaxBodyBytes int64         // request body cap in bytes

	// Error responses
	Errors ErrorsConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
//
// A variable that is set but cannot be parsed is an error, not a silent
// fallback to the default. Every problem found is reported at once; the
// returned error joins them in variable order.
func Load() (Config, error) {
	if err := loadDotEnv(lookup("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.boolean("LOG_PRETTY", false),
		SwaggerEnabled: e.boolean("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DBPath:       e.str("DB_PATH", "app.db"),
		DBSlowQuery:  e.duration("DB_SLOW_QUERY", 200*time.Millisecond),
		MaxBodyBytes: int64(e.integer("MAX_BODY_BYTES", 1<<20)),

		Errors: ErrorsConfig{
			HideInternal: e.boolean("ERRORS_HIDE_INTERNAL", false),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.boolean("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     e.boolean("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.boolean("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-rest-errors"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		e.failf("LOG_LEVEL", "must be one of: debug, info, warn, error, fatal, panic")
	}
	e.require(strings.TrimSpace(cfg.Port) != "", "PORT", "must not be empty")
	e.require(cfg.ReadTimeout > 0, "READ_TIMEOUT", "must be a positive duration")
	e.require(cfg.ReadHeaderTimeout > 0, "READ_HEADER_TIMEOUT", "must be a positive duration")
	e.require(cfg.WriteTimeout > 0, "WRITE_TIMEOUT", "must be a positive duration")
	e.require(cfg.IdleTimeout > 0, "IDLE_TIMEOUT", "must be a positive duration")
	e.require(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES", "must be > 0")
	e.require(strings.TrimSpace(cfg.DBPath) != "", "DB_PATH", "must not be empty")
	e.require(cfg.DBSlowQuery >= 0, "DB_SLOW_QUERY", "must be >= 0")
	e.require(cfg.MaxBodyBytes > 0, "MAX_BODY_BYTES", "must be > 0")
	e.require(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE", "must be >= 0")
	e.require(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG", "must be in [0,1]")

	return cfg, e.err()
}

// loadDotEnv merges path into the process environment without overriding
// variables that are already set. A missing file is ignored.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// lookup returns the value of k, or def when k is unset or empty.
func lookup(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// env reads typed variables and collects every problem it sees.
type env struct {
	problems []error
}

func (e *env) failf(key, format string, args ...any) {
	e.problems = append(e.problems, fmt.Errorf("%s %s", key, fmt.Sprintf(format, args...)))
}

func (e *env) require(ok bool, key, msg string) {
	if !ok {
		e.failf(key, "%s", msg)
	}
}

func (e *env) err() error {
	return errors.Join(e.problems...)
}

// raw returns the trimmed value of k and whether it was set to something.
func (e *env) raw(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	return v, v != ""
}

func (e *env) str(k, def string) string {
	return lookup(k, def)
}

func (e *env) integer(k string, def int) int {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.failf(k, "must be an integer, got %q", v)
		return def
	}
	return i
}

func (e *env) number(k string, def float64) float64 {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.failf(k, "must be a number, got %q", v)
		return def
	}
	return f
}

func (e *env) boolean(k string, def bool) bool {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.failf(k, "must be a boolean, got %q", v)
	return def
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.failf(k, "must be a duration like 15s, got %q", v)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
