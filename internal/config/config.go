// Package config reads the link tracker settings from the environment.
// Unset or unparsable values fall back to defaults; Validate then rejects
// combinations the server cannot run with.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Geolocation providers accepted by GEO_PROVIDER.
const (
	GeoProviderHTTP    = "http"
	GeoProviderMaxMind = "maxmind"
	GeoProviderNone    = "none"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-link-tracker")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GeoConfig defines the background IP geolocation enrichment.
type GeoConfig struct {
	Provider string        // GEO_PROVIDER: http|maxmind|none
	Endpoint string        // GEO_ENDPOINT, "%s" is replaced by the IP
	DBPath   string        // GEOIP_DB_PATH (maxmind only)
	Timeout  time.Duration // GEO_TIMEOUT, per lookup
	CacheTTL time.Duration // GEO_CACHE_TTL, 0 disables caching
	RPS      float64       // GEO_RPS, outbound lookups per second (0 = unlimited)
	Burst    int           // GEO_BURST
	Workers  int           // GEO_WORKERS, concurrent lookups
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // drain budget for requests and geo lookups
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for JSON API routes

	// Links
	PublicBaseURL string // scheme://host used to build tracking URLs; derived per request when empty
	StoreDriver   string // memory|sqlite
	DBPath        string // SQLite DSN when StoreDriver is sqlite

	// Enrichment
	Geo GeoConfig

	// Optional rate limiting of link creation and client callbacks, per
	// visitor IP. Off unless RATE_RPS is set.
	RateRPS   float64 // tokens per second (0 = off)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for main: an invalid environment is fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, normalizes case-insensitive values and
// validates the result. The returned Config is populated even on error.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Links
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_BASE_URL", "")), "/"),
		StoreDriver:   strings.ToLower(getenv("STORE_DRIVER", StoreMemory)),
		DBPath:        getenv("DB_PATH", "file:linktracker?mode=memory&cache=shared"),

		// Enrichment
		Geo: GeoConfig{
			Provider: strings.ToLower(getenv("GEO_PROVIDER", GeoProviderHTTP)),
			Endpoint: getenv("GEO_ENDPOINT", "http://ip-api.com/json/%s"),
			DBPath:   getenv("GEOIP_DB_PATH", ""),
			Timeout:  getdur("GEO_TIMEOUT", 5*time.Second),
			CacheTTL: getdur("GEO_CACHE_TTL", time.Hour),
			RPS:      getfloat("GEO_RPS", 0.75),
			Burst:    getint("GEO_BURST", 5),
			Workers:  getint("GEO_WORKERS", 8),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-link-tracker"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

// Validate reports every invalid setting at once, joined.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	check(!oneOf(c.LogLevel, "debug", "info", "warn", "error", "fatal", "panic"),
		"LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.ShutdownTimeout <= 0, "SHUTDOWN_TIMEOUT must be > 0")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")

	// Links
	check(c.PublicBaseURL != "" &&
		!strings.HasPrefix(c.PublicBaseURL, "http://") && !strings.HasPrefix(c.PublicBaseURL, "https://"),
		"PUBLIC_BASE_URL must start with http:// or https://")
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		check(strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty")
	default:
		check(true, "STORE_DRIVER must be one of: memory, sqlite")
	}

	// Enrichment
	switch c.Geo.Provider {
	case GeoProviderNone:
	case GeoProviderHTTP:
		check(!strings.Contains(c.Geo.Endpoint, "%s"), "GEO_ENDPOINT must contain %s for the IP address")
	case GeoProviderMaxMind:
		check(strings.TrimSpace(c.Geo.DBPath) == "", "GEOIP_DB_PATH is required when GEO_PROVIDER=maxmind")
	default:
		check(true, "GEO_PROVIDER must be one of: http, maxmind, none")
	}
	check(c.Geo.Timeout <= 0, "GEO_TIMEOUT must be > 0")
	check(c.Geo.CacheTTL < 0, "GEO_CACHE_TTL must be >= 0")
	check(c.Geo.RPS < 0, "GEO_RPS must be >= 0")
	check(c.Geo.Burst < 1, "GEO_BURST must be >= 1")
	check(c.Geo.Workers < 1, "GEO_WORKERS must be >= 1")

	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// lookup returns the trimmed value of k, or "" when unset.
func lookup(k string) string {
	v, _ := os.LookupEnv(k)
	return strings.TrimSpace(v)
}

// parsed applies parse to the value of k, keeping def when k is unset or
// does not parse.
func parsed[T any](k string, def T, parse func(string) (T, error)) T {
	v := lookup(k)
	if v == "" {
		return def
	}
	if out, err := parse(v); err == nil {
		return out
	}
	return def
}

func getenv(k, def string) string {
	if v := lookup(k); v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	return parsed(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getint(k string, def int) int { return parsed(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return parsed(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool {
	switch strings.ToLower(lookup(k)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
