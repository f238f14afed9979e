// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, store selection, provider credentials and resilience, suggestion
// tuning, rate limiting, and observability.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-review-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProviderConfig holds external API credentials and resilience settings.
// Blank credentials are allowed; the affected features degrade at runtime.
type ProviderConfig struct {
	GoogleAPIKey      string // GOOGLE_API_KEY (text, embeddings, custom search)
	GeminiModel       string // GEMINI_MODEL
	GeminiEmbedModel  string // GEMINI_EMBED_MODEL
	SearchEngineID    string // SEARCH_ENGINE_ID
	UnsplashAccessKey string // UNSPLASH_ACCESS_KEY
	ImageGenBaseURL   string // IMAGE_GEN_BASE_URL

	TextTimeout  time.Duration // per attempt
	EmbedTimeout time.Duration
	ImageTimeout time.Duration

	RetryAttempts  int           // total tries per call
	RetryBaseDelay time.Duration // delay before retry n is base*n
}

// SuggestConfig tunes the hybrid search engine.
type SuggestConfig struct {
	TopK       int           // existing matches returned
	MaxNew     int           // brainstormed products, clamped to [4,8] by the service
	ImageDelay time.Duration // spacing between image lookups
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s, generation is slow
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DatabaseURL   string        // mongodb://, postgres:// or a SQLite path
	DBName        string        // document database name (mongo only)
	RedisURL      string        // optional image cache backend
	ImageCacheTTL time.Duration // cached image lookups expire after this

	// Review lifecycle
	RegenCooldown time.Duration

	Providers ProviderConfig
	Suggest   SuggestConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// ErrMissingDatabaseURL is returned by Load when DATABASE_URL is unset.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, applies defaults and normalizes values. The
// returned error joins every validation failure; the Config is still filled
// in so callers can log what was read.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Storage
		DatabaseURL:   strings.TrimSpace(getenv("DATABASE_URL", "")),
		DBName:        getenv("DB_NAME", "reviews"),
		RedisURL:      strings.TrimSpace(getenv("REDIS_URL", "")),
		ImageCacheTTL: getdur("IMAGE_CACHE_TTL", 7*24*time.Hour),

		RegenCooldown: getdur("REGEN_COOLDOWN", 24*time.Hour),

		Providers: ProviderConfig{
			GoogleAPIKey:      getenv("GOOGLE_API_KEY", ""),
			GeminiModel:       getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiEmbedModel:  getenv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			SearchEngineID:    getenv("SEARCH_ENGINE_ID", ""),
			UnsplashAccessKey: getenv("UNSPLASH_ACCESS_KEY", ""),
			ImageGenBaseURL:   getenv("IMAGE_GEN_BASE_URL", ""),
			TextTimeout:       getdur("TEXT_TIMEOUT", 30*time.Second),
			EmbedTimeout:      getdur("EMBED_TIMEOUT", 10*time.Second),
			ImageTimeout:      getdur("IMAGE_TIMEOUT", 8*time.Second),
			RetryAttempts:     getint("RETRY_ATTEMPTS", 3),
			RetryBaseDelay:    getdur("RETRY_BASE_DELAY", time.Second),
		},
		Suggest: SuggestConfig{
			TopK:       getint("SUGGEST_TOP_K", 5),
			MaxNew:     getint("SUGGEST_MAX_NEW", 6),
			ImageDelay: getdur("SUGGEST_IMAGE_DELAY", 275*time.Millisecond),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
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
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-review-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
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

	return cfg, cfg.validate()
}

// validate reports every invalid setting at once so a bad deployment is fixed
// in one round trip.
func (c Config) validate() error {
	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		check(true, "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	check(c.ImageCacheTTL <= 0, "IMAGE_CACHE_TTL must be > 0")
	check(c.RegenCooldown < 0, "REGEN_COOLDOWN must be >= 0")

	p := c.Providers
	check(p.TextTimeout <= 0 || p.EmbedTimeout <= 0 || p.ImageTimeout <= 0,
		"provider timeouts must be positive durations")
	check(p.RetryAttempts < 1, "RETRY_ATTEMPTS must be >= 1")
	check(p.RetryBaseDelay < 0, "RETRY_BASE_DELAY must be >= 0")
	if p.ImageGenBaseURL != "" {
		u, err := url.Parse(p.ImageGenBaseURL)
		check(err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "",
			"IMAGE_GEN_BASE_URL must be an absolute http(s) URL")
	}

	check(c.Suggest.TopK < 1, "SUGGEST_TOP_K must be >= 1")
	check(c.Suggest.ImageDelay < 0, "SUGGEST_IMAGE_DELAY must be >= 0")

	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

// lookup returns the parsed value of k, or def when k is unset, empty or
// does not parse.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

var errNotBool = errors.New("not a boolean")

func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// splitCSV splits on commas, trimming and dropping blank items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns p with exactly one leading slash and no trailing
// slash; blank or "/" yields "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
