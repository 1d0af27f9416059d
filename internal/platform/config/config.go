package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	errInvalidPort        = errors.New("config: invalid PORT number")
	errInvalidPerPage     = errors.New("config: DEFAULT_PER_PAGE must be a positive integer")
	errSiteRequired       = errors.New("config: DEFAULT_SITE must not be empty")
	errInvalidDuration    = errors.New("config: durations must be positive")
	errInvalidRateLimit   = errors.New("config: WP_RATE_LIMIT must be positive and WP_RATE_BURST at least 1")
	errInvalidTitleMarkup = errors.New("config: TITLE_MARKUP must be \"html\" or \"text\"")
	errInvalidTimezone    = errors.New("config: DISPLAY_TZ is not a known time zone")
	errInvalidCacheSize   = errors.New("config: CACHE_MAX_ENTRIES must be at least 1")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port             string
	LogLevel         string
	APIHost          string
	DefaultSite      string
	DefaultPerPage   string
	DebounceInterval time.Duration
	FetchTimeout     time.Duration
	RateLimit        float64
	RateBurst        int
	DisplayTZ        string
	TitleMarkup      string
	CacheMaxEntries  int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory, if present, is loaded first; variables
// already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "ERROR"),
		APIHost:          getEnv("WP_API_HOST", "https://public-api.wordpress.com/"),
		DefaultSite:      getEnv("DEFAULT_SITE", "retrofoxsimplecustom01.wordpress.com"),
		DefaultPerPage:   getEnv("DEFAULT_PER_PAGE", "5"),
		DebounceInterval: getEnvAsDuration("DEBOUNCE_INTERVAL", time.Second),
		FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
		RateLimit:        getEnvAsFloat("WP_RATE_LIMIT", 5),
		RateBurst:        getEnvAsInt("WP_RATE_BURST", 5),
		DisplayTZ:        getEnv("DISPLAY_TZ", "UTC"),
		TitleMarkup:      getEnv("TITLE_MARKUP", "html"),
		CacheMaxEntries:  getEnvAsInt("CACHE_MAX_ENTRIES", 256),
	}

	return cfg, cfg.validate()
}

// Location returns the time zone dates are displayed in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if n, err := strconv.Atoi(c.DefaultPerPage); err != nil || n < 1 {
		return fmt.Errorf("%w: %q", errInvalidPerPage, c.DefaultPerPage)
	}

	if c.DefaultSite == "" {
		return errSiteRequired
	}

	if c.DebounceInterval <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: debounce %s, fetch timeout %s", errInvalidDuration, c.DebounceInterval, c.FetchTimeout)
	}

	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("%w: got %g/%d", errInvalidRateLimit, c.RateLimit, c.RateBurst)
	}

	if c.TitleMarkup != "html" && c.TitleMarkup != "text" {
		return fmt.Errorf("%w: %q", errInvalidTitleMarkup, c.TitleMarkup)
	}

	if _, err := time.LoadLocation(c.DisplayTZ); err != nil {
		return fmt.Errorf("%w: %q", errInvalidTimezone, c.DisplayTZ)
	}

	if c.CacheMaxEntries < 1 {
		return fmt.Errorf("%w: got %d", errInvalidCacheSize, c.CacheMaxEntries)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvAsDuration accepts Go duration syntax ("1s", "750ms") or a bare
// number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
