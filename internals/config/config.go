package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/thebowwman/navplot/internals/domain"
)

// Config holds the server configuration
type Config struct {
	Addr               string
	JWTSecret          string
	TokenTTL           time.Duration
	DefaultSpeedKnots  float64
	OriginIcon         string
	WaypointIcon       string
	LogLevel           string
	LogDir             string
	NATSURL            string
	GeolocationTimeout time.Duration
}

// Load loads the configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getenv("APP_ADDR", ":8081"),
		JWTSecret:    getenv("APP_JWT_SECRET", "dev-secret-change-me"),
		OriginIcon:   getenv("APP_ORIGIN_ICON", "/static/marker-origin.png"),
		WaypointIcon: getenv("APP_WAYPOINT_ICON", "/static/marker-waypoint.png"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogDir:       getenv("LOG_DIR", "logs"),
		NATSURL:      os.Getenv("NATS_URL"),
	}

	var err error
	if cfg.TokenTTL, err = duration("APP_TOKEN_TTL", 4*time.Hour); err != nil {
		return nil, err
	}
	if cfg.GeolocationTimeout, err = duration("APP_GEOLOCATION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.DefaultSpeedKnots = domain.DefaultSpeedKnots
	if s := os.Getenv("APP_DEFAULT_SPEED_KNOTS"); s != "" {
		if cfg.DefaultSpeedKnots, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("invalid APP_DEFAULT_SPEED_KNOTS %q: %w", s, err)
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, s)
	}
	return d, nil
}
