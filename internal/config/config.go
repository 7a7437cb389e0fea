package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	SeedPath    string

	GeocodeStore string
	RedisURL     string
	// NegativeTTL > 0 lets a failed address be resolved again once its
	// cached absence is older than the TTL. Zero caches failures forever.
	NegativeTTL time.Duration

	Geocoder GeocoderConfig
}

type GeocoderConfig struct {
	Token            string
	BaseURL          string
	Timeout          time.Duration
	RatePerSec       float64
	Burst            int
	Concurrency      int
	FailureThreshold int
	BreakerTimeout   time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         Get("PORT", "8080"),
		Environment:  Get("ENVIRONMENT", "development"),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SeedPath:     Get("SEED_PATH", "data/seeds/catalog.json"),
		GeocodeStore: strings.ToLower(Get("GEOCODE_STORE", StorePostgres)),
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		NegativeTTL:  GetDuration("GEOCODE_NEGATIVE_TTL", 0),
		Geocoder: GeocoderConfig{
			Token:            strings.TrimSpace(os.Getenv("GEOCODER_TOKEN")),
			BaseURL:          Get("GEOCODER_BASE_URL", "https://geocode-maps.yandex.ru/1.x"),
			Timeout:          GetDuration("GEOCODER_TIMEOUT", 5*time.Second),
			RatePerSec:       GetFloat("GEOCODER_RATE_PER_SEC", 5),
			Burst:            GetInt("GEOCODER_BURST", 5),
			Concurrency:      GetInt("GEOCODER_CONCURRENCY", 4),
			FailureThreshold: GetInt("CB_FAILURE_THRESHOLD", 5),
			BreakerTimeout:   GetDuration("CB_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Geocoder.Token == "" {
		errs = append(errs, errors.New("GEOCODER_TOKEN is required"))
	}

	switch c.GeocodeStore {
	case StorePostgres, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when GEOCODE_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("GEOCODE_STORE must be one of postgres, redis, memory; got %q", c.GeocodeStore))
	}

	if c.Geocoder.Concurrency < 1 {
		errs = append(errs, errors.New("GEOCODER_CONCURRENCY must be positive"))
	}
	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, errors.New("GEOCODER_TIMEOUT must be positive"))
	}
	if c.Geocoder.RatePerSec <= 0 || c.Geocoder.Burst < 1 {
		errs = append(errs, errors.New("GEOCODER_RATE_PER_SEC and GEOCODER_BURST must be positive"))
	}
	if c.NegativeTTL < 0 {
		errs = append(errs, errors.New("GEOCODE_NEGATIVE_TTL must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v, err := strconv.Atoi(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

func GetFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(Get(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

// GetDuration accepts Go duration strings ("5s") or plain seconds ("5").
func GetDuration(key string, fallback time.Duration) time.Duration {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
