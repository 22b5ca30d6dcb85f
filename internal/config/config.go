package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultGeocoderURL = "https://api.opencagedata.com/geocode/v1/json"

type Config struct {
	Env  string
	Port int

	StoreDriver string
	DBURL       string

	GeocoderURL     string
	GeocoderAPIKey  string
	GeocoderTimeout time.Duration

	JWTSecret     string
	JWTExpiration time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SignupRateLimit  int
	SignupRateWindow time.Duration

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	OTLPEndpoint string
}

// Load reads the process environment once at startup. A .env file in the
// working directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 3000),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DBURL:       buildDBURL(),

		GeocoderURL:     getEnv("GEOCODER_URL", DefaultGeocoderURL),
		GeocoderAPIKey:  getEnv("API_KEY", ""),
		GeocoderTimeout: getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),

		JWTSecret:     getEnv("JWT_SECRET_KEY", ""),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SignupRateLimit:  getEnvInt("SIGNUP_RATE_LIMIT", 10),
		SignupRateWindow: getEnvDuration("SIGNUP_RATE_WINDOW", time.Minute),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	if c.StoreDriver != "postgres" && c.StoreDriver != "memory" {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.StoreDriver))
	}

	if c.JWTSecret == "" && c.Env != "dev" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}

	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}

	if c.SignupRateLimit <= 0 || c.SignupRateWindow <= 0 {
		errs = append(errs, errors.New("SIGNUP_RATE_LIMIT and SIGNUP_RATE_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USERNAME", "funapp")
	pass := getEnv("DB_PASSWORD", "funapp")
	name := getEnv("DB_NAME", "funapp")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

// durations accept Go syntax ("90s", "1h") or a bare number of seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
