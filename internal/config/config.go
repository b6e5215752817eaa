package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	// AuthzMode selects the operation gate: "static" (default) or
	// "opa".
	AuthzMode       string
	AuthzBundlePath string

	// BootstrapAdmin is granted the admin role at startup so a fresh
	// deployment has at least one identity able to grant roles.
	BootstrapAdmin string

	Network       string
	LedgerAddress string

	PinataBaseURL   string
	PinataJWT       string
	PinataAPIKey    string
	PinataSecretKey string
	PinataGateway   string

	QRSize int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		AuthzMode:              envDefault("AUTHZ_MODE", "static"),
		AuthzBundlePath:        os.Getenv("AUTHZ_BUNDLE_PATH"),
		BootstrapAdmin:         os.Getenv("BOOTSTRAP_ADMIN"),
		Network:                envDefault("LEDGER_NETWORK", "local"),
		LedgerAddress:          os.Getenv("LEDGER_ADDRESS"),
		PinataBaseURL:          envDefault("PINATA_BASE_URL", "https://api.pinata.cloud"),
		PinataJWT:              os.Getenv("PINATA_JWT"),
		PinataAPIKey:           os.Getenv("PINATA_API_KEY"),
		PinataSecretKey:        os.Getenv("PINATA_SECRET_API_KEY"),
		PinataGateway:          envDefault("PINATA_GATEWAY", "https://gateway.pinata.cloud"),
		QRSize:                 envIntDefault("QR_SIZE", 512),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
