package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "AzoreFaucet"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultFaucetAmount  = "0.5"
	defaultCooldownHours = 24
	defaultRatePerHour   = 5
	defaultOriginSalt    = "azore-faucet-salt-2024"

	defaultIdempotencyTTL = 10 * time.Minute

	cooldownHoursEnvVar    = "COOLDOWN_HOURS"
	idempotencyTTLEnvVar   = "IDEMPOTENCY_TTL"
	rateLimitEnvVar        = "RATE_LIMIT_PER_HOUR"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName            string
	AppEnv             string
	Port               string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	RPCURL             string
	TreasuryAddress    string
	TreasuryPrivateKey string
	FaucetAmount       string
	Cooldown           time.Duration
	OriginHashSalt     string
	RateLimitPerHour   int
	IdempotencyTTL     time.Duration
	ShutdownPeriod     time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RPCURL:             os.Getenv("RPC_URL"),
		TreasuryAddress:    os.Getenv("TREASURY_ADDRESS"),
		TreasuryPrivateKey: os.Getenv("TREASURY_PRIVATE_KEY"),
		FaucetAmount:       getEnv("FAUCET_AMOUNT", defaultFaucetAmount),
		Cooldown:           defaultCooldownHours * time.Hour,
		OriginHashSalt:     getEnv("ORIGIN_HASH_SALT", defaultOriginSalt),
		RateLimitPerHour:   defaultRatePerHour,
		IdempotencyTTL:     defaultIdempotencyTTL,
		ShutdownPeriod:     defaultShutdownDelay,
	}

	if v := os.Getenv(idempotencyTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idempotencyTTLEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv(cooldownHoursEnvVar); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", cooldownHoursEnvVar, err)
		}
		cfg.Cooldown = time.Duration(hours * float64(time.Hour))
	}

	if v := os.Getenv(rateLimitEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", rateLimitEnvVar, err)
		}
		cfg.RateLimitPerHour = n
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("RPC_URL must be set")
	}
	if cfg.TreasuryAddress == "" {
		return Config{}, fmt.Errorf("TREASURY_ADDRESS must be set")
	}
	if cfg.TreasuryPrivateKey == "" {
		return Config{}, fmt.Errorf("TREASURY_PRIVATE_KEY must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
