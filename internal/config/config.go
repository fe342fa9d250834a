package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"healthloop/internal/logger"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	AppPort     string
	StoreDriver string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// Origin accepted on websocket upgrades; empty accepts any.
	AllowedOrigin string

	// Optional YAML file overriding the built-in loyalty rules.
	LoyaltyRulesFile string

	MonthlyGrantEnabled  bool
	MonthlyGrantSchedule string

	APIRateLimit      int
	APIRateWindow     time.Duration
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	PointsRateLimit   int
	PointsRateWindow  time.Duration
	IdempotencyTTL    time.Duration
	DBBreakerFailures uint32
}

// Load reads the environment (and .env if present). Missing required values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	storeDriver := getenv("STORE_DRIVER")
	if storeDriver == "" {
		storeDriver = StorePostgres
	}
	if storeDriver != StorePostgres && storeDriver != StoreMemory {
		return nil, errors.New("STORE_DRIVER must be postgres or memory")
	}

	dbURL := getenv("DATABASE_URL")
	if dbURL == "" && storeDriver == StorePostgres {
		return nil, errors.New("DATABASE_URL is not set")
	}

	jwtSecret := getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	port := getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	schedule := getenv("MONTHLY_GRANT_SCHEDULE")
	if schedule == "" {
		schedule = "0 3 1 * *" // 03:00 on the 1st of every month
	}

	return &Config{
		AppPort:     port,
		StoreDriver: storeDriver,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		JWTTTL:      time.Duration(intEnv(getenv, "JWT_TTL_HOURS", 72)) * time.Hour,

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       intEnv(getenv, "REDIS_DB", 0),

		LogLevel: getenv("LOG_LEVEL"),
		LogJSON:  getenv("LOG_JSON") == "true",

		AllowedOrigin: getenv("ALLOWED_ORIGIN"),

		LoyaltyRulesFile: getenv("LOYALTY_RULES_FILE"),

		MonthlyGrantEnabled:  getenv("MONTHLY_GRANT_ENABLED") != "false",
		MonthlyGrantSchedule: schedule,

		APIRateLimit:      intEnv(getenv, "API_RATE_LIMIT", 120),
		APIRateWindow:     time.Duration(intEnv(getenv, "API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AuthRateLimit:     intEnv(getenv, "AUTH_RATE_LIMIT", 10),
		AuthRateWindow:    time.Duration(intEnv(getenv, "AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		PointsRateLimit:   intEnv(getenv, "POINTS_RATE_LIMIT", 30),
		PointsRateWindow:  time.Duration(intEnv(getenv, "POINTS_RATE_WINDOW_SECONDS", 60)) * time.Second,
		IdempotencyTTL:    time.Duration(intEnv(getenv, "IDEMPOTENCY_TTL_SECONDS", 86400)) * time.Second,
		DBBreakerFailures: uint32(intEnv(getenv, "DB_BREAKER_MAX_FAILURES", 5)),
	}, nil
}

// intEnv returns def when the variable is unset, malformed or not positive.
// REDIS_DB is the exception: 0 is a valid database index.
func intEnv(getenv func(string) string, key string, def int) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || (n == 0 && key != "REDIS_DB") {
		return def
	}
	return n
}
