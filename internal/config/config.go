package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	FrontendURL    string
	AllowedOrigins []string

	DBDriver             string
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisURL      string
	RedisPassword string
	RedisDB       int

	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	AdvisorTimeout time.Duration
	AdviceCacheTTL time.Duration

	EasyBlockChance float64
	PollInterval    time.Duration

	CleanupSchedule string
	WaitingTTL      time.Duration
	ActiveTTL       time.Duration

	JWTSecret string
	TokenTTL  time.Duration
}

// warn is replaced by the caller's logger once one exists; config is read
// before logging is set up.
var warn = func(msg string, fields ...zap.Field) {}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")
	allowedOrigins := []string{frontendURL}
	for _, origin := range strings.Split(GetEnv("ALLOWED_ORIGINS", ""), ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" && trimmed != frontendURL {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	return &Config{
		Port:           GetEnv("PORT", "8080"),
		Environment:    GetEnv("ENVIRONMENT", "development"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		FrontendURL:    frontendURL,
		AllowedOrigins: allowedOrigins,

		DBDriver:             strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
		DatabaseURL:          GetEnv("DATABASE_URL", ""),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:      GetEnv("REDIS_URL", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvAsInt("REDIS_DB", 0),

		OpenAIKey:      GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    GetEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:  GetEnv("OPENAI_BASE_URL", ""),
		AdvisorTimeout: GetEnvAsDuration("ADVISOR_TIMEOUT", 5*time.Second),
		AdviceCacheTTL: GetEnvAsDuration("ADVICE_CACHE_TTL", 10*time.Minute),

		EasyBlockChance: GetEnvAsFloat("EASY_BLOCK_CHANCE", 0.3),
		PollInterval:    GetEnvAsDuration("POLL_INTERVAL", 2*time.Second),

		CleanupSchedule: GetEnv("CLEANUP_SCHEDULE", "@every 10m"),
		WaitingTTL:      GetEnvAsDuration("WAITING_TTL", 10*time.Minute),
		ActiveTTL:       GetEnvAsDuration("ACTIVE_TTL", 30*time.Minute),

		JWTSecret: GetEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		TokenTTL:  time.Duration(GetEnvAsInt("TOKEN_TTL_HOURS", 24*30)) * time.Hour,
	}
}

// SetLogger routes warnings about malformed values to logger.
func SetLogger(logger *zap.Logger) {
	warn = logger.Named("config").Warn
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		warn("invalid integer value, using default",
			zap.String("key", key), zap.String("value", valueStr), zap.Int("default", defaultValue))
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		warn("invalid float value, using default",
			zap.String("key", key), zap.String("value", valueStr), zap.Float64("default", defaultValue))
		return defaultValue
	}
	return value
}

// GetEnvAsDuration accepts Go duration strings ("90s", "5m") or a bare
// number of seconds.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		warn("invalid duration value, using default",
			zap.String("key", key), zap.String("value", valueStr), zap.Duration("default", defaultValue))
		return defaultValue
	}
	return value
}
