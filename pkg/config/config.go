package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Engine    EngineConfig
	Metrics   MetricsConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	// RetryBackoff is the base step of the linear backoff applied to connection errors.
	RetryBackoff time.Duration
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// StoreConfig selects the key/value backend shared by the cache and rate limiter.
type StoreConfig struct {
	Backend       string // memory or redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// EngineConfig holds the tunable thresholds of the anomaly detectors.
type EngineConfig struct {
	AnomalyStdDevMultiplier float64
	AnomalyRatioThreshold   float64
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for containers
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	retryBackoff, _ := strconv.Atoi(getEnv("DB_RETRY_BACKOFF_MS", "200"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sweepInterval, _ := strconv.Atoi(getEnv("STORE_SWEEP_INTERVAL_SECONDS", "60"))
	rateRequests, _ := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "900"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "300"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "telcodash"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxConns:     int32(maxConns),
			RetryBackoff: time.Duration(retryBackoff) * time.Millisecond,
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Store: StoreConfig{
			Backend:       getEnv("STORE_BACKEND", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			SweepInterval: time.Duration(sweepInterval) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			Requests: rateRequests,
			Window:   time.Duration(rateWindow) * time.Second,
		},
		Cache: CacheConfig{
			Enabled: getEnv("CACHE_ENABLED", "true") == "true",
			TTL:     time.Duration(cacheTTL) * time.Second,
		},
		Engine: EngineConfig{
			AnomalyStdDevMultiplier: getEnvFloat("ANOMALY_STDDEV_MULTIPLIER", 2),
			AnomalyRatioThreshold:   getEnvFloat("ANOMALY_RATIO_THRESHOLD", 1.5),
		},
		Metrics: MetricsConfig{
			Enabled: getEnv("METRICS_ENABLED", "true") == "true",
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// DSN renders the libpq connection string, shared by the pool and the migrator.
func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
