package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Query       QueryConfig
	Cache       CacheConfig
	Areas       AreasConfig
	GeoIP       GeoIPConfig
	Admin       AdminConfig
	Log         LogConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Table    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// QueryConfig bounds how many rows a single read may return
type QueryConfig struct {
	FeatureDefaultLimit int
	FeatureMaxLimit     int
	HeatMaxLimit        int
	StatsGroupLimit     int
	AdminMaxPageSize    int
}

// CacheConfig holds TTLs for cached read responses
type CacheConfig struct {
	FeaturesTTL     time.Duration
	StatsTTL        time.Duration
	ProvincesTTL    time.Duration
	MemoryEntries   int
	WarmingInterval time.Duration
}

// AreasConfig points at the static province/district centroid tables
type AreasConfig struct {
	TablesPath string
}

// GeoIPConfig holds the MaxMind city database location
type GeoIPConfig struct {
	DatabasePath string
}

// AdminConfig holds the shared token guarding the admin listing route
type AdminConfig struct {
	Token string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pharmacy_map"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Table:    getEnv("PHARMACY_TABLE", "pharmacy_stores_cleaned"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Query: QueryConfig{
			FeatureDefaultLimit: getEnvAsInt("QUERY_FEATURE_DEFAULT_LIMIT", 2000),
			FeatureMaxLimit:     getEnvAsInt("QUERY_FEATURE_MAX_LIMIT", 2000),
			HeatMaxLimit:        getEnvAsInt("QUERY_HEAT_MAX_LIMIT", 20000),
			StatsGroupLimit:     getEnvAsInt("QUERY_STATS_GROUP_LIMIT", 30),
			AdminMaxPageSize:    getEnvAsInt("QUERY_ADMIN_MAX_PAGE_SIZE", 200),
		},
		Cache: CacheConfig{
			FeaturesTTL:     getEnvAsDuration("CACHE_FEATURES_TTL", 2*time.Minute),
			StatsTTL:        getEnvAsDuration("CACHE_STATS_TTL", 10*time.Minute),
			ProvincesTTL:    getEnvAsDuration("CACHE_PROVINCES_TTL", time.Hour),
			MemoryEntries:   getEnvAsInt("CACHE_MEMORY_ENTRIES", 1024),
			WarmingInterval: getEnvAsDuration("CACHE_WARMING_INTERVAL", 5*time.Minute),
		},
		Areas: AreasConfig{
			TablesPath: getEnv("AREA_TABLES_PATH", ""),
		},
		GeoIP: GeoIPConfig{
			DatabasePath: getEnv("GEOIP_DB_PATH", ""),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_API_TOKEN", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pharmacy-map-api"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxStatsGroupLimit is the most rows a stats rollup may return
const MaxStatsGroupLimit = 30

// Validate rejects limits that would make every query return nothing
func (c *Config) Validate() error {
	q := c.Query
	switch {
	case q.FeatureMaxLimit < 1:
		return fmt.Errorf("QUERY_FEATURE_MAX_LIMIT must be positive, got %d", q.FeatureMaxLimit)
	case q.FeatureDefaultLimit < 1 || q.FeatureDefaultLimit > q.FeatureMaxLimit:
		return fmt.Errorf("QUERY_FEATURE_DEFAULT_LIMIT must be in [1, %d], got %d", q.FeatureMaxLimit, q.FeatureDefaultLimit)
	case q.HeatMaxLimit < 1:
		return fmt.Errorf("QUERY_HEAT_MAX_LIMIT must be positive, got %d", q.HeatMaxLimit)
	case q.StatsGroupLimit < 1 || q.StatsGroupLimit > MaxStatsGroupLimit:
		return fmt.Errorf("QUERY_STATS_GROUP_LIMIT must be in [1, %d], got %d", MaxStatsGroupLimit, q.StatsGroupLimit)
	case q.AdminMaxPageSize < 1:
		return fmt.Errorf("QUERY_ADMIN_MAX_PAGE_SIZE must be positive, got %d", q.AdminMaxPageSize)
	}
	if c.Database.Table == "" {
		return errors.New("PHARMACY_TABLE must not be empty")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
