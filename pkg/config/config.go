package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Mode selects which repository implementation backs the inventory layer.
type Mode string

const (
	// ModeLive uses Postgres plus the remote object store.
	ModeLive Mode = "live"
	// ModeMock uses the deterministic in-memory store persisted to a local file.
	ModeMock Mode = "mock"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Inventory InventoryConfig
	Sentry    SentryConfig
}

// ServerConfig holds service-level configuration
type ServerConfig struct {
	Environment string
	ServiceName string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration for the read-through vehicle cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// StorageConfig holds remote object store (S3) configuration
type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for S3-compatible stores
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base URL served to browsers, e.g. CDN origin
	UsePathStyle  bool
}

// InventoryConfig selects the repository mode and mock-store persistence
type InventoryConfig struct {
	Mode          Mode
	MockStorePath string
	SeedDemo      bool
	DealerID      string // tenant used by the composition root for seeding
}

// SentryConfig holds error-reporting configuration
type SentryConfig struct {
	DSN         string
	Environment string
	SampleRate  float64
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Environment: getEnv("ENVIRONMENT", "development"),
			ServiceName: serviceName,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "motorlot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("STORAGE_BUCKET", "motorlot-media"),
			Region:        getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			UsePathStyle:  getEnvAsBool("STORAGE_PATH_STYLE", false),
		},
		Inventory: InventoryConfig{
			Mode:          Mode(getEnv("INVENTORY_MODE", string(ModeMock))),
			MockStorePath: getEnv("INVENTORY_MOCK_STORE_PATH", "inventory.json"),
			SeedDemo:      getEnvAsBool("INVENTORY_SEED_DEMO", false),
			DealerID:      getEnv("INVENTORY_DEALER_ID", ""),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("ENVIRONMENT", "development"),
			SampleRate:  getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		},
	}

	switch cfg.Inventory.Mode {
	case ModeLive, ModeMock:
	default:
		return nil, fmt.Errorf("invalid INVENTORY_MODE %q: must be %q or %q",
			cfg.Inventory.Mode, ModeLive, ModeMock)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection URL used by the migration runner
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
