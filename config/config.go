package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	AI       AIConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	RecordTTL time.Duration
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
	StorageBucket   string
}

// StorageConfig selects the object store used for uploads.
// Driver is either "gcs" (Firebase storage bucket) or "s3".
type StorageConfig struct {
	Driver        string
	Bucket        string
	Region        string
	PublicBaseURL string
	CacheControl  string
}

type AIConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	ReportTimeout     time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	DevAuth     bool
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "cnpie"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			RecordTTL: getEnvAsDuration("REDIS_RECORD_TTL", 24*time.Hour),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			StorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "gcs"),
			Bucket:        getEnv("STORAGE_BUCKET", ""),
			Region:        getEnv("STORAGE_REGION", "us-east-1"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			CacheControl:  getEnv("STORAGE_CACHE_CONTROL", "public, max-age=3600"),
		},
		AI: AIConfig{
			BaseURL:           getEnv("AI_BASE_URL", ""),
			APIKey:            getEnv("AI_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("AI_REQUESTS_PER_SECOND", 2),
			Burst:             getEnvAsInt("AI_BURST", 4),
			ReportTimeout:     getEnvAsDuration("AI_REPORT_TIMEOUT", 120*time.Second),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			DevAuth:     getEnvAsBool("APP_DEV_AUTH", false),
		},
	}

	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = cfg.Firebase.StorageBucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	switch c.Storage.Driver {
	case "gcs", "s3":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be gcs or s3, got %q", c.Storage.Driver)
	}

	if !c.App.DevAuth && c.Firebase.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required unless APP_DEV_AUTH=true")
	}

	if c.AI.RequestsPerSecond <= 0 {
		return fmt.Errorf("AI_REQUESTS_PER_SECOND must be positive")
	}

	return nil
}

// PostgresDSN returns DB_DSN when set, otherwise builds one from the discrete fields.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
