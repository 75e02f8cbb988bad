package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Vision   VisionConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Scan     ScanConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	HealthTimeout   time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// VisionConfig holds OCR provider configuration
type VisionConfig struct {
	CredentialsJSON string // raw service-account JSON, as the deploy env carries it
	Timeout         time.Duration
}

// LLMConfig holds completion-model configuration
type LLMConfig struct {
	Model         string
	APIKey        string
	BaseURL       string
	Temperature   float64
	MaxTokens     int64
	BulkMaxTokens int64
	Timeout       time.Duration
}

// StorageConfig holds the object-bucket configuration. The bucket API is
// S3-compatible; PublicBaseURL is what file records expose to the UI.
type StorageConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// ScanConfig holds pipeline behavior configuration
type ScanConfig struct {
	TemplatesDir     string
	PreprocessMode   string // "native" or "command"
	PreprocessCmd    string // used when PreprocessMode == "command"
	MaxPDFPages      int
	StageTimeout     time.Duration
	MaxUploadBytes   int64
	TempDir          string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			HealthTimeout:   getEnvAsDuration("DB_HEALTH_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Vision: VisionConfig{
			CredentialsJSON: getEnv("GOOGLE_VISION", ""),
			Timeout:         getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Model:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			BaseURL:       getEnv("OPENAI_BASE_URL", ""),
			Temperature:   getEnvAsFloat64("OPENAI_TEMPERATURE", 0.0),
			MaxTokens:     getEnvAsInt64("OPENAI_MAX_TOKENS", 1500),
			BulkMaxTokens: getEnvAsInt64("OPENAI_BULK_MAX_TOKENS", 4000),
			Timeout:       getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			Region:        getEnv("STORAGE_REGION", "us-east-1"),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "images"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		},
		Scan: ScanConfig{
			TemplatesDir:   getEnv("PROMPT_TEMPLATES_DIR", "./locales"),
			PreprocessMode: getEnv("PREPROCESS_MODE", "native"),
			PreprocessCmd:  getEnv("PREPROCESS_CMD", ""),
			MaxPDFPages:    getEnvAsInt("SCAN_MAX_PDF_PAGES", 3),
			StageTimeout:   getEnvAsDuration("SCAN_STAGE_TIMEOUT", 60*time.Second),
			MaxUploadBytes: getEnvAsInt64("SCAN_MAX_UPLOAD_BYTES", 20<<20),
			TempDir:        getEnv("SCAN_TEMP_DIR", ""),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Vision.CredentialsJSON == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_VISION is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Scan.PreprocessMode == "command" && c.Scan.PreprocessCmd == "" {
		return NewAppError("CONFIG_ERROR", "PREPROCESS_CMD is required when PREPROCESS_MODE=command", ErrInvalidInput)
	}
	return nil
}
