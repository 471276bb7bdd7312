package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all pipeline configuration
type Config struct {
	Limits  LimitsConfig
	OCR     OCRConfig
	Logging LoggingConfig
}

type LimitsConfig struct {
	// MaxFileBytes caps the accepted document size.
	MaxFileBytes int64
}

type OCRConfig struct {
	PdftoppmPath  string
	TesseractPath string
	HeicToolPath  string
	Language      string
	DPI           int
	MaxScanPages  int
	CallTimeout   time.Duration
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Limits: LimitsConfig{
			MaxFileBytes: getEnvAsInt64("STMT_MAX_FILE_BYTES", 10<<20),
		},
		OCR: OCRConfig{
			PdftoppmPath:  getEnv("STMT_PDFTOPPM_PATH", "pdftoppm"),
			TesseractPath: getEnv("STMT_TESSERACT_PATH", "tesseract"),
			HeicToolPath:  getEnv("STMT_HEIC_TOOL_PATH", "heif-convert"),
			Language:      getEnv("STMT_OCR_LANGUAGE", "eng"),
			DPI:           getEnvAsInt("STMT_OCR_DPI", 300),
			MaxScanPages:  getEnvAsInt("STMT_OCR_MAX_PAGES", 5),
			CallTimeout:   getEnvAsDuration("STMT_OCR_CALL_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("STMT_LOG_LEVEL", "info"),
			Format: getEnv("STMT_LOG_FORMAT", "text"),
		},
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
