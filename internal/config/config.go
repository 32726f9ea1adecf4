// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultSessionSecret = "change-me-session-secret"
	defaultFlashSecret   = "change-me-flash-secret"
)

type Config struct {
	Environment     string
	Server          ServerConfig
	Database        DatabaseConfig
	Session         SessionConfig
	Mail            MailConfig
	Assistant       AssistantConfig
	Documents       DocumentsConfig
	AWS             AWSConfig
	RateLimit       RateLimitConfig
	Log             LogConfig
	LegacyUsersFile string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Driver       string // sqlite or postgres
	Path         string // sqlite only
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// SessionConfig drives the account app's session cookie.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTLHours   int
	Secure     bool
}

type MailConfig struct {
	FromAddress  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	UseTLS       bool
	Timeout      int // seconds
}

type AssistantConfig struct {
	APIKey      string
	APIURL      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     int // seconds
}

type DocumentsConfig struct {
	Server         ServerConfig
	Database       DatabaseConfig
	UploadDir      string
	MaxUploadBytes int64
	Storage        string // local or s3
	S3Prefix       string
	FlashSecret    string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	Endpoint        string
}

type RateLimitConfig struct {
	Enabled      bool
	AuthPerMin   int
	AuthBurst    int
	UploadPerMin int
	UploadBurst  int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server:      loadServerConfig("", "5008"),
		Database:    loadDatabaseConfig("DB_", "users.db"),
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", defaultSessionSecret),
			CookieName: getEnv("SESSION_COOKIE_NAME", "session"),
			TTLHours:   getEnvAsInt("SESSION_TTL_HOURS", 24*31),
			Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Mail: MailConfig{
			FromAddress:  getEnv("MAIL_FROM_ADDRESS", ""),
			SMTPHost:     getEnv("MAIL_SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("MAIL_SMTP_PORT", 587),
			SMTPUsername: getEnv("MAIL_SMTP_USERNAME", ""),
			SMTPPassword: getEnv("MAIL_SMTP_PASSWORD", ""),
			// anything but an explicit "false" keeps STARTTLS on
			UseTLS:  strings.ToLower(getEnv("MAIL_USE_TLS", "true")) != "false",
			Timeout: getEnvAsInt("MAIL_SMTP_TIMEOUT", 30),
		},
		Assistant: AssistantConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			APIURL:      getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
			Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 300),
			Timeout:     getEnvAsInt("OPENAI_TIMEOUT", 30),
		},
		Documents: DocumentsConfig{
			Server:         loadServerConfig("DOCS_", "5000"),
			Database:       loadDatabaseConfig("DOCS_DB_", "documents.db"),
			UploadDir:      getEnv("DOCS_UPLOAD_DIR", "uploads"),
			MaxUploadBytes: int64(getEnvAsInt("DOCS_MAX_UPLOAD_MB", 32)) * 1024 * 1024,
			Storage:        getEnv("DOCS_STORAGE", "local"),
			S3Prefix:       getEnv("DOCS_S3_PREFIX", "documents/"),
			FlashSecret:    getEnv("DOCS_SECRET_KEY", defaultFlashSecret),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "metrodocs-uploads"),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:      getEnvAsBool("RATE_LIMIT_ENABLED", true),
			AuthPerMin:   getEnvAsInt("RATE_LIMIT_AUTH_PER_MIN", 20),
			AuthBurst:    getEnvAsInt("RATE_LIMIT_AUTH_BURST", 10),
			UploadPerMin: getEnvAsInt("RATE_LIMIT_UPLOAD_PER_MIN", 10),
			UploadBurst:  getEnvAsInt("RATE_LIMIT_UPLOAD_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		LegacyUsersFile: getEnv("LEGACY_USERS_FILE", "users.json"),
	}

	return config, config.Validate()
}

func loadServerConfig(prefix, defaultPort string) ServerConfig {
	return ServerConfig{
		Port:         getEnv(prefix+"SERVER_PORT", defaultPort),
		Host:         getEnv(prefix+"SERVER_HOST", "127.0.0.1"),
		ReadTimeout:  getEnvAsInt(prefix+"SERVER_READ_TIMEOUT", 15),
		WriteTimeout: getEnvAsInt(prefix+"SERVER_WRITE_TIMEOUT", 60),
		IdleTimeout:  getEnvAsInt(prefix+"SERVER_IDLE_TIMEOUT", 60),
	}
}

func loadDatabaseConfig(prefix, defaultPath string) DatabaseConfig {
	return DatabaseConfig{
		Driver:       getEnv(prefix+"DRIVER", DriverSQLite),
		Path:         getEnv(prefix+"PATH", defaultPath),
		Host:         getEnv(prefix+"HOST", "localhost"),
		Port:         getEnv(prefix+"PORT", "5432"),
		User:         getEnv(prefix+"USER", "postgres"),
		Password:     getEnv(prefix+"PASSWORD", ""),
		Database:     getEnv(prefix+"NAME", "metrodocs"),
		SSLMode:      getEnv(prefix+"SSL_MODE", "disable"),
		MaxOpenConns: getEnvAsInt(prefix+"MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvAsInt(prefix+"MAX_IDLE_CONNS", 25),
		MaxLifetime:  getEnvAsInt(prefix+"MAX_LIFETIME", 300),
		LogLevel:     getEnv(prefix+"LOG_LEVEL", "silent"),
	}
}

func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.Session.Secret == defaultSessionSecret {
			return fmt.Errorf("session secret must be changed in production")
		}
		if c.Documents.FlashSecret == defaultFlashSecret {
			return fmt.Errorf("document manager secret key must be changed in production")
		}
	}

	for _, db := range []DatabaseConfig{c.Database, c.Documents.Database} {
		if err := db.Validate(); err != nil {
			return err
		}
	}

	switch c.Documents.Storage {
	case StorageLocal, StorageS3:
	default:
		return fmt.Errorf("unsupported document storage backend: %s", c.Documents.Storage)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
