package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	ServerPort  string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret   string
	CORSOrigins []string

	OTPTTL             time.Duration
	OTPCleanupSchedule string

	MailDriver     string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	MailFrom       string
	MailFromName   string
	SendGridAPIKey string

	SeedFile string
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "eduverse"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		OTPTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPCleanupSchedule: getEnv("OTP_CLEANUP_SCHEDULE", "@every 1h"),

		MailDriver:     getEnv("MAIL_DRIVER", "log"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@eduverse.local"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "EduVerse"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		SeedFile: getEnv("SEED_FILE", ""),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required")
		}
		cfg.JWTSecret = "dev-secret-key"
	}
	if cfg.OTPTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be positive, got %s", cfg.OTPTTL)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
