package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// App
	AppName  string
	AppEnv   string
	LogLevel string

	// Database
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	SecretKey    string
	PasswordSalt string
	BcryptCost   int
	SessionTTL   time.Duration
	AdminRole    string

	// Bootstrap admin account, created at startup when both are set
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	// Server
	Port        string
	CORSOrigins string

	// Observability
	LogRetentionDays int
	SentryDSN        string
}

func Load() *Config {
	return &Config{
		AppName:  getEnv("APP_NAME", "FlaskApp"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "blog.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "item_admin"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		SecretKey:    getEnv("SECRET_KEY", ""),
		PasswordSalt: getEnv("SECURITY_PASSWORD_SALT", ""),
		BcryptCost:   parseInt(getEnv("BCRYPT_COST", "10"), 10),
		SessionTTL:   parseDuration(getEnv("SESSION_TTL", "12h")),
		AdminRole:    getEnv("ADMIN_ROLE", "admin"),

		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY environment variable is required")
	}
	if c.PasswordSalt == "" {
		return errors.New("SECURITY_PASSWORD_SALT environment variable is required")
	}
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required for postgres")
		}
	default:
		return errors.New("DB_DRIVER must be sqlite or postgres, got " + strconv.Quote(c.DBDriver))
	}
	return nil
}

func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return "file:" + c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
