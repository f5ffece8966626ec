// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	API       APIConfig
	Domain    DomainConfig
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Sequencer SequencerConfig
	Log       LogConfig
}

// APIConfig holds the back-office client transport settings.
type APIConfig struct {
	BaseURL string
	Timeout int // seconds
}

// DomainConfig holds business rule parameters.
type DomainConfig struct {
	TrainingCategoryCode string
	Timezone             string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	RateLimit    string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
}

// SequencerConfig selects where document sequence numbers are allocated.
type SequencerConfig struct {
	Backend       string // db|redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// LogConfig holds zap settings.
type LogConfig struct {
	Level  string
	Format string // json|console
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RequestTimeout returns the transport timeout as a duration.
func (a APIConfig) RequestTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// Location resolves the configured timezone, falling back to time.Local.
func (d DomainConfig) Location() *time.Location {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RedisAddr returns host:port for the redis sequencer.
func (s SequencerConfig) RedisAddr() string {
	return s.RedisHost + ":" + s.RedisPort
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8008"),
			Timeout: getEnvInt("API_TIMEOUT", 30),
		},
		Domain: DomainConfig{
			TrainingCategoryCode: getEnv("TRAINING_CATEGORY_CODE", "FOR"),
			Timezone:             getEnv("TIMEZONE", "Local"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8008"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnv("RATE_LIMIT", "600-M"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "backoffice"),
			Password:   getEnv("DB_PASSWORD", "backoffice"),
			DBName:     getEnv("DB_NAME", "backoffice"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "backoffice.db"),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
		},
		Sequencer: SequencerConfig{
			Backend:       getEnv("SEQUENCER", "db"),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
