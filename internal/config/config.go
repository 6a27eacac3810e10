package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database. DBDriver selects between "sqlite" (default, local
	// single-file store) and "postgres".
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ingest
	StatementYear int

	// Insight backend
	GeminiAPIKey string
	GeminiModel  string

	// API key protecting ingest and maintenance routes. Empty disables
	// the check.
	APIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		SQLitePath: getEnv("SQLITE_PATH", "rufous.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "rufous"),
		DBPassword: getEnv("DB_PASSWORD", "rufous"),
		DBName:     getEnv("DB_NAME", "rufous"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Insight
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		APIKey: getEnv("API_KEY", ""),
	}

	// Parse the statement year used when dates carry no year component
	yearStr := getEnv("STATEMENT_YEAR", "")
	if yearStr == "" {
		config.StatementYear = time.Now().Year()
	} else {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			log.Printf("Warning: invalid STATEMENT_YEAR value '%s', falling back to current year\n", yearStr)
			year = time.Now().Year()
		}
		config.StatementYear = year
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
