package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Rewards  RewardsConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	APIKey       string
	AdminAPIKey  string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RewardsConfig struct {
	MaxReferralDepth int
	SweepInterval    time.Duration
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	maxDepth, _ := strconv.Atoi(getEnv("REFERRAL_MAX_DEPTH", "3"))
	sweepMinutes, _ := strconv.Atoi(getEnv("ACCRUAL_SWEEP_MINUTES", "5"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			APIKey:       getEnv("API_KEY", ""),
			AdminAPIKey:  getEnv("ADMIN_API_KEY", ""),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "cashapp"),
			Password: getEnv("DB_PASSWORD", "cashapp"),
			Name:     getEnv("DB_NAME", "cashapp"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Rewards: RewardsConfig{
			MaxReferralDepth: maxDepth,
			SweepInterval:    time.Duration(sweepMinutes) * time.Minute,
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
