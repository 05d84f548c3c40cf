package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Token economy settings
	StartingBalance int64

	// Community feed service
	FeedBaseURL string

	// Scoreboard cache (optional)
	RedisAddr     string
	RedisPassword string

	// Discord announcements (optional)
	DiscordToken     string
	DiscordChannelID string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, with .env as a fallback for
// local development
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StartingBalance:  100,
		FeedBaseURL:      os.Getenv("FEED_BASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		Environment:      os.Getenv("ENVIRONMENT"),
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
