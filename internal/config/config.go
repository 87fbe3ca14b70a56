// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPPort string `mapstructure:"HTTP_PORT"`
	DBURL    string `mapstructure:"DB_URL"`

	GithubToken      string        `mapstructure:"GITHUB_TOKEN"`
	GithubBaseURL    string        `mapstructure:"GITHUB_BASE_URL"`
	GithubTimeout    time.Duration `mapstructure:"GITHUB_TIMEOUT"`
	GithubMaxRetries int           `mapstructure:"GITHUB_MAX_RETRIES"`
	Organization     string        `mapstructure:"GITHUB_ORG"`

	MaxRepositories        int           `mapstructure:"MAX_REPOSITORIES"`
	MaxPullRequestsPerRepo int           `mapstructure:"MAX_PULL_REQUESTS_PER_REPO"`
	MaxReviewPullRequests  int           `mapstructure:"MAX_REVIEW_PULL_REQUESTS"`
	MaxUsers               int           `mapstructure:"MAX_USERS"`
	IncludeReviews         bool          `mapstructure:"INCLUDE_REVIEWS"`
	IncludeUserProfiles    bool          `mapstructure:"INCLUDE_USER_PROFILES"`
	DryRun                 bool          `mapstructure:"DRY_RUN"`
	RepoPause              time.Duration `mapstructure:"REPO_PAUSE"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("GITHUB_BASE_URL", "https://api.github.com")
	viper.SetDefault("GITHUB_TIMEOUT", "30s")
	viper.SetDefault("GITHUB_MAX_RETRIES", 3)
	viper.SetDefault("GITHUB_ORG", "vercel")
	viper.SetDefault("MAX_REPOSITORIES", 100)
	viper.SetDefault("MAX_PULL_REQUESTS_PER_REPO", 200)
	viper.SetDefault("MAX_REVIEW_PULL_REQUESTS", 50)
	viper.SetDefault("MAX_USERS", 100)
	viper.SetDefault("INCLUDE_REVIEWS", true)
	viper.SetDefault("INCLUDE_USER_PROFILES", false)
	viper.SetDefault("DRY_RUN", false)
	viper.SetDefault("REPO_PAUSE", "1s")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.Organization == "" {
		return nil, errors.New("GITHUB_ORG is a required configuration field")
	}
	if cfg.GithubMaxRetries < 1 {
		return nil, errors.New("GITHUB_MAX_RETRIES must be at least 1")
	}

	return &cfg, nil
}
