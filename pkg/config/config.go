package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engagelens service.
type Config struct {
	// HTTP server settings
	Server ServerConfig `yaml:"server"`

	// Content provider settings and credentials
	Instagram InstagramConfig `yaml:"instagram"`

	// Object store connection for fetched artifacts
	ObjectStore ObjectStoreConfig `yaml:"object_store"`

	// Relational store for account and transaction records
	Database DatabaseConfig `yaml:"database"`

	// Text/image generation collaborator
	OpenAI OpenAIConfig `yaml:"openai"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// InstagramConfig holds provider settings. Username/Password gate the
// authenticated capability (follower pagination); the anonymous capability
// needs neither.
type InstagramConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	UserAgent         string        `yaml:"user_agent"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	LikerLimit        int           `yaml:"liker_limit"`
	FollowerLimit     int           `yaml:"follower_limit"`
}

// ObjectStoreConfig describes the S3-compatible object store.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	// PublicBaseURL is the root under which uploaded keys are reachable.
	// Defaults to the endpoint itself when empty.
	PublicBaseURL string `yaml:"public_base_url"`
}

// DatabaseConfig holds the sqlite connection descriptor.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OpenAIConfig holds settings for the generation collaborator.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible defaults. Pagination limits match
// the reference deployment: 50 likers, 30 followers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Instagram: InstagramConfig{
			BaseURL:           "https://www.instagram.com",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout:    30 * time.Second,
			RequestsPerMinute: 60,
			LikerLimit:        50,
			FollowerLimit:     30,
		},
		ObjectStore: ObjectStoreConfig{
			Bucket: "engagelens-artifacts",
		},
		Database: DatabaseConfig{
			Path: "engagelens.db",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-2024-08-06",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then an optional YAML file, then
// environment overrides. A .env file in the working directory is honored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile merges settings from a YAML file. An empty path is not an
// error; a missing explicit path is.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// LoadFromEnv applies environment variable overrides.
func (c *Config) LoadFromEnv() {
	setString(&c.Server.Addr, "ENGAGELENS_ADDR")

	setString(&c.Instagram.BaseURL, "ENGAGELENS_IG_BASE_URL")
	setString(&c.Instagram.Username, "ENGAGELENS_IG_USERNAME")
	setString(&c.Instagram.Password, "ENGAGELENS_IG_PASSWORD")
	setString(&c.Instagram.UserAgent, "ENGAGELENS_IG_USER_AGENT")
	setInt(&c.Instagram.RequestsPerMinute, "ENGAGELENS_IG_REQUESTS_PER_MINUTE")
	setInt(&c.Instagram.LikerLimit, "ENGAGELENS_LIKER_LIMIT")
	setInt(&c.Instagram.FollowerLimit, "ENGAGELENS_FOLLOWER_LIMIT")

	setString(&c.ObjectStore.Endpoint, "ENGAGELENS_STORE_ENDPOINT")
	setString(&c.ObjectStore.AccessKey, "ENGAGELENS_STORE_ACCESS_KEY")
	setString(&c.ObjectStore.SecretKey, "ENGAGELENS_STORE_SECRET_KEY")
	setString(&c.ObjectStore.Bucket, "ENGAGELENS_STORE_BUCKET")
	setString(&c.ObjectStore.PublicBaseURL, "ENGAGELENS_STORE_PUBLIC_URL")
	if v := os.Getenv("ENGAGELENS_STORE_USE_SSL"); v != "" {
		c.ObjectStore.UseSSL = strings.EqualFold(v, "true")
	}

	setString(&c.Database.Path, "ENGAGELENS_DB_PATH")

	// Collaborator env names kept from the original deployment.
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_API_BASE")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")

	setString(&c.Logging.Level, "ENGAGELENS_LOG_LEVEL")
	setString(&c.Logging.File, "ENGAGELENS_LOG_FILE")
}

// Validate checks invariants that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Instagram.LikerLimit <= 0 {
		return fmt.Errorf("instagram.liker_limit must be positive, got %d", c.Instagram.LikerLimit)
	}
	if c.Instagram.FollowerLimit <= 0 {
		return fmt.Errorf("instagram.follower_limit must be positive, got %d", c.Instagram.FollowerLimit)
	}
	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("object_store.bucket is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// HasInstagramCredentials reports whether the authenticated provider
// capability can be constructed.
func (c *Config) HasInstagramCredentials() bool {
	return c.Instagram.Username != "" && c.Instagram.Password != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
