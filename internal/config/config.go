package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Download DownloadConfig `yaml:"download"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT" default:"8000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
	MaxExtractions int           `yaml:"max_extractions" envconfig:"SERVER_MAX_EXTRACTIONS" default:"4"`
}

// StorageConfig holds filesystem storage configuration.
type StorageConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"STORAGE_DATA_DIR" default:"data"`
}

// DatabaseConfig holds SQLite database configuration.
type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"DATABASE_PATH" default:"data/recipes.db"`
}

// DownloadConfig holds video download configuration.
type DownloadConfig struct {
	YtDlpPath string        `yaml:"ytdlp_path" envconfig:"DOWNLOAD_YTDLP_PATH" default:"yt-dlp"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"5m"`
	UserAgent string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
}

// AnalysisConfig holds Gemini analysis configuration.
type AnalysisConfig struct {
	APIKey          string        `yaml:"api_key" envconfig:"GEMINI_API_KEY"`
	Model           string        `yaml:"model" envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	PollInterval    time.Duration `yaml:"poll_interval" envconfig:"ANALYSIS_POLL_INTERVAL" default:"2s"`
	PollBudget      time.Duration `yaml:"poll_budget" envconfig:"ANALYSIS_POLL_BUDGET" default:"120s"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" envconfig:"ANALYSIS_MAX_OUTPUT_TOKENS" default:"8192"`
	FrameFallback   bool          `yaml:"frame_fallback" envconfig:"ANALYSIS_FRAME_FALLBACK" default:"false"`
	MaxFrames       int           `yaml:"max_frames" envconfig:"ANALYSIS_MAX_FRAMES" default:"5"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Analysis.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("STORAGE_DATA_DIR is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Analysis.PollInterval <= 0 {
		return fmt.Errorf("ANALYSIS_POLL_INTERVAL must be positive")
	}
	if c.Analysis.PollBudget < c.Analysis.PollInterval {
		return fmt.Errorf("ANALYSIS_POLL_BUDGET must be at least one poll interval")
	}
	if c.Analysis.MaxFrames < 1 {
		return fmt.Errorf("ANALYSIS_MAX_FRAMES must be at least 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
