package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OUTLIERSCOPE_DETECTOR_THRESHOLD_MULTIPLIER.
const EnvPrefix = "OUTLIERSCOPE"

// Topic counting scopes.
const (
	ScopeAll      = "all"
	ScopeOutliers = "outliers"
)

// Config represents the complete application configuration
type Config struct {
	Platform     string         `mapstructure:"platform"`
	ProfilesFile string         `mapstructure:"profiles_file"`
	Detector     DetectorConfig `mapstructure:"detector"`
	Topics       TopicsConfig   `mapstructure:"topics"`
	Analysis     AnalysisConfig `mapstructure:"analysis"`
	Output       OutputConfig   `mapstructure:"output"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
	Logging      LoggingConfig  `mapstructure:"logging"`
}

// DetectorConfig holds outlier detection configuration
type DetectorConfig struct {
	ThresholdMultiplier float64 `mapstructure:"threshold_multiplier"`
}

// TopicsConfig holds topic extraction configuration
type TopicsConfig struct {
	Scope       string `mapstructure:"scope"`
	TopHashtags int    `mapstructure:"top_hashtags"`
	TopKeywords int    `mapstructure:"top_keywords"`
	TopSounds   int    `mapstructure:"top_sounds"`
	TopMentions int    `mapstructure:"top_mentions"`
}

// AnalysisConfig holds video analysis configuration
type AnalysisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxVideos      int           `mapstructure:"max_videos"`
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	PaceDelay      time.Duration `mapstructure:"pace_delay"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxDownloadMB  int           `mapstructure:"max_download_mb"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Dir             string `mapstructure:"dir"`
	Slim            bool   `mapstructure:"slim"`
	FilePermissions string `mapstructure:"file_permissions"` // Octal, e.g. "0644"
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	TopN           int           `mapstructure:"top_n"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // Prometheus textfile path; empty disables export
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing precedence. Variables from a .env file
// in the working directory are loaded first when the file exists; variables
// already set in the environment are not overridden.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional credential variables
	if err := v.BindEnv("analysis.api_key", EnvPrefix+"_ANALYSIS_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("telegram.bot_token", EnvPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("telegram.chat_id", EnvPrefix+"_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("platform", "instagram")
	v.SetDefault("profiles_file", "")

	// Detector defaults
	v.SetDefault("detector.threshold_multiplier", 2.0)

	// Topics defaults
	v.SetDefault("topics.scope", ScopeAll)
	v.SetDefault("topics.top_hashtags", 20)
	v.SetDefault("topics.top_keywords", 30)
	v.SetDefault("topics.top_sounds", 10)
	v.SetDefault("topics.top_mentions", 20)

	// Analysis defaults
	v.SetDefault("analysis.enabled", false)
	v.SetDefault("analysis.max_videos", 5)
	v.SetDefault("analysis.model", "gemini-2.5-flash")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("analysis.pace_delay", "2s")
	v.SetDefault("analysis.poll_interval", "5s")
	v.SetDefault("analysis.poll_timeout", "300s")
	v.SetDefault("analysis.request_timeout", "60s")
	v.SetDefault("analysis.max_download_mb", 200)

	// Output defaults
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.slim", false)
	v.SetDefault("output.file_permissions", "0644")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.top_n", 5)

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Platform) == "" {
		return fmt.Errorf("platform is required")
	}

	// Validate Detector config
	k := c.Detector.ThresholdMultiplier
	if math.IsNaN(k) || math.IsInf(k, 0) || k <= 0 {
		return fmt.Errorf("detector.threshold_multiplier must be a positive number")
	}

	// Validate Topics config
	if c.Topics.Scope != ScopeAll && c.Topics.Scope != ScopeOutliers {
		return fmt.Errorf("topics.scope must be one of: all, outliers")
	}
	if c.Topics.TopHashtags < 1 || c.Topics.TopKeywords < 1 || c.Topics.TopSounds < 1 || c.Topics.TopMentions < 1 {
		return fmt.Errorf("topics.top_* limits must be at least 1")
	}

	// Validate Analysis config
	if c.Analysis.Enabled {
		if c.Analysis.APIKey == "" {
			return fmt.Errorf("analysis.api_key (or GEMINI_API_KEY) is required when analysis is enabled")
		}
		if c.Analysis.Model == "" {
			return fmt.Errorf("analysis.model is required when analysis is enabled")
		}
	}
	if c.Analysis.MaxVideos < 1 {
		return fmt.Errorf("analysis.max_videos must be at least 1")
	}
	if c.Analysis.PaceDelay < 0 {
		return fmt.Errorf("analysis.pace_delay must not be negative")
	}
	if c.Analysis.PollInterval < 1*time.Second {
		return fmt.Errorf("analysis.poll_interval must be at least 1 second")
	}
	if c.Analysis.PollTimeout < c.Analysis.PollInterval {
		return fmt.Errorf("analysis.poll_timeout must be at least analysis.poll_interval")
	}
	if c.Analysis.RequestTimeout < 1*time.Second {
		return fmt.Errorf("analysis.request_timeout must be at least 1 second")
	}
	if c.Analysis.MaxDownloadMB < 1 {
		return fmt.Errorf("analysis.max_download_mb must be at least 1")
	}

	// Validate Output config
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if _, err := c.Output.FileMode(); err != nil {
		return fmt.Errorf("output.file_permissions must be an octal mode such as 0644")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
		if c.Telegram.TopN < 1 {
			return fmt.Errorf("telegram.top_n must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// FileMode parses the configured octal file permissions.
func (o OutputConfig) FileMode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(strings.TrimPrefix(o.FilePermissions, "0o"), 8, 32)
	if err != nil {
		return 0, err
	}
	if mode > 0o777 {
		return 0, fmt.Errorf("mode %o out of range", mode)
	}
	return os.FileMode(mode), nil
}

// MaxDownloadBytes returns the download size limit in bytes.
func (a AnalysisConfig) MaxDownloadBytes() int64 {
	return int64(a.MaxDownloadMB) << 20
}
