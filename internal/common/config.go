package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Scraper     ScraperConfig  `toml:"scraper"`
	Storage     StorageConfig  `toml:"storage"`
	Output      OutputConfig   `toml:"output"`
	Logging     LoggingConfig  `toml:"logging"`
	Schedule    ScheduleConfig `toml:"schedule"`
}

// ScraperConfig controls the fetch-and-parse pipeline
type ScraperConfig struct {
	BaseURL           string        `toml:"base_url" validate:"required,url"`
	Workers           int           `toml:"workers" validate:"gte=1"`              // Bounded parallelism per batch
	BatchSize         int           `toml:"batch_size" validate:"gte=1"`           // Symbols per scheduling round
	UseBrowser        bool          `toml:"use_browser"`                           // Selects the chromedp fetch strategy
	RequestTimeout    time.Duration `toml:"request_timeout" validate:"gt=0"`       // Per-request timeout
	BatchDelay        time.Duration `toml:"batch_delay" validate:"gte=0"`          // Pause between batches (not after the last)
	RequestsPerSecond int           `toml:"requests_per_second" validate:"gte=1"`  // Shared fetch pacing across workers
	RunTimeout        time.Duration `toml:"run_timeout" validate:"gt=0"`           // Ceiling for one pipeline run
	UserAgent         string        `toml:"user_agent"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path"` // Database directory path
}

// OutputConfig controls the spreadsheet output adapter
type OutputConfig struct {
	Dir string `toml:"dir"` // Directory for .xlsx output files
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// ScheduleConfig controls the optional cron-driven refresh
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Standard 5-field cron expression
}

// NewDefaultConfig creates a configuration with default values.
// Defaults mirror the source site's tolerances: five workers, batches of
// twenty, a two second pause between batches.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Scraper: ScraperConfig{
			BaseURL:           "https://www.investsite.com.br",
			Workers:           5,
			BatchSize:         20,
			UseBrowser:        false,
			RequestTimeout:    8 * time.Second,
			BatchDelay:        2 * time.Second,
			RequestsPerSecond: 10,
			RunTimeout:        30 * time.Minute,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 8 * * 1-5",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path loads defaults and environment overrides only.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate fails fast on an unusable configuration. Called once at startup
// before any batch runs.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("B3SCREENER_ENV"); env != "" {
		config.Environment = env
	}

	if workers := os.Getenv("B3SCREENER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Scraper.Workers = w
		}
	}
	if batchSize := os.Getenv("B3SCREENER_BATCH_SIZE"); batchSize != "" {
		if b, err := strconv.Atoi(batchSize); err == nil {
			config.Scraper.BatchSize = b
		}
	}
	if useBrowser := os.Getenv("B3SCREENER_USE_BROWSER"); useBrowser != "" {
		if ub, err := strconv.ParseBool(useBrowser); err == nil {
			config.Scraper.UseBrowser = ub
		}
	}
	if timeout := os.Getenv("B3SCREENER_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			config.Scraper.RequestTimeout = t
		}
	}
	if delay := os.Getenv("B3SCREENER_BATCH_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Scraper.BatchDelay = d
		}
	}
	if baseURL := os.Getenv("B3SCREENER_BASE_URL"); baseURL != "" {
		config.Scraper.BaseURL = baseURL
	}
	if userAgent := os.Getenv("B3SCREENER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}

	if badgerPath := os.Getenv("B3SCREENER_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if outputDir := os.Getenv("B3SCREENER_OUTPUT_DIR"); outputDir != "" {
		config.Output.Dir = outputDir
	}

	if level := os.Getenv("B3SCREENER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Flags have the highest priority; zero values leave the config untouched.
func ApplyFlagOverrides(config *Config, workers, batchSize int, useBrowser bool) {
	if workers > 0 {
		config.Scraper.Workers = workers
	}
	if batchSize > 0 {
		config.Scraper.BatchSize = batchSize
	}
	if useBrowser {
		config.Scraper.UseBrowser = true
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
