// Package config holds the recap service configuration and the provider
// configuration resolver.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Settings represents the recap service configuration file.
type Settings struct {
	// Provider contains the active LLM provider configuration.
	Provider struct {
		// Name selects the provider ("openai", "deepseek", "google",
		// "player2", "custom").
		Name string `json:"name" env:"PROVIDER"`

		// APIKey is the provider API key.
		APIKey string `json:"api_key" env:"API_KEY"`

		// APIURL overrides the provider's default endpoint.
		APIURL string `json:"api_url" env:"API_URL"`

		// Model is the model identifier to request.
		Model string `json:"model" env:"MODEL"`

		// CachingEnabled adds prompt-cache hints to requests.
		CachingEnabled bool `json:"caching_enabled" env:"CACHING_ENABLED"`
	} `json:"provider"`

	// Player2 contains settings for the local companion app variant.
	Player2 struct {
		// LocalBaseURL overrides the companion app endpoint.
		LocalBaseURL string `json:"local_base_url" env:"PLAYER2_LOCAL_BASE_URL"`
	} `json:"player2"`

	// Engine contains request engine tuning.
	Engine struct {
		// CacheMaxSize is the target result cache size.
		CacheMaxSize int `json:"cache_max_size" env:"CACHE_MAX_SIZE"`

		// CacheCleanupThreshold is the size at which the cache prunes.
		CacheCleanupThreshold int `json:"cache_cleanup_threshold" env:"CACHE_CLEANUP_THRESHOLD"`

		// ArchivePath is the SQLite file for the summary archive.
		// Empty disables archiving.
		ArchivePath string `json:"archive_path" env:"ARCHIVE_PATH"`
	} `json:"engine"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename        = ".recapconfig"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
	DefaultCacheMaxSize          = 100
	DefaultCacheCleanupThreshold = 150
)

// NewSettings creates a Settings instance with default values.
func NewSettings() *Settings {
	s := &Settings{}
	s.Provider.Name = "openai"
	s.Engine.CacheMaxSize = DefaultCacheMaxSize
	s.Engine.CacheCleanupThreshold = DefaultCacheCleanupThreshold
	s.Logging.Level = DefaultLogLevel
	s.Logging.Format = DefaultLogFormat
	return s
}

// LoadSettings loads the configuration from the default path.
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithPath(DefaultConfigFilename)
}

// LoadSettingsWithPath loads the configuration from a specific path.
func LoadSettingsWithPath(configPath string) (*Settings, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewSettings()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// File doesn't exist, return default config
		stdLogger.Info("Config file not found, using default configuration", "path", configPath)
		cfg.configPath = configPath
		cfg.lastModifiedAt = time.Now()
		return cfg, nil
	}

	stdLogger.Info("Loading configuration", "path", configPath)

	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider()).
		WithProvider(configurator.NewFileProvider(configPath)).
		WithProvider(configurator.NewEnvProvider("RECAP")).
		WithValidator(configurator.NewDefaultValidator())

	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (s *Settings) SaveToFile(path string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(s, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	s.configPath = path
	s.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path.
func (s *Settings) Save() error {
	if s.configPath == "" {
		s.configPath = DefaultConfigFilename
	}
	return s.SaveToFile(s.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file.
func (s *Settings) GetConfigPath() string {
	return s.configPath
}
