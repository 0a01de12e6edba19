package server

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log       LogServerConfig       `mapstructure:"log"       yaml:"log"`
	Metadata  MetadataServerConfig  `mapstructure:"metadata"  yaml:"metadata"`
	Storage   StorageServerConfig   `mapstructure:"storage"   yaml:"storage"`
	Upload    UploadServerConfig    `mapstructure:"upload"    yaml:"upload"`
	HTTP      HTTPServerConfig      `mapstructure:"http"      yaml:"http"`
	Retention RetentionServerConfig `mapstructure:"retention" yaml:"retention"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (cfg *BaseServerConfig) Validate() error {
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if cfg.Metadata.Type != "sqlite" {
		return fmt.Errorf("unsupported metadata type '%s'", cfg.Metadata.Type)
	}
	if cfg.Metadata.SQLite.Path == "" {
		return fmt.Errorf("metadata.sqlite.path is required")
	}
	if cfg.Upload.MaxFiles < 1 {
		return fmt.Errorf("upload.max_files must be at least 1")
	}
	if _, err := cfg.Upload.MaxSizeBytes(); err != nil {
		return err
	}
	if cfg.Retention.MaxAgeDays < 1 {
		return fmt.Errorf("retention.max_age_days must be at least 1")
	}
	return nil
}

// MaxSizeBytes parses the configured upload limit. Zero means unlimited.
func (u UploadServerConfig) MaxSizeBytes() (int64, error) {
	if u.MaxSize == "" {
		return 0, nil
	}
	size, err := humanize.ParseBytes(u.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid upload.max_size '%s': %w", u.MaxSize, err)
	}
	return int64(size), nil
}

// ParseDuration returns the duration or the fallback if the value is empty or malformed.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
