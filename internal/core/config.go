// Package core contains the business logic for jobwatch: the START/END
// event correlator and the configuration it runs with.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// ConfigFileName is the name of the configuration file looked up in the
// base directory.
const ConfigFileName = ".jobwatch.yaml"

// ErrConfigExists is returned by WriteDefaultConfig when a config file is
// already present and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// ConfigurationManager loads, validates and writes .jobwatch.yaml.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
	WriteDefaultConfig(force bool) (string, error)
	ConfigPath() string
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading and yaml.v3 for writing.
type viperConfigManager struct {
	// basePath is the directory where .jobwatch.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		Thresholds: models.ThresholdConfig{
			WarningMinutes: DefaultWarningMinutes,
			ErrorMinutes:   DefaultErrorMinutes,
		},
		Paths: models.PathConfig{
			Input:  "logs.log",
			Report: "report.log",
			Events: ".jobwatch_events.jsonl",
		},
		Logging: models.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Notifications: models.NotificationConfig{
			MinLevel: models.LevelError,
		},
	}
}

func (cm *viperConfigManager) ConfigPath() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

// LoadConfig reads .jobwatch.yaml from the base path. If the file does not
// exist, defaults are returned. Relative paths in the file are resolved
// against the base path.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(cm.ConfigPath())
	v.SetConfigType("yaml")

	v.SetDefault("thresholds.warning_minutes", cfg.Thresholds.WarningMinutes)
	v.SetDefault("thresholds.error_minutes", cfg.Thresholds.ErrorMinutes)
	v.SetDefault("paths.input", cfg.Paths.Input)
	v.SetDefault("paths.report", cfg.Paths.Report)
	v.SetDefault("paths.events", cfg.Paths.Events)
	v.SetDefault("report.truncate", cfg.Report.Truncate)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.min_level", string(cfg.Notifications.MinLevel))
	v.SetDefault("notifications.slack.webhook_url", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Thresholds.WarningMinutes = v.GetFloat64("thresholds.warning_minutes")
	cfg.Thresholds.ErrorMinutes = v.GetFloat64("thresholds.error_minutes")
	cfg.Paths.Input = cm.resolve(v.GetString("paths.input"))
	cfg.Paths.Report = cm.resolve(v.GetString("paths.report"))
	cfg.Paths.Events = cm.resolve(v.GetString("paths.events"))
	cfg.Report.Truncate = v.GetBool("report.truncate")
	cfg.Logging.Level = strings.ToLower(v.GetString("logging.level"))
	cfg.Logging.Format = strings.ToLower(v.GetString("logging.format"))
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	// An unparseable level is kept verbatim so ValidateConfig can report it.
	rawLevel := v.GetString("notifications.min_level")
	if lvl, err := models.ParseLevel(rawLevel); err == nil {
		cfg.Notifications.MinLevel = lvl
	} else {
		cfg.Notifications.MinLevel = models.Level(rawLevel)
	}

	return cfg, nil
}

// resolve joins a relative path onto the base path. Empty paths stay empty.
func (cm *viperConfigManager) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cm.basePath, p)
}

// ValidateConfig checks cfg for invalid values and returns one error
// listing every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Thresholds.WarningMinutes < 0 {
		errs = append(errs, fmt.Sprintf("thresholds.warning_minutes must be non-negative, got %g", cfg.Thresholds.WarningMinutes))
	}
	if cfg.Thresholds.ErrorMinutes < 0 {
		errs = append(errs, fmt.Sprintf("thresholds.error_minutes must be non-negative, got %g", cfg.Thresholds.ErrorMinutes))
	}
	if cfg.Thresholds.WarningMinutes > cfg.Thresholds.ErrorMinutes {
		errs = append(errs, fmt.Sprintf(
			"thresholds.warning_minutes (%g) must not exceed thresholds.error_minutes (%g)",
			cfg.Thresholds.WarningMinutes, cfg.Thresholds.ErrorMinutes,
		))
	}

	if cfg.Paths.Report == "" {
		errs = append(errs, "paths.report must not be empty")
	}

	if cfg.Logging.Level != "" && !validLogLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level %q is invalid, must be one of: trace, debug, info, warn, error", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" && !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format %q is invalid, must be text or json", cfg.Logging.Format))
	}

	if !cfg.Notifications.MinLevel.Valid() {
		errs = append(errs, fmt.Sprintf(
			"notifications.min_level %q is invalid, must be one of: INFO, WARNING, ERROR",
			cfg.Notifications.MinLevel,
		))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// WriteDefaultConfig writes the default configuration to .jobwatch.yaml and
// returns its path. An existing file is left untouched unless force is set.
func (cm *viperConfigManager) WriteDefaultConfig(force bool) (string, error) {
	path := cm.ConfigPath()
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s: %w", path, ErrConfigExists)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshalling default config: %w", err)
	}

	if err := os.MkdirAll(cm.basePath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	return path, nil
}
