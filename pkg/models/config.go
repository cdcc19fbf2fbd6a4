package models

// ThresholdConfig holds the runtime limits, in minutes, above which a
// finished job is reported.
type ThresholdConfig struct {
	WarningMinutes float64 `yaml:"warning_minutes" mapstructure:"warning_minutes"`
	ErrorMinutes   float64 `yaml:"error_minutes" mapstructure:"error_minutes"`
}

// PathConfig holds the file locations used by a run. Relative paths are
// resolved against the directory holding .jobwatch.yaml.
type PathConfig struct {
	Input  string `yaml:"input" mapstructure:"input"`
	Report string `yaml:"report" mapstructure:"report"`
	Events string `yaml:"events" mapstructure:"events"`
}

// ReportConfig controls how the report file is opened.
type ReportConfig struct {
	Truncate bool `yaml:"truncate" mapstructure:"truncate"`
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls post-run notifications.
type NotificationConfig struct {
	Enabled  bool        `yaml:"enabled" mapstructure:"enabled"`
	MinLevel Level       `yaml:"min_level" mapstructure:"min_level"`
	Slack    SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// Config holds all settings read from .jobwatch.yaml via Viper.
type Config struct {
	Thresholds    ThresholdConfig    `yaml:"thresholds" mapstructure:"thresholds"`
	Paths         PathConfig         `yaml:"paths" mapstructure:"paths"`
	Report        ReportConfig       `yaml:"report" mapstructure:"report"`
	Logging       LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
