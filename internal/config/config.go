package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"batch-image-processor/internal/logger"
	"batch-image-processor/internal/report"
)

// Config represents the main configuration structure
type Config struct {
	Directories []string          `mapstructure:"directories"`
	Extensions  []string          `mapstructure:"extensions"`
	Actions     []string          `mapstructure:"actions"`
	Headless    bool              `mapstructure:"headless"`
	FailOnError bool              `mapstructure:"fail_on_error"`
	Report      ReportConfig      `mapstructure:"report"`
	Performance PerformanceConfig `mapstructure:"performance"`
	Web         WebConfig         `mapstructure:"web"`
	Logging     LoggingConfig     `mapstructure:"logging"`

	// ActionsSet is true when an action list was supplied at all, even an
	// empty one. An unset list selects the default-enabled actions.
	ActionsSet bool `mapstructure:"-"`
}

// ReportConfig contains batch report settings
type ReportConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// PerformanceConfig contains performance tuning settings
type PerformanceConfig struct {
	WorkerThreads int `mapstructure:"worker_threads"`
}

// WebConfig contains settings for the interactive web front end
type WebConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	logCfg := logger.DefaultConfig()
	return &Config{
		Extensions: []string{"bmp", "jpg", "png", "tga"},
		Report: ReportConfig{
			Enabled: true,
		},
		Performance: PerformanceConfig{
			WorkerThreads: 1,
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:      logCfg.Level,
			FilePath:   logCfg.FilePath,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		},
	}
}

// ActionIDs returns the action allow-list, or nil when none was supplied.
func (c *Config) ActionIDs() []string {
	if !c.ActionsSet {
		return nil
	}
	if c.Actions == nil {
		return []string{}
	}
	return c.Actions
}

// LoadConfig loads configuration from file and environment variables. Use
// configPath to name a file explicitly; otherwise config.yaml is searched for
// in the usual locations and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	return load(v, configPath)
}

// setDefaults registers DefaultConfig with viper. Unmarshaling over a
// pre-filled struct would merge lists element by element instead of
// replacing them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("fail_on_error", d.FailOnError)
	v.SetDefault("report.path", d.Report.Path)
	v.SetDefault("report.enabled", d.Report.Enabled)
	v.SetDefault("performance.worker_threads", d.Performance.WorkerThreads)
	v.SetDefault("web.host", d.Web.Host)
	v.SetDefault("web.port", d.Web.Port)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	config := &Config{}

	setDefaults(v)
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.batch-image-processor")
		v.AddConfigPath("/etc/batch-image-processor")
	}

	v.SetEnvPrefix("BATCH_IMAGE_PROCESSOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal only walks keys viper already knows about, so env-only
	// overrides have to be bound explicitly.
	for _, key := range []string{
		"directories", "extensions", "actions", "headless", "fail_on_error",
		"report.path", "report.enabled", "performance.worker_threads",
		"web.host", "web.port", "logging.level", "logging.file_path",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.ActionsSet = v.IsSet("actions")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates and normalizes the configuration
func (c *Config) Validate() error {
	c.Directories = normalizeList(c.Directories)
	c.Extensions = normalizeExtensions(c.Extensions)
	if c.ActionsSet {
		c.Actions = normalizeList(c.Actions)
	}

	if c.Performance.WorkerThreads <= 0 {
		c.Performance.WorkerThreads = 1
	}

	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	c.Report.Path = report.ResolvePath(c.Report.Path)

	return nil
}

// normalizeList trims whitespace and surrounding quotes from entries and drops
// empty ones. Comma-joined entries, as produced by a single flag or env value,
// are split.
func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.Trim(strings.TrimSpace(part), `'"`); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// normalizeExtensions lowercases extensions, strips a leading dot and drops
// duplicates while keeping the first occurrence's position.
func normalizeExtensions(extensions []string) []string {
	seen := make(map[string]bool)
	normalized := make([]string, 0, len(extensions))
	for _, ext := range normalizeList(extensions) {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		normalized = append(normalized, ext)
	}
	return normalized
}
