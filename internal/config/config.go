package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "workshop.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	// workshop.json wins when both exist.
	YAMLConfigFileName = "workshop.yaml"

	// DefaultBatchSize is the analytics logging batch size.
	DefaultBatchSize = 5

	// DefaultAutoSaveInterval is the analytics auto-save period.
	DefaultAutoSaveInterval = "10s"

	// DefaultStatsInterval is the advanced monitoring stats period.
	DefaultStatsInterval = "5s"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultNamespace prefixes Prometheus metric names and names the
	// OpenTelemetry tracer.
	DefaultNamespace = "workshop"
)

// Config represents the complete workshop configuration.
type Config struct {
	// Runtime configures the reactive runtime.
	Runtime RuntimeConfig `json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// Analytics contains the analytics tracker defaults.
	Analytics AnalyticsConfig `json:"analytics,omitempty" yaml:"analytics,omitempty"`

	// Log configures the slog handler used by the CLI.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Inspect configures the inspector server.
	Inspect InspectConfig `json:"inspect,omitempty" yaml:"inspect,omitempty"`

	// Telemetry selects the runtime observers.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig configures a reactive.Runtime.
type RuntimeConfig struct {
	// MaxEffectRuns bounds effect runs per flush. 0 disables the limit.
	MaxEffectRuns int `json:"maxEffectRuns" yaml:"maxEffectRuns"`

	// StrictEffects is "off", "warn" or "panic".
	StrictEffects string `json:"strictEffects,omitempty" yaml:"strictEffects,omitempty"`
}

// AnalyticsConfig contains the analytics tracker defaults.
type AnalyticsConfig struct {
	// EnableLogging turns the event logging effect on at start.
	EnableLogging bool `json:"enableLogging" yaml:"enableLogging"`

	// BatchSize is the number of events per logged batch.
	BatchSize int `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`

	// AutoSaveInterval is the auto-save period (e.g., "10s").
	AutoSaveInterval string `json:"autoSaveInterval,omitempty" yaml:"autoSaveInterval,omitempty"`

	// StatsInterval is the advanced monitoring stats period (e.g., "5s").
	StatsInterval string `json:"statsInterval,omitempty" yaml:"statsInterval,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// InspectConfig configures the inspector server.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// TelemetryConfig selects the runtime observers.
type TelemetryConfig struct {
	// Metrics enables the Prometheus observer.
	Metrics bool `json:"metrics" yaml:"metrics"`

	// Tracing enables the OpenTelemetry observer.
	Tracing bool `json:"tracing" yaml:"tracing"`

	// Namespace prefixes metric names and names the tracer.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MaxEffectRuns: reactive.DefaultMaxEffectRuns,
			StrictEffects: "off",
		},
		Analytics: AnalyticsConfig{
			EnableLogging:    true,
			BatchSize:        DefaultBatchSize,
			AutoSaveInterval: DefaultAutoSaveInterval,
			StatsInterval:    DefaultStatsInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Inspect: InspectConfig{
			Addr: DefaultInspectAddr,
		},
		Telemetry: TelemetryConfig{
			Metrics:   true,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for workshop.json, then workshop.yaml.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); err != nil {
		if yamlPath := filepath.Join(dir, YAMLConfigFileName); fileExists(yamlPath) {
			configPath = yamlPath
		}
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No configuration file found at " + path)
		}
		return nil, errors.New("C002").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("C002").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("C002").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("C002").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Runtime.StrictEffects == "" {
		c.Runtime.StrictEffects = "off"
	}

	if c.Analytics.BatchSize == 0 {
		c.Analytics.BatchSize = DefaultBatchSize
	}
	if c.Analytics.AutoSaveInterval == "" {
		c.Analytics.AutoSaveInterval = DefaultAutoSaveInterval
	}
	if c.Analytics.StatsInterval == "" {
		c.Analytics.StatsInterval = DefaultStatsInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Runtime.MaxEffectRuns < 0 {
		return invalid("runtime.maxEffectRuns must not be negative")
	}
	if _, ok := reactive.ParseStrictEffectMode(c.Runtime.StrictEffects); !ok {
		return invalid("runtime.strictEffects must be one of off, warn, panic; got " + quote(c.Runtime.StrictEffects))
	}
	if c.Analytics.BatchSize < 1 {
		return invalid("analytics.batchSize must be at least 1")
	}
	if err := validateInterval("analytics.autoSaveInterval", c.Analytics.AutoSaveInterval); err != nil {
		return err
	}
	if err := validateInterval("analytics.statsInterval", c.Analytics.StatsInterval); err != nil {
		return err
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be one of debug, info, warn, error; got " + quote(c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json; got " + quote(c.Log.Format))
	}
	return nil
}

// StrictEffectMode returns the parsed runtime.strictEffects value.
func (c *Config) StrictEffectMode() reactive.StrictEffectMode {
	mode, _ := reactive.ParseStrictEffectMode(c.Runtime.StrictEffects)
	return mode
}

// AutoSaveInterval returns the parsed analytics.autoSaveInterval value.
func (c *Config) AutoSaveInterval() time.Duration {
	return mustDuration(c.Analytics.AutoSaveInterval, DefaultAutoSaveInterval)
}

// StatsInterval returns the parsed analytics.statsInterval value.
func (c *Config) StatsInterval() time.Duration {
	return mustDuration(c.Analytics.StatsInterval, DefaultStatsInterval)
}

// LogLevel returns the slog level for log.level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) ||
		fileExists(filepath.Join(dir, YAMLConfigFileName))
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No workshop.json or workshop.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest project root.
// When no config file exists the defaults are returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}

func validateInterval(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return invalid(field + " is not a duration: " + quote(value)).Wrap(err)
	}
	if d <= 0 {
		return invalid(field + " must be positive")
	}
	return nil
}

func invalid(detail string) *errors.CodedError {
	return errors.New("C003").WithDetail(detail)
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func mustDuration(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func quote(s string) string {
	return `"` + s + `"`
}
