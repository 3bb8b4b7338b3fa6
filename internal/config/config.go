package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/elemtree/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "elemtree.json"

	// DefaultPort is the default debug server port.
	DefaultPort = 7070

	// DefaultHost is the default debug server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "elemtree"

	// DefaultMaxDepth is the default nesting limit for tree descriptions.
	DefaultMaxDepth = 256

	// UnlimitedDepth disables the nesting limit. Zero cannot be used for
	// this because an omitted maxDepth means DefaultMaxDepth.
	UnlimitedDepth = -1
)

// Config represents the complete elemtree.json configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Server contains debug server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Source contains tree description loading configuration.
	Source SourceConfig `json:"source,omitempty"`

	// Color enables ANSI colors in error output.
	Color *bool `json:"color,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty"`
}

// ServerConfig contains debug server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// SourceConfig contains tree description loading settings.
type SourceConfig struct {
	// MaxDepth bounds how deeply a tree description may nest.
	// Omitted means DefaultMaxDepth, UnlimitedDepth means no limit.
	MaxDepth int `json:"maxDepth,omitempty"`

	// S3Region is the region used for s3:// sources.
	S3Region string `json:"s3Region,omitempty"`

	// S3Endpoint overrides the S3 endpoint, e.g. for MinIO.
	S3Endpoint string `json:"s3Endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Source: SourceConfig{
			MaxDepth: DefaultMaxDepth,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for elemtree.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E231").
				WithDetail("No elemtree.json found in " + filepath.Dir(path))
		}
		return nil, errors.New("E230").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E230").
			WithDetail("Failed to parse elemtree.json: " + err.Error()).
			WithSuggestion("Check that elemtree.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads elemtree.json from dir, or returns defaults when
// the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E231") {
		return New(), nil
	}
	return cfg, err
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E230").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E230").Wrap(err)
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
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Source.MaxDepth == 0 {
		c.Source.MaxDepth = DefaultMaxDepth
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E230").
			WithDetail("server.port must be between 0 and 65535")
	}
	if c.Source.MaxDepth < UnlimitedDepth {
		return errors.New("E230").
			WithDetail("source.maxDepth must be positive, or -1 for no limit")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E230").
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E230").
			WithDetail("log.format must be text or json")
	}
	return nil
}

// ServerAddress returns the address string for the debug server.
func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ColorEnabled reports whether error output should use ANSI colors.
func (c *Config) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}

// LogLevel returns the slog level for Log.Level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// NewLogger builds a slog.Logger writing to w with the configured level
// and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}
