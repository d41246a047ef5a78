package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the focusd configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Security SecurityConfig `json:"security" yaml:"security"`
	Timer    TimerConfig    `json:"timer" yaml:"timer"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Timezone string         `json:"timezone" yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// DatabaseConfig contains database settings. Path is used by sqlite, DSN by postgres.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	Path   string `json:"path" yaml:"path"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIKey string `json:"api_key" yaml:"api_key"`
}

// TimerConfig contains focus timer settings
type TimerConfig struct {
	TickInterval Duration `json:"tick_interval" yaml:"tick_interval"`
	StartPolicy  string   `json:"start_policy" yaml:"start_policy"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Format string `json:"format" yaml:"format"`
	Level  string `json:"level" yaml:"level"`
}

// Duration is a time.Duration written as "1s" or "500ms" in config files
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts a duration string
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Security.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	if c.Timer.TickInterval == 0 {
		c.Timer.TickInterval = Duration(time.Second)
	}
	if c.Timer.TickInterval < 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if c.Timer.StartPolicy == "" {
		c.Timer.StartPolicy = "best_effort"
	}
	if c.Timer.StartPolicy != "best_effort" && c.Timer.StartPolicy != "strict" {
		return fmt.Errorf("%w: start policy must be best_effort or strict", ErrInvalidConfig)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Timezone)
	}

	return nil
}

// Location returns the configured timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from a JSON or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	var config Config
	if err := readFile(path, &config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("FOCUSTRACK_HOST", "0.0.0.0"),
			Port: getEnvInt("FOCUSTRACK_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver: getEnv("FOCUSTRACK_DB_DRIVER", DriverSQLite),
			Path:   getEnv("FOCUSTRACK_DB_PATH", "./focustrack.db"),
			DSN:    getEnv("FOCUSTRACK_DB_DSN", ""),
		},
		Security: SecurityConfig{
			APIKey: getEnv("FOCUSTRACK_API_KEY", ""),
		},
		Timer: TimerConfig{
			TickInterval: Duration(getEnvDuration("FOCUSTRACK_TICK_INTERVAL", time.Second)),
			StartPolicy:  getEnv("FOCUSTRACK_START_POLICY", "best_effort"),
		},
		Logging: LoggingConfig{
			Format: getEnv("FOCUSTRACK_LOG_FORMAT", "json"),
			Level:  getEnv("FOCUSTRACK_LOG_LEVEL", "info"),
		},
		Timezone: getEnv("FOCUSTRACK_TIMEZONE", "UTC"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// readFile decodes a config file into out
func readFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = json.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		return 0
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		return -1
	}
	return defaultValue
}
