// Package config loads server settings from YAML, .env files and
// HOSTBRIDGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/hostbridge/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HOSTBRIDGE_"

const (
	defaultListen      = ":8080"
	defaultReadTimeout = 30 * time.Second
	defaultLogLevel    = "info"

	wasmPageSize   = 64 * 1024
	maxMemoryLimit = 4 << 30
)

// Config is the server configuration.
type Config struct {
	Listen        string      `yaml:"listen"`
	MetricsListen string      `yaml:"metrics_listen"`
	DocumentRoot  string      `yaml:"document_root"`
	ServerName    string      `yaml:"server_name"`
	LogLevel      string      `yaml:"log_level"`
	Guest         GuestConfig `yaml:"guest"`
	ReadTimeout   Duration    `yaml:"read_timeout"`
}

// GuestConfig selects and sizes the WebAssembly callback.
type GuestConfig struct {
	Path        string    `yaml:"path"`
	PoolSize    int       `yaml:"pool_size"`
	MemoryLimit SizeBytes `yaml:"memory_limit"`
}

// MemoryLimitPages converts MemoryLimit to 64KiB pages, rounding up.
func (g GuestConfig) MemoryLimitPages() uint32 {
	if g.MemoryLimit <= 0 {
		return 0
	}
	return uint32((int64(g.MemoryLimit) + wasmPageSize - 1) / wasmPageSize)
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(errors.PhaseConfig, "config file", path)
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindHostIO, err, "read config file")
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return &cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing file is not an error. Variables already set win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load "+path)
	}
	return nil
}

// ApplyEnv overrides fields from HOSTBRIDGE_* variables.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("LISTEN", &c.Listen)
	str("METRICS_LISTEN", &c.MetricsListen)
	str("DOCUMENT_ROOT", &c.DocumentRoot)
	str("SERVER_NAME", &c.ServerName)
	str("LOG_LEVEL", &c.LogLevel)
	str("GUEST", &c.Guest.Path)

	if v, ok := os.LookupEnv(EnvPrefix + "POOL_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envErr("POOL_SIZE", err)
		}
		c.Guest.PoolSize = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "MEMORY_LIMIT"); ok {
		s, err := parseSize(v)
		if err != nil {
			return envErr("MEMORY_LIMIT", err)
		}
		c.Guest.MemoryLimit = s
	}
	if v, ok := os.LookupEnv(EnvPrefix + "READ_TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return envErr("READ_TIMEOUT", err)
		}
		c.ReadTimeout = d
	}
	return nil
}

func envErr(name string, err error) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Target(EnvPrefix + name).
		Cause(err).
		Build()
}

// Validate fills defaults and rejects invalid values.
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Target("log_level").
			Cause(err).
			Build()
	}

	if c.Guest.PoolSize < 0 {
		return invalid("guest.pool_size", "must not be negative, got %d", c.Guest.PoolSize)
	}
	if c.Guest.PoolSize == 0 {
		c.Guest.PoolSize = runtime.GOMAXPROCS(0)
	}
	if c.Guest.MemoryLimit < 0 || c.Guest.MemoryLimit > maxMemoryLimit {
		return invalid("guest.memory_limit", "%s is outside [0, 4GiB]", c.Guest.MemoryLimit)
	}

	if c.DocumentRoot != "" {
		fi, err := os.Stat(c.DocumentRoot)
		if err != nil {
			return errors.NotFound(errors.PhaseConfig, "document root", c.DocumentRoot)
		}
		if !fi.IsDir() {
			return invalid("document_root", "%s is not a directory", c.DocumentRoot)
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Target(field).
		Detail(format, args...).
		Build()
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() zapcore.Level {
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// String summarizes the effective configuration for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("listen=%s guest=%q pool=%d memory=%s root=%q",
		c.Listen, c.Guest.Path, c.Guest.PoolSize, c.Guest.MemoryLimit, c.DocumentRoot)
}
