// Package config loads the settings of the sqlcipher command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jakoblorz/sqlcipher"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Default values.
const (
	DefaultDatabase    = ":memory:"
	DefaultEngine      = sqlcipher.DefaultEngine
	DefaultBusyTimeout = 5 * time.Second
	DefaultFormat      = "table"
	EnvPrefix          = "SQLCIPHER_"
)

// DefaultFiles are looked up in the working directory when no config file is
// given.
var DefaultFiles = []string{"sqlcipher.yaml", "sqlcipher.yml"}

// Formats lists the supported output formats.
var Formats = []string{"table", "json", "csv"}

var ErrInvalidFormat = errors.New("invalid output format")

// Config holds the settings of the command.
type Config struct {
	Database    string        `koanf:"database"`
	Engine      string        `koanf:"engine"`
	Key         string        `koanf:"key"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
	ForeignKeys bool          `koanf:"foreign_keys"`
	Autocommit  bool          `koanf:"autocommit"`
	Verbose     bool          `koanf:"verbose"`
	Format      string        `koanf:"format"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Connection returns the connection settings.
func (c *Config) Connection() sqlcipher.Config {
	return sqlcipher.Config{
		Path:        c.Database,
		Engine:      c.Engine,
		Key:         c.Key,
		BusyTimeout: c.BusyTimeout,
		ForeignKeys: c.ForeignKeys,
		Autocommit:  c.Autocommit,
	}
}

// Validate checks values the loaders cannot check themselves.
func (c *Config) Validate() error {
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("%w %q, expected one of %s", ErrInvalidFormat, c.Format, strings.Join(Formats, ", "))
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database":     DefaultDatabase,
		"engine":       DefaultEngine,
		"busy_timeout": DefaultBusyTimeout.String(),
		"foreign_keys": true,
		"autocommit":   false,
		"verbose":      false,
		"format":       DefaultFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: SQLCIPHER_BUSY_TIMEOUT -> busy_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
