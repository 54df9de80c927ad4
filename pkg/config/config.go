// Package config loads connection settings for the dbsession CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DefaultDriver    = "postgres"
	DefaultBindStyle = "auto"
	DefaultLogLevel  = "info"

	// EnvPrefix is stripped from environment variables: DBSESSION_DSN -> dsn.
	EnvPrefix = "DBSESSION_"
)

// DefaultFiles are tried in order when no config file is given.
var DefaultFiles = []string{"dbsession.yaml", "dbsession.yml"}

// Config holds the settings needed to open a session.
type Config struct {
	Driver    string `koanf:"driver"`
	DSN       string `koanf:"dsn"`
	BindStyle string `koanf:"bind_style"`
	LogLevel  string `koanf:"log_level"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Load reads configuration. Precedence, highest first: flags that were set,
// DBSESSION_* environment variables (a .env file in the working directory is
// loaded first), the YAML config file, defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"driver":     DefaultDriver,
		"bind_style": DefaultBindStyle,
		"log_level":  DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

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
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	cfg.DSN = ResolveDSN(cfg.DSN)
	return &cfg, nil
}

// findConfigFile returns explicit, or the first of DefaultFiles that exists.
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

var (
	knownDrivers    = []string{"postgres", "postgresql", "pq", "pgx", "mysql", "sqlite", "sqlite3"}
	knownBindStyles = []string{"auto", "named", "question", "dollar"}
	knownLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(knownDrivers, c.Driver) {
		errs = append(errs, fmt.Errorf("unknown driver %q (want one of %s)", c.Driver, strings.Join(knownDrivers, ", ")))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("dsn is empty: set --dsn, DBSESSION_DSN or DATABASE_URL"))
	}
	if !slices.Contains(knownBindStyles, strings.ToLower(c.BindStyle)) {
		errs = append(errs, fmt.Errorf("unknown bind_style %q", c.BindStyle))
	}
	if !slices.Contains(knownLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}
