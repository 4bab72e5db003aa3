// Package config resolves invops configuration from defaults, the YAML config
// file in the XDG config dir, INVOPS_* environment variables and command-line
// flags, in increasing order of precedence. Secrets missing from all of those
// fall back to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/xdg"
)

// Backend names.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Value sources reported by the config command.
const (
	SourceDefault  = "default"
	SourceFile     = "config file"
	SourceEnv      = "environment"
	SourceFlag     = "flag"
	SourceKeychain = "keychain"
	SourceUnset    = "unset"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	Backend   string                  `mapstructure:"backend"`
	Datastore DatastoreConfig         `mapstructure:"datastore"`
	Sync      SyncConfig              `mapstructure:"sync"`
	Output    string                  `mapstructure:"output"`
	Verbose   bool                    `mapstructure:"verbose"`
	Presets   map[string]PresetConfig `mapstructure:"presets"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
	// Sources records where the credentials came from.
	Sources map[string]string `mapstructure:"-"`
}

// DatastoreConfig holds datastore connection settings.
type DatastoreConfig struct {
	URL        string        `mapstructure:"url"`
	ServiceKey string        `mapstructure:"service_key"`
	DSN        string        `mapstructure:"dsn"`
	Path       string        `mapstructure:"path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
}

// SyncConfig holds the market-data sync collaborator settings.
type SyncConfig struct {
	Address  string `mapstructure:"address"`
	Insecure bool   `mapstructure:"insecure"`
}

// PresetConfig overrides a preset listing operation.
type PresetConfig struct {
	Table  string   `mapstructure:"table"`
	Select []string `mapstructure:"select"`
	Where  []string `mapstructure:"where"`
}

// SecretStore is the keychain fallback for secrets.
type SecretStore interface {
	LoadServiceKey() (string, error)
	LoadDBDSN() (string, error)
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigFile overrides the default config file location. It must exist.
	ConfigFile string
	// DotEnv lists .env files to load into the process environment first.
	// Existing environment variables are never overridden.
	DotEnv []string
	// Flags are bound over every other source when set.
	Flags *pflag.FlagSet
	// Secrets is consulted for credentials nothing else provided.
	Secrets SecretStore
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"backend":      "backend",
	"output":       "output",
	"verbose":      "verbose",
	"url":          "datastore.url",
	"dsn":          "datastore.dsn",
	"sqlite":       "datastore.path",
	"sync-address": "sync.address",
}

// envKeys lists the environment names accepted for each key, preferred first.
var envKeys = map[string][]string{
	"datastore.url":         {"INVOPS_DATASTORE_URL", "SUPABASE_URL"},
	"datastore.service_key": {"INVOPS_DATASTORE_SERVICE_KEY", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_KEY"},
	"datastore.dsn":         {"INVOPS_DATASTORE_DSN", "DATABASE_URL"},
	"datastore.path":        {"INVOPS_DATASTORE_PATH"},
	"sync.address":          {"INVOPS_SYNC_ADDRESS"},
}

// Load resolves the configuration. It does not validate credentials; call Validate.
func Load(opts LoadOptions) (*Config, error) {
	for _, f := range opts.DotEnv {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("loading %s: %w", f, err)
			}
		}
	}

	v := viper.New()
	v.SetDefault("backend", BackendREST)
	v.SetDefault("output", OutputTable)
	v.SetDefault("verbose", false)
	v.SetDefault("datastore.timeout", "30s")
	v.SetDefault("datastore.rate_limit", 10.0)
	v.SetDefault("sync.insecure", false)

	v.SetEnvPrefix("INVOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := xdg.ConfigHome(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.Sources = make(map[string]string)
	for _, key := range []string{"datastore.url", "datastore.service_key", "datastore.dsn", "datastore.path", "sync.address"} {
		cfg.Sources[key] = source(v, key, opts.Flags)
	}

	if opts.Secrets != nil {
		if cfg.Datastore.ServiceKey == "" && cfg.Backend == BackendREST {
			if key, err := opts.Secrets.LoadServiceKey(); err == nil && strings.TrimSpace(key) != "" {
				cfg.Datastore.ServiceKey = strings.TrimSpace(key)
				cfg.Sources["datastore.service_key"] = SourceKeychain
			}
		}
		if cfg.Datastore.DSN == "" && cfg.Backend == BackendPostgres {
			if dsn, err := opts.Secrets.LoadDBDSN(); err == nil && strings.TrimSpace(dsn) != "" {
				cfg.Datastore.DSN = strings.TrimSpace(dsn)
				cfg.Sources["datastore.dsn"] = SourceKeychain
			}
		}
	}
	return &cfg, nil
}

func source(v *viper.Viper, key string, flags *pflag.FlagSet) string {
	if flags != nil {
		for name, k := range flagKeys {
			if k == key {
				if f := flags.Lookup(name); f != nil && f.Changed {
					return SourceFlag
				}
			}
		}
	}
	for _, name := range envKeys[key] {
		if _, ok := os.LookupEnv(name); ok {
			return SourceEnv
		}
	}
	if v.InConfig(key) {
		return SourceFile
	}
	if v.IsSet(key) {
		return SourceDefault
	}
	return SourceUnset
}

// Validate checks the selected backend has every credential it needs.
// It is run once before any operation executes.
func (c *Config) Validate() error {
	var missing []string
	switch c.Backend {
	case BackendREST:
		if strings.TrimSpace(c.Datastore.URL) == "" {
			missing = append(missing, "datastore URL (INVOPS_DATASTORE_URL or SUPABASE_URL)")
		}
		if strings.TrimSpace(c.Datastore.ServiceKey) == "" {
			missing = append(missing, "service key (INVOPS_DATASTORE_SERVICE_KEY or SUPABASE_SERVICE_ROLE_KEY)")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Datastore.DSN) == "" {
			missing = append(missing, "database DSN (INVOPS_DATASTORE_DSN or DATABASE_URL)")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Datastore.Path) == "" {
			missing = append(missing, "SQLite path (INVOPS_DATASTORE_PATH or --sqlite)")
		}
	default:
		return apperrors.New(apperrors.MissingConfiguration,
			fmt.Sprintf("unknown backend %q (use %s, %s or %s)", c.Backend, BackendREST, BackendPostgres, BackendSQLite))
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return apperrors.New(apperrors.MissingConfiguration,
			fmt.Sprintf("unknown output format %q (use %s, %s or %s)", c.Output, OutputTable, OutputJSON, OutputYAML))
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.MissingConfiguration, "missing "+strings.Join(missing, ", "))
	}
	return nil
}

// PresetNames returns configured preset names in sorted order.
func (c *Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for n := range c.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultFile returns the default config file path, creating its directory.
func DefaultFile() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
