// Package config collects the server and store settings. Flags are the single
// source of truth: a YAML file and CLOUDCANVAS_* environment variables only
// set flag values the command line left alone.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloudcanvas/app/log"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "CLOUDCANVAS_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverLocal    = "local"
	DriverRemote   = "remote"
	DriverPostgres = "postgres"
)

type StoreOptions struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Seed   bool   `yaml:"seed"`
}

type RemoteOptions struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api-key"`
	Timeout time.Duration `yaml:"timeout"`
}

type PostgresOptions struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max-conns"`
}

type Options struct {
	ConfigFile      string          `yaml:"-"`
	Listen          string          `yaml:"listen"`
	LogLevel        string          `yaml:"log-level"`
	Store           StoreOptions    `yaml:"store"`
	Remote          RemoteOptions   `yaml:"remote"`
	Postgres        PostgresOptions `yaml:"postgres"`
	PreviewTimeout  time.Duration   `yaml:"preview-timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown-timeout"`
}

func DefaultOptions() *Options {
	return &Options{
		Listen:   ":8080",
		LogLevel: "info",
		Store: StoreOptions{
			Driver: DriverLocal,
			Path:   "data",
		},
		Remote: RemoteOptions{
			Timeout: 10 * time.Second,
		},
		Postgres: PostgresOptions{
			MaxConns: 10,
		},
		PreviewTimeout:  5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// RegisterFlags binds every option to fs.
func (o *Options) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "path to a YAML config file")
	fs.StringVar(&o.Listen, "listen", o.Listen, "HTTP listen address")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&o.Store.Driver, "store-driver", o.Store.Driver, "store backend: memory, local, remote or postgres")
	fs.StringVar(&o.Store.Path, "store-path", o.Store.Path, "directory of the local store")
	fs.BoolVar(&o.Store.Seed, "store-seed", o.Store.Seed, "load the demo posts into an empty memory store")
	fs.StringVar(&o.Remote.URL, "remote-url", o.Remote.URL, "base URL of the hosted table service")
	fs.StringVar(&o.Remote.APIKey, "remote-api-key", o.Remote.APIKey, "API key of the hosted table service")
	fs.DurationVar(&o.Remote.Timeout, "remote-timeout", o.Remote.Timeout, "timeout of hosted table service requests")
	fs.StringVar(&o.Postgres.DSN, "postgres-dsn", o.Postgres.DSN, "PostgreSQL connection string")
	fs.Int32Var(&o.Postgres.MaxConns, "postgres-max-conns", o.Postgres.MaxConns, "PostgreSQL pool size")
	fs.DurationVar(&o.PreviewTimeout, "preview-timeout", o.PreviewTimeout, "timeout of image preview probes")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "graceful shutdown timeout")
}

// Validate checks option combinations.
func (o *Options) Validate() error {
	switch o.Store.Driver {
	case DriverMemory, DriverLocal:
	case DriverRemote:
		if o.Remote.URL == "" {
			return errors.New("remote-url is required for the remote store")
		}
	case DriverPostgres:
		if o.Postgres.DSN == "" {
			return errors.New("postgres-dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", o.Store.Driver)
	}
	if o.Listen == "" {
		return errors.New("listen address is required")
	}
	return nil
}

// YAML renders the options as a config file. The API key is masked.
func (o *Options) YAML() ([]byte, error) {
	cp := *o
	if cp.Remote.APIKey != "" {
		cp.Remote.APIKey = "******"
	}
	return yaml.Marshal(&cp)
}

// Load fills flags the command line did not set, first from the environment,
// then from the YAML file named by the config flag.
func Load(fs *pflag.FlagSet, logger *zap.Logger) error {
	logger = log.OrNop(logger)
	LoadEnv(fs, logger)

	path := ""
	if f := fs.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	if path == "" {
		return nil
	}
	values, err := ReadFile(path)
	if err != nil {
		return err
	}
	return apply(fs, values, "file", logger)
}

// EnvKey maps a flag name to its environment variable.
func EnvKey(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// LoadEnv sets unchanged flags from CLOUDCANVAS_* variables.
func LoadEnv(fs *pflag.FlagSet, logger *zap.Logger) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		key := EnvKey(f.Name)
		if val, ok := os.LookupEnv(key); ok {
			if err := fs.Set(f.Name, val); err != nil {
				logger.Warn("ignoring invalid environment value", zap.String("env", key), zap.Error(err))
				return
			}
			logger.Debug("config from env", zap.String("env", key))
		}
	})
}

// ReadFile parses a YAML config file into flag-name keyed values. Nested
// mappings join their keys with "-", so store: {driver: x} sets store-driver.
func ReadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	values := map[string]string{}
	if err := flatten("", doc, values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return values, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) error {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case []any:
			return fmt.Errorf("%s: lists are not supported", key)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return nil
}

// apply sets unchanged flags from values. Unknown keys are an error.
func apply(fs *pflag.FlagSet, values map[string]string, source string, logger *zap.Logger) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		f := fs.Lookup(key)
		if f == nil {
			return fmt.Errorf("unknown config key %q", key)
		}
		if f.Changed {
			continue
		}
		if err := fs.Set(key, values[key]); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
		logger.Debug("config from "+source, zap.String("key", key))
	}
	return nil
}
