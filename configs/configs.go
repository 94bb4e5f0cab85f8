// Package configs loads store configuration from YAML and dispatches the
// configured backend to an engine opener.
package configs

import (
	"fmt"
	"os"

	"github.com/rawbytedev/ldb"
	"github.com/rawbytedev/ldb/badgerdb"
	"github.com/rawbytedev/ldb/boltdb"
	"github.com/rawbytedev/ldb/pebbledb"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config selects a backend and names the database it serves.
type Config struct {
	Backend       string `yaml:"backend"`
	Dir           string `yaml:"dir"`
	Name          string `yaml:"name"`
	SchemaVersion uint64 `yaml:"schema-version"`
	Collection    string `yaml:"collection"`
}

func Default() Config {
	return Config{
		Backend:       "badger",
		Dir:           "./db",
		Name:          ldb.DefaultName,
		SchemaVersion: ldb.DefaultSchemaVersion,
		Collection:    ldb.DefaultCollection,
	}
}

// Load reads a YAML config file; fields left unset fall back to Default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("configs: cannot parse %s: %w", path, err)
	}
	if cfg.Backend == "" {
		cfg.Backend = Default().Backend
	}
	if cfg.Dir == "" {
		cfg.Dir = Default().Dir
	}
	return cfg, nil
}

// Options maps the config onto store options.
func (c Config) Options() ldb.Options {
	return ldb.Options{
		Name:          c.Name,
		SchemaVersion: c.SchemaVersion,
		Collection:    c.Collection,
	}
}

// Opener returns the engine opener for the configured backend. Unknown
// backend names are reported as an error so callers surface them before
// constructing a store.
func (c Config) Opener(logger *zap.Logger) (ldb.OpenFunc, error) {
	switch c.Backend {
	case "badger":
		return badgerdb.Opener(badgerdb.Config{Dir: c.Dir, Logger: logger}), nil
	case "pebble":
		return pebbledb.Opener(pebbledb.Config{Dir: c.Dir}), nil
	case "bolt":
		return boltdb.Opener(boltdb.Config{Dir: c.Dir}), nil
	default:
		return nil, fmt.Errorf("configs: unknown backend %q", c.Backend)
	}
}
