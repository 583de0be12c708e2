// Package config reads the CLI configuration file.
//
//	ignore_excess: true
//	allow_duplicate_keys: false
//	max_depth: 64
//	lang: ja
//	log_level: debug
//	schemas:
//	  address: schemas/address.yml
//
// Relative schema paths resolve against the directory of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for files that do not decode into Config.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds CLI defaults. Flags override it.
type Config struct {
	IgnoreExcess       bool              `mapstructure:"ignore_excess"`
	AllowDuplicateKeys bool              `mapstructure:"allow_duplicate_keys"`
	MaxDepth           int               `mapstructure:"max_depth"`
	Language           string            `mapstructure:"lang"`
	LogLevel           string            `mapstructure:"log_level"`
	Schemas            map[string]string `mapstructure:"schemas"`
}

// Load reads and decodes path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for name, p := range cfg.Schemas {
		if !filepath.IsAbs(p) {
			cfg.Schemas[name] = filepath.Join(base, p)
		}
	}
	return cfg, nil
}

// Parse decodes YAML bytes. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.MaxDepth < 0 {
		return Config{}, fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	}
	return cfg, nil
}
