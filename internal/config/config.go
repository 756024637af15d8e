package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/pagebuild/internal/assets"
)

// EnvPrefix prefixes environment overrides, e.g. PAGEBUILD_MODE=inline.
// A double underscore descends into a section: PAGEBUILD_WATCH__DEBOUNCE_MS.
const EnvPrefix = "PAGEBUILD_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PAGEBUILD_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values. It
// normalises Mode to its canonical spelling.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SrcDir) == "" {
		return fmt.Errorf("src_dir is required")
	}
	if strings.TrimSpace(c.DistDir) == "" {
		return fmt.Errorf("dist_dir is required")
	}

	mode, err := assets.ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be non-negative")
	}

	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("invalid serve.port %d: must be between 0 and 65535", c.Serve.Port)
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must be non-negative")
	}

	return nil
}
