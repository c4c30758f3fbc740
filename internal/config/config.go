package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// EnvPrefix prefixes environment overrides, e.g. WOWPLAYBOOK_OUTPUT_DIR.
const EnvPrefix = "WOWPLAYBOOK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (WOWPLAYBOOK_*).
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

	// Overlay environment variables: WOWPLAYBOOK_DOCS_DIR -> docs_dir,
	// WOWPLAYBOOK_WIDGET__SCRIPT_URL -> widget.script_url.
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

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	if c.DocsDir == "" {
		return fmt.Errorf("docs_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Language != "" && !wowhead.IsLanguage(c.Language) {
		return fmt.Errorf("invalid language %q: must be one of cn, en, tw", c.Language)
	}
	if c.Base != "" && (!strings.HasPrefix(c.Base, "/") || !strings.HasSuffix(c.Base, "/")) {
		return fmt.Errorf("base %q must start and end with /", c.Base)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.Widget.PollIntervalMS < 0 || c.Widget.PollTimeoutMS < 0 {
		return fmt.Errorf("widget poll settings must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	for _, g := range c.Sidebar {
		for _, item := range g.Items {
			if !strings.HasPrefix(item.Link, "/") {
				return fmt.Errorf("sidebar link %q in %q must be absolute", item.Link, g.Text)
			}
		}
	}
	return nil
}

// BuildLanguage returns the language links are rendered with.
func (c *Config) BuildLanguage() wowhead.Language {
	if wowhead.IsLanguage(c.Language) {
		return wowhead.Language(c.Language)
	}
	return wowhead.DefaultLanguage
}

// PollInterval returns the widget poll interval.
func (w WidgetConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// PollTimeout returns the widget poll timeout; zero means unbounded.
func (w WidgetConfig) PollTimeout() time.Duration {
	return time.Duration(w.PollTimeoutMS) * time.Millisecond
}
