package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-accesslease/pkg/scopes"
	"github.com/goliatone/go-config/cfgx"
)

// Config captures module-level configuration knobs. Feature packages
// (request handler, confirmation handler, adapters) pull from these nested
// structs.
type Config struct {
	Backend BackendConfig `mapstructure:"backend" json:"backend"`
	ACL     ACLConfig     `mapstructure:"acl" json:"acl"`
	Links   LinksConfig   `mapstructure:"links" json:"links"`
	Scopes  ScopesConfig  `mapstructure:"scopes" json:"scopes"`
}

// BackendConfig addresses the secret backend that mints credentials.
type BackendConfig struct {
	Address string        `mapstructure:"address" json:"address"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// ACLConfig addresses the network ACL backend that enforces IP allow-listing.
type ACLConfig struct {
	Address string        `mapstructure:"address" json:"address"`
	APIKey  string        `mapstructure:"api_key" json:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// LinksConfig controls how confirmation URLs are built.
type LinksConfig struct {
	PublicURL string `mapstructure:"public_url" json:"public_url"`
	Route     string `mapstructure:"route" json:"route"`
}

// ScopesConfig is the static whitelist: environment synonyms to scope paths
// and scope paths to ACL targets.
type ScopesConfig struct {
	Environments map[string]string `mapstructure:"environments" json:"environments"`
	Targets      map[string]string `mapstructure:"targets" json:"targets"`
}

// Table materializes the scope lookup table.
func (s ScopesConfig) Table() scopes.Table {
	return scopes.NewTable(s.Environments, s.Targets)
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			Address: "http://127.0.0.1:8200",
			Timeout: 10 * time.Second,
		},
		ACL: ACLConfig{
			Address: "http://127.0.0.1:8220",
			Timeout: 10 * time.Second,
		},
		Links: LinksConfig{
			PublicURL: "http://localhost:8080",
			Route:     "access",
		},
		Scopes: ScopesConfig{
			Environments: map[string]string{
				"prod":       "database-production",
				"production": "database-production",
				"live":       "database-production",
				"test":       "database-test",
				"testing":    "database-test",
				"qa":         "database-test",
			},
			Targets: map[string]string{
				"database-production": "sg-database-production",
				"database-test":       "sg-database-test",
			},
		},
	}
}

// Validate ensures required fields are present and sane.
func (c *Config) Validate() error {
	if c.Backend.Address == "" {
		return errors.New("backend.address is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must be >= 0")
	}
	if c.ACL.Address == "" {
		return errors.New("acl.address is required")
	}
	if c.ACL.Timeout < 0 {
		return fmt.Errorf("acl.timeout must be >= 0")
	}
	if c.Links.PublicURL == "" {
		return errors.New("links.public_url is required")
	}
	if err := c.Scopes.Table().Validate(); err != nil {
		return err
	}
	return nil
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// While cfgx.Build still returns zero values, we fallback to a lightweight
// decoder to keep smoke tests meaningful. Once cfgx is fully implemented we
// can drop the fallback.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Backend.Address == "" {
		c.Backend.Address = defaults.Backend.Address
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaults.Backend.Timeout
	}
	if c.ACL.Address == "" {
		c.ACL.Address = defaults.ACL.Address
	}
	if c.ACL.Timeout == 0 {
		c.ACL.Timeout = defaults.ACL.Timeout
	}
	if c.Links.PublicURL == "" {
		c.Links.PublicURL = defaults.Links.PublicURL
	}
	if c.Links.Route == "" {
		c.Links.Route = defaults.Links.Route
	}
	if len(c.Scopes.Environments) == 0 {
		c.Scopes.Environments = defaults.Scopes.Environments
	}
	if len(c.Scopes.Targets) == 0 {
		c.Scopes.Targets = defaults.Scopes.Targets
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
