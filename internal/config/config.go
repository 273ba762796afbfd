// Package config loads and validates the service selection configuration.
//
// The configuration lists the feed services to reconcile and, per service,
// which managed resource kinds to maintain. The file is YAML; since YAML is
// a superset of JSON, the services.json format used by earlier deployments
// loads unchanged.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultChunkSize is the number of entries per prefix list chunk. It stays
// two under the backend's absolute ceiling of 1000 to leave room for a
// default route and rule entry added outside this tool.
const DefaultChunkSize = 998

// Config is the root of the services configuration file.
type Config struct {
	Services []Service `yaml:"Services" validate:"required,min=1,dive"`
}

// Service selects one feed service and the resources maintained for it.
type Service struct {
	// Name is the service token as it appears in the feed, e.g. "CLOUDFRONT".
	Name string `yaml:"Name" validate:"required"`

	// Regions restricts matching to these regions. Empty means all regions.
	Regions []string `yaml:"Regions"`

	PrefixList *PrefixList `yaml:"PrefixList"`
	WafIPSet   *WafIPSet   `yaml:"WafIPSet"`
}

// PrefixList configures the managed prefix lists for a service.
type PrefixList struct {
	Enable    bool `yaml:"Enable"`
	Summarize bool `yaml:"Summarize"`

	// ChunkSize caps the entries per prefix list instance; longer lists
	// continue into additional instances. Zero means DefaultChunkSize.
	ChunkSize int `yaml:"ChunkSize" validate:"omitempty,min=1,max=1000"`
}

// WafIPSet configures the WAF IP sets for a service.
type WafIPSet struct {
	Enable    bool     `yaml:"Enable"`
	Summarize bool     `yaml:"Summarize"`
	Scopes    []string `yaml:"Scopes" validate:"omitempty,dive,oneof=CLOUDFRONT REGIONAL"`
}

// Load reads and validates the configuration from a YAML (or JSON) file.
func Load(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Services {
		if pl := c.Services[i].PrefixList; pl != nil && pl.ChunkSize == 0 {
			pl.ChunkSize = DefaultChunkSize
		}
	}
}

// Validate checks structural constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Services))
	for _, svc := range c.Services {
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true

		if svc.WafIPSet != nil && svc.WafIPSet.Enable && len(svc.WafIPSet.Scopes) == 0 {
			return fmt.Errorf("service %q: WafIPSet is enabled but has no scopes", svc.Name)
		}
	}
	return nil
}
