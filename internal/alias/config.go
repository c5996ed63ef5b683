package alias

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the externally authored alias document: the ordered rule table
// plus company canonicalization data. Hot-swap is whole-file reload only.
type Config struct {
	Rules     []RuleConfig  `yaml:"rules"`
	Companies CompanyConfig `yaml:"companies"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read alias config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse alias config: %w", err)
	}
	if len(cfg.Rules) == 0 {
		return cfg, fmt.Errorf("alias config %s: no rules", path)
	}
	return cfg, nil
}
