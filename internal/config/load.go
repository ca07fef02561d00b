package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} or ${VAR:-default}, so operators can
// parameterize a config file without a templating layer.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func substituteEnvVars(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		sub := envPattern.FindSubmatch(m)
		name, def := string(sub[1]), string(sub[3])
		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		return []byte(def)
	})
}

// Load reads, env-substitutes and YAML-decodes the config file at path,
// starting from DefaultConfig so a partial file only overrides the
// sections it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data (after env substitution) onto DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	data = substituteEnvVars(data)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("config: invalid: %w", errs[0])
	}
	return cfg, nil
}
