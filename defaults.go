package relay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefaults reads a YAML (or JSON) document of instance defaults from
// path. ${VAR} references are expanded from the environment before parsing.
func LoadDefaults(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defaults %s: %w", path, err)
	}
	cfg, err := ParseDefaults([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("parse defaults %s: %w", path, err)
	}
	return cfg, nil
}

// ParseDefaults decodes a YAML mapping into a Config. Nested mappings become
// Config values so they deep-merge with per-call options.
func ParseDefaults(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return Config{}, nil
	}
	return normalize(raw).(Config), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Config, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
