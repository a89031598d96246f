// Package config loads server and client configuration.
//
// Configuration is assembled in three tiers: built-in defaults, then values
// from a JSON file (comments and trailing commas allowed), then explicit
// overrides such as command line flags. A later tier only replaces a key when
// its value is present: a non-empty string or collection, or a positive number.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"catalogue/pkg/log"
)

// Present reports whether v is allowed to overwrite a lower tier.
func Present(v any) bool {
	switch val := v.(type) {
	case string:
		return len(val) > 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case float64:
		return val > 0
	case int:
		return val > 0
	case int64:
		return val > 0
	default:
		return false
	}
}

// Merge returns a copy of base with every present value of override applied.
func Merge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for key, val := range base {
		merged[key] = val
	}
	for key, val := range override {
		if Present(val) {
			merged[key] = val
		}
	}
	return merged
}

// ReadFile parses a JSON (with comments) file into a map.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return values, nil
}

// load merges defaults, the file at path and overrides into a T. A missing
// file is tolerated unless required is set.
func load[T any](path string, required bool, defaults T, overrides map[string]any) (*T, error) {
	base, err := toMap(defaults)
	if err != nil {
		return nil, err
	}

	fileValues, err := ReadFile(path)
	switch {
	case err == nil:
		base = Merge(base, fileValues)
	case errors.Is(err, os.ErrNotExist) && !required:
		log.Info().Str("config_path", path).Msg("Config file not found, using defaults")
	default:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	merged := Merge(base, overrides)

	var cfg T
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config values: %w", err)
	}
	return &cfg, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	values := map[string]any{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return values, nil
}
