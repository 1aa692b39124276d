// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// RequireNonEmpty returns an error naming the first key, in sorted order,
// whose value is blank.
func RequireNonEmpty(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.TrimSpace(values[key]) == "" {
			return fmt.Errorf("missing %s environment variable", key)
		}
	}
	return nil
}
