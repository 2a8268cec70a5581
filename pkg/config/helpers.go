package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

type accessor struct {
	get func(c *Config) string
	set func(c *Config, value string) error
}

func stringField(field func(c *Config) *string) accessor {
	return accessor{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, value string) error {
			*field(c) = value
			return nil
		},
	}
}

func intField(field func(c *Config) *int) accessor {
	return accessor{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value: %s", value)
			}
			*field(c) = n
			return nil
		},
	}
}

func durationField(field func(c *Config) *time.Duration) accessor {
	return accessor{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, value string) error {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", value)
			}
			*field(c) = d
			return nil
		},
	}
}

var accessors = map[string]accessor{
	"server.listen":              stringField(func(c *Config) *string { return &c.Server.Listen }),
	"github.web_base_url":        stringField(func(c *Config) *string { return &c.GitHub.WebBaseURL }),
	"github.api_base_url":        stringField(func(c *Config) *string { return &c.GitHub.APIBaseURL }),
	"github.raw_base_url":        stringField(func(c *Config) *string { return &c.GitHub.RawBaseURL }),
	"github.default_branch":      stringField(func(c *Config) *string { return &c.GitHub.DefaultBranch }),
	"download.http_timeout":      durationField(func(c *Config) *time.Duration { return &c.Download.HTTPTimeout }),
	"download.concurrency":       intField(func(c *Config) *int { return &c.Download.Concurrency }),
	"download.max_depth":         intField(func(c *Config) *int { return &c.Download.MaxDepth }),
	"download.max_items":         intField(func(c *Config) *int { return &c.Download.MaxItems }),
	"staging.base_dir":           stringField(func(c *Config) *string { return &c.Staging.BaseDir }),
	"builder.path":               stringField(func(c *Config) *string { return &c.Builder.Path }),
	"builder.timeout":            durationField(func(c *Config) *time.Duration { return &c.Builder.Timeout }),
	"builder.version_constraint": stringField(func(c *Config) *string { return &c.Builder.VersionConstraint }),
	"platform.base_url":          stringField(func(c *Config) *string { return &c.Platform.BaseURL }),
	"log_level":                  stringField(func(c *Config) *string { return &c.LogLevel }),
	"log_format":                 stringField(func(c *Config) *string { return &c.LogFormat }),
}

// SetValue sets a configuration value by its dotted key and re-validates the
// configuration. On a validation error the previous value is restored.
func (c *Config) SetValue(key, value string) error {
	acc, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	previous := acc.get(c)
	if err := acc.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := c.Validate(); err != nil {
		_ = acc.set(c, previous)
		return err
	}
	return nil
}

// GetValue returns a configuration value by its dotted key.
func (c *Config) GetValue(key string) (string, error) {
	acc, ok := accessors[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return acc.get(c), nil
}

// Keys returns the supported dotted keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
