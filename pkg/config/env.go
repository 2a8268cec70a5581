package config

import "os"

// Environment variables that override file settings.
const (
	EnvConfigPath      = "ANABUILD_CONFIG"
	EnvPlatformBaseURL = "C8Y_BASEURL"
	EnvBuilderPath     = "ANABUILD_BUILDER_PATH"
	EnvListen          = "ANABUILD_LISTEN"
	EnvLogLevel        = "ANABUILD_LOG_LEVEL"
	EnvLogFormat       = "ANABUILD_LOG_FORMAT"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvGHToken         = "GH_TOKEN"
)

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from the process environment and validates
// the result.
func (c *Config) ApplyEnv() error {
	return c.ApplyEnvFrom(os.LookupEnv)
}

// ApplyEnvFrom overrides settings using lookup. Empty values are ignored.
func (c *Config) ApplyEnvFrom(lookup LookupFunc) error {
	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return ""
	}

	if v := get(EnvPlatformBaseURL); v != "" {
		c.Platform.BaseURL = v
	}
	if v := get(EnvBuilderPath); v != "" {
		c.Builder.Path = v
	}
	if v := get(EnvListen); v != "" {
		c.Server.Listen = v
	}
	if v := get(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := get(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if c.GitHub.Token == "" {
		if v := get(EnvGitHubToken); v != "" {
			c.GitHub.Token = v
		} else if v := get(EnvGHToken); v != "" {
			c.GitHub.Token = v
		}
	}
	return c.Validate()
}
