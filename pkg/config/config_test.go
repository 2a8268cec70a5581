package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, DefaultAPIBaseURL, cfg.GitHub.APIBaseURL)
	assert.Equal(t, "https://raw.githubusercontent.com", cfg.GitHub.RawBaseURL)
	assert.Equal(t, "main", cfg.GitHub.DefaultBranch)
	assert.Equal(t, "application/vnd.github.v3.raw", cfg.GitHub.Accept)
	assert.Equal(t, 30*time.Second, cfg.Download.HTTPTimeout)
	assert.Equal(t, DefaultConcurrency, cfg.Download.Concurrency)
	assert.Equal(t, "c8y_CEP_repository", cfg.Platform.RepositoryType)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Download, cfg.Download)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestLoadConfig_YAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `server:
  listen: ":8080"
github:
  api_base_url: https://ghe.example.com/api/v3
  web_base_url: https://ghe.example.com
  default_branch: develop
download:
  http_timeout: 45s
  concurrency: 2
builder:
  path: /opt/builder/analytics_builder
  version_constraint: ">= 10.15"
log_level: debug`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHub.APIBaseURL)
	assert.Equal(t, "develop", cfg.GitHub.DefaultBranch)
	assert.Equal(t, 45*time.Second, cfg.Download.HTTPTimeout)
	assert.Equal(t, 2, cfg.Download.Concurrency)
	assert.Equal(t, DefaultMaxItems, cfg.Download.MaxItems, "unset values fall back to defaults")
	assert.Equal(t, "/opt/builder/analytics_builder", cfg.Builder.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	configContent := `log_level = "warn"
log_format = "json"

[download]
http_timeout = "10s"
max_depth = 4

[platform]
base_url = "https://tenant.example.com"

[platform.auth.basic]
username = "t123/admin"
password = "secret"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.Download.HTTPTimeout)
	assert.Equal(t, 4, cfg.Download.MaxDepth)
	assert.Equal(t, "https://tenant.example.com", cfg.Platform.BaseURL)
	require.NotNil(t, cfg.Platform.Auth)
	require.NotNil(t, cfg.Platform.Auth.BasicAuth)
	assert.Equal(t, "t123/admin", cfg.Platform.Auth.BasicAuth.Username)
}

func TestLoadConfigFromReader_ParseError(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("server: [unclosed"))
	assert.ErrorIs(t, err, errors.ErrConfigParse)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.Download.MaxItems = 50
	cfg.GitHub.Token = "ghp_secret"

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fsutil.FileModeSecure), info.Mode().Perm())
	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, 50, loaded.Download.MaxItems)
	assert.Equal(t, "ghp_secret", loaded.GitHub.Token)
	assert.Equal(t, cfg.Builder.Timeout, loaded.Builder.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		errMsg  string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: errors.ErrInvalidLogLevel,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: errors.ErrInvalidLogFormat,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Download.Concurrency = 0 },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "download.concurrency",
		},
		{
			name:    "relative api url",
			mutate:  func(c *Config) { c.GitHub.APIBaseURL = "api.github.com" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "github.api_base_url",
		},
		{
			name:    "bad platform url",
			mutate:  func(c *Config) { c.Platform.BaseURL = "/relative" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "platform.base_url",
		},
		{
			name:    "bad version constraint",
			mutate:  func(c *Config) { c.Builder.VersionConstraint = "not a constraint" },
			wantErr: errors.ErrConfigValidation,
			errMsg:  "builder.version_constraint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestApplyEnvFrom(t *testing.T) {
	env := map[string]string{
		EnvPlatformBaseURL: "https://tenant.example.com",
		EnvBuilderPath:     "/usr/local/bin/analytics_builder",
		EnvListen:          ":9090",
		EnvLogLevel:        "debug",
		EnvGHToken:         "gh-token",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnvFrom(lookup))

	assert.Equal(t, "https://tenant.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, "/usr/local/bin/analytics_builder", cfg.Builder.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gh-token", cfg.GitHub.Token)
}

func TestApplyEnvFrom_PrefersGitHubToken(t *testing.T) {
	env := map[string]string{EnvGitHubToken: "primary", EnvGHToken: "secondary"}
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnvFrom(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))
	assert.Equal(t, "primary", cfg.GitHub.Token)
}

func TestApplyEnvFrom_InvalidValue(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnvFrom(func(key string) (string, bool) {
		if key == EnvLogLevel {
			return "loud", true
		}
		return "", false
	})
	assert.ErrorIs(t, err, errors.ErrInvalidLogLevel)
}

func TestGetSetValue(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.SetValue("download.concurrency", "3"))
	v, err := cfg.GetValue("download.concurrency")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	require.NoError(t, cfg.SetValue("builder.timeout", "90s"))
	assert.Equal(t, 90*time.Second, cfg.Builder.Timeout)

	err = cfg.SetValue("download.concurrency", "0")
	require.Error(t, err)
	assert.Equal(t, 3, cfg.Download.Concurrency, "invalid values are rolled back")

	assert.Error(t, cfg.SetValue("download.concurrency", "many"))
	assert.Error(t, cfg.SetValue("unknown.key", "x"))
	_, err = cfg.GetValue("unknown.key")
	assert.Error(t, err)

	assert.Contains(t, Keys(), "platform.base_url")
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_secret"
	cfg.Platform.Auth = &AuthConfig{BasicAuth: &BasicAuth{Username: "t1/admin", Password: "pw"}}

	red := cfg.Redacted()
	assert.Equal(t, "********", red.GitHub.Token)
	assert.Equal(t, "t1/admin", red.Platform.Auth.BasicAuth.Username)
	assert.Equal(t, "********", red.Platform.Auth.BasicAuth.Password)
	assert.Equal(t, "ghp_secret", cfg.GitHub.Token, "original is untouched")
	assert.Equal(t, "pw", cfg.Platform.Auth.BasicAuth.Password)
}
