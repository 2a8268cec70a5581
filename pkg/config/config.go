// Package config provides configuration management for the extension build
// service. It loads YAML (or TOML) files, fills in defaults, applies
// environment overrides and validates the result.
package config

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	GitHub   GitHubConfig   `yaml:"github" toml:"github"`
	Download DownloadConfig `yaml:"download" toml:"download"`
	Staging  StagingConfig  `yaml:"staging" toml:"staging"`
	Builder  BuilderConfig  `yaml:"builder" toml:"builder"`
	Platform PlatformConfig `yaml:"platform" toml:"platform"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty" toml:"hooks"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`   // error, warn, info, debug
	LogFormat string `yaml:"log_format" toml:"log_format"` // text, json
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen            string        `yaml:"listen" toml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" toml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxRequestBody    int64         `yaml:"max_request_body" toml:"max_request_body"`
}

// GitHubConfig describes the content host.
type GitHubConfig struct {
	WebBaseURL string `yaml:"web_base_url" toml:"web_base_url"`
	APIBaseURL string `yaml:"api_base_url" toml:"api_base_url"`
	// RawBaseURL is the host serving raw file downloads. Download URLs sent
	// by clients must point at the web, API or raw host.
	RawBaseURL    string `yaml:"raw_base_url" toml:"raw_base_url"`
	DefaultBranch string `yaml:"default_branch" toml:"default_branch"`
	Accept        string `yaml:"accept" toml:"accept"`
	// Token is the service-wide token used when a request names no
	// repository with its own access token.
	Token string `yaml:"token,omitempty" toml:"token"`
}

// DownloadConfig bounds the tree walk.
type DownloadConfig struct {
	HTTPTimeout time.Duration `yaml:"http_timeout" toml:"http_timeout"`
	Concurrency int           `yaml:"concurrency" toml:"concurrency"`
	MaxDepth    int           `yaml:"max_depth" toml:"max_depth"`
	MaxItems    int           `yaml:"max_items" toml:"max_items"`
	MaxFileSize int64         `yaml:"max_file_size" toml:"max_file_size"`
	UserAgent   string        `yaml:"user_agent" toml:"user_agent"`
}

// StagingConfig controls where per-request staging directories live.
type StagingConfig struct {
	BaseDir  string        `yaml:"base_dir,omitempty" toml:"base_dir"`
	Prefix   string        `yaml:"prefix" toml:"prefix"`
	SweepAge time.Duration `yaml:"sweep_age" toml:"sweep_age"`
}

// BuilderConfig describes the external extension build tool.
type BuilderConfig struct {
	Path              string        `yaml:"path" toml:"path"`
	Timeout           time.Duration `yaml:"timeout" toml:"timeout"`
	MaxOutput         int           `yaml:"max_output" toml:"max_output"`
	VersionArgs       []string      `yaml:"version_args,omitempty" toml:"version_args"`
	VersionConstraint string        `yaml:"version_constraint,omitempty" toml:"version_constraint"`
}

// PlatformConfig describes the tenant platform that stores repositories and
// receives uploaded extensions.
type PlatformConfig struct {
	BaseURL        string        `yaml:"base_url,omitempty" toml:"base_url"`
	RepositoryType string        `yaml:"repository_type" toml:"repository_type"`
	Timeout        time.Duration `yaml:"timeout" toml:"timeout"`
	// Auth is used by the command line tools, which have no incoming
	// request whose identity could be forwarded.
	Auth *AuthConfig `yaml:"auth,omitempty" toml:"auth"`
}

// HooksConfig holds optional Tengo scripts run around the build. A value
// ending in ".tengo" is read from disk, anything else is the script itself.
// Dir may hold pre-build.tengo and post-build.tengo; explicit scripts win.
type HooksConfig struct {
	Dir       string `yaml:"dir,omitempty" toml:"dir"`
	PreBuild  string `yaml:"pre_build,omitempty" toml:"pre_build"`
	PostBuild string `yaml:"post_build,omitempty" toml:"post_build"`
}

// Default configuration values.
const (
	DefaultListen            = ":80"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultMaxRequestBody    = 1 << 20

	DefaultWebBaseURL    = "https://github.com"
	DefaultAPIBaseURL    = "https://api.github.com"
	DefaultRawBaseURL    = "https://raw.githubusercontent.com"
	DefaultBranch        = "main"
	DefaultAccept        = "application/vnd.github.v3.raw"
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultConcurrency   = 8
	DefaultMaxDepth      = 16
	DefaultMaxItems      = 2000
	DefaultMaxFileSize   = 32 << 20
	DefaultUserAgent     = "anabuild/1.0"
	DefaultStagingPrefix = "anabuild-"
	DefaultSweepAge      = time.Hour

	DefaultBuilderPath    = "/apama_work/apama-analytics-builder-block-sdk/analytics_builder"
	DefaultBuilderTimeout = 5 * time.Minute
	DefaultMaxOutput      = 64 << 10

	DefaultRepositoryType  = "c8y_CEP_repository"
	DefaultPlatformTimeout = 60 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            DefaultListen,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ShutdownTimeout:   DefaultShutdownTimeout,
			MaxRequestBody:    DefaultMaxRequestBody,
		},
		GitHub: GitHubConfig{
			WebBaseURL:    DefaultWebBaseURL,
			APIBaseURL:    DefaultAPIBaseURL,
			RawBaseURL:    DefaultRawBaseURL,
			DefaultBranch: DefaultBranch,
			Accept:        DefaultAccept,
		},
		Download: DownloadConfig{
			HTTPTimeout: DefaultHTTPTimeout,
			Concurrency: DefaultConcurrency,
			MaxDepth:    DefaultMaxDepth,
			MaxItems:    DefaultMaxItems,
			MaxFileSize: DefaultMaxFileSize,
			UserAgent:   DefaultUserAgent,
		},
		Staging: StagingConfig{
			BaseDir:  os.TempDir(),
			Prefix:   DefaultStagingPrefix,
			SweepAge: DefaultSweepAge,
		},
		Builder: BuilderConfig{
			Path:        DefaultBuilderPath,
			Timeout:     DefaultBuilderTimeout,
			MaxOutput:   DefaultMaxOutput,
			VersionArgs: []string{"--version"},
		},
		Platform: PlatformConfig{
			RepositoryType: DefaultRepositoryType,
			Timeout:        DefaultPlatformTimeout,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. Files ending in ".toml" are decoded as TOML, everything else as
// YAML.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	if isTOML(absPath) {
		return LoadTOMLFromReader(file)
	}
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads YAML configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return finish(&config)
}

// LoadTOMLFromReader loads TOML configuration from an io.Reader.
func LoadTOMLFromReader(reader io.Reader) (*Config, error) {
	var config Config
	if _, err := toml.NewDecoder(reader).Decode(&config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return finish(&config)
}

func finish(config *Config) (*Config, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// SaveConfig writes the configuration to path, atomically replacing any
// existing file. The file is private because it may hold tokens.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	var data []byte
	if isTOML(absPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.Wrap(errors.ErrConfigEncode, err.Error())
		}
		data = buf.Bytes()
	} else {
		data, err = c.ToYAML()
		if err != nil {
			return err
		}
	}

	tempPath := absPath + ".tmp"
	if err := os.WriteFile(tempPath, data, fsutil.FileModeSecure); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return buf.Bytes(), nil
}

// Redacted returns a copy of the configuration with secrets masked, for
// display.
func (c *Config) Redacted() *Config {
	clone := *c
	if clone.GitHub.Token != "" {
		clone.GitHub.Token = redactedValue
	}
	if c.Platform.Auth != nil {
		clone.Platform.Auth = c.Platform.Auth.redacted()
	}
	return &clone
}

const redactedValue = "********"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateLogging(c.LogLevel, c.LogFormat); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Listen) == "" {
		return invalid("server.listen must not be empty")
	}
	if c.Server.MaxRequestBody <= 0 {
		return invalid("server.max_request_body must be positive")
	}
	if err := validateBaseURL("github.web_base_url", c.GitHub.WebBaseURL, true); err != nil {
		return err
	}
	if err := validateBaseURL("github.api_base_url", c.GitHub.APIBaseURL, true); err != nil {
		return err
	}
	if err := validateBaseURL("github.raw_base_url", c.GitHub.RawBaseURL, true); err != nil {
		return err
	}
	if err := validateBaseURL("platform.base_url", c.Platform.BaseURL, false); err != nil {
		return err
	}
	if c.GitHub.DefaultBranch == "" {
		return invalid("github.default_branch must not be empty")
	}
	if err := validateDownload(c.Download); err != nil {
		return err
	}
	if c.Builder.Path == "" {
		return invalid("builder.path must not be empty")
	}
	if c.Builder.Timeout < 0 || c.Platform.Timeout < 0 || c.Staging.SweepAge < 0 {
		return invalid("timeouts must not be negative")
	}
	if c.Builder.VersionConstraint != "" {
		if _, err := version.NewConstraint(c.Builder.VersionConstraint); err != nil {
			return invalid("builder.version_constraint: " + err.Error())
		}
	}
	return nil
}

func validateLogging(level, format string) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(level)] {
		return errors.ErrInvalidLogLevelWithDetails(level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(format)] {
		return errors.ErrInvalidLogFormatWithDetails(format)
	}
	return nil
}

func validateDownload(d DownloadConfig) error {
	switch {
	case d.HTTPTimeout < 0:
		return invalid("download.http_timeout must not be negative")
	case d.Concurrency < 1:
		return invalid("download.concurrency must be at least 1")
	case d.MaxDepth < 1:
		return invalid("download.max_depth must be at least 1")
	case d.MaxItems < 1:
		return invalid("download.max_items must be at least 1")
	case d.MaxFileSize <= 0:
		return invalid("download.max_file_size must be positive")
	}
	return nil
}

func validateBaseURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return invalid(key + " must not be empty")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(key + " must be an absolute URL")
	}
	return nil
}

func invalid(msg string) error {
	return errors.Wrap(errors.ErrConfigValidation, msg)
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Listen == "" {
		c.Server.Listen = defaults.Server.Listen
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = defaults.Server.ReadHeaderTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Server.MaxRequestBody == 0 {
		c.Server.MaxRequestBody = defaults.Server.MaxRequestBody
	}

	if c.GitHub.WebBaseURL == "" {
		c.GitHub.WebBaseURL = defaults.GitHub.WebBaseURL
	}
	if c.GitHub.APIBaseURL == "" {
		c.GitHub.APIBaseURL = defaults.GitHub.APIBaseURL
	}
	if c.GitHub.RawBaseURL == "" {
		c.GitHub.RawBaseURL = defaults.GitHub.RawBaseURL
	}
	if c.GitHub.DefaultBranch == "" {
		c.GitHub.DefaultBranch = defaults.GitHub.DefaultBranch
	}
	if c.GitHub.Accept == "" {
		c.GitHub.Accept = defaults.GitHub.Accept
	}

	if c.Download.HTTPTimeout == 0 {
		c.Download.HTTPTimeout = defaults.Download.HTTPTimeout
	}
	if c.Download.Concurrency == 0 {
		c.Download.Concurrency = defaults.Download.Concurrency
	}
	if c.Download.MaxDepth == 0 {
		c.Download.MaxDepth = defaults.Download.MaxDepth
	}
	if c.Download.MaxItems == 0 {
		c.Download.MaxItems = defaults.Download.MaxItems
	}
	if c.Download.MaxFileSize == 0 {
		c.Download.MaxFileSize = defaults.Download.MaxFileSize
	}
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = defaults.Download.UserAgent
	}

	if c.Staging.BaseDir == "" {
		c.Staging.BaseDir = defaults.Staging.BaseDir
	}
	if c.Staging.Prefix == "" {
		c.Staging.Prefix = defaults.Staging.Prefix
	}
	if c.Staging.SweepAge == 0 {
		c.Staging.SweepAge = defaults.Staging.SweepAge
	}

	if c.Builder.Path == "" {
		c.Builder.Path = defaults.Builder.Path
	}
	if c.Builder.Timeout == 0 {
		c.Builder.Timeout = defaults.Builder.Timeout
	}
	if c.Builder.MaxOutput == 0 {
		c.Builder.MaxOutput = defaults.Builder.MaxOutput
	}
	if len(c.Builder.VersionArgs) == 0 {
		c.Builder.VersionArgs = defaults.Builder.VersionArgs
	}

	if c.Platform.RepositoryType == "" {
		c.Platform.RepositoryType = defaults.Platform.RepositoryType
	}
	if c.Platform.Timeout == 0 {
		c.Platform.Timeout = defaults.Platform.Timeout
	}

	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
}
