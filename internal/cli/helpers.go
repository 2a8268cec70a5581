package cli

import (
	"fmt"
	"os"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/archive"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/builder"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/config"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/credentials"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/download"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
	anahttp "github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/http"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/hooks"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/platform"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/repourl"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/staging"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
)

// getConfigPath returns the --config flag, the ANABUILD_CONFIG variable or
// the per-user default path, in that order.
func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	if v := os.Getenv(config.EnvConfigPath); v != "" {
		return v
	}
	return fsutil.DefaultConfigPath()
}

// loadConfig reads the configuration, applies environment overrides and
// initializes logging from the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	level := cfg.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.ParseFormat(cfg.LogFormat))
	return cfg, nil
}

// app holds the components assembled from one configuration.
type app struct {
	cfg      *config.Config
	urls     *repourl.Resolver
	dl       *download.Manager
	creds    *credentials.Resolver
	staging  *staging.Manager
	builder  *builder.Builder
	archives *archive.Manager
	hooks    *hooks.DefaultHookManager
	// platform is nil when no platform base URL is configured.
	platform *platform.Client
	orch     *orchestrator.Orchestrator
}

// newApp wires every pipeline component from cfg. events receives the
// orchestrator's progress notifications.
func newApp(cfg *config.Config, events orchestrator.Hooks) (*app, error) {
	log := logger.GetLogger()

	urls, err := repourl.NewResolver(cfg.GitHub.WebBaseURL, cfg.GitHub.APIBaseURL, cfg.GitHub.RawBaseURL, cfg.GitHub.DefaultBranch)
	if err != nil {
		return nil, err
	}

	contentClient := anahttp.NewClient(anahttp.Options{
		Timeout:     cfg.Download.HTTPTimeout,
		UserAgent:   cfg.Download.UserAgent,
		MaxBodySize: cfg.Download.MaxFileSize,
	})
	fetcher := content.NewFetcher(contentClient, log)
	dl := download.NewManager(fetcher, download.Options{
		Concurrency: cfg.Download.Concurrency,
		MaxDepth:    cfg.Download.MaxDepth,
		MaxItems:    cfg.Download.MaxItems,
	}, log)

	a := &app{
		cfg:      cfg,
		urls:     urls,
		dl:       dl,
		staging:  staging.NewManager(cfg.Staging.BaseDir, cfg.Staging.Prefix, log),
		archives: archive.NewManager(log),
		hooks:    hooks.NewHookManager(log),
		builder: builder.New(builder.Options{
			Path:        cfg.Builder.Path,
			Timeout:     cfg.Builder.Timeout,
			MaxOutput:   cfg.Builder.MaxOutput,
			VersionArgs: cfg.Builder.VersionArgs,
		}, log),
	}

	if err := hooks.LoadFromConfig(a.hooks, cfg.Hooks); err != nil {
		return nil, err
	}

	// Interfaces stay nil, not typed nil, without a platform.
	var store credentials.RepositoryStore
	var target orchestrator.Platform
	if cfg.Platform.BaseURL != "" {
		platformClient := anahttp.NewClient(anahttp.Options{
			Timeout:   cfg.Platform.Timeout,
			UserAgent: cfg.Download.UserAgent,
		})
		a.platform, err = platform.NewClient(platformClient, platform.Options{
			BaseURL:        cfg.Platform.BaseURL,
			RepositoryType: cfg.Platform.RepositoryType,
		}, log)
		if err != nil {
			return nil, err
		}
		store, target = a.platform, a.platform
	}

	a.creds = credentials.NewResolver(store, credentials.Options{
		Accept: cfg.GitHub.Accept,
		Token:  cfg.GitHub.Token,
	}, log)

	a.orch = &orchestrator.Orchestrator{
		URLs:        urls,
		Credentials: a.creds,
		Reader:      fetcher,
		DL:          dl,
		Staging:     a.staging,
		Builder:     a.builder,
		Archives:    a.archives,
		Scripts:     a.hooks,
		Platform:    target,
		Hooks:       events,
	}
	return a, nil
}

// caller is the identity the command line tools present to the platform.
func (a *app) caller() auth.Authenticator {
	return a.cfg.Platform.Auth.ToAuthenticator()
}

// printEvents prints orchestrator progress in a human-friendly form.
func printEvents() orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		if e.Msg != "" {
			fmt.Printf("%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		} else {
			fmt.Printf("%s: %s\n", e.Phase, e.ID)
		}
	}}
}
