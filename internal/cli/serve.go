package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/server"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/hooks"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		listen        string
		skipToolCheck bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the extension build service",
		Long: `Run the HTTP service that stages monitor files from a repository,
builds them into an analytics extension and optionally uploads and
deploys the result to the tenant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), listen, skipToolCheck)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (defaults to config)")
	cmd.Flags().BoolVar(&skipToolCheck, "skip-tool-check", false, "Start even if the build tool version cannot be verified")

	return cmd
}

func runServe(ctx context.Context, listen string, skipToolCheck bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	log := logger.With(logger.Fields{"listen": cfg.Server.Listen})
	a, err := newApp(cfg, orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		log.Debug("build progress", "phase", e.Phase, "extension", e.ID, "msg", e.Msg)
	}})
	if err != nil {
		return err
	}

	if _, err := a.staging.Sweep(cfg.Staging.SweepAge); err != nil {
		logger.Warn("Failed to sweep stale staging directories", logger.Fields{"error": err})
	}

	v, err := a.builder.CheckVersion(ctx, cfg.Builder.VersionConstraint)
	switch {
	case err == nil:
		logger.Info("Build tool ready", logger.Fields{"path": a.builder.Path(), "version": v.String()})
	case skipToolCheck:
		logger.Warn("Build tool check failed", logger.Fields{"path": a.builder.Path(), "error": err})
	default:
		return fmt.Errorf("build tool check failed (use --skip-tool-check to ignore): %w", err)
	}

	if a.platform == nil {
		logger.Warn("No platform configured, uploads and repository lookups are disabled")
	} else {
		logger.Info("Platform configured", logger.Fields{"base_url": a.platform.BaseURL()})
	}
	for _, t := range hooks.Types() {
		logger.Debug("Build hook", logger.Fields{"type": string(t), "loaded": a.hooks.HasHook(t)})
	}

	srv := server.New(cfg.Server, a.orch, log)
	if err := srv.Serve(ctx); err != nil {
		logger.Error("Server stopped", logger.Fields{"error": err})
		return err
	}
	return nil
}
