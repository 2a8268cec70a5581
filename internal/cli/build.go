package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
)

// buildOptions collects the flags of the build command.
type buildOptions struct {
	name         string
	outFile      string
	unpackDir    string
	repositoryID string
	descriptor   string
	sections     []string
	dryRun       bool
	upload       bool
	deploy       bool
}

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build [URL...]",
		Short: "Build an extension from repository sources",
		Long: `Stage the given monitor files or directories, run the extension build
tool and write the archive. With --descriptor the sources are taken from
sections of an extensions.yaml instead. --dry-run bundles the staged
sources without running the build tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Extension name (required)")
	cmd.Flags().StringVarP(&opts.outFile, "out", "o", "", "Archive path (default: <name>.zip)")
	cmd.Flags().StringVar(&opts.unpackDir, "unpack", "", "Also extract the archive into this directory")
	cmd.Flags().StringVar(&opts.repositoryID, "repository-id", "", "Configured repository whose access token to use")
	cmd.Flags().StringVar(&opts.descriptor, "descriptor", "", "URL of an extensions.yaml to build from")
	cmd.Flags().StringSliceVar(&opts.sections, "section", nil, "Descriptor sections to include (default: all)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Bundle the staged sources without running the build tool")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "Upload the extension to the platform")
	cmd.Flags().BoolVar(&opts.deploy, "deploy", false, "Upload and restart the CEP runtime")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runBuild(ctx context.Context, urls []string, opts buildOptions) error {
	if len(urls) == 0 && opts.descriptor == "" {
		return fmt.Errorf("%w: give at least one URL or --descriptor", errors.ErrValidation)
	}
	if len(urls) > 0 && opts.descriptor != "" {
		return fmt.Errorf("%w: URLs and --descriptor are mutually exclusive", errors.ErrValidation)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, printEvents())
	if err != nil {
		return err
	}

	req := orchestrator.BuildRequest{
		Name:         opts.name,
		RepositoryID: opts.repositoryID,
		Upload:       opts.upload,
		Deploy:       opts.deploy,
		DryRun:       opts.dryRun,
		Caller:       a.caller(),
	}

	var result *orchestrator.BuildResult
	if opts.descriptor != "" {
		result, err = a.orch.BuildFromDescriptor(ctx, orchestrator.DescriptorRequest{
			BuildRequest:  req,
			DescriptorURL: opts.descriptor,
			Sections:      opts.sections,
		})
	} else {
		for _, u := range urls {
			req.Sources = append(req.Sources, orchestrator.Source{URL: u})
		}
		result, err = a.orch.Build(ctx, req)
	}
	if err != nil {
		return err
	}

	for _, f := range result.Failed {
		logger.Warn("Item not staged", logger.Fields{"path": f.Path, "error": f.Err})
	}

	outFile := opts.outFile
	if outFile == "" {
		outFile = result.FileName
	}
	if err := writeArchive(a.cfg.Staging.BaseDir, outFile, result.Archive); err != nil {
		return err
	}
	logger.Success("Extension written", logger.Fields{
		"path":   outFile,
		"digest": result.Digest,
		"staged": len(result.Staged),
		"failed": len(result.Failed),
	})

	if opts.unpackDir != "" {
		if err := a.archives.ExtractAll(ctx, outFile, opts.unpackDir); err != nil {
			return fmt.Errorf("failed to unpack %s: %w", outFile, err)
		}
		logger.Info("Extension unpacked", logger.Fields{"dir": opts.unpackDir})
	}

	if result.Uploaded {
		fmt.Printf("Uploaded binary %s\n", result.BinaryID)
		if result.RestartError != "" {
			fmt.Fprintf(os.Stderr, "Warning: CEP restart failed: %s\n", result.RestartError)
		} else if result.Restarted {
			fmt.Println("CEP restarted")
		}
	}
	return nil
}

// writeArchive writes data under stagingDir first and moves it to dst, so dst
// never holds a partial archive.
func writeArchive(stagingDir, dst string, data []byte) error {
	if err := fsutil.EnsureDir(stagingDir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(stagingDir, "anabuild-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := fsutil.Move(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
