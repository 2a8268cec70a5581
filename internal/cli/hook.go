package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/hooks"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Work with build hook scripts",
		Long:  "Generate and try out the Tengo scripts run before and after a build",
	}

	cmd.AddCommand(
		newHookTemplateCmd(),
		newHookRunCmd(),
	)

	return cmd
}

func newHookTemplateCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:       "template TYPE",
		Short:     "Print a starting point for a hook script",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(hooks.PreBuild), string(hooks.PostBuild)},
		RunE: func(_ *cobra.Command, args []string) error {
			hookType := hooks.HookType(args[0])
			if !hookType.Valid() {
				return hooks.ErrUnsupportedHookType(args[0])
			}
			tmpl := hooks.HookTemplate(hookType)
			if outFile == "" {
				fmt.Println(tmpl)
				return nil
			}
			if err := fsutil.WriteFile(outFile, []byte(tmpl+"\n")); err != nil {
				return err
			}
			logger.Success("Hook template written", logger.Fields{"path": outFile})
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the template to a file instead of stdout")

	return cmd
}

func newHookRunCmd() *cobra.Command {
	var (
		name string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "run TYPE",
		Short: "Run the configured hook against a local directory",
		Long: `Run the configured hook of TYPE as if DIR held the staged sources of
extension NAME. Useful to test a script before deploying it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd.Context(), hooks.HookType(args[0]), name, dir)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "extension", "Extension name passed to the script")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory standing in for the staged sources")

	return cmd
}

func runHook(ctx context.Context, hookType hooks.HookType, name, dir string) error {
	if !hookType.Valid() {
		return hooks.ErrUnsupportedHookType(string(hookType))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager := hooks.NewHookManager(logger.GetLogger())
	if err := hooks.LoadFromConfig(manager, cfg.Hooks); err != nil {
		return err
	}
	if !manager.HasHook(hookType) {
		return errors.Wrapf(errors.ErrHookLoad, "no %s hook configured", hookType)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	files, err := listFiles(absDir)
	if err != nil {
		return err
	}

	hctx := hooks.HookContext{
		ExtensionName: name,
		StagingDir:    filepath.Dir(absDir),
		SourceDir:     absDir,
		Files:         files,
	}
	if err := manager.Execute(ctx, hookType, hctx); err != nil {
		return err
	}
	logger.Success("Hook passed", logger.Fields{"type": string(hookType), "files": len(files)})
	return nil
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
