package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/config"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// HookFileExtension is the extension of hook script files.
const HookFileExtension = ".tengo"

// LoadFromConfig registers the hooks named by cfg. Scripts found in cfg.Dir
// are loaded first; explicit PreBuild and PostBuild values replace them.
func LoadFromConfig(manager HookManager, cfg config.HooksConfig) error {
	if cfg.Dir != "" {
		if err := LoadHooksFromDir(manager, cfg.Dir); err != nil {
			return err
		}
	}

	for hookType, source := range map[HookType]string{
		PreBuild:  cfg.PreBuild,
		PostBuild: cfg.PostBuild,
	} {
		if strings.TrimSpace(source) == "" {
			continue
		}
		content, err := resolveSource(source)
		if err != nil {
			return err
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: content}); err != nil {
			return errors.Wrapf(err, "error adding hook %s", hookType)
		}
	}
	return nil
}

// LoadHooksFromDir loads <dir>/<hook-type>.tengo for every supported hook
// type. A missing directory is not an error.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(ErrHookLoad, "failed to read hooks directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}

		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !hookType.Valid() {
			continue
		}

		content, err := resolveSource(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if err := manager.AddHook(Hook{Type: hookType, Content: content}); err != nil {
			return errors.Wrapf(err, "error adding hook %s", hookType)
		}
	}
	return nil
}

func resolveSource(source string) (string, error) {
	if !strings.HasSuffix(strings.TrimSpace(source), HookFileExtension) {
		return source, nil
	}
	path := strings.TrimSpace(source)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(ErrHookLoad, "error reading hook file %s: %v", path, err)
	}
	return string(content), nil
}

// HookTemplate generates a starting point for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreBuild:
		return `// Pre-build hook
// Runs after the sources are staged and before the build tool is invoked.
// Available variables:
// - extensionName: string - name of the extension being built
// - stagingDir: string - root of the staging session
// - sourceDir: string - directory holding the staged sources
// - files: array - staged file paths relative to sourceDir
// Assign a non-empty string to err to abort the build.

text := import("text")
err := ""

/*
for f in files {
    if text.has_suffix(f, ".tmp") {
        err = "temporary file staged: " + f
    }
}
*/`

	case PostBuild:
		return `// Post-build hook
// Runs after the archive is produced and before it is returned or uploaded.
// Available variables: same as pre-build, plus
// - archivePath: string - path of the built archive

os := import("os")
err := ""

/*
stat := os.stat(archivePath)
if is_error(stat) || stat.size == 0 {
    err = "empty archive"
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
