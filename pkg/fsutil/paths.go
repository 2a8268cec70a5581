package fsutil

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// AppName is the name of the application used in paths.
const AppName = "anabuild"

// GetConfigDir returns the platform-specific configuration directory for the
// application, e.g. ~/.config/anabuild on Linux.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns the path of the config file used when none is
// given on the command line.
func DefaultConfigPath() string {
	dir, err := GetConfigDir()
	if err != nil {
		return "anabuild.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// NormalizeRelPath turns a repository path into a clean relative slash path:
// backslashes become slashes, leading slashes and "." segments are dropped.
func NormalizeRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// SafeJoin joins rel onto root and guarantees the result stays inside root.
// Absolute paths and ".." segments that climb out of root fail with
// ErrPathTraversal.
func SafeJoin(root, rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" {
		return "", errors.Wrap(errors.ErrPathTraversal, "empty relative path")
	}
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", errors.Wrapf(errors.ErrPathTraversal, "absolute path %q", rel)
	}

	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Wrapf(errors.ErrPathTraversal, "path %q", rel)
	}
	if cleaned == "." {
		return "", errors.Wrapf(errors.ErrPathTraversal, "path %q resolves to the root", rel)
	}

	joined := filepath.Join(root, filepath.FromSlash(cleaned))
	within, err := filepath.Rel(root, joined)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrPathTraversal, "path %q", rel)
	}
	return joined, nil
}
