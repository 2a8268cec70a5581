// Package staging manages the per-request scratch directories that hold
// downloaded sources and the built archive.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
)

// Layout of a session directory.
const (
	SourceDirName = "src"
	OutputDirName = "out"
)

// Manager creates staging sessions below a base directory.
type Manager struct {
	baseDir string
	prefix  string
	log     *slog.Logger
}

// NewManager creates a Manager. An empty baseDir uses os.TempDir().
func NewManager(baseDir, prefix string, log *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, prefix: prefix, log: logger.OrDefault(log)}
}

// Session is one staging directory. Close removes it.
type Session struct {
	root string
	log  *slog.Logger
	once sync.Once
}

// Open creates a fresh session directory with empty src/ and out/
// subdirectories, accessible only to the current user.
func (m *Manager) Open() (*Session, error) {
	if err := os.MkdirAll(m.baseDir, fsutil.DirModeDefault); err != nil {
		return nil, errors.Wrap(errors.ErrStagingCreate, err.Error())
	}

	root := filepath.Join(m.baseDir, m.prefix+uuid.NewString())
	if err := os.Mkdir(root, fsutil.DirModePrivate); err != nil {
		return nil, errors.Wrap(errors.ErrStagingCreate, err.Error())
	}
	for _, dir := range []string{SourceDirName, OutputDirName} {
		if err := os.Mkdir(filepath.Join(root, dir), fsutil.DirModePrivate); err != nil {
			_ = os.RemoveAll(root)
			return nil, errors.Wrap(errors.ErrStagingCreate, err.Error())
		}
	}

	m.log.Debug("opened staging session", "dir", root)
	return &Session{root: root, log: m.log}, nil
}

// Do opens a session, runs fn and closes the session on every exit path,
// including a panic in fn.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := m.Open()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

// Sweep removes session directories older than maxAge that a crashed
// process left behind. It returns the number of directories removed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	if m.prefix == "" {
		return 0, errors.Wrap(errors.ErrValidation, "refusing to sweep without a staging prefix")
	}
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read staging base directory")
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), m.prefix) {
			continue
		}
		if _, err := uuid.Parse(strings.TrimPrefix(entry.Name(), m.prefix)); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.log.Warn("failed to remove stale staging directory", "dir", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		m.log.Info("removed stale staging directories", "count", removed)
	}
	return removed, nil
}

// Root returns the session directory.
func (s *Session) Root() string { return s.root }

// SourceDir returns the directory sources are downloaded into.
func (s *Session) SourceDir() string { return filepath.Join(s.root, SourceDirName) }

// OutputDir returns the directory build output is written to.
func (s *Session) OutputDir() string { return filepath.Join(s.root, OutputDirName) }

// ArchivePath returns where the archive for name is written.
func (s *Session) ArchivePath(fileName string) string {
	return filepath.Join(s.OutputDir(), filepath.Base(fileName))
}

// Close removes the session directory. It is idempotent; failures are
// logged and otherwise ignored.
func (s *Session) Close() {
	s.once.Do(func() {
		if err := os.RemoveAll(s.root); err != nil {
			s.log.Warn("failed to remove staging directory", "dir", s.root, "error", err)
			return
		}
		s.log.Debug("closed staging session", "dir", s.root)
	})
}
