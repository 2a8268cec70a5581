// Package archive creates source bundles, inspects built extension archives
// and computes the digests reported alongside them.
package archive

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
	"github.com/mholt/archives"
	"github.com/zeebo/blake3"
)

// Summary describes the contents of an archive.
type Summary struct {
	Files  []string `json:"files"`
	Size   int64    `json:"size"`
	Digest string   `json:"digest"`
}

// Manager handles archive creation, inspection and extraction.
type Manager struct {
	log *slog.Logger
}

// NewManager creates a new Manager instance.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{log: log}
}

// Create bundles the contents of sourceDir into archivePath. The format
// follows the file name: .zip produces a zip archive, anything else a
// gzip-compressed tarball.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	if err := fsutil.EnsureFileDir(archivePath); err != nil {
		return err
	}
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	if err := formatFor(archivePath).Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	am.log.Debug("archive created", "path", archivePath, "entries", len(archiveFiles))
	return nil
}

// Inspect lists the regular files of an archive and computes its digest.
func (am *Manager) Inspect(ctx context.Context, archivePath string) (*Summary, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	summary := &Summary{}
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		summary.Files = append(summary.Files, strings.TrimPrefix(path, "./"))
		summary.Size += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	sort.Strings(summary.Files)

	if summary.Digest, err = DigestFile(archivePath); err != nil {
		return nil, err
	}
	return summary, nil
}

// ExtractAll extracts every entry of an archive below destDir. Entries whose
// names would land outside destDir are rejected.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return err
	}

	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return am.extractEntry(fsys, path, destDir, d)
	})
}

func (am *Manager) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	if path == "." {
		return nil
	}

	targetPath, err := fsutil.SafeJoin(destDir, path)
	if err != nil {
		return err
	}

	if d.IsDir() {
		return os.MkdirAll(targetPath, fsutil.DirModeDefault)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		am.log.Warn("skipping non-regular archive entry", "path", path, "mode", info.Mode().String())
		return nil
	}

	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	data, err := io.ReadAll(srcFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := fsutil.WriteFile(targetPath, data); err != nil {
		return err
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}

// Digest returns the hex encoded BLAKE3 sum of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile returns the hex encoded BLAKE3 sum of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func formatFor(name string) archives.Archiver {
	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return archives.Zip{}
	}
	return archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
}
