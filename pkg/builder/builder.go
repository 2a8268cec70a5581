// Package builder runs the external extension build tool.
package builder

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// Options configure a Builder.
type Options struct {
	Path        string
	Timeout     time.Duration
	MaxOutput   int
	VersionArgs []string
}

// Builder invokes "<path> build extension --input <dir> --output <file>".
type Builder struct {
	opts Options
	log  *slog.Logger
}

// New creates a Builder.
func New(opts Options, log *slog.Logger) *Builder {
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = 64 << 10
	}
	if len(opts.VersionArgs) == 0 {
		opts.VersionArgs = []string{"--version"}
	}
	return &Builder{opts: opts, log: logger.OrDefault(log)}
}

// Path returns the configured tool path.
func (b *Builder) Path() string { return b.opts.Path }

// Build compiles the sources in inputDir into the archive outputFile. It
// succeeds only when the tool exits with 0 and the archive exists.
func (b *Builder) Build(ctx context.Context, inputDir, outputFile string) error {
	tool, err := exec.LookPath(b.opts.Path)
	if err != nil {
		return errors.NewBuildError(0, "", fmt.Errorf("build tool unavailable: %w", err))
	}

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	out := newTailBuffer(b.opts.MaxOutput)
	cmd := exec.CommandContext(ctx, tool, "build", "extension", "--input", inputDir, "--output", outputFile)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 5 * time.Second

	log := logger.FromContextOr(ctx, b.log)
	log.Info("running build tool", "tool", b.opts.Path, "input", inputDir, "output", outputFile)
	started := time.Now()
	err = cmd.Run()
	output := out.String()
	log.Debug("build tool output", "output", output, "duration", time.Since(started))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.NewBuildError(-1, output, ctxErr)
		}
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return errors.NewBuildError(exitErr.ExitCode(), output, err)
		}
		return errors.NewBuildError(0, output, err)
	}

	info, err := os.Stat(outputFile)
	if err != nil || info.Size() == 0 {
		return errors.NewBuildError(0, output, fmt.Errorf("archive %s was not produced", outputFile))
	}
	log.Info("build tool finished", "archive", outputFile, "bytes", info.Size(), "duration", time.Since(started))
	return nil
}

var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// Version asks the tool for its version.
func (b *Builder) Version(ctx context.Context) (*version.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, b.opts.Path, b.opts.VersionArgs...).CombinedOutput()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrBuilderVersion, "failed to run %s: %v", b.opts.Path, err)
	}
	match := versionPattern.Find(out)
	if match == nil {
		return nil, errors.Wrapf(errors.ErrBuilderVersion, "no version in output %q", bytes.TrimSpace(out))
	}
	v, err := version.NewVersion(string(match))
	if err != nil {
		return nil, errors.Wrap(errors.ErrBuilderVersion, err.Error())
	}
	return v, nil
}

// CheckVersion verifies the tool version against constraint, e.g. ">= 10.15".
// An empty constraint always passes.
func (b *Builder) CheckVersion(ctx context.Context, constraint string) (*version.Version, error) {
	v, err := b.Version(ctx)
	if err != nil {
		return nil, err
	}
	if constraint == "" {
		return v, nil
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return nil, errors.Wrap(errors.ErrBuilderVersion, err.Error())
	}
	if !c.Check(v) {
		return v, errors.Wrapf(errors.ErrBuilderVersion, "version %s does not satisfy %q", v, constraint)
	}
	return v, nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	max       int
	truncated bool
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return "...\n" + string(t.buf)
	}
	return string(t.buf)
}
