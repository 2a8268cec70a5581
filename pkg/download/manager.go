// Package download walks a remote content tree and materializes it below a
// staging root.
package download

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/fsutil"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/repourl"
)

// Manager downloads content trees. It is safe for concurrent use; every call
// to Download runs its own walk.
type Manager struct {
	fetcher Fetcher
	opts    Options
	log     *slog.Logger
}

// NewManager creates a new download manager.
func NewManager(fetcher Fetcher, opts Options, log *slog.Logger) *Manager {
	return &Manager{fetcher: fetcher, opts: opts.withDefaults(), log: logger.OrDefault(log)}
}

// Download materializes the tree named by req below root. Item failures are
// collected in the result; the returned error is non-nil only when the root
// listing fails, a ceiling is crossed or ctx ends.
func (m *Manager) Download(ctx context.Context, root string, req Request) (*Result, error) {
	if err := os.MkdirAll(root, fsutil.DirModePrivate); err != nil {
		return nil, errors.Wrap(errors.ErrStagingCreate, err.Error())
	}

	walkCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	base := req.BaseURL
	if base == "" {
		base = req.URL
	}
	if base == "" && req.Item != nil {
		base = req.Item.APIURL()
	}
	w := &walk{
		Manager: m,
		root:    root,
		base:    repourl.StripQuery(base),
		auth:    req.Auth,
		sem:     semaphore.NewWeighted(int64(m.opts.Concurrency)),
		cancel:  cancel,
		log:     logger.FromContextOr(ctx, m.log),
	}

	if req.Item != nil {
		w.visit(walkCtx, *req.Item, 0)
	} else {
		if err := w.acquire(walkCtx); err != nil {
			return nil, err
		}
		listing, err := m.fetcher.FetchListing(walkCtx, req.URL, req.Auth)
		w.release()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", req.URL)
		}
		depth := 1
		if listing.Single {
			depth = 0
		}
		for _, item := range listing.Items {
			w.schedule(walkCtx, item, depth)
		}
	}
	w.wg.Wait()

	w.result.normalize()
	if cause := context.Cause(walkCtx); cause != nil && cause != context.Canceled {
		return &w.result, cause
	}
	if err := ctx.Err(); err != nil {
		return &w.result, err
	}
	return &w.result, nil
}

type walk struct {
	*Manager
	root   string
	base   string
	auth   auth.Authenticator
	sem    *semaphore.Weighted
	cancel context.CancelCauseFunc
	log    *slog.Logger

	wg     sync.WaitGroup
	items  atomic.Int64
	mu     sync.Mutex
	result Result
}

func (w *walk) schedule(ctx context.Context, item content.Item, depth int) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.visit(ctx, item, depth)
	}()
}

func (w *walk) visit(ctx context.Context, item content.Item, depth int) {
	if ctx.Err() != nil {
		return
	}
	if n := w.items.Add(1); n > int64(w.opts.MaxItems) {
		w.cancel(errors.NewTreeTooLargeError("items", w.opts.MaxItems))
		return
	}

	rel := w.relativePath(item)

	switch item.Shape() {
	case content.ShapeDirectory:
		w.visitDirectory(ctx, item, rel, depth)
	case content.ShapeFileDirect, content.ShapeFileIndirect, content.ShapeFileInline:
		w.visitFile(ctx, item, rel)
	default:
		w.log.Info("skipping unsupported entry", "path", item.Path(), "type", item.UnsupportedType())
		w.mu.Lock()
		w.result.Skipped = append(w.result.Skipped, rel)
		w.mu.Unlock()
	}
}

func (w *walk) visitFile(ctx context.Context, item content.Item, rel string) {
	target, err := fsutil.SafeJoin(w.root, rel)
	if err != nil {
		w.fail(item, rel, err)
		return
	}
	if err := fsutil.EnsureFileDir(target); err != nil {
		w.fail(item, rel, errors.Wrap(err, "failed to create parent directory"))
		return
	}

	if err := w.acquire(ctx); err != nil {
		return
	}
	data, err := w.fetcher.FetchFileBytes(ctx, item, w.auth)
	w.release()
	if err != nil {
		w.fail(item, rel, err)
		return
	}

	if err := os.WriteFile(target, data, fsutil.FileModeDefault); err != nil {
		w.fail(item, rel, errors.Wrap(err, "failed to write file"))
		return
	}
	w.log.Debug("materialized file", "path", rel, "bytes", len(data))

	w.mu.Lock()
	w.result.Materialized = append(w.result.Materialized, rel)
	w.mu.Unlock()
}

func (w *walk) visitDirectory(ctx context.Context, item content.Item, rel string, depth int) {
	if depth > w.opts.MaxDepth {
		w.cancel(errors.NewTreeTooLargeError("levels of nesting", w.opts.MaxDepth))
		return
	}

	if rel != "" {
		target, err := fsutil.SafeJoin(w.root, rel)
		if err != nil {
			w.fail(item, rel, err)
			return
		}
		if err := os.MkdirAll(target, fsutil.DirModeDefault); err != nil {
			w.fail(item, rel, errors.Wrap(err, "failed to create directory"))
			return
		}
		w.mu.Lock()
		w.result.Directories = append(w.result.Directories, rel)
		w.mu.Unlock()
	}

	if err := w.acquire(ctx); err != nil {
		return
	}
	listing, err := w.fetcher.FetchListing(ctx, item.APIURL(), w.auth)
	w.release()
	if err != nil {
		w.fail(item, rel, err)
		return
	}

	for _, child := range listing.Items {
		w.schedule(ctx, child, depth+1)
	}
}

// relativePath places item below the staging root. Items that do not sit
// below the base URL are flattened to their name.
func (w *walk) relativePath(item content.Item) string {
	itemURL := repourl.StripQuery(item.APIURL())
	rel := repourl.RelativePath(itemURL, w.base)
	if !repourl.IsBelow(itemURL, w.base) {
		w.log.Warn("item is not below the base url, flattening", "url", item.APIURL(), "base", w.base)
	}
	if unescaped, err := url.PathUnescape(rel); err == nil {
		rel = unescaped
	}
	// A directory at the base is the staging root itself.
	if rel == "" && item.Kind() != content.KindDirectory {
		rel = item.Name()
	}
	return filepath.ToSlash(rel)
}

func (w *walk) fail(item content.Item, rel string, err error) {
	w.log.Warn("failed to materialize item", "path", rel, "url", item.APIURL(), "error", err)
	w.mu.Lock()
	w.result.Failed = append(w.result.Failed, Failure{Path: rel, URL: item.APIURL(), Err: err})
	w.mu.Unlock()
}

func (w *walk) acquire(ctx context.Context) error {
	return w.sem.Acquire(ctx, 1)
}

func (w *walk) release() {
	w.sem.Release(1)
}
