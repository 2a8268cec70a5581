// Package orchestrator ties credential resolution, tree download, the build
// tool and the tenant platform together into extension builds.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/archive"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/descriptor"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/download"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/hooks"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/platform"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/repourl"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/staging"
)

// Orchestrator runs extension builds. Scripts and Platform are optional;
// without a platform, uploads fail with ErrPlatformUnavailable.
type Orchestrator struct {
	URLs        *repourl.Resolver
	Credentials CredentialResolver
	Reader      ContentReader
	DL          TreeDownloader
	Staging     *staging.Manager
	Builder     ExtensionBuilder
	Archives    Archiver
	Scripts     ScriptRunner
	Platform    Platform
	Hooks       Hooks // Hooks for progress and event notifications
}

var extensionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Build stages every source of req into a fresh staging session, runs the
// build tool and returns the archive. With Upload the archive is stored on
// the platform; with Deploy the CEP runtime is restarted afterwards. A
// restart failure is reported in the result, not as an error.
func (o *Orchestrator) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := o.validate(&req); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With("extension", req.Name)
	emit(o.Hooks, Event{Phase: "resolving", ID: req.Name})

	creds, err := o.Credentials.Authenticator(ctx, req.Caller, req.RepositoryID)
	if err != nil {
		return nil, err
	}

	requests := make([]download.Request, 0, len(req.Sources))
	for _, src := range req.Sources {
		dr, err := o.downloadRequest(src, creds)
		if err != nil {
			return nil, err
		}
		requests = append(requests, dr)
	}

	result := &BuildResult{Name: req.Name, FileName: req.Name + ".zip"}
	err = o.Staging.Do(ctx, func(ctx context.Context, s *staging.Session) error {
		emit(o.Hooks, Event{Phase: "staging", ID: req.Name, Msg: fmt.Sprintf("%d sources", len(requests))})

		staged := &download.Result{}
		for _, dr := range requests {
			res, err := o.DL.Download(ctx, s.SourceDir(), dr)
			staged.Merge(res)
			if err != nil {
				return err
			}
		}
		result.Staged = staged.Materialized
		result.Failed = staged.Failed
		result.Skipped = staged.Skipped

		for _, f := range staged.Failed {
			log.Warn("item could not be staged", "path", f.Path, "url", f.URL, "error", f.Err)
		}
		if len(staged.Materialized) == 0 {
			if first := staged.FirstError(); first != nil {
				return fmt.Errorf("%w: %w", errors.ErrNothingStaged, first)
			}
			return errors.ErrNothingStaged
		}
		log.Info("sources staged", "files", len(staged.Materialized), "failed", len(staged.Failed))

		hctx := hooks.HookContext{
			ExtensionName: req.Name,
			StagingDir:    s.Root(),
			SourceDir:     s.SourceDir(),
			Files:         staged.Materialized,
		}
		if err := o.runScript(ctx, hooks.PreBuild, hctx); err != nil {
			return err
		}

		archivePath := s.ArchivePath(result.FileName)
		emit(o.Hooks, Event{Phase: "building", ID: req.Name})
		if req.DryRun {
			if err := o.Archives.Create(ctx, s.SourceDir(), archivePath); err != nil {
				return errors.Wrap(err, "failed to bundle staged sources")
			}
		} else if err := o.Builder.Build(ctx, s.SourceDir(), archivePath); err != nil {
			return err
		}

		data, err := os.ReadFile(archivePath)
		if err != nil {
			return errors.NewBuildError(0, "", err)
		}
		result.Archive = data
		result.Digest = archive.Digest(data)
		if summary, err := o.Archives.Inspect(ctx, archivePath); err != nil {
			log.Warn("could not inspect archive", "error", err)
		} else {
			result.Files = summary.Files
		}
		log.Info("extension built", "bytes", len(data), "digest", result.Digest, "dry_run", req.DryRun)

		hctx.ArchivePath = archivePath
		return o.runScript(ctx, hooks.PostBuild, hctx)
	})
	if err != nil {
		emit(o.Hooks, Event{Phase: "error", ID: req.Name, Msg: err.Error()})
		return nil, err
	}

	if req.Upload {
		if err := o.deliver(ctx, req, result); err != nil {
			emit(o.Hooks, Event{Phase: "error", ID: req.Name, Msg: err.Error()})
			return nil, err
		}
	}

	emit(o.Hooks, Event{Phase: "done", ID: req.Name, Msg: result.Digest})
	return result, nil
}

// BuildFromDescriptor reads an extensions.yaml, selects the requested
// sections and builds them. Section paths are resolved against the
// descriptor's directory, which is also the root of the staged layout.
func (o *Orchestrator) BuildFromDescriptor(ctx context.Context, req DescriptorRequest) (*BuildResult, error) {
	desc, apiURL, err := o.Descriptor(ctx, req.Caller, req.RepositoryID, req.DescriptorURL)
	if err != nil {
		return nil, err
	}
	sections, err := desc.Select(req.Sections)
	if err != nil {
		return nil, err
	}
	paths := descriptor.Paths(sections)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: selected sections list no paths", errors.ErrValidation)
	}

	loc, err := o.URLs.ParseContentAPIURL(apiURL)
	if err != nil {
		return nil, err
	}
	dir := path.Dir(loc.Path)
	if dir == "." {
		dir = ""
	}
	baseLoc := loc
	baseLoc.Path = dir
	base := o.URLs.APIURL(baseLoc)

	build := req.BuildRequest
	build.Sources = make([]Source, 0, len(paths))
	for _, p := range paths {
		srcLoc := loc
		srcLoc.Path = path.Join(dir, p)
		build.Sources = append(build.Sources, Source{URL: o.URLs.APIURL(srcLoc), BaseURL: base})
	}
	return o.Build(ctx, build)
}

// Descriptor loads and parses the extensions.yaml at rawURL. It also
// returns the normalized content API URL of the descriptor.
func (o *Orchestrator) Descriptor(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) (*descriptor.Descriptor, string, error) {
	data, apiURL, err := o.fileContent(ctx, caller, repositoryID, rawURL)
	if err != nil {
		return nil, "", err
	}
	desc, err := descriptor.Parse(data)
	if err != nil {
		return nil, "", err
	}
	return desc, apiURL, nil
}

// Content returns the bytes of the single file at rawURL.
func (o *Orchestrator) Content(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) ([]byte, error) {
	data, _, err := o.fileContent(ctx, caller, repositoryID, rawURL)
	return data, err
}

// ContentList returns the entries of the directory at rawURL, or the file
// itself when rawURL names a file.
func (o *Orchestrator) ContentList(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) ([]content.Item, error) {
	apiURL, err := o.URLs.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	creds, err := o.Credentials.Authenticator(ctx, caller, repositoryID)
	if err != nil {
		return nil, err
	}
	listing, err := o.Reader.FetchListing(ctx, apiURL, creds)
	if err != nil {
		return nil, err
	}
	return listing.Items, nil
}

// Repositories lists the tenant's repositories with access tokens redacted.
func (o *Orchestrator) Repositories(ctx context.Context, caller auth.Authenticator) ([]platform.Repository, error) {
	if o.Platform == nil {
		return nil, errors.ErrPlatformUnavailable
	}
	repos, err := o.Platform.Repositories(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := make([]platform.Repository, len(repos))
	for i, r := range repos {
		out[i] = r.Redacted()
	}
	return out, nil
}

func (o *Orchestrator) validate(req *BuildRequest) error {
	if !extensionName.MatchString(req.Name) {
		return fmt.Errorf("%w: invalid extension name %q", errors.ErrValidation, req.Name)
	}
	if len(req.Sources) == 0 {
		return fmt.Errorf("%w: no sources given", errors.ErrValidation)
	}
	for i, src := range req.Sources {
		if strings.TrimSpace(src.URL) == "" && strings.TrimSpace(src.DownloadURL) == "" {
			return fmt.Errorf("%w: source %d has no URL", errors.ErrValidation, i)
		}
	}
	if req.Deploy {
		req.Upload = true
	}
	if req.Upload && o.Platform == nil {
		return errors.ErrPlatformUnavailable
	}
	return nil
}

func (o *Orchestrator) downloadRequest(src Source, creds auth.Authenticator) (download.Request, error) {
	// Download URLs are fetched with the repository credentials.
	if src.DownloadURL != "" && !o.URLs.IsContentHost(src.DownloadURL) {
		return download.Request{}, fmt.Errorf("%w: download URL %q is not on a content host", errors.ErrValidation, repourl.StripQuery(src.DownloadURL))
	}
	if strings.TrimSpace(src.URL) == "" {
		// A bare download URL names one file with no API counterpart.
		item := content.NewFile("", path.Base(repourl.StripQuery(src.DownloadURL)), "", src.DownloadURL, 0)
		return download.Request{Item: &item, Auth: creds}, nil
	}

	apiURL, err := o.URLs.Normalize(src.URL)
	if err != nil {
		return download.Request{}, err
	}
	base := apiURL
	if src.BaseURL != "" {
		if base, err = o.URLs.Normalize(src.BaseURL); err != nil {
			return download.Request{}, err
		}
	}

	req := download.Request{URL: apiURL, BaseURL: base, Auth: creds}
	if src.DownloadURL != "" {
		loc, err := o.URLs.ParseContentAPIURL(apiURL)
		if err != nil {
			return download.Request{}, err
		}
		item := content.NewFile(loc.Path, path.Base("/"+loc.Path), apiURL, src.DownloadURL, 0)
		req.Item = &item
	}
	return req, nil
}

func (o *Orchestrator) fileContent(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) ([]byte, string, error) {
	apiURL, err := o.URLs.Normalize(rawURL)
	if err != nil {
		return nil, "", err
	}
	creds, err := o.Credentials.Authenticator(ctx, caller, repositoryID)
	if err != nil {
		return nil, "", err
	}
	listing, err := o.Reader.FetchListing(ctx, apiURL, creds)
	if err != nil {
		return nil, "", err
	}
	if !listing.Single || len(listing.Items) != 1 || listing.Items[0].Kind() != content.KindFile {
		return nil, "", fmt.Errorf("%w: %s is not a file", errors.ErrValidation, rawURL)
	}
	data, err := o.Reader.FetchFileBytes(ctx, listing.Items[0], creds)
	if err != nil {
		return nil, "", err
	}
	return data, apiURL, nil
}

func (o *Orchestrator) runScript(ctx context.Context, hookType hooks.HookType, hctx hooks.HookContext) error {
	if o.Scripts == nil {
		return nil
	}
	return o.Scripts.Execute(ctx, hookType, hctx)
}

func (o *Orchestrator) deliver(ctx context.Context, req BuildRequest, result *BuildResult) error {
	log := logger.FromContext(ctx).With("extension", req.Name)

	emit(o.Hooks, Event{Phase: "uploading", ID: req.Name})
	id, err := o.Platform.UploadExtension(ctx, req.Caller, req.Name, result.Archive)
	if err != nil {
		return err
	}
	result.BinaryID = id
	result.Uploaded = true

	if !req.Deploy {
		return nil
	}
	emit(o.Hooks, Event{Phase: "restarting", ID: req.Name})
	if err := o.Platform.RestartCEP(ctx, req.Caller); err != nil {
		log.Warn("CEP restart failed, extension is uploaded but not yet active", "error", err)
		result.RestartError = err.Error()
		return nil
	}
	result.Restarted = true
	return nil
}
