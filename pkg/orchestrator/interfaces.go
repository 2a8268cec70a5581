//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . TreeDownloader,ContentReader,ExtensionBuilder,Archiver,ScriptRunner,CredentialResolver,Platform

package orchestrator

import (
	"context"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/archive"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/download"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/hooks"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/platform"
)

// TreeDownloader materializes a remote content tree below a directory.
type TreeDownloader interface {
	Download(ctx context.Context, root string, req download.Request) (*download.Result, error)
}

// ContentReader reads listings and single files from the content host.
type ContentReader interface {
	FetchListing(ctx context.Context, url string, a auth.Authenticator) (content.Listing, error)
	FetchFileBytes(ctx context.Context, item content.Item, a auth.Authenticator) ([]byte, error)
}

// ExtensionBuilder turns a staged source directory into an extension archive.
type ExtensionBuilder interface {
	Build(ctx context.Context, inputDir, outputFile string) error
}

// Archiver bundles directories and inspects archives.
type Archiver interface {
	Create(ctx context.Context, sourceDir, archivePath string) error
	Inspect(ctx context.Context, archivePath string) (*archive.Summary, error)
}

// ScriptRunner runs the pre- and post-build hooks.
type ScriptRunner interface {
	Execute(ctx context.Context, hookType hooks.HookType, hctx hooks.HookContext) error
}

// CredentialResolver produces the content host credentials for a request.
type CredentialResolver interface {
	Authenticator(ctx context.Context, caller auth.Authenticator, repositoryID string) (auth.Authenticator, error)
}

// Platform is the subset of the tenant platform client used by the
// orchestrator.
type Platform interface {
	Repositories(ctx context.Context, a auth.Authenticator) ([]platform.Repository, error)
	UploadExtension(ctx context.Context, a auth.Authenticator, name string, data []byte) (string, error)
	RestartCEP(ctx context.Context, a auth.Authenticator) error
}
