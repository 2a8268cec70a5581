// Package credentials builds the request headers used to read a repository
// from the content host.
package credentials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/platform"
)

// DefaultAccept asks the content host for raw file bytes.
const DefaultAccept = "application/vnd.github.v3.raw"

// RepositoryStore loads a registered repository including its access token.
type RepositoryStore interface {
	Repository(ctx context.Context, a auth.Authenticator, id string) (*platform.Repository, error)
}

// Options configure a Resolver.
type Options struct {
	Accept string
	// Token is the service-wide fallback used when no repository is named.
	Token string
}

// Resolver turns a repository id into content host headers.
type Resolver struct {
	store  RepositoryStore
	accept string
	token  string
	log    *slog.Logger
}

// NewResolver creates a new Resolver. store may be nil when no platform is
// configured; resolving a repository id then fails with
// ErrPlatformUnavailable.
func NewResolver(store RepositoryStore, opts Options, log *slog.Logger) *Resolver {
	if opts.Accept == "" {
		opts.Accept = DefaultAccept
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{store: store, accept: opts.Accept, token: opts.Token, log: log}
}

// Resolve returns the headers for reading content. Accept is always set.
// When repositoryID is given the repository is loaded with the caller's
// identity and its access token, if any, becomes a bearer token. Otherwise
// the service-wide token is used when configured.
func (r *Resolver) Resolve(ctx context.Context, caller auth.Authenticator, repositoryID string) (map[string]string, error) {
	headers := map[string]string{"Accept": r.accept}
	log := logger.FromContextOr(ctx, r.log)

	if repositoryID == "" {
		if r.token != "" {
			headers["Authorization"] = "Bearer " + r.token
		}
		return headers, nil
	}

	if r.store == nil {
		return nil, fmt.Errorf("%w: cannot load repository %s", errors.ErrPlatformUnavailable, repositoryID)
	}

	repo, err := r.store.Repository(ctx, caller, repositoryID)
	if err != nil {
		return nil, err
	}
	if repo.AccessToken != "" {
		headers["Authorization"] = "Bearer " + repo.AccessToken
		log.Info("access token found and added to headers", "repository_id", repositoryID)
	}
	return headers, nil
}

// Authenticator wraps Resolve and returns the headers as an authenticator.
func (r *Resolver) Authenticator(ctx context.Context, caller auth.Authenticator, repositoryID string) (auth.Authenticator, error) {
	headers, err := r.Resolve(ctx, caller, repositoryID)
	if err != nil {
		return nil, err
	}
	return auth.HeaderAuth{Headers: headers}, nil
}
