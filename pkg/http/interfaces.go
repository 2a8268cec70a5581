package http

import (
	"context"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
)

// Doer is the subset of Client used by the content fetcher and the platform
// client.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string, a auth.Authenticator) (*Response, error)
}

var _ Doer = (*Client)(nil)
