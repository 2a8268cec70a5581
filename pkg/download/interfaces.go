package download

import (
	"context"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
)

// Fetcher is the part of the content fetcher the walker needs.
type Fetcher interface {
	FetchListing(ctx context.Context, url string, a auth.Authenticator) (content.Listing, error)
	FetchFileBytes(ctx context.Context, item content.Item, a auth.Authenticator) ([]byte, error)
}

// Request names what to download. Exactly one of URL or Item is used; Item
// wins when both are set. BaseURL anchors relative paths and defaults to URL.
type Request struct {
	URL     string
	Item    *content.Item
	BaseURL string
	Auth    auth.Authenticator
}

// Options bound a walk. Zero values fall back to the defaults below.
type Options struct {
	Concurrency int
	MaxDepth    int
	MaxItems    int
}

// Default walk limits.
const (
	DefaultConcurrency = 8
	DefaultMaxDepth    = 16
	DefaultMaxItems    = 2000
)

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	return o
}
