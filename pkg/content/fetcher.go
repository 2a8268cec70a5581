// Package content talks to the repository content API: it lists directories
// and retrieves file bytes in whichever shape the host serves them.
package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	httpclient "github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/http"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/repourl"
)

// Fetcher retrieves listings and file bytes from the content host.
type Fetcher struct {
	client httpclient.Doer
	log    *slog.Logger
}

// NewFetcher creates a Fetcher. A nil log uses the global logger.
func NewFetcher(client httpclient.Doer, log *slog.Logger) *Fetcher {
	return &Fetcher{client: client, log: logger.OrDefault(log)}
}

// entry is one element of a content API listing.
type entry struct {
	Name        *string `json:"name"`
	Path        string  `json:"path"`
	Type        *string `json:"type"`
	URL         string  `json:"url"`
	DownloadURL *string `json:"download_url"`
	Size        int64   `json:"size"`
}

func (e entry) valid() bool {
	return e.Name != nil && e.Type != nil
}

// FetchListing lists the resource at rawURL. A JSON array yields one item per
// element, a JSON object yields exactly one item, and any other body is the
// content of a single file.
func (f *Fetcher) FetchListing(ctx context.Context, rawURL string, a auth.Authenticator) (Listing, error) {
	resp, err := f.client.Get(ctx, rawURL, a)
	if err != nil {
		return Listing{}, err
	}
	body := resp.Body
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []entry
		if err := json.Unmarshal(trimmed, &entries); err == nil && allValid(entries) {
			items := make([]Item, 0, len(entries))
			for _, e := range entries {
				items = append(items, f.toItem(e, rawURL))
			}
			return Listing{Items: items}, nil
		}
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var e entry
		if err := json.Unmarshal(trimmed, &e); err == nil && e.valid() {
			item := f.toItem(e, parentOf(rawURL))
			if inline, ok := inlineFromEnvelope(trimmed, item); ok {
				item = inline
			}
			return Listing{Items: []Item{item}, Single: true}, nil
		}
	}

	name := lastSegment(rawURL)
	f.log.Debug("listing answered with raw content", "url", rawURL, "bytes", len(body))
	return Listing{Items: []Item{NewInlineFile(name, name, rawURL, body)}, Single: true}, nil
}

func allValid(entries []entry) bool {
	for _, e := range entries {
		if !e.valid() {
			return false
		}
	}
	return true
}

func (f *Fetcher) toItem(e entry, parentURL string) Item {
	apiURL := e.URL
	if apiURL == "" {
		apiURL = joinURL(parentURL, *e.Name)
	}
	itemPath := e.Path
	if itemPath == "" {
		itemPath = *e.Name
	}

	switch *e.Type {
	case "file":
		var download string
		if e.DownloadURL != nil {
			download = *e.DownloadURL
		}
		return NewFile(itemPath, *e.Name, apiURL, download, e.Size)
	case "dir":
		return NewDirectory(itemPath, *e.Name, apiURL)
	default:
		f.log.Debug("unsupported entry type", "path", itemPath, "type", *e.Type)
		return NewUnsupported(itemPath, *e.Name, apiURL, *e.Type)
	}
}

// inlineFromEnvelope turns a single-file object that already embeds its
// bytes into an inline item, which saves one round trip.
func inlineFromEnvelope(body []byte, item Item) (Item, bool) {
	if item.Kind() != KindFile {
		return item, false
	}
	data, ok, err := decodeEnvelope(body)
	if err != nil || !ok || data == nil {
		return item, false
	}
	return NewInlineFile(item.Path(), item.Name(), item.APIURL(), data), true
}

// FetchFileBytes returns the bytes of a file item.
func (f *Fetcher) FetchFileBytes(ctx context.Context, item Item, a auth.Authenticator) ([]byte, error) {
	switch item.Shape() {
	case ShapeFileInline:
		return item.Content(), nil
	case ShapeFileDirect:
		resp, err := f.client.Get(ctx, item.DownloadURL(), a)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	case ShapeFileIndirect:
		return f.fetchIndirect(ctx, item.APIURL(), a)
	default:
		return nil, errors.Wrapf(errors.ErrValidation, "%s is not a file (%s)", item.Path(), item.Shape())
	}
}

func (f *Fetcher) fetchIndirect(ctx context.Context, apiURL string, a auth.Authenticator) ([]byte, error) {
	resp, err := f.client.Get(ctx, apiURL, a)
	if err != nil {
		return nil, err
	}

	data, isEnvelope, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", apiURL)
	}
	if !isEnvelope {
		return resp.Body, nil
	}
	if data != nil {
		return data, nil
	}

	// Files above the host's inline limit come back with an empty content
	// field and a download URL.
	download := envelopeDownloadURL(resp.Body)
	if download == "" {
		return []byte{}, nil
	}
	f.log.Debug("following download url of large file", "url", apiURL)
	direct, err := f.client.Get(ctx, download, a)
	if err != nil {
		return nil, err
	}
	return direct.Body, nil
}

type envelope struct {
	Content     *string `json:"content"`
	Encoding    *string `json:"encoding"`
	DownloadURL *string `json:"download_url"`
}

// decodeEnvelope recognizes a JSON object with a string "content" field and
// an "encoding" that is absent or "base64". It returns (nil, true, nil) for
// an envelope whose content is empty, including the large-file form that
// only carries a download URL.
func decodeEnvelope(body []byte) ([]byte, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Content == nil {
		return nil, false, nil
	}

	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(*env.Content)
	if cleaned == "" && env.DownloadURL != nil && *env.DownloadURL != "" {
		// Large files are served with encoding "none" and no content.
		return nil, true, nil
	}
	if env.Encoding != nil && *env.Encoding != "base64" {
		return nil, false, nil
	}
	if cleaned == "" {
		return nil, true, nil
	}
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, true, errors.Wrap(errors.ErrContentDecode, err.Error())
	}
	return data, true, nil
}

func envelopeDownloadURL(body []byte) string {
	var env envelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &env); err != nil || env.DownloadURL == nil {
		return ""
	}
	return *env.DownloadURL
}

// joinURL appends name as a path segment to rawURL, keeping its query.
func joinURL(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimRight(repourl.StripQuery(rawURL), "/") + "/" + url.PathEscape(name)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + name
	u.RawPath = ""
	return u.String()
}

// parentOf returns rawURL with its last path segment removed, query kept.
func parentOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Path = path.Dir(strings.TrimRight(u.Path, "/"))
	u.RawPath = ""
	return u.String()
}

func lastSegment(rawURL string) string {
	trimmed := strings.TrimRight(repourl.StripQuery(rawURL), "/")
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
