// Package platform talks to the tenant platform: it reads the registered
// source repositories, uploads built extensions to the inventory binary
// store and restarts the CEP runtime.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	anahttp "github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/http"
)

// Default values used when Options leaves them unset.
const (
	DefaultRepositoryType = "c8y_CEP_repository"
	DefaultPageSize       = 2000

	extensionContentType = "application/zip"
)

// Options configure a Client.
type Options struct {
	BaseURL        string
	RepositoryType string
	PageSize       int
}

// Client is a tenant platform client. Every call takes the authenticator
// to use, normally the identity of the caller that triggered the request.
type Client struct {
	doer     anahttp.Doer
	baseURL  string
	repoType string
	pageSize int
	log      *slog.Logger
}

// NewClient creates a new Client. It fails with ErrPlatformUnavailable when
// no base URL is configured.
func NewClient(doer anahttp.Doer, opts Options, log *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.ErrPlatformUnavailable
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid platform base URL %q", errors.ErrConfigValidation, opts.BaseURL)
	}
	if opts.RepositoryType == "" {
		opts.RepositoryType = DefaultRepositoryType
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		doer:     doer,
		baseURL:  base,
		repoType: opts.RepositoryType,
		pageSize: opts.PageSize,
		log:      log,
	}, nil
}

// BaseURL returns the platform base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Repositories lists the repositories registered with the tenant.
func (c *Client) Repositories(ctx context.Context, a auth.Authenticator) ([]Repository, error) {
	q := url.Values{}
	q.Set("type", c.repoType)
	q.Set("pageSize", strconv.Itoa(c.pageSize))

	resp, err := c.doer.Do(ctx, &anahttp.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/inventory/managedObjects?" + q.Encode(),
		Accept: "application/json",
		Auth:   a,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list repositories")
	}

	var coll managedObjectCollection
	if err := json.Unmarshal(resp.Body, &coll); err != nil {
		return nil, fmt.Errorf("%w: repository list: %v", errors.ErrContentDecode, err)
	}

	repos := make([]Repository, 0, len(coll.ManagedObjects))
	for _, mo := range coll.ManagedObjects {
		repos = append(repos, mo.repository())
	}
	return repos, nil
}

// Repository loads a single repository including its access token. Unknown
// ids and managed objects of another type yield ErrRepositoryNotFound.
func (c *Client) Repository(ctx context.Context, a auth.Authenticator, id string) (*Repository, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty repository id", errors.ErrValidation)
	}

	resp, err := c.doer.Do(ctx, &anahttp.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/inventory/managedObjects/" + url.PathEscape(id),
		Accept: "application/json",
		Auth:   a,
	})
	if err != nil {
		var upstream *errors.UpstreamRequestError
		if stderrors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", errors.ErrRepositoryNotFound, id)
		}
		return nil, errors.Wrapf(err, "failed to load repository %s", id)
	}

	var mo managedObject
	if err := json.Unmarshal(resp.Body, &mo); err != nil {
		return nil, fmt.Errorf("%w: repository %s: %v", errors.ErrContentDecode, id, err)
	}
	if mo.Type != "" && mo.Type != c.repoType {
		return nil, fmt.Errorf("%w: %s has type %s", errors.ErrRepositoryNotFound, id, mo.Type)
	}

	repo := mo.repository()
	return &repo, nil
}

// UploadExtension stores archive as an inventory binary named <name>.zip and
// tagged with pas_extension=<name>. It returns the id of the new binary.
func (c *Client) UploadExtension(ctx context.Context, a auth.Authenticator, name string, archive []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty extension name", errors.ErrValidation)
	}

	body, contentType, err := extensionForm(name, archive)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrUploadFailed, err)
	}

	resp, err := c.doer.Do(ctx, &anahttp.Request{
		Method:      http.MethodPost,
		URL:         c.baseURL + "/inventory/binaries",
		Body:        body,
		ContentType: contentType,
		Accept:      "application/json",
		Auth:        a,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrUploadFailed, err)
	}

	var bin Binary
	if err := json.Unmarshal(resp.Body, &bin); err != nil || bin.ID == "" {
		return "", fmt.Errorf("%w: response carries no binary id", errors.ErrUploadFailed)
	}

	logger.FromContextOr(ctx, c.log).Info("extension uploaded",
		"extension", name, "binary_id", bin.ID, "bytes", len(archive))
	return bin.ID, nil
}

// RestartCEP asks the platform to restart the CEP runtime so that newly
// uploaded extensions are loaded.
func (c *Client) RestartCEP(ctx context.Context, a auth.Authenticator) error {
	_, err := c.doer.Do(ctx, &anahttp.Request{
		Method:      http.MethodPut,
		URL:         c.baseURL + "/service/cep/restart",
		Body:        strings.NewReader(`""`),
		ContentType: "application/json",
		Auth:        a,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrRestartFailed, err)
	}
	logger.FromContextOr(ctx, c.log).Info("CEP restart requested")
	return nil
}

func extensionForm(name string, archive []byte) (*bytes.Buffer, string, error) {
	fileName := name + ".zip"
	object, err := json.Marshal(Binary{
		Name:         fileName,
		Type:         extensionContentType,
		PasExtension: name,
	})
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField("object", string(object)); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	h.Set("Content-Type", extensionContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
