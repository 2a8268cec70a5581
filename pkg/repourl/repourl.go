// Package repourl converts between the web URLs users paste and the content
// API URLs the fetcher talks to.
//
// Web form:  <web>/<owner>/<repo>[/tree/<ref>][/<path>]
// API form:  <api>/repos/<owner>/<repo>/contents[/<path>]?ref=<ref>
package repourl

import (
	"net/url"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// Location identifies a path at a ref inside a repository. Path uses forward
// slashes and has no leading or trailing slash; empty means the repository
// root.
type Location struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// Resolver translates URLs for one content host.
type Resolver struct {
	web           *url.URL
	api           *url.URL
	raw           *url.URL
	defaultBranch string
}

// NewResolver creates a Resolver. apiBase may carry a path prefix, as
// enterprise hosts serve the API below /api/v3. rawBase names the host of
// raw file downloads and may be empty.
func NewResolver(webBase, apiBase, rawBase, defaultBranch string) (*Resolver, error) {
	web, err := parseBase(webBase)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigValidation, "web base URL %q", webBase)
	}
	api, err := parseBase(apiBase)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigValidation, "API base URL %q", apiBase)
	}
	var raw *url.URL
	if rawBase != "" {
		if raw, err = parseBase(rawBase); err != nil {
			return nil, errors.Wrapf(errors.ErrConfigValidation, "raw base URL %q", rawBase)
		}
	}
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	return &Resolver{web: web, api: api, raw: raw, defaultBranch: defaultBranch}, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.ErrConfigValidation
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// DefaultBranch returns the ref used when a URL names none.
func (r *Resolver) DefaultBranch() string {
	return r.defaultBranch
}

// ParseWebURL parses a repository web URL.
func (r *Resolver) ParseWebURL(raw string) (Location, error) {
	segments, _, err := r.segments(raw, r.web)
	if err != nil {
		return Location{}, errors.Wrapf(errors.ErrInvalidRepositoryURL, "%s: %v", raw, err)
	}
	if len(segments) < 2 {
		return Location{}, errors.Wrapf(errors.ErrInvalidRepositoryURL, "%s: missing owner or repository", raw)
	}

	loc := Location{
		Owner: segments[0],
		Repo:  strings.TrimSuffix(segments[1], ".git"),
		Ref:   r.defaultBranch,
	}
	rest := segments[2:]
	if len(rest) >= 2 && (rest[0] == "tree" || rest[0] == "blob") {
		loc.Ref = rest[1]
		rest = rest[2:]
	}
	loc.Path = strings.Join(rest, "/")
	return loc, nil
}

// ParseContentAPIURL parses a content API URL.
func (r *Resolver) ParseContentAPIURL(raw string) (Location, error) {
	segments, query, err := r.segments(raw, r.api)
	if err != nil {
		return Location{}, errors.Wrapf(errors.ErrInvalidContentAPIURL, "%s: %v", raw, err)
	}
	if len(segments) < 4 || segments[0] != "repos" || segments[3] != "contents" {
		return Location{}, errors.Wrapf(errors.ErrInvalidContentAPIURL, "%s: expected repos/<owner>/<repo>/contents", raw)
	}

	loc := Location{
		Owner: segments[1],
		Repo:  segments[2],
		Ref:   query.Get("ref"),
		Path:  strings.Join(segments[4:], "/"),
	}
	if loc.Ref == "" {
		loc.Ref = r.defaultBranch
	}
	return loc, nil
}

// ToContentAPIURL converts a repository web URL to its content API URL.
func (r *Resolver) ToContentAPIURL(webURL string) (string, error) {
	loc, err := r.ParseWebURL(webURL)
	if err != nil {
		return "", err
	}
	return r.APIURL(loc), nil
}

// ToWebURL converts a content API URL to the repository web URL.
func (r *Resolver) ToWebURL(apiURL string) (string, error) {
	loc, err := r.ParseContentAPIURL(apiURL)
	if err != nil {
		return "", err
	}
	return r.WebURL(loc), nil
}

// APIURL renders loc in API form.
func (r *Resolver) APIURL(loc Location) string {
	var b strings.Builder
	b.WriteString(r.api.String())
	b.WriteString("/repos/")
	b.WriteString(escapeSegments(loc.Owner, loc.Repo))
	b.WriteString("/contents")
	if loc.Path != "" {
		b.WriteString("/")
		b.WriteString(escapeSegments(strings.Split(loc.Path, "/")...))
	}
	b.WriteString("?")
	b.WriteString(url.Values{"ref": {loc.Ref}}.Encode())
	return b.String()
}

// WebURL renders loc in web form. The ref is always spelled out.
func (r *Resolver) WebURL(loc Location) string {
	var b strings.Builder
	b.WriteString(r.web.String())
	b.WriteString("/")
	b.WriteString(escapeSegments(loc.Owner, loc.Repo, "tree", loc.Ref))
	if loc.Path != "" {
		b.WriteString("/")
		b.WriteString(escapeSegments(strings.Split(loc.Path, "/")...))
	}
	return b.String()
}

// Normalize accepts a URL in web or API form and returns the API form.
func (r *Resolver) Normalize(raw string) (string, error) {
	if loc, err := r.ParseContentAPIURL(raw); err == nil {
		return r.APIURL(loc), nil
	}
	loc, err := r.ParseWebURL(raw)
	if err != nil {
		return "", err
	}
	return r.APIURL(loc), nil
}

// IsContentHost reports whether raw is an http(s) URL on the web, API or raw
// download host. Only such URLs may be fetched with repository credentials.
func (r *Resolver) IsContentHost(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || u.User != nil {
		return false
	}
	for _, base := range []*url.URL{r.web, r.api, r.raw} {
		if base != nil && strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host) {
			return true
		}
	}
	return false
}

// Join returns the API URL of rel below the location named by apiURL.
func (r *Resolver) Join(apiURL, rel string) (string, error) {
	loc, err := r.ParseContentAPIURL(apiURL)
	if err != nil {
		return "", err
	}
	rel = strings.Trim(rel, "/")
	switch {
	case rel == "":
	case loc.Path == "":
		loc.Path = rel
	default:
		loc.Path = loc.Path + "/" + rel
	}
	return r.APIURL(loc), nil
}

// segments checks raw against base and returns its unescaped path segments
// below base's path together with its query.
func (r *Resolver) segments(raw string, base *url.URL) ([]string, url.Values, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(u.Host, base.Host) {
		return nil, nil, errors.Wrapf(errors.ErrValidation, "host %q is not %q", u.Host, base.Host)
	}

	escaped := u.EscapedPath()
	prefix := base.EscapedPath()
	if prefix != "" {
		if escaped != prefix && !strings.HasPrefix(escaped, prefix+"/") {
			return nil, nil, errors.Wrapf(errors.ErrValidation, "path is not below %q", prefix)
		}
		escaped = escaped[len(prefix):]
	}

	var out []string
	for _, part := range strings.Split(escaped, "/") {
		if part == "" {
			continue
		}
		seg, err := url.PathUnescape(part)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, seg)
	}
	return out, u.Query(), nil
}

func escapeSegments(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}
