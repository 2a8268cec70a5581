// Package testutil provides a fake repository content host for tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
)

// Default repository coordinates served by ContentHost.
const (
	Owner = "owner"
	Repo  = "repo"
	Ref   = "main"
)

// ContentHost mimics the subset of the GitHub content API used by the
// fetcher. Web and API share one host; the API lives below /api.
type ContentHost struct {
	Server *httptest.Server

	// DownloadURLs makes listings advertise download URLs for files.
	DownloadURLs bool
	// Envelope makes file requests answer with a base64 JSON envelope even
	// when raw content was requested.
	Envelope bool

	mu       sync.Mutex
	files    map[string][]byte
	symlinks map[string]bool
	failures map[string]int
	hits     atomic.Int64
}

// NewContentHost starts a content host that is closed when t finishes.
func NewContentHost(t *testing.T) *ContentHost {
	t.Helper()
	h := &ContentHost{
		files:    make(map[string][]byte),
		symlinks: make(map[string]bool),
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repos/{owner}/{repo}/contents", h.serveContents)
	mux.HandleFunc("GET /api/repos/{owner}/{repo}/contents/{path...}", h.serveContents)
	mux.HandleFunc("GET /raw/{path...}", h.serveRaw)

	h.Server = httptest.NewServer(mux)
	t.Cleanup(h.Server.Close)
	return h
}

// WebBase returns the base URL for web-form repository URLs.
func (h *ContentHost) WebBase() string { return h.Server.URL }

// APIBase returns the base URL of the content API.
func (h *ContentHost) APIBase() string { return h.Server.URL + "/api" }

// ContentURL returns the API URL of path at the default ref.
func (h *ContentHost) ContentURL(path string) string {
	u := h.APIBase() + "/repos/" + Owner + "/" + Repo + "/contents"
	if path = strings.Trim(path, "/"); path != "" {
		u += "/" + escapePath(path)
	}
	return u + "?ref=" + Ref
}

// WebURL returns the web URL of path at the default ref.
func (h *ContentHost) WebURL(path string) string {
	u := h.WebBase() + "/" + Owner + "/" + Repo + "/tree/" + Ref
	if path = strings.Trim(path, "/"); path != "" {
		u += "/" + escapePath(path)
	}
	return u
}

// AddFile registers a file.
func (h *ContentHost) AddFile(path string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[strings.Trim(path, "/")] = data
}

// AddSymlink registers an entry of type "symlink".
func (h *ContentHost) AddSymlink(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.symlinks[strings.Trim(path, "/")] = true
}

// Fail makes every request for path answer with status.
func (h *ContentHost) Fail(path string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[strings.Trim(path, "/")] = status
}

// Hits returns the number of requests served so far.
func (h *ContentHost) Hits() int64 { return h.hits.Load() }

type listingEntry struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Type        string  `json:"type"`
	Size        int     `json:"size"`
	URL         string  `json:"url"`
	DownloadURL *string `json:"download_url"`
}

type fileEnvelope struct {
	listingEntry
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (h *ContentHost) serveContents(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	path := strings.Trim(r.PathValue("path"), "/")

	h.mu.Lock()
	defer h.mu.Unlock()

	if status, ok := h.failures[path]; ok {
		logger.Debug("content host: injected failure", logger.Fields{"path": path, "status": status})
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}

	if data, ok := h.files[path]; ok {
		if strings.Contains(r.Header.Get("Accept"), "raw") && !h.Envelope {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(data)
			return
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		writeJSON(w, http.StatusOK, fileEnvelope{
			listingEntry: h.entry(path, "file", len(data)),
			Content:      wrap(encoded, 60),
			Encoding:     "base64",
		})
		return
	}

	children := h.children(path)
	if len(children) == 0 && path != "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ContentHost) serveRaw(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	path := strings.Trim(r.PathValue("path"), "/")

	h.mu.Lock()
	defer h.mu.Unlock()

	if status, ok := h.failures[path]; ok {
		http.Error(w, http.StatusText(status), status)
		return
	}
	data, ok := h.files[path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

// children lists the immediate children of dir. Callers hold h.mu.
func (h *ContentHost) children(dir string) []listingEntry {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seenDirs := make(map[string]bool)
	var entries []listingEntry
	add := func(p, typ string, size int) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			sub := prefix + rest[:i]
			if !seenDirs[sub] {
				seenDirs[sub] = true
				entries = append(entries, h.entry(sub, "dir", 0))
			}
			return
		}
		entries = append(entries, h.entry(p, typ, size))
	}

	for p, data := range h.files {
		add(p, "file", len(data))
	}
	for p := range h.symlinks {
		add(p, "symlink", 0)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func (h *ContentHost) entry(path, typ string, size int) listingEntry {
	e := listingEntry{
		Name: path[strings.LastIndex(path, "/")+1:],
		Path: path,
		Type: typ,
		Size: size,
		URL:  h.ContentURL(path),
	}
	if typ == "file" && h.DownloadURLs {
		download := h.Server.URL + "/raw/" + escapePath(path)
		e.DownloadURL = &download
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
