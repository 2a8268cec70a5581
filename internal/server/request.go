package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/download"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
)

// sourceSpec is a monitor or descriptor reference. Clients send either a
// bare URL string or an object with url and downloadUrl.
type sourceSpec struct {
	URL         string
	DownloadURL string
}

func (s *sourceSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.URL)
	}

	var obj struct {
		URL          string `json:"url"`
		HTMLURL      string `json:"html_url"`
		DownloadURL  string `json:"downloadUrl"`
		DownloadURL2 string `json:"download_url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.URL = firstNonEmpty(obj.URL, obj.HTMLURL)
	s.DownloadURL = firstNonEmpty(obj.DownloadURL, obj.DownloadURL2)
	return nil
}

func (s sourceSpec) empty() bool {
	return strings.TrimSpace(s.URL) == "" && strings.TrimSpace(s.DownloadURL) == ""
}

func (s sourceSpec) source() orchestrator.Source {
	return orchestrator.Source{
		URL:         strings.TrimSpace(s.URL),
		DownloadURL: strings.TrimSpace(s.DownloadURL),
	}
}

// repositoryRef names a configured repository, either as an object or as a
// bare id.
type repositoryRef struct {
	ID  string
	URL string
}

func (r *repositoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID  json.RawMessage `json:"id"`
		URL string          `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.URL = obj.URL
	if len(obj.ID) > 0 && string(obj.ID) != "null" {
		// Managed object ids are strings, older clients send numbers.
		var id string
		if err := json.Unmarshal(obj.ID, &id); err != nil {
			id = string(obj.ID)
		}
		r.ID = id
	}
	return nil
}

// buildOptions holds the fields shared by every build request body.
type buildOptions struct {
	ExtensionName string         `json:"extension_name"`
	Repository    *repositoryRef `json:"repository,omitempty"`
	RepositoryID  string         `json:"repository_id,omitempty"`
	Upload        bool           `json:"upload"`
	Deploy        bool           `json:"deploy"`
	DryRun        bool           `json:"dry_run"`
}

func (o buildOptions) repositoryID() string {
	if o.Repository != nil && o.Repository.ID != "" {
		return o.Repository.ID
	}
	return strings.TrimSpace(o.RepositoryID)
}

func (o buildOptions) buildRequest(caller auth.Authenticator, sources []orchestrator.Source) orchestrator.BuildRequest {
	return orchestrator.BuildRequest{
		Name:         o.ExtensionName,
		Sources:      sources,
		RepositoryID: o.repositoryID(),
		Upload:       o.Upload,
		Deploy:       o.Deploy,
		DryRun:       o.DryRun,
		Caller:       caller,
	}
}

type extensionRequest struct {
	buildOptions
	Monitors []sourceSpec `json:"monitors"`
}

func (r extensionRequest) sources() ([]orchestrator.Source, error) {
	if len(r.Monitors) == 0 {
		return nil, fmt.Errorf("%w: monitors must not be empty", errors.ErrValidation)
	}
	out := make([]orchestrator.Source, 0, len(r.Monitors))
	for i, m := range r.Monitors {
		if m.empty() {
			return nil, fmt.Errorf("%w: monitor %d has no url", errors.ErrValidation, i)
		}
		out = append(out, m.source())
	}
	return out, nil
}

type repositoryExtensionRequest struct {
	buildOptions
	// URL overrides the repository's own URL, e.g. to pick a subdirectory.
	URL string `json:"url,omitempty"`
}

func (r repositoryExtensionRequest) source() (orchestrator.Source, error) {
	u := strings.TrimSpace(r.URL)
	if u == "" && r.Repository != nil {
		u = strings.TrimSpace(r.Repository.URL)
	}
	if u == "" {
		return orchestrator.Source{}, fmt.Errorf("%w: repository url must not be empty", errors.ErrValidation)
	}
	return orchestrator.Source{URL: u}, nil
}

type descriptorExtensionRequest struct {
	buildOptions
	YAML     sourceSpec `json:"yaml"`
	Sections []string   `json:"sections,omitempty"`
}

func (r descriptorExtensionRequest) descriptorURL() (string, error) {
	u := strings.TrimSpace(r.YAML.URL)
	if u == "" {
		return "", fmt.Errorf("%w: yaml url must not be empty", errors.ErrValidation)
	}
	return u, nil
}

// queryURL returns the url query parameter. Clients that encode the value
// before handing it to a query builder send it escaped twice.
func queryURL(q url.Values) (string, error) {
	raw := strings.TrimSpace(q.Get("url"))
	if raw == "" {
		return "", fmt.Errorf("%w: url parameter is required", errors.ErrValidation)
	}
	if !strings.Contains(raw, "://") {
		if unescaped, err := url.QueryUnescape(raw); err == nil {
			raw = unescaped
		}
	}
	return raw, nil
}

type failedItem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func failedItems(failures []download.Failure) []failedItem {
	out := make([]failedItem, 0, len(failures))
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out = append(out, failedItem{Path: f.Path, Error: msg})
	}
	return out
}

type uploadResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Digest       string       `json:"digest"`
	Restarted    bool         `json:"restarted"`
	RestartError string       `json:"restart_error,omitempty"`
	Staged       []string     `json:"staged"`
	Failed       []failedItem `json:"failed"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
