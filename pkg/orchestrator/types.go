package orchestrator

import (
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/download"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|staging|building|uploading|restarting|done|error
	ID    string // extension name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Source names one file or directory to stage. URL may be a web or a content
// API URL. DownloadURL, when known, lets a single file skip the API round
// trip. BaseURL anchors the staged path; it defaults to the source itself,
// so that a file lands at the staging root and a directory keeps its inner
// layout.
type Source struct {
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	BaseURL     string `json:"-"`
}

// BuildRequest describes one extension build.
type BuildRequest struct {
	Name         string
	Sources      []Source
	RepositoryID string
	// Upload stores the archive in the tenant's binary store.
	Upload bool
	// Deploy restarts the CEP runtime after the upload; it implies Upload.
	Deploy bool
	// DryRun bundles the staged sources instead of running the build tool.
	DryRun bool
	// Caller is the identity of the requester, used for platform calls.
	Caller auth.Authenticator
}

// DescriptorRequest builds an extension from sections of an extensions.yaml.
type DescriptorRequest struct {
	BuildRequest
	DescriptorURL string
	Sections      []string
}

// BuildResult reports a finished build.
type BuildResult struct {
	Name         string             `json:"name"`
	FileName     string             `json:"file_name"`
	Archive      []byte             `json:"-"`
	Digest       string             `json:"digest"`
	Files        []string           `json:"files,omitempty"`
	Staged       []string           `json:"staged"`
	Failed       []download.Failure `json:"-"`
	Skipped      []string           `json:"skipped,omitempty"`
	BinaryID     string             `json:"id,omitempty"`
	Uploaded     bool               `json:"uploaded"`
	Restarted    bool               `json:"restarted"`
	RestartError string             `json:"restart_error,omitempty"`
}

// FailedPaths returns the staged-relative paths of the failed items.
func (r *BuildResult) FailedPaths() []string {
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Path)
	}
	return out
}
