package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
)

// Response headers describing a returned archive.
const (
	HeaderDigest      = "X-Extension-Digest"
	HeaderStagedFiles = "X-Staged-Files"
	HeaderFailedItems = "X-Failed-Items"
	// HeaderFailedPaths lists the paths of failed items, query-escaped and
	// comma separated.
	HeaderFailedPaths = "X-Failed-Paths"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleExtension(w http.ResponseWriter, r *http.Request) {
	var body extensionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	sources, err := body.sources()
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("building extension",
		"extension", body.ExtensionName,
		"monitors", len(sources),
		"upload", body.Upload,
		"deploy", body.Deploy)

	result, err := s.svc.Build(r.Context(), body.buildRequest(auth.FromRequest(r), sources))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeBuildResult(w, result)
}

func (s *Server) handleRepositoryExtension(w http.ResponseWriter, r *http.Request) {
	var body repositoryExtensionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	src, err := body.source()
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("building extension from repository",
		"extension", body.ExtensionName,
		"url", src.URL)

	req := body.buildRequest(auth.FromRequest(r), []orchestrator.Source{src})
	result, err := s.svc.Build(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeBuildResult(w, result)
}

func (s *Server) handleDescriptorExtension(w http.ResponseWriter, r *http.Request) {
	var body descriptorExtensionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	descURL, err := body.descriptorURL()
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("building extension from descriptor",
		"extension", body.ExtensionName,
		"descriptor", descURL,
		"sections", body.Sections)

	result, err := s.svc.BuildFromDescriptor(r.Context(), orchestrator.DescriptorRequest{
		BuildRequest:  body.buildRequest(auth.FromRequest(r), nil),
		DescriptorURL: descURL,
		Sections:      body.Sections,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeBuildResult(w, result)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawURL, err := queryURL(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.svc.Content(r.Context(), auth.FromRequest(r), q.Get("repository_id"), rawURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleContentList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawURL, err := queryURL(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.svc.ContentList(r.Context(), auth.FromRequest(r), q.Get("repository_id"), rawURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	repos, err := s.svc.Repositories(r.Context(), auth.FromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// writeBuildResult answers with the archive itself, or with a JSON summary
// once the archive went to the platform.
func writeBuildResult(w http.ResponseWriter, result *orchestrator.BuildResult) {
	if result.Uploaded {
		staged := result.Staged
		if staged == nil {
			staged = []string{}
		}
		writeJSON(w, http.StatusOK, uploadResponse{
			ID:           result.BinaryID,
			Name:         result.Name,
			Digest:       result.Digest,
			Restarted:    result.Restarted,
			RestartError: result.RestartError,
			Staged:       staged,
			Failed:       failedItems(result.Failed),
		})
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	h.Set("Content-Length", strconv.Itoa(len(result.Archive)))
	h.Set(HeaderDigest, result.Digest)
	h.Set(HeaderStagedFiles, strconv.Itoa(len(result.Staged)))
	h.Set(HeaderFailedItems, strconv.Itoa(len(result.Failed)))
	if paths := result.FailedPaths(); len(paths) > 0 {
		for i, p := range paths {
			paths[i] = url.QueryEscape(p)
		}
		h.Set(HeaderFailedPaths, strings.Join(paths, ","))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Archive)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if stderrors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: malformed request body: %v", errors.ErrValidation, err)
	}
	return nil
}
