package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Message string `json:"message"`
}

// statusFor maps the error taxonomy onto response codes. The more specific
// classes are checked first, so a nothing-staged error reports the class of
// the item failure it wraps.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var upstream *errors.UpstreamRequestError

	switch {
	case stderrors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, errors.ErrValidation),
		stderrors.Is(err, errors.ErrInvalidRepositoryURL),
		stderrors.Is(err, errors.ErrInvalidContentAPIURL):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrRepositoryNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrTreeTooLarge),
		stderrors.Is(err, errors.ErrResponseTooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, errors.ErrUploadFailed):
		return http.StatusBadGateway
	case stderrors.As(err, &upstream):
		if upstream.Status >= 400 && upstream.Status < 500 {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case stderrors.Is(err, errors.ErrUpstreamRequest),
		stderrors.Is(err, errors.ErrContentDecode),
		stderrors.Is(err, errors.ErrPathTraversal):
		return http.StatusBadGateway
	case stderrors.Is(err, errors.ErrPlatformUnavailable):
		return http.StatusServiceUnavailable
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, errors.ErrNothingStaged):
		return http.StatusBadRequest
	default:
		// Staging, build and hook failures.
		return http.StatusInternalServerError
	}
}

// writeError logs err with the request logger and answers with its mapped
// status. Only the message reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: "Error: " + msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
