// Package errors defines the error taxonomy shared by the staging, build and
// upload pipeline. Sentinel values are matched with errors.Is; the typed
// errors carry the details a caller needs to pick a response status.
package errors

import (
	"fmt"
	"strings"
)

// Common error types.
var (
	// Address errors. Not retryable.
	ErrInvalidRepositoryURL = fmt.Errorf("invalid repository URL")
	ErrInvalidContentAPIURL = fmt.Errorf("invalid content API URL")

	// Content host errors.
	ErrUpstreamRequest  = fmt.Errorf("upstream request failed")
	ErrContentDecode    = fmt.Errorf("failed to decode content")
	ErrResponseTooLarge = fmt.Errorf("response body exceeds size limit")

	// Staging errors.
	ErrStagingCreate = fmt.Errorf("failed to create staging directory")
	ErrTreeTooLarge  = fmt.Errorf("content tree exceeds limits")
	ErrPathTraversal = fmt.Errorf("path escapes staging directory")
	ErrNothingStaged = fmt.Errorf("no files could be staged")

	// Build and deployment errors.
	ErrBuildFailed         = fmt.Errorf("extension build failed")
	ErrBuilderVersion      = fmt.Errorf("unsupported builder version")
	ErrUploadFailed        = fmt.Errorf("extension upload failed")
	ErrRestartFailed       = fmt.Errorf("CEP restart failed")
	ErrRepositoryNotFound  = fmt.Errorf("repository not found")
	ErrPlatformUnavailable = fmt.Errorf("platform is not configured")

	// Request errors.
	ErrValidation = fmt.Errorf("validation failed")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrInvalidLogFormat  = fmt.Errorf("invalid log format")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Error types for specific error conditions.
type (
	// UpstreamRequestError is returned when the content host or the platform
	// answers with a non-success status.
	UpstreamRequestError struct {
		URL    string
		Status int
		Body   string
	}

	// TreeTooLargeError is returned when a walk crosses one of the safety
	// ceilings.
	TreeTooLargeError struct {
		Limit string
		Max   int
	}

	// BuildError is returned when the external build tool does not produce
	// an archive.
	BuildError struct {
		ExitCode int
		Output   string
		Err      error
	}
)

// Error implements the error interface for UpstreamRequestError.
func (e *UpstreamRequestError) Error() string {
	msg := fmt.Sprintf("upstream request to %s failed: HTTP %d", e.URL, e.Status)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += " - " + body
	}
	return msg
}

// Is reports whether target is ErrUpstreamRequest.
func (e *UpstreamRequestError) Is(target error) bool {
	return target == ErrUpstreamRequest
}

// NewUpstreamRequestError creates a new UpstreamRequestError. The body is
// truncated so that error messages stay readable.
func NewUpstreamRequestError(url string, status int, body []byte) error {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &UpstreamRequestError{URL: url, Status: status, Body: string(body)}
}

// Error implements the error interface for TreeTooLargeError.
func (e *TreeTooLargeError) Error() string {
	return fmt.Sprintf("%s: more than %d %s", ErrTreeTooLarge, e.Max, e.Limit)
}

// Is reports whether target is ErrTreeTooLarge.
func (e *TreeTooLargeError) Is(target error) bool {
	return target == ErrTreeTooLarge
}

// NewTreeTooLargeError creates a new TreeTooLargeError.
func NewTreeTooLargeError(limit string, limitValue int) error {
	return &TreeTooLargeError{Limit: limit, Max: limitValue}
}

// Error implements the error interface for BuildError.
func (e *BuildError) Error() string {
	msg := ErrBuildFailed.Error()
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s: exit code %d", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for BuildError.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBuildFailed.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuildFailed
}

// NewBuildError creates a new BuildError.
func NewBuildError(exitCode int, output string, err error) error {
	return &BuildError{ExitCode: exitCode, Output: output, Err: err}
}

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails creates a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}

// ErrInvalidLogFormatWithDetails creates a wrapped error with the invalid format and valid options.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidLogFormat, format)
}
