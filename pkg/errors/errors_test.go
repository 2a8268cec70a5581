package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			msg:      "additional context",
			expected: "additional context: original error",
		},
		{
			name:     "wrap with empty message",
			err:      errors.New("original error"),
			msg:      "",
			expected: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			// Test that the original error is wrapped
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "wrapf nil error",
			err:      nil,
			format:   "formatted: %s",
			args:     []interface{}{"test"},
			expected: "",
		},
		{
			name:     "wrapf standard error",
			err:      errors.New("original error"),
			format:   "failed to process %s",
			args:     []interface{}{"file.txt"},
			expected: "failed to process file.txt: original error",
		},
		{
			name:     "wrapf with multiple args",
			err:      errors.New("original error"),
			format:   "failed to process %s in %d attempts",
			args:     []interface{}{"file.txt", 3},
			expected: "failed to process file.txt in 3 attempts: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			// Test that the original error is wrapped
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestUpstreamRequestError(t *testing.T) {
	err := NewUpstreamRequestError("https://api.example.com/x", 500, []byte("boom"))

	if !errors.Is(err, ErrUpstreamRequest) {
		t.Fatalf("expected error to match ErrUpstreamRequest")
	}
	wrapped := Wrap(err, "fetching listing")
	var upstream *UpstreamRequestError
	if !errors.As(wrapped, &upstream) {
		t.Fatalf("expected wrapped error to unwrap to *UpstreamRequestError")
	}
	if upstream.Status != 500 {
		t.Errorf("expected status 500, got %d", upstream.Status)
	}
	if got, want := err.Error(), "upstream request to https://api.example.com/x failed: HTTP 500 - boom"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestUpstreamRequestError_TruncatesBody(t *testing.T) {
	body := make([]byte, 2048)
	for i := range body {
		body[i] = 'x'
	}
	err := NewUpstreamRequestError("u", 502, body)

	var upstream *UpstreamRequestError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamRequestError")
	}
	if len(upstream.Body) != 512 {
		t.Errorf("expected body truncated to 512 bytes, got %d", len(upstream.Body))
	}
}

func TestTreeTooLargeError(t *testing.T) {
	err := NewTreeTooLargeError("items", 10)
	if !errors.Is(err, ErrTreeTooLarge) {
		t.Fatalf("expected error to match ErrTreeTooLarge")
	}
	if errors.Is(err, ErrUpstreamRequest) {
		t.Fatalf("did not expect error to match ErrUpstreamRequest")
	}
	if got, want := err.Error(), "content tree exceeds limits: more than 10 items"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestBuildError(t *testing.T) {
	cause := errors.New("exit status 2")
	err := NewBuildError(2, "compile error in Foo.mon", cause)

	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("expected error to match ErrBuildFailed")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected error to unwrap to its cause")
	}
	if got, want := err.Error(), "extension build failed: exit code 2: exit status 2"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
