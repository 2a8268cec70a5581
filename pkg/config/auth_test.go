package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
)

func TestAuthConfig_ToAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		config   *AuthConfig
		expected auth.Authenticator
	}{
		{name: "nil config", config: nil, expected: nil},
		{name: "empty config", config: &AuthConfig{}, expected: nil},
		{
			name:     "basic",
			config:   &AuthConfig{BasicAuth: &BasicAuth{Username: "t1/user", Password: "pass"}},
			expected: auth.BasicAuth{Username: "t1/user", Password: "pass"},
		},
		{
			name:     "bearer",
			config:   &AuthConfig{BearerAuth: &BearerAuth{Token: "tok"}},
			expected: auth.BearerAuth{Token: "tok"},
		},
		{
			name:     "header",
			config:   &AuthConfig{HeaderAuth: &HeaderAuth{Headers: map[string]string{"X-Cumulocity-Application-Key": "k"}}},
			expected: auth.HeaderAuth{Headers: map[string]string{"X-Cumulocity-Application-Key": "k"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.ToAuthenticator())
		})
	}
}
