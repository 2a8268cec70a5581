package config

import "github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"

// AuthConfig holds the credentials used against the tenant platform when no
// caller identity is available. At most one variant should be set.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty" toml:"basic"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty" toml:"header"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty" toml:"bearer"`
}

// BasicAuth holds configuration for HTTP Basic Authentication. Cumulocity
// users are written as "<tenant>/<user>".
type BasicAuth struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers" toml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token" toml:"token"`
}

// ToAuthenticator converts the configuration to an Authenticator. It returns
// nil when no variant is set.
func (a *AuthConfig) ToAuthenticator() auth.Authenticator {
	if a == nil {
		return nil
	}
	switch {
	case a.BasicAuth != nil:
		return auth.BasicAuth{Username: a.BasicAuth.Username, Password: a.BasicAuth.Password}
	case a.BearerAuth != nil:
		return auth.BearerAuth{Token: a.BearerAuth.Token}
	case a.HeaderAuth != nil:
		return auth.HeaderAuth{Headers: a.HeaderAuth.Headers}
	default:
		return nil
	}
}

func (a *AuthConfig) redacted() *AuthConfig {
	out := &AuthConfig{}
	if a.BasicAuth != nil {
		out.BasicAuth = &BasicAuth{Username: a.BasicAuth.Username, Password: redactedValue}
	}
	if a.BearerAuth != nil {
		out.BearerAuth = &BearerAuth{Token: redactedValue}
	}
	if a.HeaderAuth != nil {
		headers := make(map[string]string, len(a.HeaderAuth.Headers))
		for k := range a.HeaderAuth.Headers {
			headers[k] = redactedValue
		}
		out.HeaderAuth = &HeaderAuth{Headers: headers}
	}
	return out
}
