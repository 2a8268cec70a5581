// Package auth applies credentials to outgoing requests against the content
// host and the tenant platform.
package auth

import (
	"net/http"
	"strings"
)

// Authenticator applies credentials to an HTTP request.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type names the kind of credentials an Authenticator carries.
type Type string

// Authentication types.
const (
	BasicAuthType     Type = "basic"
	HeaderAuthType    Type = "header"
	BearerAuthType    Type = "bearer"
	ForwardedAuthType Type = "forwarded"
	ChainAuthType     Type = "chain"
)

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Apply sets the Basic Authorization header.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b BasicAuth) Type() Type { return BasicAuthType }

// HeaderAuth sets a fixed header set, e.g. the headers produced by the
// credential resolver for a repository.
type HeaderAuth struct {
	Headers map[string]string
}

// Apply sets every configured header on req.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderAuthType.
func (h HeaderAuth) Type() Type { return HeaderAuthType }

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Apply sets "Authorization: Bearer <token>".
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() Type { return BearerAuthType }

// ForwardedAuth replays the Authorization header of an incoming request, so
// that platform calls run with the caller's identity.
type ForwardedAuth struct {
	Authorization string
}

// Apply copies the forwarded Authorization value when one is present.
func (f ForwardedAuth) Apply(req *http.Request) error {
	if f.Authorization != "" {
		req.Header.Set("Authorization", f.Authorization)
	}
	return nil
}

// Type returns ForwardedAuthType.
func (f ForwardedAuth) Type() Type { return ForwardedAuthType }

// FromRequest returns the caller identity of an incoming request, or nil when
// the request carries no Authorization header.
func FromRequest(r *http.Request) Authenticator {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if value == "" {
		return nil
	}
	return ForwardedAuth{Authorization: value}
}

// Chain applies several authenticators in order. Later entries win on
// conflicting headers.
type Chain []Authenticator

// Apply runs every non-nil authenticator of the chain.
func (c Chain) Apply(req *http.Request) error {
	for _, a := range c {
		if a == nil {
			continue
		}
		if err := a.Apply(req); err != nil {
			return err
		}
	}
	return nil
}

// Type returns ChainAuthType.
func (c Chain) Type() Type { return ChainAuthType }

// Apply applies a to req if a is not nil.
func Apply(a Authenticator, req *http.Request) error {
	if a == nil {
		return nil
	}
	return a.Apply(req)
}
