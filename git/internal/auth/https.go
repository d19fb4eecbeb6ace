// Package auth resolves go-git credentials for remote URLs.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenUsername is the username paired with an access token. GitHub accepts
// any non-empty username for token auth; this one matches its documentation.
const TokenUsername = "x-access-token"

// HTTPSAuthProvider provides token authentication for HTTPS remotes.
// It wraps go-git's http.BasicAuth with host pattern matching.
type HTTPSAuthProvider struct {
	// The underlying go-git auth method
	auth *http.BasicAuth

	// AllowedHosts restricts authentication to specific host patterns.
	// If empty, authentication is allowed for all HTTPS URLs.
	// Supports glob patterns like "*.github.com" or "gitlab.*".
	AllowedHosts []string
}

// NewHTTPSTokenProvider creates an HTTPS provider for token authentication.
// The token is sent as the password of a basic auth pair.
func NewHTTPSTokenProvider(token string) *HTTPSAuthProvider {
	return &HTTPSAuthProvider{
		auth: &http.BasicAuth{
			Username: TokenUsername,
			Password: token,
		},
	}
}

// WithAllowedHosts sets the allowed hosts for this provider.
// Only URLs matching these patterns will be authenticated.
func (p *HTTPSAuthProvider) WithAllowedHosts(hosts ...string) *HTTPSAuthProvider {
	p.AllowedHosts = hosts
	return p
}

// Method returns the authentication method for the given remote URL.
// Local remotes (file:// URLs and plain paths) need no credentials and yield nil.
// Returns nil if the URL doesn't match allowed patterns.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *HTTPSAuthProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	parsedURL, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "https":
	case "", "file":
		return nil, nil
	default:
		return nil, fmt.Errorf("HTTPS auth provider only supports https:// URLs, got %s", parsedURL.Scheme)
	}

	// Check host restrictions if configured
	if len(p.AllowedHosts) > 0 && !p.isHostAllowed(parsedURL.Hostname()) {
		return nil, nil // No auth for restricted hosts
	}

	return p.auth, nil
}

// isHostAllowed checks if the given host matches any of the allowed host patterns.
func (p *HTTPSAuthProvider) isHostAllowed(host string) bool {
	for _, pattern := range p.AllowedHosts {
		if matchesPattern(host, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a host matches a pattern with "*" wildcards.
func matchesPattern(host, pattern string) bool {
	if host == pattern {
		return true
	}

	// Only support patterns with exactly one "*"
	if strings.Count(pattern, "*") != 1 {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suffix) || host == suffix
	}

	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(host, prefix+".")
	}

	return false
}
