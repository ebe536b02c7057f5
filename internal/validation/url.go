// Package validation checks URLs before they are requested or handed to an
// external program.
package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultMaxLength = 2048

var (
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrUnsupported    = errors.New("URL must use http or https protocol")
	ErrLocalAddress   = errors.New("local and private addresses are not permitted")
	ErrSuspiciousHost = errors.New("suspicious hostname")
)

// URLValidator checks API endpoints and article links.
type URLValidator struct {
	// AllowLocal permits localhost, loopback and private network hosts.
	AllowLocal bool
	MaxLength  int
}

// NewURLValidator is strict. Links from articles should always point at
// public hosts.
func NewURLValidator() *URLValidator {
	return &URLValidator{MaxLength: defaultMaxLength}
}

// NewPermissiveURLValidator also accepts local hosts, for an API base URL
// that points at a mock or a proxy.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{AllowLocal: true, MaxLength: defaultMaxLength}
}

// ValidateAndNormalize validates a URL typed by a user. A missing scheme
// defaults to https.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input != "" && !strings.Contains(input, "://") {
		input = "https://" + input
	}
	return v.validate(input)
}

// ValidateLink validates a link taken from an article. It never guesses a
// scheme.
func (v *URLValidator) ValidateLink(input string) (string, error) {
	return v.validate(strings.TrimSpace(input))
}

func (v *URLValidator) validate(input string) (string, error) {
	if input == "" {
		return "", ErrEmptyURL
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` \t\n") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupported
	}
	if u.User != nil {
		return "", fmt.Errorf("URL must not carry credentials")
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.checkHost(host); err != nil {
		return "", err
	}
	if strings.Contains(u.RawQuery, "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}

	return u.String(), nil
}

func (v *URLValidator) checkHost(host string) error {
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	switch host {
	case "0.0.0.0", "255.255.255.255", "localhost.com":
		return fmt.Errorf("%w: %s", ErrSuspiciousHost, host)
	}

	if v.AllowLocal {
		return nil
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return ErrLocalAddress
	}
	if ip := net.ParseIP(host); ip != nil && isLocalIP(ip) {
		return ErrLocalAddress
	}
	return nil
}

func isLocalIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
