package middleware

import (
	"net"
	"net/url"
	"strings"

	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

// Input validation and sanitization utilities

// ValidateRequired rejects an absent or blank required body field.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return analysis.Errorf(analysis.KindInvalidInput, "validate", "%s is required", field)
	}
	return nil
}

// ValidateURL accepts only absolute http/https URLs with an explicit scheme and a host.
func ValidateURL(rawURL string) error {
	if err := ValidateRequired("url", rawURL); err != nil {
		return err
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "invalid URL format: %v", err)
	}

	// url.Parse lowercases the scheme; "example.com" parses with an empty one.
	if u.Scheme != "http" && u.Scheme != "https" {
		return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "invalid URL scheme %q (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" || u.Hostname() == "" {
		return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "URL has no host")
	}

	return nil
}

// ValidatePublicHost blocks loopback and private targets (SSRF protection).
// Only applied when the fetcher is configured to block private hosts.
func ValidatePublicHost(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "invalid URL format: %v", err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "localhost/internal hosts are not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return analysis.Errorf(analysis.KindInvalidURLFormat, "validate", "private IP ranges are not allowed")
		}
	}

	return nil
}

// SanitizeString removes null bytes and control characters, keeping the
// line breaks and tabs an RFC 5322 message needs.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates the 1-based page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
