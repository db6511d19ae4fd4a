// Package validation checks command-line input before any request is sent
// to Entra ID, Exchange Online or Microsoft Graph.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateEmail checks that email has a non-empty local part and domain
// separated by a single @. Whitespace and control characters are rejected
// so an address cannot smuggle extra header lines into a Graph message.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if strings.IndexFunc(email, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("invalid email format: %q (contains whitespace)", email)
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return fmt.Errorf("invalid email format: %s (missing @)", email)
	}
	if local == "" || domain == "" || strings.Contains(domain, "@") {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateEmails validates every address in emails. fieldName prefixes the
// error.
func ValidateEmails(emails []string, fieldName string) error {
	for _, email := range emails {
		if err := ValidateEmail(email); err != nil {
			return fmt.Errorf("%s contains invalid email: %w", fieldName, err)
		}
	}
	return nil
}

// NormalizeAddress trims whitespace and one pair of surrounding angle
// brackets from an address, validates it and returns the bare address.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("address cannot be empty")
	}
	if strings.HasPrefix(address, "<") && strings.HasSuffix(address, ">") {
		address = strings.TrimSpace(address[1 : len(address)-1])
	}
	if err := ValidateEmail(address); err != nil {
		return "", err
	}
	return address, nil
}

// ValidateGUID checks that guid is a hyphenated GUID such as a tenant or
// application (client) ID.
func ValidateGUID(guid, fieldName string) error {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	// uuid.Parse also accepts braced and urn: forms, Entra IDs never use them.
	if len(guid) != 36 {
		return fmt.Errorf("%s should be a GUID (36 characters, format: 12345678-1234-1234-1234-123456789012)", fieldName)
	}
	if _, err := uuid.Parse(guid); err != nil {
		return fmt.Errorf("%s is not a valid GUID: %w", fieldName, err)
	}
	return nil
}

// ValidateFilePath checks that path names an existing regular file.
// Relative paths may not climb out of the working directory. An empty path
// is accepted for optional flags.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return nil
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(path) && strings.Contains(cleanPath, "..") {
		return fmt.Errorf("%s: path contains directory traversal (..) which is not allowed", fieldName)
	}

	info, err := os.Stat(cleanPath)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s: file not found: %s", fieldName, path)
	case os.IsPermission(err):
		return fmt.Errorf("%s: permission denied: %s", fieldName, path)
	case err != nil:
		return fmt.Errorf("%s: cannot access file: %w", fieldName, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file (is it a directory?): %s", fieldName, path)
	}
	return nil
}

// ValidateProxyURL validates an optional HTTP, HTTPS or SOCKS5 proxy URL.
// An empty string is accepted.
func ValidateProxyURL(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL format: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("unsupported proxy scheme %q (must be http, https or socks5)", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("proxy URL must include hostname")
	}
	if err := validateHost(host); err != nil {
		return fmt.Errorf("invalid proxy hostname: %w", err)
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid proxy port %q (must be 1-65535)", portStr)
		}
	}

	if u.User != nil && u.User.Username() == "" {
		return fmt.Errorf("proxy URL has credentials with an empty username")
	}
	return nil
}

// validateHost accepts IP literals and DNS names.
func validateHost(host string) error {
	if net.ParseIP(host) != nil {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("hostname too long (max 253 characters)")
	}
	for _, ch := range host {
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '.' || ch == '-') {
			return fmt.Errorf("hostname contains invalid character: %c", ch)
		}
	}
	if strings.HasPrefix(host, "-") || strings.HasSuffix(host, "-") ||
		strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return fmt.Errorf("hostname cannot start or end with hyphen or dot")
	}
	return nil
}
