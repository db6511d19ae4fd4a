// Package security masks credentials and identifiers before they reach
// verbose output or logs.
package security

import "strings"

const mask = "****"

// keepPrefix returns the first n bytes of s followed by the mask. Values of
// n bytes or fewer are fully masked.
func keepPrefix(s string, n int) string {
	if len(s) <= n {
		return mask
	}
	return s[:n] + mask
}

// MaskAccessToken keeps the first 8 and last 4 characters of a bearer
// token. Tokens of 16 characters or fewer are split in half.
func MaskAccessToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 16 {
		return token[:len(token)/2] + "..." + token[len(token)/2:]
	}
	return token[:8] + "..." + token[len(token)-4:]
}

// MaskSecret keeps the first 4 characters of a client secret or PFX
// password.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return keepPrefix(secret, 4)
}

// MaskGUID keeps the first 8 characters of a tenant or client ID, enough to
// tell two app registrations apart.
func MaskGUID(guid string) string {
	if len(guid) <= 8 {
		return guid + mask
	}
	return guid[:8] + mask
}

// MaskEmail keeps two characters of the local part and of the domain:
// "reports@contoso.com" becomes "re****@co****".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return keepPrefix(email, 2)
	}
	return keepPrefix(local, 2) + "@" + keepPrefix(domain, 2)
}
