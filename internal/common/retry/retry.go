// Package retry classifies failures as transient or permanent. Nothing in
// msgtracetool retries automatically; the classification only shapes the
// message shown to the operator.
package retry

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// IsRetryableError reports whether err looks transient: network timeouts,
// resets and resolver failures. Context cancellation is never transient.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"try again",
		"i/o timeout",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"connection timed out",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// IsRetryableStatus reports whether an HTTP status from the trace or Graph
// endpoints is worth running again later (throttling or service outage).
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
