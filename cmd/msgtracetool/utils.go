package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/common/retry"
)

// enrichTraceError adds operator guidance to a failed trace query. Nothing
// is retried; the classification only picks the wording.
func enrichTraceError(err error, slogger *slog.Logger) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("message trace cancelled: %w", err)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusTooManyRequests:
			retryAfter := ""
			if respErr.RawResponse != nil {
				retryAfter = respErr.RawResponse.Header.Get("Retry-After")
			}
			logger.LogWarn(slogger, "Exchange admin API throttled the trace query", "retryAfter", retryAfter)

			msg := "message trace throttled by Exchange Online"
			if retryAfter != "" {
				msg += fmt.Sprintf(" (retry after %s seconds)", retryAfter)
			}
			msg += ". Re-run later or lower -ratelimit"
			return fmt.Errorf("%s: %w", msg, err)

		case http.StatusUnauthorized:
			return fmt.Errorf("authentication rejected by the Exchange admin API, check -tenantid, -clientid and the credential: %w", err)

		case http.StatusForbidden:
			return fmt.Errorf("access denied: the app registration needs the Exchange.ManageAsApp permission and an Exchange role that allows Get-MessageTrace: %w", err)
		}

		if retry.IsRetryableStatus(respErr.StatusCode) {
			logger.LogWarn(slogger, "Exchange admin API unavailable", "status", respErr.StatusCode, "code", respErr.ErrorCode)
			return fmt.Errorf("Exchange Online temporarily unavailable (status %d), a later run may succeed: %w", respErr.StatusCode, err)
		}

		logger.LogDebug(slogger, "Exchange admin API error", "status", respErr.StatusCode, "code", respErr.ErrorCode)
		return fmt.Errorf("message trace query failed (status %d): %w", respErr.StatusCode, err)
	}

	if retry.IsRetryableError(err) {
		return fmt.Errorf("transient network error during message trace, a later run may succeed: %w", err)
	}

	return fmt.Errorf("message trace failed: %w", err)
}

// enrichGraphAPIError enriches Graph API errors with additional context,
// particularly for rate limiting scenarios.
func enrichGraphAPIError(err error, slogger *slog.Logger, operation string) error {
	if err == nil {
		return nil
	}

	var odataErr *odataerrors.ODataError
	if !errors.As(err, &odataErr) {
		return err
	}

	errorInfo := odataErr.GetErrorEscaped()
	if errorInfo == nil {
		return err
	}

	code := ""
	message := ""
	if errorInfo.GetCode() != nil {
		code = *errorInfo.GetCode()
	}
	if errorInfo.GetMessage() != nil {
		message = *errorInfo.GetMessage()
	}

	switch code {
	case "TooManyRequests", "activityLimitReached":
		retryAfter := ""
		if headers := odataErr.GetResponseHeaders(); headers != nil {
			if values := headers.Get("Retry-After"); len(values) > 0 {
				retryAfter = values[0]
			}
		}
		logger.LogWarn(slogger, "Graph API rate limit exceeded", "operation", operation, "code", code, "retryAfter", retryAfter)

		msg := fmt.Sprintf("rate limit exceeded during %s", operation)
		if retryAfter != "" {
			msg += fmt.Sprintf(" (retry after %s seconds)", retryAfter)
		}
		return fmt.Errorf("%s: %w", msg, err)

	case "ServiceUnavailable", "GatewayTimeout":
		logger.LogWarn(slogger, "Graph API service error", "operation", operation, "code", code, "message", message)
		return fmt.Errorf("service temporarily unavailable during %s (code: %s): %w", operation, code, err)

	case "Authorization_RequestDenied", "ErrorAccessDenied":
		return fmt.Errorf("access denied during %s, check the Graph application permissions (code: %s): %w", operation, code, err)
	}

	if code != "" {
		logger.LogDebug(slogger, "Graph API error", "operation", operation, "code", code, "message", message)
		return fmt.Errorf("%s failed (code: %s): %w", operation, code, err)
	}
	return err
}
