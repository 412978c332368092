// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownChannel is returned for a channel name that is not configured.
	ErrUnknownChannel = errors.New("unknown notification channel")

	// ErrChannelDisabled is returned when sending through a disabled channel.
	ErrChannelDisabled = errors.New("notification channel is disabled")

	// ErrDispatcherStopped is returned when a dispatch arrives after Stop.
	ErrDispatcherStopped = errors.New("notification dispatcher is stopped")
)

// Error codes for delivery failures.
const (
	ErrorCodeInvalidConfig    = "INVALID_CONFIG"
	ErrorCodeConnectionFailed = "CONNECTION_FAILED"
	ErrorCodeAuthFailed       = "AUTH_FAILED"
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeContentTooLarge  = "CONTENT_TOO_LARGE"
	ErrorCodeServerError      = "SERVER_ERROR"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrorCodeUnknown          = "UNKNOWN"
)

// SendError is a failed delivery attempt with enough detail to decide
// whether it is worth retrying.
type SendError struct {
	Code       string
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *SendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return strings.ToLower(e.Code)
}

func (e *SendError) Unwrap() error { return e.Err }

// Transient reports whether a retry could succeed.
func (e *SendError) Transient() bool {
	return isTransientCode(e.Code)
}

// IsTransient reports whether err is worth retrying. Errors that are not a
// SendError are treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *SendError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return !errors.Is(err, context.Canceled)
}

// transportError wraps an error from http.Client.Do or a dial.
func transportError(err error) *SendError {
	return &SendError{Code: classifyHTTPError(err), Message: err.Error(), Err: err}
}

// statusError builds a SendError for a non-2xx response.
func statusError(channel string, code int, body []byte, retryAfter string) *SendError {
	se := &SendError{
		Code:       classifyHTTPStatusCode(code),
		StatusCode: code,
		Message:    fmt.Sprintf("%s returned HTTP %d: %s", channel, code, strings.TrimSpace(string(body))),
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return se
}

func classifyHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCodeTimeout
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return ErrorCodeTimeout
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "refused") || strings.Contains(errStr, "no such host") {
		return ErrorCodeConnectionFailed
	}
	return ErrorCodeUnknown
}

func classifyHTTPStatusCode(code int) string {
	switch {
	case code == 401 || code == 403:
		return ErrorCodeAuthFailed
	case code == 404:
		return ErrorCodeNotFound
	case code == 429:
		return ErrorCodeRateLimited
	case code == 413:
		return ErrorCodeContentTooLarge
	case code >= 500:
		return ErrorCodeServerError
	default:
		return ErrorCodeUnknown
	}
}

func isTransientCode(code string) bool {
	switch code {
	case ErrorCodeConnectionFailed, ErrorCodeTimeout, ErrorCodeRateLimited, ErrorCodeServerError:
		return true
	default:
		return false
	}
}

// ChannelError is the most recent failed delivery on one channel.
type ChannelError struct {
	ID             string    `json:"id"`
	Channel        string    `json:"channel"`
	NotificationID string    `json:"notificationId"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}
