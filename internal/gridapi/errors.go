package gridapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error codes the server is known to emit. Unrecognized codes pass through
// verbatim; these constants exist so callers can switch without typos.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeTokenExpired       = "token_expired"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeValidationFailed   = "validation_failed"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

// APIError is a non-2xx response decoded into a usable error. It survives
// errors.As through wrapping, so callers classify with the Is* helpers
// rather than string matching.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	// RetryAfter is only set on 429/503 responses that carried the header.
	RetryAfter time.Duration
	// Fields holds per-field validation messages from 422 responses,
	// keyed by canonical field name.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request %s]", e.RequestID)
	}
	return b.String()
}

// Temporary reports whether retrying the same request later could succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusServiceUnavailable ||
		e.Status >= 500
}

func IsAuthError(err error) bool   { return hasStatus(err, http.StatusUnauthorized) }
func IsPermission(err error) bool  { return hasStatus(err, http.StatusForbidden) }
func IsNotFound(err error) bool    { return hasStatus(err, http.StatusNotFound) }
func IsConflict(err error) bool    { return hasStatus(err, http.StatusConflict) }
func IsValidation(err error) bool  { return hasStatus(err, http.StatusUnprocessableEntity) }
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// IsServer reports a 5xx response.
func IsServer(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorBody matches the union of the server's three error shapes after key
// normalization. Older endpoints nest under "error", the gateway emits a
// bare "detail", and validation failures use message plus a field map.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail  string              `json:"detail"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
}

// parseAPIError builds an APIError from a normalized response body. It
// never fails: an unparseable body falls back to the HTTP status text.
func parseAPIError(status int, header http.Header, body []byte) *APIError {
	apiErr := &APIError{
		Status:    status,
		RequestID: header.Get(headerRequestID),
	}
	if ra := parseRetryAfter(header.Get("Retry-After")); ra > 0 {
		apiErr.RetryAfter = ra
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Error != nil && eb.Error.Message != "":
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
		case eb.Detail != "":
			apiErr.Message = eb.Detail
		case eb.Message != "":
			apiErr.Code = eb.Code
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Code == "" {
		apiErr.Code = defaultCode(status)
	}
	return apiErr
}

func defaultCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CodeTokenExpired
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		if status >= 500 {
			return CodeInternal
		}
		return ""
	}
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
