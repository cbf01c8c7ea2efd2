package gridapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestParseAPIErrorShapes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "nested error object",
			status:   401,
			body:     `{"error":{"code":"invalid_credentials","message":"bad password"}}`,
			wantCode: CodeInvalidCredentials,
			wantMsg:  "bad password",
		},
		{
			name:     "gateway detail",
			status:   404,
			body:     `{"detail":"building not found"}`,
			wantCode: CodeNotFound,
			wantMsg:  "building not found",
		},
		{
			name:     "flat message and code",
			status:   409,
			body:     `{"message":"audit already scheduled","code":"conflict"}`,
			wantCode: CodeConflict,
			wantMsg:  "audit already scheduled",
		},
		{
			name:     "unparseable body falls back to status text",
			status:   502,
			body:     `<html>Bad Gateway</html>`,
			wantCode: CodeInternal,
			wantMsg:  "Bad Gateway",
		},
		{
			name:     "empty body",
			status:   403,
			body:     ``,
			wantCode: CodeForbidden,
			wantMsg:  "Forbidden",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAPIError(tt.status, http.Header{}, []byte(tt.body))
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
			if got.Status != tt.status {
				t.Errorf("Status = %d", got.Status)
			}
		})
	}
}

func TestParseAPIErrorValidationFields(t *testing.T) {
	body := []byte(`{"message":"validation failed","code":"validation_failed","errors":{"buildingCode":["required"],"name":["too long"]}}`)
	got := parseAPIError(422, http.Header{}, body)
	if len(got.Fields) != 2 {
		t.Fatalf("Fields = %v", got.Fields)
	}
	if got.Fields["buildingCode"][0] != "required" {
		t.Errorf("buildingCode messages = %v", got.Fields["buildingCode"])
	}
}

func TestParseAPIErrorRequestID(t *testing.T) {
	h := http.Header{}
	h.Set(headerRequestID, "req-123")
	got := parseAPIError(500, h, nil)
	if got.RequestID != "req-123" {
		t.Errorf("RequestID = %q", got.RequestID)
	}
	if want := "api error 500 (internal_error): Internal Server Error [request req-123]"; got.Error() != want {
		t.Errorf("Error() = %q, want %q", got.Error(), want)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("7"); d != 7*time.Second {
		t.Errorf("delta seconds = %v", d)
	}
	if d := parseRetryAfter("-1"); d != 0 {
		t.Errorf("negative seconds = %v", d)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d < 80*time.Second || d > 90*time.Second {
		t.Errorf("http date = %v", d)
	}
	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(past); d != 0 {
		t.Errorf("past http date = %v", d)
	}
	if d := parseRetryAfter("soon"); d != 0 {
		t.Errorf("garbage = %v", d)
	}
}

func TestErrorClassifiers(t *testing.T) {
	wrap := func(status int) error {
		return fmt.Errorf("list buildings: %w", &APIError{Status: status})
	}
	if !IsAuthError(wrap(401)) {
		t.Error("IsAuthError(401) = false")
	}
	if !IsPermission(wrap(403)) {
		t.Error("IsPermission(403) = false")
	}
	if !IsNotFound(wrap(404)) {
		t.Error("IsNotFound(404) = false")
	}
	if !IsConflict(wrap(409)) {
		t.Error("IsConflict(409) = false")
	}
	if !IsValidation(wrap(422)) {
		t.Error("IsValidation(422) = false")
	}
	if !IsRateLimited(wrap(429)) {
		t.Error("IsRateLimited(429) = false")
	}
	if !IsServer(wrap(503)) {
		t.Error("IsServer(503) = false")
	}
	if IsServer(wrap(404)) || IsAuthError(wrap(500)) {
		t.Error("classifier matched the wrong status")
	}
	if IsNotFound(fmt.Errorf("plain error")) {
		t.Error("classifier matched a non-API error")
	}
}

func TestTemporary(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		if !(&APIError{Status: status}).Temporary() {
			t.Errorf("Temporary(%d) = false", status)
		}
	}
	for _, status := range []int{400, 401, 403, 404, 409, 422} {
		if (&APIError{Status: status}).Temporary() {
			t.Errorf("Temporary(%d) = true", status)
		}
	}
}
