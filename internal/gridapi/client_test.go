package gridapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testClient builds a client against srv with fast retries and keep-alives
// off so goroutine leak checks stay quiet.
func testClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	cfg := DefaultConfig(srv.URL)
	cfg.MaxRetries = 3
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	hc := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	c, err := New(cfg, append([]Option{WithHTTPClient(hc)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

type fakeTokens struct {
	token       atomic.Value
	refreshes   atomic.Int32
	invalidated atomic.Bool
	refreshErr  error
}

func newFakeTokens(tok string) *fakeTokens {
	f := &fakeTokens{}
	f.token.Store(tok)
	return f
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	return f.token.Load().(string), nil
}

func (f *fakeTokens) ForceRefresh(context.Context) (string, error) {
	f.refreshes.Add(1)
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token.Store("refreshed-token")
	return "refreshed-token", nil
}

func (f *fakeTokens) Invalidate() { f.invalidated.Store(true) }

func TestGetNormalizesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/buildings/b-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get(headerRequestID) == "" {
			t.Errorf("missing request id header")
		}
		if ua := r.Header.Get("User-Agent"); ua != "energygrid-cli" {
			t.Errorf("unexpected user agent %q", ua)
		}
		fmt.Fprint(w, `{
			"id": "b-1",
			"bldg_code": "HQ-01",
			"name": "Headquarters",
			"status": "active",
			"site_eui": 92.4,
			"floor_area_m2": 12500,
			"metadata": {"custom_key": "untouched"},
			"created_at": "2026-01-02T03:04:05Z",
			"updated_at": "2026-01-02T03:04:05Z"
		}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	b, err := c.GetBuilding(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("GetBuilding: %v", err)
	}
	if b.BuildingCode != "HQ-01" {
		t.Errorf("BuildingCode = %q, want HQ-01 (bldg_code rename)", b.BuildingCode)
	}
	if b.SiteEUI != 92.4 {
		t.Errorf("SiteEUI = %v", b.SiteEUI)
	}
	if b.FloorAreaM2 != 12500 {
		t.Errorf("FloorAreaM2 = %v", b.FloorAreaM2)
	}
	if b.Metadata["custom_key"] != "untouched" {
		t.Errorf("opaque metadata was rewritten: %v", b.Metadata)
	}
}

func TestPostDenormalizesRequest(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("request body not json: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"b-9","bldg_code":"WH-02","name":"Warehouse","status":"active"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	b, err := c.CreateBuilding(context.Background(), types.BuildingRequest{
		BuildingCode: "WH-02",
		Name:         "Warehouse",
		Status:       types.BuildingActive,
	})
	if err != nil {
		t.Fatalf("CreateBuilding: %v", err)
	}
	if b.ID != "b-9" {
		t.Errorf("ID = %q", b.ID)
	}
	if _, ok := received["bldg_code"]; !ok {
		t.Errorf("wire body missing bldg_code, got %v", received)
	}
	if _, leaked := received["buildingCode"]; leaked {
		t.Errorf("canonical key leaked onto the wire: %v", received)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":[],"meta":{"page":1,"per_page":20,"total_items":0,"total_pages":1}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, meta, err := c.ListBuildings(context.Background(), BuildingFilter{})
	if err != nil {
		t.Fatalf("ListBuildings after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	if meta.TotalPages != 1 {
		t.Errorf("meta not decoded: %+v", meta)
	}
}

func TestPostNotRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.CreateBuilding(context.Background(), types.BuildingRequest{BuildingCode: "X", Name: "Y"})
	if !IsServer(err) {
		t.Fatalf("want server APIError, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("non-idempotent POST saw %d attempts, want 1", got)
	}
}

func TestRateLimitedPostIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"b-1","bldg_code":"A","name":"A","status":"active"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.CreateBuilding(context.Background(), types.BuildingRequest{BuildingCode: "A", Name: "A"})
	if err != nil {
		t.Fatalf("CreateBuilding after 429: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2 (429 then success)", got)
	}
}

func TestUnauthorizedTriggersSingleRefreshAndReplay(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") == "Bearer stale-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"code":"token_expired","message":"access token expired"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"u-1","email":"ops@example.com","role":"admin","active":true,"2fa_enabled":true}`)
	}))
	defer srv.Close()

	tokens := newFakeTokens("stale-token")
	c := testClient(t, srv, WithTokenSource(tokens))

	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me after refresh: %v", err)
	}
	if !u.TwoFactorEnabled {
		t.Errorf("2fa_enabled rename not applied: %+v", u)
	}
	if got := tokens.refreshes.Load(); got != 1 {
		t.Errorf("refreshes = %d, want 1", got)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
	if tokens.invalidated.Load() {
		t.Errorf("session must not be invalidated after successful refresh")
	}
}

func TestSecondUnauthorizedInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"token_expired","message":"nope"}}`)
	}))
	defer srv.Close()

	tokens := newFakeTokens("stale-token")
	c := testClient(t, srv, WithTokenSource(tokens))

	_, err := c.Me(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("want auth APIError, got %v", err)
	}
	if got := tokens.refreshes.Load(); got != 1 {
		t.Errorf("refreshes = %d, want exactly 1", got)
	}
	if !tokens.invalidated.Load() {
		t.Errorf("second 401 must invalidate the session")
	}
}

func TestRefreshFailureSurfacesSessionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := newFakeTokens("stale-token")
	tokens.refreshErr = errors.New("refresh token revoked")
	c := testClient(t, srv, WithTokenSource(tokens))

	_, err := c.Me(context.Background())
	if err == nil || !errors.Is(err, tokens.refreshErr) {
		t.Fatalf("want wrapped refresh error, got %v", err)
	}
}

func TestValidationErrorFieldsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"validation failed","code":"validation_failed","errors":{"bldg_code":["already exists"]}}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.CreateBuilding(context.Background(), types.BuildingRequest{BuildingCode: "HQ-01", Name: "HQ"})
	if !IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("not an APIError: %v", err)
	}
	if got := apiErr.Fields["buildingCode"]; len(got) != 1 || got[0] != "already exists" {
		t.Errorf("Fields = %v, want canonical buildingCode key", apiErr.Fields)
	}
}

func TestLocalValidationRejectsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.CreateUser(context.Background(), types.UserRequest{Email: "not-an-email", Role: types.RoleViewer})
	if !IsValidation(err) {
		t.Fatalf("want local validation error, got %v", err)
	}
	var apiErr *APIError
	errors.As(err, &apiErr)
	if _, ok := apiErr.Fields["email"]; !ok {
		t.Errorf("Fields = %v, want email entry", apiErr.Fields)
	}
	if calls.Load() != 0 {
		t.Errorf("invalid request must not reach the server")
	}
}

func TestContextCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	// Enough retries that the loop cannot finish before the deadline.
	cfg.MaxRetries = 100
	cfg.RetryBaseDelay = 5 * time.Millisecond
	cfg.RetryMaxDelay = 10 * time.Millisecond
	hc := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	c, err := New(cfg, WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, getErr := c.GetJob(ctx, "j-1")
	if !errors.Is(getErr, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", getErr)
	}
}

type recordedMetric struct {
	method, endpoint string
	status           int
	retries          int
}

type fakeMetrics struct {
	records []recordedMetric
}

func (f *fakeMetrics) Record(method, endpoint string, status int, latency time.Duration, retries int) {
	f.records = append(f.records, recordedMetric{method, endpoint, status, retries})
}

func TestMetricsRecordedOncePerLogicalCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id":"j-1","kind":"data_ingest","state":"succeeded","enqueued_at":"2026-01-02T03:04:05Z"}`)
	}))
	defer srv.Close()

	metrics := &fakeMetrics{}
	c := testClient(t, srv, WithMetrics(metrics))
	if _, err := c.GetJob(context.Background(), "j-1"); err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if len(metrics.records) != 1 {
		t.Fatalf("metrics records = %d, want 1", len(metrics.records))
	}
	rec := metrics.records[0]
	if rec.retries != 1 || rec.status != http.StatusOK || rec.method != http.MethodGet {
		t.Errorf("unexpected record %+v", rec)
	}
}
