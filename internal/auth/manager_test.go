package auth

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

func signedToken(t *testing.T, sub, email, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"role":  role,
		"exp":   exp.Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	pair  types.TokenPair
	err   error
	delay time.Duration
}

func (f *fakeRefresher) RefreshToken(ctx context.Context, refreshToken string) (types.TokenPair, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return types.TokenPair{}, f.err
	}
	return f.pair, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStorePersistence(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Load on empty store = %v, want ErrNoSession", err)
	}

	sess := &Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Email:        "ops@example.com",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(store.Path())
		if err != nil {
			t.Fatalf("stat session file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("session file mode = %o, want 0600", perm)
		}
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "access-1" || loaded.Email != "ops@example.com" {
		t.Errorf("loaded session = %+v", loaded)
	}
	if !loaded.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", loaded.ExpiresAt, sess.ExpiresAt)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load after Clear = %v, want ErrNoSession", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear = %v, want nil", err)
	}
}

func TestSetSessionExtractsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	m := NewManager(NewStore(t.TempDir()))
	pair := types.TokenPair{
		AccessToken:  signedToken(t, "u-1", "ops@example.com", "admin", exp),
		RefreshToken: "refresh-1",
	}
	if err := m.SetSession(pair, nil, "https://grid.example.com"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	sess, err := m.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess.UserID != "u-1" || sess.Email != "ops@example.com" || sess.Role != "admin" {
		t.Errorf("identity from claims = %+v", sess)
	}
	if sess.ExpiresAt.Unix() != exp.Unix() {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, exp)
	}
}

func TestSetSessionOpaqueTokenUsesExpiresIn(t *testing.T) {
	m := NewManager(NewStore(t.TempDir()))
	pair := types.TokenPair{
		AccessToken:  "not-a-jwt",
		RefreshToken: "refresh-1",
		ExpiresIn:    900,
	}
	user := &types.User{ID: "u-2", Email: "aud@example.com", Role: types.RoleAuditor}
	if err := m.SetSession(pair, user, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	sess, _ := m.Current()
	if sess.UserID != "u-2" || sess.Role != "auditor" {
		t.Errorf("user fallback missing: %+v", sess)
	}
	until := time.Until(sess.ExpiresAt)
	if until < 14*time.Minute || until > 16*time.Minute {
		t.Errorf("ExpiresAt from expires_in = %v away", until)
	}
}

func TestTokenValidSkipsRefresh(t *testing.T) {
	m := NewManager(NewStore(t.TempDir()))
	ref := &fakeRefresher{}
	m.Bind(ref)
	pair := types.TokenPair{
		AccessToken:  signedToken(t, "u-1", "a@b.c", "viewer", time.Now().Add(time.Hour)),
		RefreshToken: "refresh-1",
	}
	if err := m.SetSession(pair, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != pair.AccessToken {
		t.Errorf("Token = %q", tok)
	}
	if ref.callCount() != 0 {
		t.Errorf("refresher called %d times for a valid token", ref.callCount())
	}
}

func TestTokenRefreshesNearExpiry(t *testing.T) {
	store := NewStore(t.TempDir())
	m := NewManager(store)
	newAccess := signedToken(t, "u-1", "a@b.c", "viewer", time.Now().Add(time.Hour))
	ref := &fakeRefresher{pair: types.TokenPair{AccessToken: newAccess, RefreshToken: "refresh-2"}}
	m.Bind(ref)

	// Ten seconds out is inside the leeway window.
	stale := types.TokenPair{
		AccessToken:  signedToken(t, "u-1", "a@b.c", "viewer", time.Now().Add(10*time.Second)),
		RefreshToken: "refresh-1",
	}
	if err := m.SetSession(stale, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != newAccess {
		t.Errorf("Token did not refresh a near-expiry session")
	}
	if ref.callCount() != 1 {
		t.Errorf("refresher calls = %d, want 1", ref.callCount())
	}

	// The rotated pair must be on disk.
	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if persisted.RefreshToken != "refresh-2" {
		t.Errorf("persisted refresh token = %q", persisted.RefreshToken)
	}
}

func TestTokenOpaqueNoExpiryUsedAsIs(t *testing.T) {
	m := NewManager(NewStore(t.TempDir()))
	ref := &fakeRefresher{}
	m.Bind(ref)
	if err := m.SetSession(types.TokenPair{AccessToken: "opaque", RefreshToken: "r"}, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "opaque" || ref.callCount() != 0 {
		t.Errorf("token without expiry must be used until rejected (tok=%q calls=%d)", tok, ref.callCount())
	}
}

func TestForceRefreshSharesOneFlight(t *testing.T) {
	m := NewManager(NewStore(t.TempDir()))
	newAccess := signedToken(t, "u-1", "a@b.c", "viewer", time.Now().Add(time.Hour))
	ref := &fakeRefresher{
		pair:  types.TokenPair{AccessToken: newAccess},
		delay: 50 * time.Millisecond,
	}
	m.Bind(ref)
	if err := m.SetSession(types.TokenPair{AccessToken: "old", RefreshToken: "r"}, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = m.ForceRefresh(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if results[i] != newAccess {
			t.Errorf("worker %d token = %q", i, results[i])
		}
	}
	if got := ref.callCount(); got != 1 {
		t.Errorf("refresher calls = %d, want 1 shared flight", got)
	}
}

func TestRefreshFailureWrapsSessionExpired(t *testing.T) {
	m := NewManager(NewStore(t.TempDir()))
	ref := &fakeRefresher{err: errors.New("refresh token revoked")}
	m.Bind(ref)
	if err := m.SetSession(types.TokenPair{AccessToken: "old", RefreshToken: "r"}, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	if _, err := m.ForceRefresh(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("ForceRefresh error = %v, want ErrSessionExpired", err)
	}
}

func TestInvalidateClearsDisk(t *testing.T) {
	store := NewStore(t.TempDir())
	m := NewManager(store)
	if err := m.SetSession(types.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil, ""); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	m.Invalidate()

	if _, err := m.Token(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Token after Invalidate = %v, want ErrNoSession", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("session file survived Invalidate: %v", err)
	}
}

func TestManagerPicksUpPersistedSession(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Save(&Session{
		AccessToken:  signedToken(t, "u-9", "x@y.z", "manager", time.Now().Add(time.Hour)),
		RefreshToken: "r",
		Email:        "x@y.z",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := NewManager(NewStore(dir))
	sess, err := m.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if sess.Email != "x@y.z" {
		t.Errorf("session not loaded: %+v", sess)
	}
}
