package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

var (
	// ErrNoSession means nobody is logged in on this machine.
	ErrNoSession = errors.New("not logged in")
	// ErrSessionExpired means the stored session can no longer be used and
	// the operator has to log in again.
	ErrSessionExpired = errors.New("session expired, log in again")
)

// expiryLeeway refreshes slightly before the exp claim so a token never
// dies mid-request.
const expiryLeeway = 30 * time.Second

// Refresher exchanges a refresh token for a new token pair. Implemented by
// the API client; declared here so auth does not import it.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (types.TokenPair, error)
}

// Manager owns the in-memory session and its on-disk copy. It satisfies the
// client's token source: Token for the steady state, ForceRefresh after a
// 401, Invalidate after a refreshed token was rejected too.
type Manager struct {
	store     *Store
	refresher Refresher

	mu      sync.Mutex
	session *Session

	sf singleflight.Group
}

// NewManager loads any persisted session. A missing session file is fine;
// Token just returns ErrNoSession until someone logs in.
func NewManager(store *Store) *Manager {
	m := &Manager{store: store}
	sess, err := store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logging.AuthError("loading session: %v", err)
		}
		return m
	}
	m.session = sess
	logging.Auth("session loaded for %s (expires %s)", sess.Email, sess.ExpiresAt.Format(time.RFC3339))
	return m
}

// Bind attaches the refresher after construction. The client needs the
// manager as its token source and the manager needs the client to call the
// refresh endpoint, so wiring happens in two phases.
func (m *Manager) Bind(r Refresher) { m.refresher = r }

// sessionClaims is the subset of the access token's payload the CLI reads.
// The signature is the server's to verify; the client only needs expiry and
// identity for display.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func parseClaims(raw string) (sessionClaims, error) {
	var claims sessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return sessionClaims{}, err
	}
	return claims, nil
}

// SetSession installs a new token pair after login or refresh and persists
// it. Identity fields come from the token claims, falling back to the user
// record when the claims are sparse.
func (m *Manager) SetSession(pair types.TokenPair, user *types.User, server string) error {
	sess := &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Server:       server,
	}
	if claims, err := parseClaims(pair.AccessToken); err == nil {
		sess.UserID = claims.Subject
		sess.Email = claims.Email
		sess.Role = claims.Role
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
	} else {
		logging.AuthDebug("access token not a parseable JWT: %v", err)
	}
	if sess.ExpiresAt.IsZero() && pair.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second)
	}
	if user != nil {
		if sess.UserID == "" {
			sess.UserID = user.ID
		}
		if sess.Email == "" {
			sess.Email = user.Email
		}
		if sess.Role == "" {
			sess.Role = string(user.Role)
		}
	}

	m.mu.Lock()
	// A refresh response may carry sparser claims than the login did; keep
	// the identity we already know.
	if prev := m.session; prev != nil {
		if sess.UserID == "" {
			sess.UserID = prev.UserID
		}
		if sess.Email == "" {
			sess.Email = prev.Email
		}
		if sess.Role == "" {
			sess.Role = prev.Role
		}
	}
	m.session = sess
	m.mu.Unlock()
	return m.store.Save(sess)
}

// Current returns a copy of the active session for display, or ErrNoSession.
func (m *Manager) Current() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

// Token returns a valid access token, refreshing behind the scenes when the
// stored one is within the expiry leeway.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if sess == nil || sess.AccessToken == "" {
		return "", ErrNoSession
	}
	// No parseable expiry: use the token until the server says otherwise.
	if sess.ExpiresAt.IsZero() || time.Now().Add(expiryLeeway).Before(sess.ExpiresAt) {
		return sess.AccessToken, nil
	}
	logging.Auth("access token near expiry, refreshing")
	return m.refresh(ctx)
}

// ForceRefresh discards the current access token and fetches a new pair.
// Concurrent callers share one refresh round trip.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		m.mu.Lock()
		sess := m.session
		m.mu.Unlock()

		if sess == nil || sess.RefreshToken == "" {
			return "", ErrSessionExpired
		}
		if m.refresher == nil {
			return "", fmt.Errorf("auth: refresher not bound")
		}

		pair, err := m.refresher.RefreshToken(ctx, sess.RefreshToken)
		if err != nil {
			logging.AuthError("refresh failed: %v", err)
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		// Servers may rotate the refresh token; keep the old one when the
		// response omits it.
		if pair.RefreshToken == "" {
			pair.RefreshToken = sess.RefreshToken
		}
		if err := m.SetSession(pair, nil, sess.Server); err != nil {
			logging.AuthError("persisting refreshed session: %v", err)
		}
		logging.Auth("session refreshed for %s", sess.Email)
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the session from memory and disk. Called by the client
// when a freshly refreshed token is still rejected.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		logging.AuthError("clearing session: %v", err)
	}
	logging.Auth("session invalidated")
}

// Logout clears the session. Identical to Invalidate but named for the
// intentional path.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return m.store.Clear()
}
