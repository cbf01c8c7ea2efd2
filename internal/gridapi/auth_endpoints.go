package gridapi

import (
	"context"
	"net/http"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// LoginResult is the server's answer to a successful credential check.
type LoginResult struct {
	types.TokenPair
	User types.User `json:"user"`
}

// Login exchanges credentials for a token pair. Runs without a bearer
// token; a 401 here means bad credentials, never a refresh trigger.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*LoginResult, error) {
	if err := validateRequest(creds); err != nil {
		return nil, err
	}
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/v2/auth/login", nil, creds, &res, callOpts{skipAuth: true})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken trades a refresh token for a fresh pair. Used by the session
// manager; most callers never touch it directly.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (types.TokenPair, error) {
	var pair types.TokenPair
	body := refreshRequest{RefreshToken: refreshToken}
	err := c.do(ctx, http.MethodPost, "/api/v2/auth/refresh", nil, body, &pair, callOpts{skipAuth: true})
	return pair, err
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var u types.User
	if err := c.get(ctx, "/api/v2/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout revokes the session server-side. Best effort: callers drop local
// state regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v2/auth/logout", nil, nil, nil, callOpts{idempotent: true})
}
