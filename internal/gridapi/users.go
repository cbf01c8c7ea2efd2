package gridapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// UserFilter narrows ListUsers.
type UserFilter struct {
	ListOptions
	Role   types.UserRole
	Active *bool
	Search string
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.Role != "" {
		q.Set("role", string(f.Role))
	}
	if f.Active != nil {
		if *f.Active {
			q.Set("active", "true")
		} else {
			q.Set("active", "false")
		}
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

func (c *Client) ListUsers(ctx context.Context, f UserFilter) ([]types.User, types.ListMeta, error) {
	return list[types.User](ctx, c, "/api/v2/users", f.query())
}

func (c *Client) GetUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	if err := c.get(ctx, "/api/v2/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateUser(ctx context.Context, req types.UserRequest) (*types.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var u types.User
	if err := c.post(ctx, "/api/v2/users", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req types.UserRequest) (*types.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var u types.User
	if err := c.put(ctx, "/api/v2/users/"+url.PathEscape(id), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeactivateUser disables sign-in without deleting history. Repeatable.
func (c *Client) DeactivateUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/api/v2/users/"+url.PathEscape(id)+"/deactivate", nil, nil, &u, callOpts{idempotent: true})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
