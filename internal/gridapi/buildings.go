package gridapi

import (
	"context"
	"net/url"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// BuildingFilter narrows ListBuildings.
type BuildingFilter struct {
	ListOptions
	Search string
	Status types.BuildingStatus
}

func (f BuildingFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

func (c *Client) ListBuildings(ctx context.Context, f BuildingFilter) ([]types.Building, types.ListMeta, error) {
	return list[types.Building](ctx, c, "/api/v2/buildings", f.query())
}

func (c *Client) GetBuilding(ctx context.Context, id string) (*types.Building, error) {
	var b types.Building
	if err := c.get(ctx, "/api/v2/buildings/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CreateBuilding(ctx context.Context, req types.BuildingRequest) (*types.Building, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var b types.Building
	if err := c.post(ctx, "/api/v2/buildings", req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBuilding(ctx context.Context, id string, req types.BuildingRequest) (*types.Building, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var b types.Building
	if err := c.put(ctx, "/api/v2/buildings/"+url.PathEscape(id), req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBuilding(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v2/buildings/"+url.PathEscape(id))
}
