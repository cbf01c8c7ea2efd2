package gridapi

import (
	"context"
	"net/url"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// EquipmentFilter narrows ListEquipment.
type EquipmentFilter struct {
	ListOptions
	BuildingID string
	Category   types.EquipmentCategory
	Status     types.MaintenanceStatus
}

func (f EquipmentFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.BuildingID != "" {
		q.Set("building_id", f.BuildingID)
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Status != "" {
		q.Set("maintenance_status", string(f.Status))
	}
	return q
}

func (c *Client) ListEquipment(ctx context.Context, f EquipmentFilter) ([]types.Equipment, types.ListMeta, error) {
	return list[types.Equipment](ctx, c, "/api/v2/equipment", f.query())
}

func (c *Client) GetEquipment(ctx context.Context, id string) (*types.Equipment, error) {
	var e types.Equipment
	if err := c.get(ctx, "/api/v2/equipment/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) CreateEquipment(ctx context.Context, req types.EquipmentRequest) (*types.Equipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var e types.Equipment
	if err := c.post(ctx, "/api/v2/equipment", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) UpdateEquipment(ctx context.Context, id string, req types.EquipmentRequest) (*types.Equipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var e types.Equipment
	if err := c.put(ctx, "/api/v2/equipment/"+url.PathEscape(id), req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) DeleteEquipment(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v2/equipment/"+url.PathEscape(id))
}
