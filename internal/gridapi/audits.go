package gridapi

import (
	"context"
	"net/url"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// AuditFilter narrows ListAudits.
type AuditFilter struct {
	ListOptions
	BuildingID string
	Type       types.AuditType
	Status     types.AuditStatus
}

func (f AuditFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.BuildingID != "" {
		q.Set("building_id", f.BuildingID)
	}
	if f.Type != "" {
		q.Set("audit_type", string(f.Type))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

func (c *Client) ListAudits(ctx context.Context, f AuditFilter) ([]types.Audit, types.ListMeta, error) {
	return list[types.Audit](ctx, c, "/api/v2/audits", f.query())
}

func (c *Client) GetAudit(ctx context.Context, id string) (*types.Audit, error) {
	var a types.Audit
	if err := c.get(ctx, "/api/v2/audits/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAudit(ctx context.Context, req types.AuditRequest) (*types.Audit, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var a types.Audit
	if err := c.post(ctx, "/api/v2/audits", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateAudit(ctx context.Context, id string, req types.AuditRequest) (*types.Audit, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var a types.Audit
	if err := c.put(ctx, "/api/v2/audits/"+url.PathEscape(id), req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ScheduleAudit kicks off server-side scheduling (auditor assignment,
// calendar invites). The returned job resolves to the updated audit.
func (c *Client) ScheduleAudit(ctx context.Context, id string) (*types.Job, error) {
	var j types.Job
	if err := c.post(ctx, "/api/v2/audits/"+url.PathEscape(id)+"/schedule", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
