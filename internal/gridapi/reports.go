package gridapi

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// ReportFilter narrows ListReports.
type ReportFilter struct {
	ListOptions
	Kind       types.ReportKind
	Status     types.ReportStatus
	BuildingID string
}

func (f ReportFilter) query() url.Values {
	q := url.Values{}
	f.ListOptions.apply(q)
	if f.Kind != "" {
		q.Set("kind", string(f.Kind))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.BuildingID != "" {
		q.Set("building_id", f.BuildingID)
	}
	return q
}

func (c *Client) ListReports(ctx context.Context, f ReportFilter) ([]types.Report, types.ListMeta, error) {
	return list[types.Report](ctx, c, "/api/v2/reports", f.query())
}

func (c *Client) GetReport(ctx context.Context, id string) (*types.Report, error) {
	var r types.Report
	if err := c.get(ctx, "/api/v2/reports/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GenerateReport queues generation and returns the job to poll. The job's
// ResourceID is the report that will transition to ready.
func (c *Client) GenerateReport(ctx context.Context, req types.ReportRequest) (*types.Job, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var j types.Job
	if err := c.post(ctx, "/api/v2/reports", req, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// DownloadReport streams the rendered document into w and returns the
// server-suggested filename from Content-Disposition, or "" when absent.
func (c *Client) DownloadReport(ctx context.Context, id string, w io.Writer) (string, error) {
	var header http.Header
	err := c.do(ctx, http.MethodGet, "/api/v2/reports/"+url.PathEscape(id)+"/download", nil, nil, nil, callOpts{
		raw:    w,
		header: &header,
	})
	if err != nil {
		return "", err
	}
	return dispositionFilename(header.Get("Content-Disposition")), nil
}

func dispositionFilename(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}
