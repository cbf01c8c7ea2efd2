package types

import "time"

// ReportFormat is the file format of a generated report.
type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
)

// ReportKind selects the report template.
type ReportKind string

const (
	ReportEnergyUsage     ReportKind = "energy_usage"
	ReportComplianceState ReportKind = "compliance_state"
	ReportAuditSummary    ReportKind = "audit_summary"
	ReportPortfolio       ReportKind = "portfolio"
)

// ReportStatus tracks generation progress.
type ReportStatus string

const (
	ReportQueued     ReportStatus = "queued"
	ReportGenerating ReportStatus = "generating"
	ReportReady      ReportStatus = "ready"
	ReportFailed     ReportStatus = "failed"
)

// KnownReportStatus reports whether s is a status the server can return.
func KnownReportStatus(s ReportStatus) bool {
	switch s {
	case ReportQueued, ReportGenerating, ReportReady, ReportFailed:
		return true
	}
	return false
}

// Report is a generated document. Generation is asynchronous: Generate
// returns a Job and the report transitions to ready when it completes.
type Report struct {
	ID          string       `json:"id"`
	Kind        ReportKind   `json:"kind"`
	Title       string       `json:"title"`
	Format      ReportFormat `json:"format"`
	Status      ReportStatus `json:"status"`
	BuildingID  string       `json:"buildingID,omitempty"`
	PeriodStart *time.Time   `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time   `json:"periodEnd,omitempty"`
	DownloadURL string       `json:"downloadURL,omitempty"`
	SizeBytes   int64        `json:"sizeBytes,omitempty"`
	// Summary is a short markdown abstract rendered in previews.
	Summary     string         `json:"summary,omitempty"`
	JobID       string         `json:"jobID,omitempty"`
	RequestedBy string         `json:"requestedBy,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// ReportRequest asks the server to generate a new report.
type ReportRequest struct {
	Kind        ReportKind     `json:"kind" validate:"required,oneof=energy_usage compliance_state audit_summary portfolio"`
	Title       string         `json:"title" validate:"required,max=200"`
	Format      ReportFormat   `json:"format" validate:"required,oneof=pdf csv xlsx"`
	BuildingID  string         `json:"buildingID,omitempty"`
	PeriodStart *time.Time     `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time     `json:"periodEnd,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}
