package types

import "time"

// AuditType distinguishes scheduled audit kinds.
type AuditType string

const (
	AuditEnergy     AuditType = "energy"
	AuditSafety     AuditType = "safety"
	AuditCompliance AuditType = "compliance"
	AuditRetrofit   AuditType = "retrofit"
)

// AuditStatus is the workflow state of an audit.
type AuditStatus string

const (
	AuditDraft      AuditStatus = "draft"
	AuditScheduled  AuditStatus = "scheduled"
	AuditInProgress AuditStatus = "in_progress"
	AuditCompleted  AuditStatus = "completed"
	AuditCancelled  AuditStatus = "cancelled"
)

// KnownAuditStatus reports whether s is a status the server can return.
func KnownAuditStatus(s AuditStatus) bool {
	switch s {
	case AuditDraft, AuditScheduled, AuditInProgress, AuditCompleted, AuditCancelled:
		return true
	}
	return false
}

// Audit is a site inspection tracked through its workflow states.
type Audit struct {
	ID          string      `json:"id"`
	BuildingID  string      `json:"buildingID"`
	AuditType   AuditType   `json:"auditType"`
	Status      AuditStatus `json:"status"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	AuditorID   string      `json:"auditorID,omitempty"`
	ScheduledAt *time.Time  `json:"scheduledAt,omitempty"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	// Score is set by the auditor on completion, 0-100.
	Score        float64        `json:"score,omitempty"`
	FindingCount int            `json:"findingCount,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// AuditRequest is the mutable subset accepted by create and update.
type AuditRequest struct {
	BuildingID  string     `json:"buildingID" validate:"required"`
	AuditType   AuditType  `json:"auditType" validate:"required,oneof=energy safety compliance retrofit"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty"`
	AuditorID   string     `json:"auditorID,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}
