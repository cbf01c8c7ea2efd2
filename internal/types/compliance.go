package types

import "time"

// ComplianceStandard names the regulation a check evaluates against.
type ComplianceStandard string

const (
	StandardASHRAE90  ComplianceStandard = "ashrae_90_1"
	StandardISO50001  ComplianceStandard = "iso_50001"
	StandardLocalCode ComplianceStandard = "local_energy_code"
	StandardLEED      ComplianceStandard = "leed"
)

// CheckResult is the outcome of a compliance check run.
type CheckResult string

const (
	CheckPending       CheckResult = "pending"
	CheckPassed        CheckResult = "passed"
	CheckFailed        CheckResult = "failed"
	CheckNeedsEvidence CheckResult = "needs_evidence"
)

// KnownCheckResult reports whether r is a result the server can return.
func KnownCheckResult(r CheckResult) bool {
	switch r {
	case CheckPending, CheckPassed, CheckFailed, CheckNeedsEvidence:
		return true
	}
	return false
}

// ComplianceCheck evaluates one building against one standard requirement.
// Runs execute server-side as background jobs; LastRunJobID links the most
// recent one.
type ComplianceCheck struct {
	ID           string             `json:"id"`
	BuildingID   string             `json:"buildingID"`
	Standard     ComplianceStandard `json:"standard"`
	Requirement  string             `json:"requirement"`
	Result       CheckResult        `json:"result"`
	Details      string             `json:"details,omitempty"`
	EvidenceURL  string             `json:"evidenceURL,omitempty"`
	LastRunJobID string             `json:"lastRunJobID,omitempty"`
	LastRunAt    *time.Time         `json:"lastRunAt,omitempty"`
	DueAt        *time.Time         `json:"dueAt,omitempty"`
	Parameters   map[string]any     `json:"parameters,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ComplianceCheckRequest is the mutable subset accepted by create.
type ComplianceCheckRequest struct {
	BuildingID  string             `json:"buildingID" validate:"required"`
	Standard    ComplianceStandard `json:"standard" validate:"required"`
	Requirement string             `json:"requirement" validate:"required,max=500"`
	DueAt       *time.Time         `json:"dueAt,omitempty"`
	Parameters  map[string]any     `json:"parameters,omitempty"`
}
