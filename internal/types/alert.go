package types

import "time"

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// severityRank backs AlertSeverity ordering; unknown severities sort last.
var severityRank = map[AlertSeverity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// Rank returns the sort position of s, lower is more urgent.
func (s AlertSeverity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// KnownAlertSeverity reports whether s is a severity the server can return.
func KnownAlertSeverity(s AlertSeverity) bool {
	_, ok := severityRank[s]
	return ok
}

// AlertStatus is the triage state of an alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "open"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// KnownAlertStatus reports whether s is a status the server can return.
func KnownAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertOpen, AlertAcknowledged, AlertResolved:
		return true
	}
	return false
}

// Alert is raised by server-side monitoring rules against a building or a
// specific piece of equipment.
type Alert struct {
	ID          string        `json:"id"`
	BuildingID  string        `json:"buildingID"`
	EquipmentID string        `json:"equipmentID,omitempty"`
	Severity    AlertSeverity `json:"severity"`
	Status      AlertStatus   `json:"status"`
	RuleCode    string        `json:"ruleCode"`
	Message     string        `json:"message"`
	// ResponseSLAMinutes is the contractual acknowledgement window for
	// this alert's severity tier.
	ResponseSLAMinutes int            `json:"responseSLAMinutes,omitempty"`
	AcknowledgedBy     string         `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt     *time.Time     `json:"acknowledgedAt,omitempty"`
	ResolvedBy         string         `json:"resolvedBy,omitempty"`
	ResolvedAt         *time.Time     `json:"resolvedAt,omitempty"`
	ResolutionNote     string         `json:"resolutionNote,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Overdue reports whether an open alert has exceeded its response SLA at
// the given instant.
func (a Alert) Overdue(now time.Time) bool {
	if a.Status != AlertOpen || a.ResponseSLAMinutes <= 0 {
		return false
	}
	return now.Sub(a.CreatedAt) > time.Duration(a.ResponseSLAMinutes)*time.Minute
}
