package types

import "time"

// JobState is the lifecycle state of a background job. Queued and running
// are transient; the other three are terminal.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// KnownJobState reports whether s is a state the server can return.
func KnownJobState(s JobState) bool {
	switch s {
	case JobQueued, JobRunning, JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobKind names the server-side task a job executes.
type JobKind string

const (
	JobComplianceRun  JobKind = "compliance_run"
	JobReportGenerate JobKind = "report_generate"
	JobAuditSchedule  JobKind = "audit_schedule"
	JobDataIngest     JobKind = "data_ingest"
)

// Job is a server-side background task. Long operations (compliance runs,
// report generation) return a Job immediately; clients poll until Done.
type Job struct {
	ID    string   `json:"id"`
	Kind  JobKind  `json:"kind"`
	State JobState `json:"state"`
	// Progress is 0-100; servers older than v2.3 omit it while running.
	Progress   int            `json:"progress,omitempty"`
	Message    string         `json:"message,omitempty"`
	ResourceID string         `json:"resourceID,omitempty"`
	Error      string         `json:"error,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}

// Done reports whether the job has reached a terminal state.
func (j Job) Done() bool {
	switch j.State {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Succeeded reports terminal success.
func (j Job) Succeeded() bool { return j.State == JobSucceeded }
