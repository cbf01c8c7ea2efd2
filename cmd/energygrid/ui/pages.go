package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// TableStyles adapts the theme to the bubbles table component.
func TableStyles(s Styles) table.Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(s.Theme.Border).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(s.Theme.Background).
		Background(s.Theme.Primary).
		Bold(false)
	return ts
}

// SeverityStyle picks the status style for an alert severity.
func SeverityStyle(s Styles, sev types.AlertSeverity) lipgloss.Style {
	switch sev {
	case types.SeverityCritical:
		return s.Error
	case types.SeverityWarning:
		return s.Warning
	default:
		return s.Info
	}
}

// ResultStyle picks the status style for a compliance check result.
func ResultStyle(s Styles, r types.CheckResult) lipgloss.Style {
	switch r {
	case types.CheckPassed:
		return s.Success
	case types.CheckFailed:
		return s.Error
	case types.CheckNeedsEvidence:
		return s.Warning
	default:
		return s.Muted
	}
}

// JobStateStyle picks the status style for a job state.
func JobStateStyle(s Styles, st types.JobState) lipgloss.Style {
	switch st {
	case types.JobSucceeded:
		return s.Success
	case types.JobFailed:
		return s.Error
	case types.JobRunning:
		return s.Info
	case types.JobCancelled:
		return s.Warning
	default:
		return s.Muted
	}
}

func truncate(s string, l int) string {
	if len(s) > l {
		return s[:l-3] + "..."
	}
	return s
}

// ago renders a compact age like "4m" or "2d" for table cells.
func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
