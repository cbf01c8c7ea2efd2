package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// JobsPageModel is the background job monitor.
type JobsPageModel struct {
	table    table.Model
	progress progress.Model
	jobs     []types.Job
	styles   Styles
	width    int
	height   int
}

// NewJobsPageModel creates the jobs page.
func NewJobsPageModel(styles Styles) JobsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 26},
			{Title: "KIND", Width: 18},
			{Title: "STATE", Width: 10},
			{Title: "PROG", Width: 6},
			{Title: "AGE", Width: 6},
			{Title: "MESSAGE", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(TableStyles(styles))

	p := progress.New(progress.WithDefaultGradient())

	return JobsPageModel{
		table:    t,
		progress: p,
		styles:   styles,
	}
}

// UpdateContent replaces the job list.
func (m *JobsPageModel) UpdateContent(jobs []types.Job) {
	m.jobs = jobs

	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, table.Row{
			j.ID,
			string(j.Kind),
			string(j.State),
			progressCell(j),
			ago(j.EnqueuedAt),
			truncate(j.Message, 30),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func progressCell(j types.Job) string {
	if j.Succeeded() {
		return "100%"
	}
	if j.Progress <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", j.Progress)
}

// Selected returns the job under the cursor, nil when the list is empty.
func (m JobsPageModel) Selected() *types.Job {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.jobs) {
		return nil
	}
	return &m.jobs[i]
}

// Running reports whether any listed job is still queued or running.
func (m JobsPageModel) Running() bool {
	for _, j := range m.jobs {
		if !j.Done() {
			return true
		}
	}
	return false
}

// SetSize updates the size.
func (m *JobsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	m.table.SetHeight(h - 8)
	m.progress.Width = w - 8
}

// Update handles table navigation.
func (m JobsPageModel) Update(msg tea.Msg) (JobsPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the page.
func (m JobsPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Background Jobs ") + "\n\n")
	sb.WriteString(m.styles.Content.Render(m.table.View()))
	sb.WriteString("\n")
	sb.WriteString(m.renderSelected())
	sb.WriteString(m.styles.Muted.Render("[r] Refresh"))

	return sb.String()
}

// renderSelected shows a live bar for the cursor row.
func (m JobsPageModel) renderSelected() string {
	j := m.Selected()
	if j == nil {
		return ""
	}

	var sb strings.Builder
	state := JobStateStyle(m.styles, j.State).Render(string(j.State))
	sb.WriteString(state + " " + m.styles.Body.Render(string(j.Kind)+" "+j.ID) + "\n")

	switch {
	case j.Succeeded():
		sb.WriteString(m.progress.ViewAs(1.0) + "\n")
		if j.ResourceID != "" {
			sb.WriteString(m.styles.Muted.Render("Resource "+j.ResourceID) + "\n")
		}
	case j.State == types.JobFailed:
		sb.WriteString(m.styles.Error.Render(j.Error) + "\n")
	case j.Progress > 0:
		sb.WriteString(m.progress.ViewAs(float64(j.Progress)/100) + "\n")
	}
	if j.Message != "" {
		sb.WriteString(m.styles.Muted.Render(j.Message) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
