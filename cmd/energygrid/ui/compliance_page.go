package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// CompliancePageModel is the compliance check screen.
type CompliancePageModel struct {
	table  table.Model
	checks []types.ComplianceCheck
	styles Styles
	width  int
	height int
}

// NewCompliancePageModel creates the compliance page.
func NewCompliancePageModel(styles Styles) CompliancePageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "RESULT", Width: 16},
			{Title: "STANDARD", Width: 18},
			{Title: "BUILDING", Width: 14},
			{Title: "REQUIREMENT", Width: 40},
			{Title: "LAST RUN", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(TableStyles(styles))

	return CompliancePageModel{
		table:  t,
		styles: styles,
	}
}

// UpdateContent replaces the check list.
func (m *CompliancePageModel) UpdateContent(checks []types.ComplianceCheck) {
	m.checks = checks

	rows := make([]table.Row, 0, len(checks))
	for _, c := range checks {
		lastRun := "-"
		if c.LastRunAt != nil {
			lastRun = ago(*c.LastRunAt)
		}
		rows = append(rows, table.Row{
			string(c.Result),
			string(c.Standard),
			c.BuildingID,
			truncate(c.Requirement, 40),
			lastRun,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the check under the cursor, nil when the list is empty.
func (m CompliancePageModel) Selected() *types.ComplianceCheck {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.checks) {
		return nil
	}
	return &m.checks[i]
}

// SetSize updates the size.
func (m *CompliancePageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	m.table.SetHeight(h - 8)
}

// Update handles table navigation.
func (m CompliancePageModel) Update(msg tea.Msg) (CompliancePageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the page.
func (m CompliancePageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Compliance ") + "\n\n")
	sb.WriteString(m.renderCounts() + "\n")
	sb.WriteString(m.styles.Content.Render(m.table.View()))
	sb.WriteString("\n")
	sb.WriteString(m.renderSelected())
	sb.WriteString(m.styles.Muted.Render("[Enter] Run check  [r] Refresh"))

	return sb.String()
}

func (m CompliancePageModel) renderCounts() string {
	var passed, failed, pending, evidence int
	for _, c := range m.checks {
		switch c.Result {
		case types.CheckPassed:
			passed++
		case types.CheckFailed:
			failed++
		case types.CheckNeedsEvidence:
			evidence++
		default:
			pending++
		}
	}
	parts := []string{
		m.styles.Success.Render(fmt.Sprintf("%d passed", passed)),
		m.styles.Error.Render(fmt.Sprintf("%d failed", failed)),
		m.styles.Warning.Render(fmt.Sprintf("%d need evidence", evidence)),
		m.styles.Muted.Render(fmt.Sprintf("%d pending", pending)),
	}
	return strings.Join(parts, m.styles.Muted.Render("  |  "))
}

// renderSelected shows the details text for the cursor row.
func (m CompliancePageModel) renderSelected() string {
	c := m.Selected()
	if c == nil {
		return ""
	}

	var sb strings.Builder
	result := ResultStyle(m.styles, c.Result).Render(string(c.Result))
	sb.WriteString(result + " " + m.styles.Body.Render(c.Requirement) + "\n")

	if c.Details != "" {
		sb.WriteString(m.styles.Muted.Render(truncate(c.Details, 100)) + "\n")
	}
	if c.DueAt != nil {
		sb.WriteString(m.styles.Muted.Render("Due " + c.DueAt.Local().Format("2006-01-02")) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
