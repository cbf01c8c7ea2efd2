package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// AlertsPageModel is the alert triage screen.
type AlertsPageModel struct {
	table  table.Model
	alerts []types.Alert
	styles Styles
	width  int
	height int
}

// NewAlertsPageModel creates the alerts page.
func NewAlertsPageModel(styles Styles) AlertsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "SEV", Width: 10},
			{Title: "STATUS", Width: 12},
			{Title: "BUILDING", Width: 14},
			{Title: "MESSAGE", Width: 44},
			{Title: "AGE", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(TableStyles(styles))

	return AlertsPageModel{
		table:  t,
		styles: styles,
	}
}

// UpdateContent replaces the alert list.
func (m *AlertsPageModel) UpdateContent(alerts []types.Alert) {
	m.alerts = alerts
	now := time.Now()

	rows := make([]table.Row, 0, len(alerts))
	for _, a := range alerts {
		sev := string(a.Severity)
		if a.Overdue(now) {
			sev += " !"
		}
		rows = append(rows, table.Row{
			sev,
			string(a.Status),
			a.BuildingID,
			truncate(a.Message, 44),
			ago(a.CreatedAt),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the alert under the cursor, nil when the list is empty.
func (m AlertsPageModel) Selected() *types.Alert {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.alerts) {
		return nil
	}
	return &m.alerts[i]
}

// SetSize updates the size.
func (m *AlertsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	m.table.SetHeight(h - 8)
}

// Update handles table navigation.
func (m AlertsPageModel) Update(msg tea.Msg) (AlertsPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the page.
func (m AlertsPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Alerts ") + "\n\n")
	sb.WriteString(m.renderCounts() + "\n")
	sb.WriteString(m.styles.Content.Render(m.table.View()))
	sb.WriteString("\n")
	sb.WriteString(m.renderSelected())
	sb.WriteString(m.styles.Muted.Render("[a] Acknowledge  [x] Resolve  [r] Refresh"))

	return sb.String()
}

// renderCounts summarizes the list by severity.
func (m AlertsPageModel) renderCounts() string {
	var critical, warning, info int
	for _, a := range m.alerts {
		switch a.Severity {
		case types.SeverityCritical:
			critical++
		case types.SeverityWarning:
			warning++
		default:
			info++
		}
	}
	parts := []string{
		m.styles.Error.Render(fmt.Sprintf("%d critical", critical)),
		m.styles.Warning.Render(fmt.Sprintf("%d warning", warning)),
		m.styles.Info.Render(fmt.Sprintf("%d info", info)),
	}
	return strings.Join(parts, m.styles.Muted.Render("  |  "))
}

// renderSelected shows the full message and SLA state for the cursor row.
func (m AlertsPageModel) renderSelected() string {
	a := m.Selected()
	if a == nil {
		return ""
	}

	var sb strings.Builder
	sev := SeverityStyle(m.styles, a.Severity).Render(string(a.Severity))
	sb.WriteString(sev + " " + m.styles.Body.Render(a.Message) + "\n")

	if a.Overdue(time.Now()) {
		sb.WriteString(m.styles.Badge.Render("SLA OVERDUE"))
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  response due within %dm", a.ResponseSLAMinutes)))
		sb.WriteString("\n")
	}
	if a.AcknowledgedBy != "" {
		sb.WriteString(m.styles.Muted.Render("Acknowledged by " + a.AcknowledgedBy) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
