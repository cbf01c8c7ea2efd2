package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
)

// DashboardPageModel renders the portfolio overview screen.
type DashboardPageModel struct {
	viewport viewport.Model
	data     *gridapi.Dashboard
	styles   Styles
	width    int
	height   int
}

// NewDashboardPageModel creates the dashboard page.
func NewDashboardPageModel(styles Styles) DashboardPageModel {
	vp := viewport.New(80, 20)
	return DashboardPageModel{
		viewport: vp,
		styles:   styles,
	}
}

// SetSize updates the size of the viewport.
func (m *DashboardPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h
	m.rebuild()
}

// UpdateContent replaces the dashboard data and re-renders.
func (m *DashboardPageModel) UpdateContent(d *gridapi.Dashboard) {
	m.data = d
	m.rebuild()
}

func (m *DashboardPageModel) rebuild() {
	if m.data == nil {
		m.viewport.SetContent(m.styles.Muted.Render("Loading dashboard..."))
		return
	}

	var sb strings.Builder
	d := m.data

	if d.Stats != nil {
		sb.WriteString(m.renderStatCards(d))
		sb.WriteString("\n\n")
	} else if d.StatsErr != nil {
		sb.WriteString(m.styles.Warning.Render(fmt.Sprintf("Stats unavailable: %v", d.StatsErr)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.renderAlerts(d))
	sb.WriteString(m.renderAudits(d))
	sb.WriteString(m.renderChecks(d))
	sb.WriteString(m.renderEnergy(d))

	sb.WriteString(m.styles.Subtitle.Render("Fetched " + d.FetchedAt.Format("15:04:05")))
	sb.WriteString("\n")

	m.viewport.SetContent(sb.String())
}

// renderStatCards lays the headline numbers out as a card row.
func (m *DashboardPageModel) renderStatCards(d *gridapi.Dashboard) string {
	s := d.Stats

	alertStyle := m.styles.Success
	if s.CriticalAlerts > 0 {
		alertStyle = m.styles.Error
	} else if s.OpenAlerts > 0 {
		alertStyle = m.styles.Warning
	}

	checkStyle := m.styles.Success
	if s.FailedChecks > 0 {
		checkStyle = m.styles.Error
	}

	cards := []string{
		m.statCard("Buildings", fmt.Sprintf("%d", s.TotalBuildings), m.styles.Bold),
		m.statCard("Open Alerts", fmt.Sprintf("%d (%d crit)", s.OpenAlerts, s.CriticalAlerts), alertStyle),
		m.statCard("Failing Checks", fmt.Sprintf("%d", s.FailedChecks), checkStyle),
		m.statCard("Energy MTD", fmt.Sprintf("%.0f kWh", s.PortfolioKWhMTD), m.styles.Bold),
		m.statCard("CO2 MTD", fmt.Sprintf("%.1f t", s.CO2EmissionsMTD/1000), m.styles.Bold),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *DashboardPageModel) statCard(label, value string, valueStyle lipgloss.Style) string {
	body := m.styles.Muted.Render(label) + "\n" + valueStyle.Render(value)
	return m.styles.Card.Render(body)
}

func (m *DashboardPageModel) renderAlerts(d *gridapi.Dashboard) string {
	if d.AlertsErr != nil {
		return m.styles.Warning.Render(fmt.Sprintf("Alert feed unavailable: %v", d.AlertsErr)) + "\n\n"
	}
	if len(d.Alerts) == 0 {
		return m.styles.Title.Render("Open Alerts") + "\n" + m.styles.Muted.Render("No open alerts.") + "\n\n"
	}

	now := time.Now()
	t := NewSimpleTable("Open Alerts", []string{"SEV", "BUILDING", "MESSAGE", "AGE"})
	for _, a := range d.Alerts {
		sev := string(a.Severity)
		if a.Overdue(now) {
			sev += " !"
		}
		t.AddRow(sev, a.BuildingID, truncate(a.Message, 48), ago(a.CreatedAt))
	}
	return t.View(m.styles)
}

func (m *DashboardPageModel) renderAudits(d *gridapi.Dashboard) string {
	if d.AuditsErr != nil {
		return m.styles.Warning.Render(fmt.Sprintf("Audit list unavailable: %v", d.AuditsErr)) + "\n\n"
	}
	if len(d.Audits) == 0 {
		return ""
	}

	t := NewSimpleTable("Upcoming Audits", []string{"WHEN", "TYPE", "TITLE", "BUILDING"})
	for _, a := range d.Audits {
		when := "-"
		if a.ScheduledAt != nil {
			when = a.ScheduledAt.Local().Format("2006-01-02")
		}
		t.AddRow(when, string(a.AuditType), truncate(a.Title, 40), a.BuildingID)
	}
	return t.View(m.styles)
}

func (m *DashboardPageModel) renderChecks(d *gridapi.Dashboard) string {
	if d.ChecksErr != nil {
		return m.styles.Warning.Render(fmt.Sprintf("Compliance list unavailable: %v", d.ChecksErr)) + "\n\n"
	}
	if len(d.FailedChecks) == 0 {
		return ""
	}

	t := NewSimpleTable("Failing Compliance Checks", []string{"STANDARD", "BUILDING", "REQUIREMENT"})
	for _, c := range d.FailedChecks {
		t.AddRow(string(c.Standard), c.BuildingID, truncate(c.Requirement, 52))
	}
	return t.View(m.styles)
}

func (m *DashboardPageModel) renderEnergy(d *gridapi.Dashboard) string {
	if d.EnergyErr != nil {
		return m.styles.Warning.Render(fmt.Sprintf("Energy series unavailable: %v", d.EnergyErr)) + "\n\n"
	}
	if len(d.Energy) == 0 {
		return ""
	}

	var consumed, co2 float64
	for _, p := range d.Energy {
		consumed += p.KWhConsumed
		co2 += p.CO2EmissionsKg
	}
	line := fmt.Sprintf("Focus building, last 30 days: %.0f kWh, %.1f t CO2", consumed, co2/1000)
	return m.styles.Title.Render("Energy") + "\n" + m.styles.Body.Render(line) + "\n\n"
}

// Update handles viewport scrolling.
func (m DashboardPageModel) Update(msg tea.Msg) (DashboardPageModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the page.
func (m DashboardPageModel) View() string {
	return m.viewport.View()
}
