package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// ReportsPageModel lists generated reports and previews their summaries.
type ReportsPageModel struct {
	table    table.Model
	reports  []types.Report
	styles   Styles
	width    int
	height   int

	previewing bool
	preview    viewport.Model
	previewFor string
}

// NewReportsPageModel creates the reports page.
func NewReportsPageModel(styles Styles) ReportsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "KIND", Width: 18},
			{Title: "TITLE", Width: 36},
			{Title: "FMT", Width: 5},
			{Title: "STATUS", Width: 12},
			{Title: "SIZE", Width: 9},
			{Title: "CREATED", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(TableStyles(styles))

	return ReportsPageModel{
		table:   t,
		preview: viewport.New(80, 20),
		styles:  styles,
	}
}

// UpdateContent replaces the report list.
func (m *ReportsPageModel) UpdateContent(reports []types.Report) {
	m.reports = reports

	rows := make([]table.Row, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, table.Row{
			string(r.Kind),
			truncate(r.Title, 36),
			string(r.Format),
			string(r.Status),
			formatBytes(r.SizeBytes),
			ago(r.CreatedAt),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the report under the cursor, nil when the list is empty.
func (m ReportsPageModel) Selected() *types.Report {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.reports) {
		return nil
	}
	return &m.reports[i]
}

// Previewing reports whether the summary preview is open.
func (m ReportsPageModel) Previewing() bool { return m.previewing }

// OpenPreview renders the report summary as markdown into the preview
// viewport. Reports without a summary are ignored.
func (m *ReportsPageModel) OpenPreview(r *types.Report) {
	if r == nil || r.Summary == "" {
		return
	}

	content := r.Summary
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.previewWidth()),
	)
	if err == nil {
		if out, rErr := renderer.Render(r.Summary); rErr == nil {
			content = out
		}
	}

	m.preview.SetContent(content)
	m.preview.GotoTop()
	m.previewFor = r.Title
	m.previewing = true
}

// ClosePreview returns to the list.
func (m *ReportsPageModel) ClosePreview() {
	m.previewing = false
	m.previewFor = ""
}

func (m ReportsPageModel) previewWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// SetSize updates the size.
func (m *ReportsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(w - 4)
	m.table.SetHeight(h - 8)
	m.preview.Width = w - 4
	m.preview.Height = h - 6
}

// Update handles navigation for whichever pane is active.
func (m ReportsPageModel) Update(msg tea.Msg) (ReportsPageModel, tea.Cmd) {
	var cmd tea.Cmd
	if m.previewing {
		m.preview, cmd = m.preview.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// View renders the page.
func (m ReportsPageModel) View() string {
	var sb strings.Builder

	if m.previewing {
		sb.WriteString(m.styles.Header.Render(" "+truncate(m.previewFor, 60)+" ") + "\n\n")
		sb.WriteString(m.preview.View())
		sb.WriteString("\n")
		sb.WriteString(m.styles.Muted.Render("[Esc] Back"))
		return sb.String()
	}

	sb.WriteString(m.styles.Header.Render(" Reports ") + "\n\n")
	sb.WriteString(m.styles.Content.Render(m.table.View()))
	sb.WriteString("\n")
	if r := m.Selected(); r != nil && r.Status == types.ReportReady {
		sb.WriteString(m.styles.Muted.Render("Download with: energygrid reports download "+r.ID) + "\n\n")
	}
	sb.WriteString(m.styles.Muted.Render("[Enter] Preview summary  [r] Refresh"))

	return sb.String()
}
