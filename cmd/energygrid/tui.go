// Interactive full-screen console built on bubbletea. The CLI subcommands
// cover scripting; this is the operator view.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shaloh69/EnergyGridCSR-sub002/cmd/energygrid/ui"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/auth"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/config"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/types"
)

// consolePage identifies the active screen.
type consolePage int

const (
	pageDashboard consolePage = iota
	pageAlerts
	pageCompliance
	pageJobs
	pageReports
	pageLogin

	// pageCount covers the tab-switchable pages; login sits outside the cycle.
	pageCount = 5
)

var pageNames = []string{"Dashboard", "Alerts", "Compliance", "Jobs", "Reports"}

// Messages for tea updates
type (
	dashboardLoadedMsg *gridapi.Dashboard
	alertsLoadedMsg    []types.Alert
	checksLoadedMsg    []types.ComplianceCheck
	jobsLoadedMsg      []types.Job
	reportsLoadedMsg   []types.Report
	loginDoneMsg       *gridapi.LoginResult
	statusMsg          string
	consoleErrMsg      error
	refreshTickMsg     time.Time
	configReloadedMsg  *config.Config
)

// consoleModel is the root model for the interactive console.
type consoleModel struct {
	app    *app
	client *gridapi.Client
	styles ui.Styles

	page    consolePage
	spinner spinner.Model
	loading bool
	status  string
	err     error

	dashboard  ui.DashboardPageModel
	alerts     ui.AlertsPageModel
	compliance ui.CompliancePageModel
	jobs       ui.JobsPageModel
	reports    ui.ReportsPageModel
	login      ui.LoginPageModel

	session auth.Session
	authed  bool

	width  int
	height int
	ready  bool
}

// newConsoleModel wires the pages and decides the starting screen.
func newConsoleModel(a *app, client *gridapi.Client) consoleModel {
	styles := ui.NewStyles(ui.ThemeFromName(a.cfg.UI.Theme))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := consoleModel{
		app:        a,
		client:     client,
		styles:     styles,
		spinner:    sp,
		dashboard:  ui.NewDashboardPageModel(styles),
		alerts:     ui.NewAlertsPageModel(styles),
		compliance: ui.NewCompliancePageModel(styles),
		jobs:       ui.NewJobsPageModel(styles),
		reports:    ui.NewReportsPageModel(styles),
		login:      ui.NewLoginPageModel(a.cfg.Server.BaseURL, styles),
	}

	if sess, err := a.mgr.Current(); err == nil {
		m.session = sess
		m.authed = true
	} else if os.Getenv("ENERGYGRID_ACCESS_TOKEN") != "" {
		// CI-style token auth has no stored session to show.
		m.authed = true
	}

	if m.authed {
		m.page = pageDashboard
		m.loading = true
	} else {
		m.page = pageLogin
	}
	return m
}

// Init starts the spinner, the refresh ticker and the first load.
func (m consoleModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.tick()}
	if m.page != pageLogin {
		cmds = append(cmds, m.loadPage(m.page))
	}
	return tea.Batch(cmds...)
}

// tick schedules the next auto-refresh. Jobs poll faster while something
// is still running.
func (m consoleModel) tick() tea.Cmd {
	interval := m.app.cfg.GetRefreshInterval()
	if m.page == pageJobs && m.jobs.Running() {
		interval = 3 * time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// autoRefresh reports whether a page reloads on the ticker. Compliance and
// reports move slowly enough that manual refresh is fine.
func autoRefresh(p consolePage) bool {
	return p == pageDashboard || p == pageAlerts || p == pageJobs
}

// Update handles messages.
func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.page == pageLogin {
			return m.updateLogin(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		headerHeight := 3 // header + tab bar + divider
		footerHeight := 2
		contentHeight := msg.Height - headerHeight - footerHeight

		m.dashboard.SetSize(msg.Width, contentHeight)
		m.alerts.SetSize(msg.Width, contentHeight)
		m.compliance.SetSize(msg.Width, contentHeight)
		m.jobs.SetSize(msg.Width, contentHeight)
		m.reports.SetSize(msg.Width, contentHeight)
		m.login.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.loading || (m.page == pageLogin && m.login.Busy()) {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{m.tick()}
		if !m.loading && m.page != pageLogin && autoRefresh(m.page) {
			m.loading = true
			cmds = append(cmds, m.loadPage(m.page), m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case dashboardLoadedMsg:
		m.loading = false
		m.err = nil
		m.dashboard.UpdateContent((*gridapi.Dashboard)(msg))
		return m, nil

	case alertsLoadedMsg:
		m.loading = false
		m.err = nil
		m.alerts.UpdateContent([]types.Alert(msg))
		return m, nil

	case checksLoadedMsg:
		m.loading = false
		m.err = nil
		m.compliance.UpdateContent([]types.ComplianceCheck(msg))
		return m, nil

	case jobsLoadedMsg:
		m.loading = false
		m.err = nil
		m.jobs.UpdateContent([]types.Job(msg))
		return m, nil

	case reportsLoadedMsg:
		m.loading = false
		m.err = nil
		m.reports.UpdateContent([]types.Report(msg))
		return m, nil

	case loginDoneMsg:
		m.login.SetBusy(false)
		m.login.SetError(nil)
		m.authed = true
		if sess, err := m.app.mgr.Current(); err == nil {
			m.session = sess
		}
		m.status = "Signed in as " + msg.User.DisplayName()
		m.page = pageDashboard
		m.loading = true
		return m, tea.Batch(m.loadPage(pageDashboard), m.spinner.Tick)

	case statusMsg:
		m.status = string(msg)
		m.loading = true
		return m, tea.Batch(m.loadPage(m.page), m.spinner.Tick)

	case configReloadedMsg:
		// Refresh pacing and the dashboard focus building apply live.
		// Server and theme changes need a restart.
		m.app.cfg = (*config.Config)(msg)
		m.status = "Config reloaded"
		return m, nil

	case consoleErrMsg:
		m.loading = false
		err := error(msg)
		if m.page == pageLogin {
			m.login.SetBusy(false)
			m.login.SetError(err)
			return m, nil
		}
		// A dead session drops the console back to the sign-in screen.
		if gridapi.IsAuthError(err) || errors.Is(err, auth.ErrNoSession) || errors.Is(err, auth.ErrSessionExpired) {
			m.page = pageLogin
			m.authed = false
			m.login.SetError(err)
			return m, textinput.Blink
		}
		m.err = err
		return m, nil
	}

	// Everything else (mouse wheel and friends) goes to the active page.
	return m.updatePage(msg)
}

// updateLogin routes keys on the sign-in screen.
func (m consoleModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" && !m.login.Busy() {
		email, password := m.login.Values()
		if email == "" || password == "" {
			return m, nil
		}
		return m.submitLogin(email, password)
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	return m, cmd
}

// handleKey routes keys on the data pages.
func (m consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The report preview swallows everything except its own dismissal.
	if m.page == pageReports && m.reports.Previewing() {
		if msg.String() == "esc" || msg.String() == "q" {
			m.reports.ClosePreview()
			return m, nil
		}
		return m.updatePage(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		return m.switchPage((m.page + 1) % pageCount)
	case "shift+tab":
		return m.switchPage((m.page + pageCount - 1) % pageCount)
	case "1":
		return m.switchPage(pageDashboard)
	case "2":
		return m.switchPage(pageAlerts)
	case "3":
		return m.switchPage(pageCompliance)
	case "4":
		return m.switchPage(pageJobs)
	case "5":
		return m.switchPage(pageReports)

	case "r":
		m.status = ""
		m.loading = true
		return m, tea.Batch(m.loadPage(m.page), m.spinner.Tick)

	case "a":
		if m.page == pageAlerts {
			if a := m.alerts.Selected(); a != nil && a.Status == types.AlertOpen {
				return m, m.ackAlert(a.ID)
			}
			return m, nil
		}

	case "x":
		if m.page == pageAlerts {
			if a := m.alerts.Selected(); a != nil && a.Status != types.AlertResolved {
				return m, m.resolveAlert(a.ID)
			}
			return m, nil
		}

	case "enter":
		switch m.page {
		case pageCompliance:
			if c := m.compliance.Selected(); c != nil {
				return m, m.runCheck(c.ID)
			}
			return m, nil
		case pageReports:
			m.reports.OpenPreview(m.reports.Selected())
			return m, nil
		}
	}

	return m.updatePage(msg)
}

// updatePage forwards a message to the active page model.
func (m consoleModel) updatePage(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.page {
	case pageDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case pageAlerts:
		m.alerts, cmd = m.alerts.Update(msg)
	case pageCompliance:
		m.compliance, cmd = m.compliance.Update(msg)
	case pageJobs:
		m.jobs, cmd = m.jobs.Update(msg)
	case pageReports:
		m.reports, cmd = m.reports.Update(msg)
	case pageLogin:
		m.login, cmd = m.login.Update(msg)
	}
	return m, cmd
}

// switchPage activates a page and kicks off its load.
func (m consoleModel) switchPage(p consolePage) (tea.Model, tea.Cmd) {
	if p == m.page {
		return m, nil
	}
	logging.UI("page %s", pageNames[p])
	m.page = p
	m.status = ""
	m.err = nil
	m.loading = true
	return m, tea.Batch(m.loadPage(p), m.spinner.Tick)
}

// loadPage returns the fetch command for a page.
func (m consoleModel) loadPage(p consolePage) tea.Cmd {
	switch p {
	case pageDashboard:
		return m.fetchDashboard()
	case pageAlerts:
		return m.fetchAlerts()
	case pageCompliance:
		return m.fetchChecks()
	case pageJobs:
		return m.fetchJobs()
	case pageReports:
		return m.fetchReports()
	}
	return nil
}

func (m consoleModel) fetchDashboard() tea.Cmd {
	client := m.client
	focus := m.app.cfg.UI.DefaultBuilding
	return func() tea.Msg {
		d, err := client.FetchDashboard(context.Background(), gridapi.DashboardOptions{
			EnergyBuildingID: focus,
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		return dashboardLoadedMsg(d)
	}
}

func (m consoleModel) fetchAlerts() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		alerts, _, err := client.ListAlerts(context.Background(), gridapi.AlertFilter{
			ListOptions: gridapi.ListOptions{PerPage: 50},
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		return alertsLoadedMsg(alerts)
	}
}

func (m consoleModel) fetchChecks() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		checks, _, err := client.ListComplianceChecks(context.Background(), gridapi.ComplianceFilter{
			ListOptions: gridapi.ListOptions{PerPage: 50},
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		return checksLoadedMsg(checks)
	}
}

func (m consoleModel) fetchJobs() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		jobs, _, err := client.ListJobs(context.Background(), gridapi.JobFilter{
			ListOptions: gridapi.ListOptions{PerPage: 50},
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		return jobsLoadedMsg(jobs)
	}
}

func (m consoleModel) fetchReports() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		reports, _, err := client.ListReports(context.Background(), gridapi.ReportFilter{
			ListOptions: gridapi.ListOptions{PerPage: 50},
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		return reportsLoadedMsg(reports)
	}
}

func (m consoleModel) submitLogin(email, password string) (tea.Model, tea.Cmd) {
	m.login.SetBusy(true)
	client := m.client
	mgr := m.app.mgr
	server := m.app.cfg.Server.BaseURL
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := client.Login(context.Background(), types.Credentials{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return consoleErrMsg(err)
		}
		if err := mgr.SetSession(res.TokenPair, &res.User, server); err != nil {
			return consoleErrMsg(err)
		}
		return loginDoneMsg(res)
	})
}

func (m consoleModel) ackAlert(id string) tea.Cmd {
	client := m.client
	a := m.app
	return func() tea.Msg {
		if _, err := client.AcknowledgeAlert(context.Background(), id); err != nil {
			return consoleErrMsg(err)
		}
		a.invalidate("/api/v2/alerts")
		return statusMsg("Alert acknowledged")
	}
}

func (m consoleModel) resolveAlert(id string) tea.Cmd {
	client := m.client
	a := m.app
	return func() tea.Msg {
		if _, err := client.ResolveAlert(context.Background(), id, "resolved from console"); err != nil {
			return consoleErrMsg(err)
		}
		a.invalidate("/api/v2/alerts")
		return statusMsg("Alert resolved")
	}
}

func (m consoleModel) runCheck(id string) tea.Cmd {
	client := m.client
	a := m.app
	return func() tea.Msg {
		job, err := client.RunComplianceCheck(context.Background(), id)
		if err != nil {
			return consoleErrMsg(err)
		}
		a.invalidate("/api/v2/compliance-checks")
		return statusMsg("Check queued as job " + job.ID)
	}
}

// View renders the console.
func (m consoleModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.page == pageLogin {
		return m.login.View()
	}

	var sb strings.Builder
	sb.WriteString(m.headerView() + "\n")
	sb.WriteString(m.tabBarView() + "\n")
	sb.WriteString(m.styles.RenderDivider(m.width) + "\n")

	switch m.page {
	case pageDashboard:
		sb.WriteString(m.dashboard.View())
	case pageAlerts:
		sb.WriteString(m.alerts.View())
	case pageCompliance:
		sb.WriteString(m.compliance.View())
	case pageJobs:
		sb.WriteString(m.jobs.View())
	case pageReports:
		sb.WriteString(m.reports.View())
	}

	sb.WriteString("\n" + m.footerView())
	return sb.String()
}

func (m consoleModel) headerView() string {
	title := m.styles.Header.Render(" EnergyGrid Console ")
	who := ""
	if m.authed && m.session.Email != "" {
		who = m.styles.Muted.Render("  " + m.session.Email + " (" + m.session.Role + ")")
	}
	load := ""
	if m.loading {
		load = "  " + m.spinner.View()
	}
	return title + who + load
}

func (m consoleModel) tabBarView() string {
	var sb strings.Builder
	for i, name := range pageNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if consolePage(i) == m.page {
			sb.WriteString(m.styles.TabActive.Render(label))
		} else {
			sb.WriteString(m.styles.TabInactive.Render(label))
		}
	}
	return sb.String()
}

func (m consoleModel) footerView() string {
	var sb strings.Builder
	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		sb.WriteString(m.styles.Success.Render(m.status) + "\n")
	}
	sb.WriteString(m.styles.Footer.Render("[Tab] Next page  [1-5] Jump  [r] Refresh  [q] Quit"))
	return sb.String()
}

// runInteractive starts the full-screen console.
func runInteractive() error {
	client, err := cliApp.api()
	if err != nil {
		return err
	}
	// Settle the lazy cache handle before tea commands can race the open.
	cliApp.cacheStore()

	p := tea.NewProgram(
		newConsoleModel(cliApp, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Pick up config edits while the console runs. Best-effort; a missing
	// config directory just means no watching.
	if w, wErr := config.NewWatcher(cliApp.configPath, func(cfg *config.Config) {
		p.Send(configReloadedMsg(cfg))
	}); wErr == nil {
		w.Start(context.Background())
		defer w.Stop()
	} else {
		logging.ConfigWarn("config watch disabled: %v", wErr)
	}

	_, err = p.Run()
	return err
}
