package ui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/gridapi"
)

// LoginPageModel is the sign-in screen shown when no session is stored.
type LoginPageModel struct {
	email    textinput.Model
	password textinput.Model
	focus    int // 0 = email, 1 = password

	server  string
	errLine string
	fields  map[string][]string
	busy    bool

	styles Styles
	width  int
	height int
}

// NewLoginPageModel creates the sign-in screen for the given server.
func NewLoginPageModel(server string, styles Styles) LoginPageModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "│ "
	email.CharLimit = 254
	email.Width = 40
	email.PromptStyle = styles.Prompt
	email.TextStyle = styles.UserInput
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "│ "
	password.CharLimit = 128
	password.Width = 40
	password.PromptStyle = styles.Prompt
	password.TextStyle = styles.UserInput
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return LoginPageModel{
		email:    email,
		password: password,
		server:   server,
		styles:   styles,
	}
}

// Values returns the entered credentials.
func (m LoginPageModel) Values() (email, password string) {
	return strings.TrimSpace(m.email.Value()), m.password.Value()
}

// Busy reports whether a login attempt is in flight.
func (m LoginPageModel) Busy() bool { return m.busy }

// SetBusy toggles the in-flight state.
func (m *LoginPageModel) SetBusy(busy bool) { m.busy = busy }

// SetError records a failed attempt. Validation failures keep their
// per-field messages; everything else collapses to one line.
func (m *LoginPageModel) SetError(err error) {
	m.errLine = ""
	m.fields = nil
	m.password.SetValue("")
	if err == nil {
		return
	}

	var apiErr *gridapi.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			m.fields = apiErr.Fields
			return
		}
		m.errLine = apiErr.Message
		return
	}
	m.errLine = err.Error()
}

// SetSize updates the layout bounds.
func (m *LoginPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles focus movement and input editing.
func (m LoginPageModel) Update(msg tea.Msg) (LoginPageModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		// Two fields, so every direction toggles.
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			m.setFocus((m.focus + 1) % 2)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *LoginPageModel) setFocus(i int) {
	m.focus = i
	if i == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.email.Blur()
	}
}

// View renders the page.
func (m LoginPageModel) View() string {
	var sb strings.Builder

	sb.WriteString(Logo(m.styles))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Subtitle.Render("Sign in to " + m.server))
	sb.WriteString("\n\n")

	form := fmt.Sprintf("%s\n%s\n\n%s\n%s",
		m.styles.Bold.Render("Email"),
		m.email.View(),
		m.styles.Bold.Render("Password"),
		m.password.View(),
	)
	sb.WriteString(m.styles.Card.Render(form))
	sb.WriteString("\n\n")

	if m.busy {
		sb.WriteString(m.styles.Info.Render("Signing in..."))
		sb.WriteString("\n")
	}
	if m.errLine != "" {
		sb.WriteString(m.styles.Error.Render(m.errLine))
		sb.WriteString("\n")
	}
	if len(m.fields) > 0 {
		names := make([]string, 0, len(m.fields))
		for name := range m.fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, msg := range m.fields[name] {
				sb.WriteString(m.styles.Error.Render(name+": ") + m.styles.Body.Render(msg))
				sb.WriteString("\n")
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("[Tab] Switch field  [Enter] Sign in  [Ctrl+C] Quit"))

	return m.styles.Content.Render(sb.String())
}
