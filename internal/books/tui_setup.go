package books

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SetupStep represents the current step in the setup wizard
type SetupStep int

const (
	SetupWelcome SetupStep = iota
	SetupForm
	SetupValidating
	SetupSuccess
	SetupError
)

// SetupModel is the model for the setup wizard
type SetupModel struct {
	step       SetupStep
	inputs     []textinput.Model
	focusIndex int
	width      int
	height     int
	err        error
	spinner    spinner.Model
	user       string // Authenticated username after validation
}

// Setup wizard styles
var (
	setupTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D9A")).
			Padding(0, 1).
			MarginBottom(1)

	setupBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2D7D9A")).
			Padding(1, 2).
			Width(60)

	setupLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2D7D9A")).
			Bold(true)

	setupHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	setupSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	setupErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Bold(true)

	setupHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Messages for setup wizard
type setupValidateMsg struct {
	success bool
	user    string
	err     error
}

type setupSaveMsg struct {
	success bool
	err     error
}

// NewSetupTUI creates a new setup wizard model
func NewSetupTUI() SetupModel {
	inputs := make([]textinput.Model, 4)

	// Backend URL
	inputs[0] = textinput.New()
	inputs[0].Placeholder = "https://books.example.com"
	inputs[0].CharLimit = 256
	inputs[0].Width = 50

	// API Key
	inputs[1] = textinput.New()
	inputs[1].Placeholder = "API Key from Settings > API Access"
	inputs[1].CharLimit = 64
	inputs[1].Width = 50

	// API Secret
	inputs[2] = textinput.New()
	inputs[2].Placeholder = "API Secret (generated with the key)"
	inputs[2].CharLimit = 64
	inputs[2].Width = 50
	inputs[2].EchoMode = textinput.EchoPassword

	// CSRF token (optional)
	inputs[3] = textinput.New()
	inputs[3].Placeholder = "CSRF token (optional, needed for create endpoints)"
	inputs[3].CharLimit = 128
	inputs[3].Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7D9A"))

	return SetupModel{
		step:    SetupWelcome,
		inputs:  inputs,
		spinner: s,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.step == SetupValidating {
				return m, nil // Can't cancel during validation
			}
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "tab", "down":
			if m.step == SetupForm {
				m.focusIndex++
				if m.focusIndex >= len(m.inputs) {
					m.focusIndex = 0
				}
				return m, m.updateInputFocus()
			}

		case "shift+tab", "up":
			if m.step == SetupForm {
				m.focusIndex--
				if m.focusIndex < 0 {
					m.focusIndex = len(m.inputs) - 1
				}
				return m, m.updateInputFocus()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case setupValidateMsg:
		if msg.success {
			m.step = SetupSuccess
			m.user = msg.user
		} else {
			m.step = SetupError
			m.err = msg.err
		}
		return m, nil

	case setupSaveMsg:
		if msg.success {
			return m, tea.Quit
		}
		m.step = SetupError
		m.err = msg.err
		return m, nil
	}

	if m.step == SetupForm {
		cmd := m.updateInputs(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SetupModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case SetupWelcome:
		m.step = SetupForm
		m.focusIndex = 0
		m.inputs[0].Focus()
		return m, textinput.Blink

	case SetupForm:
		// Validate required fields
		for i := 0; i < 3; i++ {
			if m.inputs[i].Value() == "" {
				m.focusIndex = i
				return m, m.updateInputFocus()
			}
		}

		m.step = SetupValidating
		return m, tea.Batch(
			m.spinner.Tick,
			m.validateCredentials(),
		)

	case SetupSuccess:
		return m, m.saveConfig()

	case SetupError:
		m.step = SetupForm
		m.focusIndex = 0
		m.err = nil
		return m, m.updateInputFocus()
	}

	return m, nil
}

func (m *SetupModel) updateInputFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *SetupModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m SetupModel) validateCredentials() tea.Cmd {
	return func() tea.Msg {
		url := strings.TrimSuffix(m.inputs[0].Value(), "/")
		apiKey := m.inputs[1].Value()
		apiSecret := m.inputs[2].Value()

		user, err := validateConnection(url, apiKey, apiSecret)
		if err != nil {
			return setupValidateMsg{success: false, err: err}
		}

		return setupValidateMsg{success: true, user: user}
	}
}

func validateConnection(url, apiKey, apiSecret string) (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequest(http.MethodGet, url+"/api/auth/whoami/", nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", apiKey, apiSecret))

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("authentication failed: invalid API key or secret")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("invalid response from server")
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("invalid response from server")
	}

	if user, ok := result["user"].(string); ok && user != "" {
		return user, nil
	}
	return "Unknown", nil
}

func (m SetupModel) saveConfig() tea.Cmd {
	return func() tea.Msg {
		url := strings.TrimSuffix(m.inputs[0].Value(), "/")
		apiKey := m.inputs[1].Value()
		apiSecret := m.inputs[2].Value()
		csrfToken := m.inputs[3].Value()

		var sb strings.Builder
		sb.WriteString("# Books CLI Configuration\n")
		sb.WriteString("# Generated by setup wizard\n\n")

		sb.WriteString("# Backend URL (required)\n")
		sb.WriteString(fmt.Sprintf("BOOKS_URL=%s\n\n", url))

		sb.WriteString("# API Credentials (required)\n")
		sb.WriteString(fmt.Sprintf("BOOKS_API_KEY=%s\n", apiKey))
		sb.WriteString(fmt.Sprintf("BOOKS_API_SECRET=%s\n\n", apiSecret))

		if csrfToken != "" {
			sb.WriteString("# CSRF token for create endpoints\n")
			sb.WriteString(fmt.Sprintf("BOOKS_CSRF_TOKEN=%s\n\n", csrfToken))
		}

		sb.WriteString("# Optional: Custom branding and currency symbol\n")
		sb.WriteString("# BOOKS_BRAND=Books CLI\n")
		sb.WriteString("# BOOKS_CURRENCY=$\n")

		err := os.WriteFile(".books-config", []byte(sb.String()), 0600)
		if err != nil {
			return setupSaveMsg{success: false, err: err}
		}

		return setupSaveMsg{success: true}
	}
}

func (m SetupModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.step {
	case SetupWelcome:
		return m.renderWelcome()
	case SetupForm:
		return m.renderForm()
	case SetupValidating:
		return m.renderValidating()
	case SetupSuccess:
		return m.renderSuccess()
	case SetupError:
		return m.renderSetupError()
	}
	return ""
}

func (m SetupModel) renderWelcome() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(setupTitleStyle.Render("  Welcome to Books CLI  "))
	sb.WriteString("\n\n")

	sb.WriteString(`No configuration file found.
Let's set up your connection to the Books backend.

You'll need:
  * Your backend URL
  * API Key & Secret (Settings > API Access)

`)
	sb.WriteString(setupHelpStyle.Render("[Enter] Continue    [Esc] Cancel"))

	return setupBoxStyle.Render(sb.String())
}

func (m SetupModel) renderForm() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(setupTitleStyle.Render("  Setup  "))
	sb.WriteString("\n\n")

	sb.WriteString(setupLabelStyle.Render("Backend URL *"))
	sb.WriteString("\n")
	sb.WriteString(m.inputs[0].View())
	sb.WriteString("\n")
	sb.WriteString(setupHintStyle.Render("Example: https://books.mycompany.com"))
	sb.WriteString("\n\n")

	sb.WriteString(setupLabelStyle.Render("API Key *"))
	sb.WriteString("\n")
	sb.WriteString(m.inputs[1].View())
	sb.WriteString("\n")
	sb.WriteString(setupHintStyle.Render("Find in: Settings > API Access"))
	sb.WriteString("\n\n")

	sb.WriteString(setupLabelStyle.Render("API Secret *"))
	sb.WriteString("\n")
	sb.WriteString(m.inputs[2].View())
	sb.WriteString("\n")
	sb.WriteString(setupHintStyle.Render("Generated with API Key"))
	sb.WriteString("\n\n")

	sb.WriteString(setupLabelStyle.Render("CSRF Token"))
	sb.WriteString(" ")
	sb.WriteString(setupHintStyle.Render("(optional)"))
	sb.WriteString("\n")
	sb.WriteString(m.inputs[3].View())
	sb.WriteString("\n")
	sb.WriteString(setupHintStyle.Render("Needed for inline record creation"))
	sb.WriteString("\n\n")

	sb.WriteString(setupHelpStyle.Render("[Tab] Next field    [Enter] Submit    [Esc] Cancel"))

	return setupBoxStyle.Render(sb.String())
}

func (m SetupModel) renderValidating() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(setupTitleStyle.Render("  Validating  "))
	sb.WriteString("\n\n")

	sb.WriteString(m.spinner.View())
	sb.WriteString(" Testing connection to the backend...")
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("URL: %s\n", m.inputs[0].Value()))
	sb.WriteString(fmt.Sprintf("API Key: %s...\n", truncateKey(m.inputs[1].Value(), 8)))

	return setupBoxStyle.Render(sb.String())
}

func (m SetupModel) renderSuccess() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(setupSuccessStyle.Render("  Setup Complete!  "))
	sb.WriteString("\n\n")

	sb.WriteString("Configuration saved to: ")
	sb.WriteString(setupLabelStyle.Render(".books-config"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Connected as: %s\n\n", setupLabelStyle.Render(m.user)))

	sb.WriteString(setupHelpStyle.Render("[Enter] Start Books CLI"))

	return setupBoxStyle.Render(sb.String())
}

func (m SetupModel) renderSetupError() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(setupErrorStyle.Render("  Connection Failed  "))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n\n", m.err.Error()))
	}

	sb.WriteString("Please check:\n")
	sb.WriteString("  * URL is correct and reachable\n")
	sb.WriteString("  * API Key and Secret are valid\n")
	sb.WriteString("  * The backend is running\n\n")

	sb.WriteString(setupHelpStyle.Render("[Enter] Try again    [Esc] Cancel"))

	return setupBoxStyle.Render(sb.String())
}

func truncateKey(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length]
}

// RunSetupTUI runs the setup wizard
func RunSetupTUI() error {
	p := tea.NewProgram(NewSetupTUI(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
