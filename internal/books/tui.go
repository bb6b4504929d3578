package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version info
const (
	Version = "0.3.1"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D9A")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2D7D9A")).
			Bold(true)

	notificationSuccess = lipgloss.NewStyle().
				Background(lipgloss.Color("#04B575")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	notificationError = lipgloss.NewStyle().
				Background(lipgloss.Color("#FF4444")).
				Foreground(lipgloss.Color("#FFF")).
				Padding(0, 1).
				Bold(true)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866")).
			Bold(true)
)

// View represents different screens
type View int

const (
	ViewMain View = iota
	ViewDashboard
	ViewTransactionForm
	ViewCustomers
	ViewItems
)

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	view        View
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// ListItem for resource lists
type ListItem struct {
	name    string
	details string
}

func (i ListItem) Title() string       { return i.name }
func (i ListItem) Description() string { return i.details }
func (i ListItem) FilterValue() string { return i.name }

// Model is the main TUI model
type Model struct {
	client *Client
	view   View
	width  int
	height int

	mainMenu    list.Model
	currentList list.Model
	form        TransactionForm

	spinner     spinner.Model
	breadcrumbs []string
	loading     bool

	message     string
	messageType string

	notification     string
	notificationType string
	showNotification bool

	dashboard     *DashboardData
	viewport      viewport.Model
	viewportReady bool
}

// Messages
type errorMsg struct {
	err error
}

type dataLoadedMsg struct {
	items []ListItem
}

type dashboardLoadedMsg struct {
	data *DashboardData
}

type clearNotificationMsg struct{}

// NewTUI creates a new TUI model
func NewTUI(client *Client) Model {
	menuItems := []list.Item{
		MenuItem{"Dashboard", "Receivables & payables summary", ViewDashboard},
		MenuItem{"New Transaction", "Line-item transaction entry", ViewTransactionForm},
		MenuItem{"Customers", "Customers & vendors", ViewCustomers},
		MenuItem{"Items", "Inventory items", ViewItems},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7D9A"))

	mainMenu := list.New(menuItems, delegate, 0, 0)
	mainMenu.Title = client.Config.Brand
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	mainMenu.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7D9A"))

	return Model{
		client:      client,
		view:        ViewMain,
		mainMenu:    mainMenu,
		spinner:     s,
		breadcrumbs: []string{"Main"},
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) loadCustomers() tea.Cmd {
	return func() tea.Msg {
		searcher := m.client.Searcher(customerSearchPath, customerCreatePath)
		results, err := searcher.All(context.Background(), allItemsLimit)
		if err != nil {
			return errorMsg{err}
		}

		var items []ListItem
		for _, r := range results {
			var parts []string
			if r.Type != "" {
				parts = append(parts, r.Type)
			}
			if r.Email != "" {
				parts = append(parts, r.Email)
			}
			if r.Balance != nil {
				parts = append(parts, m.client.FormatCurrency(*r.Balance))
			}
			items = append(items, ListItem{name: r.Display("name"), details: strings.Join(parts, " • ")})
		}
		return dataLoadedMsg{items}
	}
}

func (m Model) loadItems() tea.Cmd {
	return func() tea.Msg {
		searcher := m.client.Searcher(itemSearchPath, "")
		results, err := searcher.All(context.Background(), allItemsLimit)
		if err != nil {
			return errorMsg{err}
		}

		var items []ListItem
		for _, r := range results {
			var parts []string
			if sku := r.Extra["sku"]; sku != "" {
				parts = append(parts, sku)
			}
			if price := r.Extra["sale_price"]; price != "" {
				parts = append(parts, price)
			}
			items = append(items, ListItem{name: r.Display("name"), details: strings.Join(parts, " • ")})
		}
		return dataLoadedMsg{items}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		m.messageType = ""

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.view == ViewMain {
				return m, tea.Quit
			}
			if m.view != ViewTransactionForm {
				m.view = ViewMain
				m.breadcrumbs = []string{"Main"}
				return m, nil
			}

		case "esc":
			switch m.view {
			case ViewMain:
				// Do nothing at main
			case ViewTransactionForm:
				// The form handles esc itself (closing an open panel first)
			default:
				m.view = ViewMain
				m.breadcrumbs = []string{"Main"}
				return m, nil
			}

		case "enter":
			if m.view == ViewMain {
				return m.handleEnter()
			}

		case "r":
			if m.view != ViewTransactionForm {
				return m.refreshCurrentView()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		h := msg.Height - 8
		w := msg.Width - 4

		m.mainMenu.SetSize(w, h)
		if m.currentList.Items() != nil {
			m.currentList.SetSize(w, h)
		}
		m.form.SetWidth(w)

		headerHeight := 4
		footerHeight := 4
		m.viewport = viewport.New(w, msg.Height-headerHeight-footerHeight)
		m.viewport.YPosition = headerHeight
		m.viewportReady = true

	case errorMsg:
		m.loading = false
		m.message = msg.err.Error()
		m.messageType = "error"
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		items := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			items[i] = item
		}

		delegate := list.NewDefaultDelegate()
		delegate.Styles.SelectedTitle = selectedStyle

		m.currentList = list.New(items, delegate, m.width-4, m.height-8)
		m.currentList.SetShowStatusBar(true)
		m.currentList.SetFilteringEnabled(true)
		switch m.view {
		case ViewCustomers:
			m.currentList.Title = "Customers"
		case ViewItems:
			m.currentList.Title = "Items"
		}
		m.currentList.Styles.Title = titleStyle
		return m, nil

	case dashboardLoadedMsg:
		m.loading = false
		m.dashboard = msg.data
		if m.viewportReady {
			m.viewport.SetContent(m.renderDashboardContent())
			m.viewport.GotoTop()
		}
		return m, nil

	case transactionSavedMsg:
		m.loading = false
		m.form.saving = false
		if msg.err != nil {
			m.message = msg.err.Error()
			m.messageType = "error"
			return m, nil
		}
		m.notification = fmt.Sprintf("Transaction saved: %s", msg.reference)
		m.notificationType = "success"
		m.showNotification = true
		m.view = ViewMain
		m.breadcrumbs = []string{"Main"}
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearNotificationMsg{}
		})

	case CreateFailedMsg:
		// Inline creation failed inside a smart-search field; tell the user
		// and leave the field's panel open for retry.
		m.notification = "Error creating item: " + msg.Err.Error()
		m.notificationType = "error"
		m.showNotification = true
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearNotificationMsg{}
		})

	case clearNotificationMsg:
		m.showNotification = false
		m.notification = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewMain:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case ViewDashboard:
		m.viewport, cmd = m.viewport.Update(msg)
	case ViewCustomers, ViewItems:
		m.currentList, cmd = m.currentList.Update(msg)
	case ViewTransactionForm:
		var done bool
		m.form, cmd, done = m.form.Update(msg)
		if done {
			m.view = ViewMain
			m.breadcrumbs = []string{"Main"}
		}
	}

	return m, cmd
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	item, ok := m.mainMenu.SelectedItem().(MenuItem)
	if !ok {
		return m, nil
	}

	m.view = item.view
	m.breadcrumbs = []string{"Main", item.title}

	switch item.view {
	case ViewDashboard:
		m.loading = true
		return m, m.loadDashboard()
	case ViewTransactionForm:
		m.form = NewTransactionForm(m.client)
		m.form.SetWidth(m.width - 4)
		return m, m.form.Focus()
	case ViewCustomers:
		m.loading = true
		return m, m.loadCustomers()
	case ViewItems:
		m.loading = true
		return m, m.loadItems()
	}

	return m, nil
}

func (m Model) refreshCurrentView() (tea.Model, tea.Cmd) {
	m.loading = true
	switch m.view {
	case ViewDashboard:
		return m, m.loadDashboard()
	case ViewCustomers:
		return m, m.loadCustomers()
	case ViewItems:
		return m, m.loadItems()
	}
	m.loading = false
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string

	switch m.view {
	case ViewMain:
		content = m.mainMenu.View()
	case ViewDashboard:
		content = m.renderDashboard()
	case ViewCustomers, ViewItems:
		if m.loading {
			content = fmt.Sprintf("\n  %s Loading...", m.spinner.View())
		} else {
			content = m.currentList.View()
		}
	case ViewTransactionForm:
		content = m.form.View()
	}

	var b strings.Builder

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	if m.showNotification {
		if m.notificationType == "success" {
			b.WriteString(notificationSuccess.Render("✓ " + m.notification))
		} else {
			b.WriteString(notificationError.Render("✗ " + m.notification))
		}
		b.WriteString("\n")
	}

	b.WriteString(content)

	if m.message != "" {
		b.WriteString("\n\n")
		if m.messageType == "error" {
			b.WriteString(errorStyle.Render("Error: " + m.message))
		} else if m.messageType == "success" {
			b.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %s ", m.client.Config.Brand, m.client.BaseURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	if len(m.breadcrumbs) == 0 {
		return ""
	}
	return breadcrumbStyle.Render("  " + strings.Join(m.breadcrumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ViewMain:
		help = "↑/↓: navigate • enter: select • q: quit"
	case ViewDashboard:
		help = "↑/↓/pgup/pgdn: scroll • r: refresh • esc: back"
	case ViewCustomers, ViewItems:
		help = "↑/↓: navigate • r: refresh • /: search • esc: back"
	case ViewTransactionForm:
		help = "tab: next field • ↑/↓: suggestions • enter: pick • ctrl+n: add row • ctrl+d: remove row • ctrl+s: save • esc: close/back"
	}
	return helpStyle.Render(help)
}

// RunTUI starts the TUI
func RunTUI(client *Client) error {
	p := tea.NewProgram(NewTUI(client), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
