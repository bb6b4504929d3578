package books

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardData is a snapshot assembled from the search endpoints; there is
// no dedicated reporting API so it aggregates client-side.
type DashboardData struct {
	CustomerCount   int
	TotalReceivable float64
	TopBalances     []ResultItem
	ItemCount       int
}

var (
	dashboardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#2D7D9A"))

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		customers, err := m.client.Searcher(customerSearchPath, "").All(ctx, allItemsLimit)
		if err != nil {
			return errorMsg{err}
		}
		items, err := m.client.Searcher(itemSearchPath, "").All(ctx, allItemsLimit)
		if err != nil {
			return errorMsg{err}
		}

		data := &DashboardData{
			CustomerCount: len(customers),
			ItemCount:     len(items),
		}

		var withBalance []ResultItem
		for _, c := range customers {
			if c.Balance == nil {
				continue
			}
			data.TotalReceivable += *c.Balance
			if *c.Balance != 0 {
				withBalance = append(withBalance, c)
			}
		}
		sort.Slice(withBalance, func(i, j int) bool {
			return *withBalance[i].Balance > *withBalance[j].Balance
		})
		if len(withBalance) > 10 {
			withBalance = withBalance[:10]
		}
		data.TopBalances = withBalance

		return dashboardLoadedMsg{data}
	}
}

func (m Model) renderDashboard() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading dashboard...", m.spinner.View())
	}
	if m.dashboard == nil {
		return "\n  No dashboard data"
	}
	if !m.viewportReady {
		return m.renderDashboardContent()
	}
	return m.viewport.View()
}

func (m Model) renderDashboardContent() string {
	d := m.dashboard
	var b strings.Builder

	b.WriteString(dashboardHeaderStyle.Render("  Overview"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Customers & vendors: %d\n", d.CustomerCount))
	b.WriteString(fmt.Sprintf("  Inventory items:     %d\n", d.ItemCount))

	total := m.client.FormatCurrency(d.TotalReceivable)
	if d.TotalReceivable >= 0 {
		total = positiveStyle.Render(total)
	} else {
		total = negativeStyle.Render(total)
	}
	b.WriteString(fmt.Sprintf("  Net receivable:      %s\n", total))

	if len(d.TopBalances) > 0 {
		b.WriteString("\n")
		b.WriteString(dashboardHeaderStyle.Render("  Outstanding balances"))
		b.WriteString("\n\n")
		for _, c := range d.TopBalances {
			amount := m.client.FormatCurrency(*c.Balance)
			if *c.Balance >= 0 {
				amount = positiveStyle.Render(amount)
			} else {
				amount = negativeStyle.Render(amount)
			}
			b.WriteString(fmt.Sprintf("  %-30s %s\n", c.Display("name"), amount))
		}
	}

	return b.String()
}
