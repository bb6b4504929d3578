package books

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	customerFieldName   = "customer_search"
	transactionSavePath = "/transactions/api/create/"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	rowIndexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	subtotalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	deletedHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262")).
				Italic(true)
)

// itemFieldName names the smart-search field of one formset row, following
// the prefixed naming convention the backend expects for line items.
func itemFieldName(row int) string {
	return fmt.Sprintf("items-%d-item_search", row)
}

// focusSlot identifies one focusable widget inside the form.
type focusSlot struct {
	kind string // "customer", "item", "qty", "price", "method", "paid"
	row  int
}

type itemDetailMsg struct {
	row    int
	detail ItemDetail
	err    error
}

type transactionSavedMsg struct {
	reference string
	err       error
}

// txRow holds the editing widgets for one formset row. The slice stays
// index-aligned with Formset.Rows; deleted rows keep their slot.
type txRow struct {
	search SmartSearch
	qty    textinput.Model
	price  textinput.Model
}

// TransactionForm is the line-item entry screen: one customer smart-search,
// a growable set of item rows and live totals at the bottom.
type TransactionForm struct {
	client *Client

	customer SmartSearch
	rows     []txRow
	formset  Formset

	amountPaid textinput.Model

	methodInput  textinput.Model
	methodFilter SelectFilter
	methodValue  string
	methodSel    int

	// hidden carries the identifier values that accompany each search
	// field, keyed by the search field name minus its suffix.
	hidden map[string]string

	focus   int
	width   int
	saving  bool
	errText string
}

// NewTransactionForm builds an empty form with a single line-item row.
func NewTransactionForm(client *Client) TransactionForm {
	customer := NewSmartSearch(Binding{
		Field:       customerFieldName,
		SearchPath:  customerSearchPath,
		CreatePath:  customerCreatePath,
		Placeholder: "Search customers...",
		AllowCreate: true,
	}, client.Searcher(customerSearchPath, customerCreatePath))

	paid := textinput.New()
	paid.Placeholder = "0.00"
	paid.CharLimit = 12
	paid.Width = 12

	method := textinput.New()
	method.Placeholder = "Type to filter methods..."
	method.CharLimit = 24
	method.Width = 24

	f := TransactionForm{
		client:      client,
		customer:    customer,
		formset:     NewFormset(),
		amountPaid:  paid,
		methodInput: method,
		methodFilter: NewSelectFilter([]SelectOption{
			{Value: "", Label: "Select a method..."},
			{Value: "cash", Label: "Cash"},
			{Value: "card", Label: "Credit Card"},
			{Value: "bank_transfer", Label: "Bank Transfer"},
			{Value: "check", Label: "Check"},
		}),
		hidden: make(map[string]string),
		width:  80,
	}
	f.rows = append(f.rows, f.newRow(0))
	return f
}

func (f *TransactionForm) newRow(index int) txRow {
	search := NewSmartSearch(Binding{
		Field:       itemFieldName(index),
		SearchPath:  itemSearchPath,
		Placeholder: "Search items...",
	}, f.client.Searcher(itemSearchPath, ""))
	search.SetWidth(f.width - 10)

	qty := textinput.New()
	qty.Placeholder = "1"
	qty.CharLimit = 10
	qty.Width = 8

	price := textinput.New()
	price.Placeholder = "0.00"
	price.CharLimit = 12
	price.Width = 10

	return txRow{search: search, qty: qty, price: price}
}

// SetWidth resizes the form and every search panel in it.
func (f *TransactionForm) SetWidth(w int) {
	if w < 40 {
		w = 40
	}
	f.width = w
	f.customer.SetWidth(w - 10)
	for i := range f.rows {
		f.rows[i].search.SetWidth(w - 10)
	}
	f.recalcAnchors()
}

// Focus gives focus to the customer field.
func (f *TransactionForm) Focus() tea.Cmd {
	f.focus = 0
	f.recalcAnchors()
	return f.customer.Focus()
}

func (f TransactionForm) slots() []focusSlot {
	slots := []focusSlot{{kind: "customer"}}
	for _, i := range f.formset.Live() {
		slots = append(slots,
			focusSlot{kind: "item", row: i},
			focusSlot{kind: "qty", row: i},
			focusSlot{kind: "price", row: i},
		)
	}
	slots = append(slots, focusSlot{kind: "method"}, focusSlot{kind: "paid"})
	return slots
}

// methodOptions returns the real (non-placeholder) options visible for the
// current filter text.
func (f TransactionForm) methodOptions() []SelectOption {
	var opts []SelectOption
	for _, opt := range f.methodFilter.Apply(f.methodInput.Value()) {
		if opt.Value != "" {
			opts = append(opts, opt)
		}
	}
	return opts
}

// commitMethod snaps the payment method to the highlighted match, clearing it
// when nothing matches the typed filter.
func (f *TransactionForm) commitMethod() {
	opts := f.methodOptions()
	if len(opts) == 0 {
		f.methodValue = ""
		return
	}
	if f.methodSel >= len(opts) {
		f.methodSel = len(opts) - 1
	}
	if f.methodSel < 0 {
		f.methodSel = 0
	}
	f.methodValue = opts[f.methodSel].Value
	f.methodInput.SetValue(opts[f.methodSel].Label)
}

// moveFocus blurs the current slot and focuses the one delta positions away.
func (f *TransactionForm) moveFocus(delta int) tea.Cmd {
	slots := f.slots()
	if len(slots) == 0 {
		return nil
	}

	var cmds []tea.Cmd
	cmds = append(cmds, f.blurSlot(slots[f.focus]))

	f.focus = (f.focus + delta + len(slots)) % len(slots)
	cmds = append(cmds, f.focusSlot(slots[f.focus]))
	return tea.Batch(cmds...)
}

func (f *TransactionForm) blurSlot(s focusSlot) tea.Cmd {
	switch s.kind {
	case "customer":
		return f.customer.Blur()
	case "item":
		return f.rows[s.row].search.Blur()
	case "qty":
		f.rows[s.row].qty.Blur()
	case "price":
		f.rows[s.row].price.Blur()
	case "method":
		f.commitMethod()
		f.methodInput.Blur()
	case "paid":
		f.amountPaid.Blur()
	}
	return nil
}

func (f *TransactionForm) focusSlot(s focusSlot) tea.Cmd {
	switch s.kind {
	case "customer":
		return f.customer.Focus()
	case "item":
		return f.rows[s.row].search.Focus()
	case "qty":
		return f.rows[s.row].qty.Focus()
	case "price":
		return f.rows[s.row].price.Focus()
	case "method":
		return f.methodInput.Focus()
	case "paid":
		return f.amountPaid.Focus()
	}
	return nil
}

func (f TransactionForm) focusedSearch() *SmartSearch {
	slots := f.slots()
	if f.focus >= len(slots) {
		return nil
	}
	switch s := slots[f.focus]; s.kind {
	case "customer":
		return &f.customer
	case "item":
		return &f.rows[s.row].search
	}
	return nil
}

// Update handles one message. The third return value reports that the user
// left the form.
func (f TransactionForm) Update(msg tea.Msg) (TransactionForm, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return f.handleKey(msg)

	case SelectionMsg:
		return f.handleSelection(msg)

	case itemDetailMsg:
		if msg.err != nil {
			f.errText = msg.err.Error()
			return f, nil, false
		}
		return f.applyItemDetail(msg.row, msg.detail), nil, false

	case tea.MouseMsg:
		// Panels hit-test against absolute coordinates, so every search
		// field inspects the event.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		f.customer, cmd = f.customer.Update(msg)
		cmds = append(cmds, cmd)
		for i := range f.rows {
			f.rows[i].search, cmd = f.rows[i].search.Update(msg)
			cmds = append(cmds, cmd)
		}
		return f, tea.Batch(cmds...), false
	}

	// Search-internal messages (debounce ticks, fetch results, create
	// responses) carry their field name and are ignored by non-owners,
	// so fanning out is safe.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	f.customer, cmd = f.customer.Update(msg)
	cmds = append(cmds, cmd)
	for i := range f.rows {
		f.rows[i].search, cmd = f.rows[i].search.Update(msg)
		cmds = append(cmds, cmd)
	}
	return f, tea.Batch(cmds...), false
}

func (f TransactionForm) handleKey(msg tea.KeyMsg) (TransactionForm, tea.Cmd, bool) {
	f.errText = ""

	switch msg.String() {
	case "tab", "shift+tab":
		delta := 1
		if msg.String() == "shift+tab" {
			delta = -1
		}
		f.syncFormset()
		cmd := f.moveFocus(delta)
		f.recalcAnchors()
		return f, cmd, false

	case "ctrl+n":
		f.syncFormset()
		index := f.formset.AddRow()
		for len(f.rows) <= index {
			f.rows = append(f.rows, f.newRow(len(f.rows)))
		}
		f.recalcAnchors()
		return f, nil, false

	case "ctrl+d":
		slots := f.slots()
		s := slots[f.focus]
		if s.kind == "item" || s.kind == "qty" || s.kind == "price" {
			if len(f.formset.Live()) > 1 {
				f.formset.RemoveRow(s.row)
				f.focus = 0
				f.recalcAnchors()
				return f, f.customer.Focus(), false
			}
			f.errText = "A transaction needs at least one line item"
		}
		return f, nil, false

	case "ctrl+s":
		f.syncFormset()
		return f.save()

	case "esc":
		if s := f.focusedSearch(); s != nil && s.Open() {
			break // the search field closes its own panel
		}
		return f, nil, true
	}

	// Route remaining keys to the focused widget.
	slots := f.slots()
	s := slots[f.focus]
	var cmd tea.Cmd
	switch s.kind {
	case "customer":
		f.customer, cmd = f.customer.Update(msg)
	case "item":
		f.rows[s.row].search, cmd = f.rows[s.row].search.Update(msg)
	case "qty":
		f.rows[s.row].qty, cmd = f.rows[s.row].qty.Update(msg)
		f.syncFormset()
	case "price":
		f.rows[s.row].price, cmd = f.rows[s.row].price.Update(msg)
		f.syncFormset()
	case "method":
		switch msg.String() {
		case "down":
			if f.methodSel < len(f.methodOptions())-1 {
				f.methodSel++
			}
		case "up":
			if f.methodSel > 0 {
				f.methodSel--
			}
		case "enter":
			f.commitMethod()
		default:
			f.methodInput, cmd = f.methodInput.Update(msg)
			f.methodSel = 0
		}
	case "paid":
		f.amountPaid, cmd = f.amountPaid.Update(msg)
	}
	return f, cmd, false
}

func (f TransactionForm) handleSelection(msg SelectionMsg) (TransactionForm, tea.Cmd, bool) {
	if msg.Field == customerFieldName {
		f.hidden[f.customer.HiddenField()] = msg.Item.Value("id")
		return f, nil, false
	}

	for i := range f.rows {
		if msg.Field != f.rows[i].search.Field() {
			continue
		}
		f.hidden[f.rows[i].search.HiddenField()] = msg.Item.Value("id")
		f.formset.Rows[i].ItemID = msg.Item.Value("id")
		f.formset.Rows[i].ItemName = msg.Item.Display("name")
		if f.formset.Rows[i].Quantity == "" {
			f.formset.Rows[i].Quantity = "1"
			f.rows[i].qty.SetValue("1")
		}
		// The search result already carries a price; use it right away and
		// let the detail fetch fill in the rest.
		if price := msg.Item.Extra["sale_price"]; price != "" && strings.TrimSpace(f.rows[i].price.Value()) == "" {
			f.rows[i].price.SetValue(price)
			f.formset.Rows[i].UnitPrice = price
		}

		row, id := i, msg.Item.Value("id")
		client := f.client
		return f, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			detail, err := client.ItemDetail(ctx, id)
			return itemDetailMsg{row: row, detail: detail, err: err}
		}, false
	}
	return f, nil, false
}

// applyItemDetail pre-fills a row from the inventory record. A price the
// user already typed is left alone.
func (f TransactionForm) applyItemDetail(row int, detail ItemDetail) TransactionForm {
	if row >= len(f.rows) || f.formset.Rows[row].Deleted {
		return f
	}
	f.formset.Rows[row].Description = detail.Description
	if strings.TrimSpace(f.rows[row].price.Value()) == "" {
		price := strconv.FormatFloat(detail.SalePrice, 'f', 2, 64)
		f.rows[row].price.SetValue(price)
		f.formset.Rows[row].UnitPrice = price
	}
	return f
}

// syncFormset copies the row widget values into the formset so totals stay
// in step with what is on screen.
func (f *TransactionForm) syncFormset() {
	for i := range f.rows {
		if i >= len(f.formset.Rows) {
			break
		}
		f.formset.Rows[i].Quantity = f.rows[i].qty.Value()
		f.formset.Rows[i].UnitPrice = f.rows[i].price.Value()
	}
}

func (f TransactionForm) save() (TransactionForm, tea.Cmd, bool) {
	customerID := f.hidden["customer"]
	if customerID == "" {
		f.errText = "Pick a customer first"
		return f, nil, false
	}

	var items []map[string]interface{}
	for _, i := range f.formset.Live() {
		row := f.formset.Rows[i]
		if row.ItemID == "" {
			continue
		}
		items = append(items, map[string]interface{}{
			"item":        row.ItemID,
			"quantity":    row.Quantity,
			"unit_price":  row.UnitPrice,
			"description": row.Description,
		})
	}
	if len(items) == 0 {
		f.errText = "Add at least one line item"
		return f, nil, false
	}

	payload := map[string]interface{}{
		"customer":       customerID,
		"items":          items,
		"amount_paid":    strings.TrimSpace(f.amountPaid.Value()),
		"payment_method": f.methodValue,
	}

	f.saving = true
	client := f.client
	return f, func() tea.Msg {
		result, err := client.Request("POST", transactionSavePath, payload)
		if err != nil {
			return transactionSavedMsg{err: err}
		}
		reference, _ := result["reference"].(string)
		if reference == "" {
			reference, _ = result["id"].(string)
		}
		return transactionSavedMsg{reference: reference}
	}, false
}

// recalcAnchors repositions every search panel's hit-test origin from the
// current layout. Offsets assume closed panels; an open panel only shifts
// fields below it, and those cannot be interacted with while it is open.
func (f *TransactionForm) recalcAnchors() {
	// Status bar and breadcrumbs above the form content.
	y := 2

	y += 2 // title + blank
	y++    // customer label
	f.customer.SetAnchor(4, y)
	y += 2 // input + blank

	y++ // items header
	for _, i := range f.formset.Live() {
		f.rows[i].search.SetAnchor(8, y)
		y += 2 // item line + qty/price line
	}
}

func (f TransactionForm) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Transaction"))
	b.WriteString("\n\n")

	b.WriteString("  " + fieldLabelStyle.Render("Customer"))
	if id := f.hidden["customer"]; id != "" {
		b.WriteString(rowIndexStyle.Render("  #" + id))
	}
	b.WriteString("\n    ")
	b.WriteString(f.customer.View())
	b.WriteString("\n\n")

	b.WriteString("  " + fieldLabelStyle.Render("Line items"))
	b.WriteString("\n")

	live := f.formset.Live()
	for n, i := range live {
		row := f.formset.Rows[i]
		b.WriteString(fmt.Sprintf("    %s ", rowIndexStyle.Render(fmt.Sprintf("%d.", n+1))))
		b.WriteString(f.rows[i].search.View())
		b.WriteString("\n       ")
		b.WriteString(fieldLabelStyle.Render("Qty "))
		b.WriteString(f.rows[i].qty.View())
		b.WriteString(fieldLabelStyle.Render("  Price "))
		b.WriteString(f.rows[i].price.View())
		b.WriteString("  " + subtotalStyle.Render("= "+f.client.FormatCurrency(row.Subtotal())))
		b.WriteString("\n")
	}
	b.WriteString(deletedHintStyle.Render("    ctrl+n adds a row, ctrl+d removes the current one"))
	b.WriteString("\n\n")

	b.WriteString("  " + totalStyle.Render(fmt.Sprintf("Total: %s", f.client.FormatCurrency(f.formset.GrandTotal()))))
	b.WriteString("\n  ")
	b.WriteString(fieldLabelStyle.Render("Payment method "))
	b.WriteString(f.methodInput.View())
	if f.methodInput.Focused() {
		opts := f.methodOptions()
		if len(opts) == 0 {
			b.WriteString("  " + deletedHintStyle.Render(f.methodFilter.NoResultsText))
		} else {
			var labels []string
			for i, opt := range opts {
				if i == f.methodSel {
					labels = append(labels, selectedStyle.Render("["+opt.Label+"]"))
					continue
				}
				labels = append(labels, opt.Label)
			}
			b.WriteString("  " + fieldLabelStyle.Render(strings.Join(labels, "  ")))
		}
	}
	b.WriteString("\n  ")
	b.WriteString(fieldLabelStyle.Render("Amount paid "))
	b.WriteString(f.amountPaid.View())
	b.WriteString("\n  ")
	b.WriteString(fieldLabelStyle.Render(fmt.Sprintf("Balance due: %s",
		f.client.FormatCurrency(f.formset.BalanceDue(f.amountPaid.Value())))))
	b.WriteString("\n")

	if f.saving {
		b.WriteString("\n  " + fieldLabelStyle.Render("Saving..."))
	}
	if f.errText != "" {
		b.WriteString("\n  " + errorStyle.Render(f.errText))
	}

	return b.String()
}
