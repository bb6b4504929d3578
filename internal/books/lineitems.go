package books

import "strconv"

// LineItem is one row of a transaction's formset.
type LineItem struct {
	ItemID      string
	ItemName    string
	Description string
	Quantity    string // raw user input; unparseable values count as zero
	UnitPrice   string
	Deleted     bool // removed rows are kept for server-side bookkeeping
}

// Subtotal is quantity × unit price, zero for unparseable input.
func (li LineItem) Subtotal() float64 {
	return parseAmount(li.Quantity) * parseAmount(li.UnitPrice)
}

// Formset holds the dynamic set of line-item rows.
type Formset struct {
	Rows []LineItem
}

// NewFormset starts with a single empty row.
func NewFormset() Formset {
	return Formset{Rows: []LineItem{{}}}
}

// AddRow appends a fresh row (the clone-and-clear behavior: same structure,
// empty values).
func (f *Formset) AddRow() int {
	f.Rows = append(f.Rows, LineItem{})
	return len(f.Rows) - 1
}

// RemoveRow marks a row deleted and excludes it from totals. Out-of-range
// indexes are ignored.
func (f *Formset) RemoveRow(i int) {
	if i < 0 || i >= len(f.Rows) {
		return
	}
	f.Rows[i].Deleted = true
}

// Live returns the indexes of rows that still count.
func (f Formset) Live() []int {
	var live []int
	for i, row := range f.Rows {
		if !row.Deleted {
			live = append(live, i)
		}
	}
	return live
}

// GrandTotal sums the subtotals of live rows.
func (f Formset) GrandTotal() float64 {
	var total float64
	for _, row := range f.Rows {
		if row.Deleted {
			continue
		}
		total += row.Subtotal()
	}
	return total
}

// BalanceDue is the grand total minus the amount paid, never negative input
// handling beyond plain arithmetic: overpayment shows as a negative balance.
func (f Formset) BalanceDue(amountPaid string) float64 {
	return f.GrandTotal() - parseAmount(amountPaid)
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
