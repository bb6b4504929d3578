package books

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestForm() TransactionForm {
	client := NewClient(&Config{
		BooksURL:  "http://books.invalid",
		APIKey:    "key",
		APISecret: "secret",
		Currency:  "$",
	})
	return NewTransactionForm(client)
}

func TestFormCustomerSelectionBridging(t *testing.T) {
	f := newTestForm()

	f, cmd, done := f.Update(SelectionMsg{
		Field: customerFieldName,
		Item:  ResultItem{ID: "7", Name: "John Doe"},
	})
	if done || cmd != nil {
		t.Fatal("customer selection should not leave the form or fetch anything")
	}
	if f.hidden["customer"] != "7" {
		t.Fatalf("hidden customer = %q, want 7", f.hidden["customer"])
	}
}

func TestFormItemSelectionFetchesDetail(t *testing.T) {
	f := newTestForm()

	f, cmd, _ := f.Update(SelectionMsg{
		Field: itemFieldName(0),
		Item:  ResultItem{ID: "42", Name: "Widget"},
	})
	if cmd == nil {
		t.Fatal("item selection should schedule a detail fetch")
	}
	if f.formset.Rows[0].ItemID != "42" || f.formset.Rows[0].ItemName != "Widget" {
		t.Fatalf("row not updated: %+v", f.formset.Rows[0])
	}
	if f.rows[0].qty.Value() != "1" {
		t.Fatalf("quantity should default to 1, got %q", f.rows[0].qty.Value())
	}

	f, _, _ = f.Update(itemDetailMsg{
		row:    0,
		detail: ItemDetail{ID: "42", Description: "A fine widget", SalePrice: 19.99, Unit: "pcs"},
	})
	if got := f.rows[0].price.Value(); got != "19.99" {
		t.Fatalf("price should pre-fill from the sale price, got %q", got)
	}
	if f.formset.Rows[0].Description != "A fine widget" {
		t.Fatalf("description not carried over: %q", f.formset.Rows[0].Description)
	}
}

func TestFormItemDetailKeepsTypedPrice(t *testing.T) {
	f := newTestForm()
	f.rows[0].price.SetValue("5.00")

	f, _, _ = f.Update(itemDetailMsg{row: 0, detail: ItemDetail{SalePrice: 19.99}})
	if got := f.rows[0].price.Value(); got != "5.00" {
		t.Fatalf("detail fetch must not clobber a typed price, got %q", got)
	}
}

func TestFormRowManagement(t *testing.T) {
	f := newTestForm()
	if got := len(f.slots()); got != 6 {
		t.Fatalf("one row should yield 6 focus slots, got %d", got)
	}

	f, _, _ = f.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if got := len(f.formset.Live()); got != 2 {
		t.Fatalf("ctrl+n should add a row, live=%d", got)
	}
	if got := len(f.slots()); got != 9 {
		t.Fatalf("two rows should yield 9 focus slots, got %d", got)
	}

	// Move focus onto the second row's item field, then remove it.
	for i := 0; i < 4; i++ {
		f, _, _ = f.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	f, _, _ = f.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := len(f.formset.Live()); got != 1 {
		t.Fatalf("ctrl+d should remove the focused row, live=%d", got)
	}

	// The last live row cannot be removed.
	f.focus = 1
	f, _, _ = f.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if got := len(f.formset.Live()); got != 1 {
		t.Fatalf("last row must survive, live=%d", got)
	}
	if f.errText == "" {
		t.Fatal("refusing to remove the last row should explain itself")
	}
}

func TestFormSaveValidation(t *testing.T) {
	f := newTestForm()

	f, cmd, _ := f.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || f.errText == "" {
		t.Fatal("saving without a customer must fail with a message")
	}

	f.hidden["customer"] = "7"
	f, cmd, _ = f.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || f.errText == "" {
		t.Fatal("saving without line items must fail with a message")
	}

	f.formset.Rows[0].ItemID = "42"
	f.rows[0].qty.SetValue("2")
	f.rows[0].price.SetValue("10")
	f, cmd, _ = f.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("a complete form should produce a save command")
	}
	if !f.saving {
		t.Fatal("form should report that it is saving")
	}
}

func TestFormTotalsFollowInputs(t *testing.T) {
	f := newTestForm()
	f.formset.Rows[0].ItemID = "42"
	f.rows[0].qty.SetValue("2")
	f.rows[0].price.SetValue("10")
	f.syncFormset()

	if got := f.formset.GrandTotal(); got != 20 {
		t.Fatalf("GrandTotal = %v, want 20", got)
	}

	f.amountPaid.SetValue("15")
	if got := f.formset.BalanceDue(f.amountPaid.Value()); got != 5 {
		t.Fatalf("BalanceDue = %v, want 5", got)
	}
}

func TestFormPaymentMethodFilter(t *testing.T) {
	f := newTestForm()
	f.methodInput.Focus()
	f.methodInput.SetValue("bank")

	opts := f.methodOptions()
	if len(opts) != 1 || opts[0].Value != "bank_transfer" {
		t.Fatalf("methodOptions(\"bank\") = %v", opts)
	}

	f.commitMethod()
	if f.methodValue != "bank_transfer" {
		t.Fatalf("methodValue = %q, want bank_transfer", f.methodValue)
	}
	if f.methodInput.Value() != "Bank Transfer" {
		t.Fatalf("input should snap to the full label, got %q", f.methodInput.Value())
	}

	// A filter nothing matches clears the method.
	f.methodInput.SetValue("zzz")
	f.commitMethod()
	if f.methodValue != "" {
		t.Fatalf("unmatched filter should clear the method, got %q", f.methodValue)
	}
}
