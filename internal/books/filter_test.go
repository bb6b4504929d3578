package books

import "testing"

func paymentMethods() []SelectOption {
	return []SelectOption{
		{Value: "", Label: "Select a method..."},
		{Value: "cash", Label: "Cash"},
		{Value: "card", Label: "Credit Card"},
		{Value: "transfer", Label: "Bank Transfer"},
	}
}

func TestSelectFilterSubstring(t *testing.T) {
	f := NewSelectFilter(paymentMethods())

	t.Run("empty filter shows everything", func(t *testing.T) {
		if got := f.Apply(""); len(got) != 4 {
			t.Fatalf("Apply(\"\") returned %d options, want 4", len(got))
		}
		if got := f.Apply("   "); len(got) != 4 {
			t.Fatalf("whitespace filter returned %d options, want 4", len(got))
		}
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		got := f.Apply("CARD")
		// Placeholder plus the one match.
		if len(got) != 2 || got[1].Value != "card" {
			t.Fatalf("Apply(\"CARD\") = %v", got)
		}
	})

	t.Run("placeholder survives any filter", func(t *testing.T) {
		got := f.Apply("zzz")
		if len(got) != 1 || got[0].Value != "" {
			t.Fatalf("Apply(\"zzz\") = %v, want just the placeholder", got)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		if f.HasMatches("zzz") {
			t.Fatal("HasMatches(\"zzz\") = true, want false")
		}
		if !f.HasMatches("bank") {
			t.Fatal("HasMatches(\"bank\") = false, want true")
		}
	})
}

func TestSelectFilterFuzzy(t *testing.T) {
	f := NewSelectFilter(paymentMethods())
	f.Fuzzy = true

	got := f.Apply("bt")
	if len(got) < 2 {
		t.Fatalf("fuzzy Apply(\"bt\") = %v, want placeholder plus Bank Transfer", got)
	}
	if got[0].Value != "" {
		t.Fatal("placeholder should lead the fuzzy results")
	}

	found := false
	for _, opt := range got[1:] {
		if opt.Value == "transfer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fuzzy Apply(\"bt\") lost Bank Transfer: %v", got)
	}
}
