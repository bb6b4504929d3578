package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		BooksURL:  srv.URL,
		APIKey:    "key",
		APISecret: "secret",
		CSRFToken: "csrf-token-123",
		Brand:     "Books CLI",
		Currency:  "$",
	})
}

func TestSearcherSearchParams(t *testing.T) {
	var gotQuery, gotLimit, gotAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"results": [{"id": 7, "name": "John Doe"}]}`))
	}))

	results, err := client.Searcher("/customers/search/", "").Search(context.Background(), "john", 15)
	require.NoError(t, err)

	assert.Equal(t, "john", gotQuery)
	assert.Equal(t, "15", gotLimit)
	assert.Equal(t, "token key:secret", gotAuth)
	require.Len(t, results, 1)
	assert.Equal(t, "7", results[0].ID)
	assert.Equal(t, "John Doe", results[0].Name)
}

func TestSearcherAllParams(t *testing.T) {
	var gotAll, gotLimit string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAll = r.URL.Query().Get("all")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"results": []}`))
	}))

	_, err := client.Searcher("/customers/search/", "").All(context.Background(), allItemsLimit)
	require.NoError(t, err)

	assert.Equal(t, "1", gotAll)
	assert.Equal(t, "50", gotLimit)
}

func TestSearcherBareArrayFallback(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "a1", "name": "Widget"}]`))
	}))

	results, err := client.Searcher("/inventory/api/items/search/", "").Search(context.Background(), "wid", 15)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a1", results[0].ID)
}

func TestResultItemNormalization(t *testing.T) {
	payload := `{
		"id": 12,
		"name": "Acme Corp",
		"email": "sales@acme.test",
		"phone": "555-0100",
		"customer_type": "Vendor",
		"balance": "-42.50",
		"sku": "ACM-1",
		"sale_price": "19.99"
	}`

	var item ResultItem
	require.NoError(t, json.Unmarshal([]byte(payload), &item))

	assert.Equal(t, "12", item.ID, "numeric ids normalize to strings")
	assert.Equal(t, "Vendor", item.Type)
	require.NotNil(t, item.Balance)
	assert.InDelta(t, -42.50, *item.Balance, 1e-9)
	assert.Equal(t, "ACM-1", item.Extra["sku"], "unmapped keys land in Extra")
	assert.Equal(t, "19.99", item.Extra["sale_price"])
}

func TestResultItemDisplayFallback(t *testing.T) {
	item := ResultItem{ID: "3"}
	assert.Equal(t, "Unnamed", item.Display("name"))
	assert.Equal(t, "3", item.Value("id"))

	named := ResultItem{ID: "4", Name: "Bolt", Extra: map[string]string{"sku": "B-1"}}
	assert.Equal(t, "Bolt", named.Display("name"))
	assert.Equal(t, "B-1", named.Display("sku"))
}

func TestSearcherCreate(t *testing.T) {
	var gotCSRF, gotContentType string
	var gotBody map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotCSRF = r.Header.Get("X-CSRFToken")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success": true, "item": {"id": 42, "name": "New Guy"}}`))
	}))

	item, err := client.Searcher("/customers/search/", "/customers/create-api/").
		Create(context.Background(), "New Guy")
	require.NoError(t, err)

	assert.Equal(t, "csrf-token-123", gotCSRF)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]string{"name": "New Guy"}, gotBody)
	assert.Equal(t, "42", item.ID)
	assert.Equal(t, "New Guy", item.Name)
}

func TestSearcherCreateBackendError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "name already exists"}`))
	}))

	_, err := client.Searcher("/customers/search/", "/customers/create-api/").
		Create(context.Background(), "Dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name already exists")
}

func TestSearcherCreateUnsupported(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := client.Searcher("/inventory/api/items/search/", "").Create(context.Background(), "X")
	require.Error(t, err)
}

func TestSearcherHTTPError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))

	_, err := client.Searcher("/customers/search/", "").Search(context.Background(), "john", 15)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestItemDetail(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/api/items/42/details/", r.URL.Path)
		w.Write([]byte(`{
			"id": 42,
			"name": "Widget",
			"sku": "W-1",
			"description": "A fine widget",
			"unit_of_measurement": "",
			"quantity_on_hand": "12.0",
			"sale_price": "19.99",
			"purchase_price": "12.00"
		}`))
	}))

	detail, err := client.ItemDetail(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, "Widget", detail.Name)
	assert.Equal(t, "pcs", detail.Unit, "blank unit falls back to pcs")
	assert.InDelta(t, 19.99, detail.SalePrice, 1e-9)
	assert.InDelta(t, 12.0, detail.QuantityOnHand, 1e-9)
}

func TestFormatCurrency(t *testing.T) {
	client := &Client{Config: &Config{Currency: "€"}}
	assert.Equal(t, "€10.50", client.FormatCurrency(10.5))
	assert.Equal(t, "-€3.25", client.FormatCurrency(-3.25))
}
