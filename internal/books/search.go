package books

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// allItemsLimit is the fixed fetch size for the unfiltered "all items" set,
// independent of a widget's MaxResults.
const allItemsLimit = 50

// ResultItem is one record returned by a search endpoint. ID and Name are the
// identifier and primary label; the remaining fields are optional display
// attributes. Anything else the endpoint sends is kept verbatim in Extra.
type ResultItem struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Company string
	Type    string
	Balance *float64
	Extra   map[string]string
}

// UnmarshalJSON flattens the endpoint's loose JSON object into the typed
// record. Numeric values are normalized to strings so callers never deal with
// float64-vs-string differences between backends.
func (r *ResultItem) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Extra = make(map[string]string)
	for key, val := range raw {
		s := jsonScalar(val)
		switch key {
		case "id":
			r.ID = s
		case "name":
			r.Name = s
		case "email":
			r.Email = s
		case "phone":
			r.Phone = s
		case "company":
			r.Company = s
		case "type", "customer_type", "item_type_display":
			r.Type = s
		case "balance":
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				b := f
				r.Balance = &b
			}
		case "receivable_balance":
			// Customer endpoints report receivables instead of a plain balance.
			if r.Balance == nil {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					b := f
					r.Balance = &b
				}
			}
			if s != "" {
				r.Extra[key] = s
			}
		default:
			if s != "" {
				r.Extra[key] = s
			}
		}
	}
	return nil
}

// Display returns the attribute named by field, falling back to the record
// name and finally to "Unnamed" so a malformed record still renders.
func (r ResultItem) Display(field string) string {
	if field != "" && field != "name" {
		if v, ok := r.Extra[field]; ok && v != "" {
			return v
		}
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unnamed"
}

// Value returns the identifier attribute named by field, defaulting to ID.
func (r ResultItem) Value(field string) string {
	if field != "" && field != "id" {
		if v, ok := r.Extra[field]; ok && v != "" {
			return v
		}
	}
	return r.ID
}

func jsonScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// decodeResults accepts both response shapes the backends produce: an object
// with a "results" array, or the bare array itself.
func decodeResults(body []byte) ([]ResultItem, error) {
	var wrapped struct {
		Results []ResultItem `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Results != nil {
		return wrapped.Results, nil
	}

	var bare []ResultItem
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("unexpected search response: %s", truncateBody(body))
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// Searcher is the remote lookup surface a SmartSearch widget talks to.
type Searcher interface {
	// Search returns records matching query, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]ResultItem, error)
	// All returns the unfiltered record set, capped at limit.
	All(ctx context.Context, limit int) ([]ResultItem, error)
	// Create registers a new record with the given name and returns it.
	Create(ctx context.Context, name string) (ResultItem, error)
}

// apiSearcher binds a Client to one search endpoint pair.
type apiSearcher struct {
	client     *Client
	searchPath string
	createPath string
}

// Searcher returns a Searcher for the given endpoint paths. createPath may be
// empty when the endpoint does not support inline creation.
func (c *Client) Searcher(searchPath, createPath string) Searcher {
	return &apiSearcher{client: c, searchPath: searchPath, createPath: createPath}
}

func (s *apiSearcher) Search(ctx context.Context, query string, limit int) ([]ResultItem, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	body, err := s.client.do(ctx, http.MethodGet, s.searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeResults(body)
}

func (s *apiSearcher) All(ctx context.Context, limit int) ([]ResultItem, error) {
	q := url.Values{}
	q.Set("all", "1")
	q.Set("limit", strconv.Itoa(limit))

	body, err := s.client.do(ctx, http.MethodGet, s.searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeResults(body)
}

func (s *apiSearcher) Create(ctx context.Context, name string) (ResultItem, error) {
	if s.createPath == "" {
		return ResultItem{}, fmt.Errorf("endpoint does not support creation")
	}

	body, err := s.client.do(ctx, http.MethodPost, s.createPath, map[string]string{"name": name})
	if err != nil {
		return ResultItem{}, err
	}

	var resp struct {
		Success bool        `json:"success"`
		Item    *ResultItem `json:"item"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ResultItem{}, fmt.Errorf("unexpected create response: %s", truncateBody(body))
	}

	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "creation failed"
		}
		return ResultItem{}, fmt.Errorf("%s", resp.Error)
	}
	if resp.Item == nil {
		return ResultItem{}, fmt.Errorf("create response missing item")
	}

	return *resp.Item, nil
}

// CmdSearch handles the search CLI command: one-shot lookups against either
// search endpoint.
func (c *Client) CmdSearch(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: search <customers|items> <query>")
	}

	switch args[0] {
	case "customers":
		return c.customerSearch(args[1])
	case "items":
		return c.itemSearch(args[1])
	default:
		return fmt.Errorf("unknown search target: %s (want customers or items)", args[0])
	}
}
