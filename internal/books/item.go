package books

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Endpoint paths for the inventory API.
const (
	itemSearchPath = "/inventory/api/items/search/"
	itemDetailPath = "/inventory/api/items/%s/details/"
)

// ItemDetail is the inventory detail payload used to pre-fill a line-item row
// after an item is picked.
type ItemDetail struct {
	ID             string
	Name           string
	SKU            string
	Description    string
	Unit           string
	QuantityOnHand float64
	SalePrice      float64
	PurchasePrice  float64
}

// ItemDetail fetches one inventory item. The backend reports money and
// quantities as strings; unparseable values degrade to zero.
func (c *Client) ItemDetail(ctx context.Context, id string) (ItemDetail, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf(itemDetailPath, id), nil)
	if err != nil {
		return ItemDetail{}, err
	}

	var raw struct {
		ID          json.Number `json:"id"`
		Name        string      `json:"name"`
		SKU         string      `json:"sku"`
		Description string      `json:"description"`
		Unit        string      `json:"unit_of_measurement"`
		Quantity    string      `json:"quantity_on_hand"`
		SalePrice   string      `json:"sale_price"`
		Purchase    string      `json:"purchase_price"`
		Error       string      `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ItemDetail{}, fmt.Errorf("failed to parse item detail: %w", err)
	}
	if raw.Error != "" {
		return ItemDetail{}, fmt.Errorf("API error: %s", raw.Error)
	}

	detail := ItemDetail{
		ID:          raw.ID.String(),
		Name:        raw.Name,
		SKU:         raw.SKU,
		Description: raw.Description,
		Unit:        raw.Unit,
	}
	if detail.Unit == "" {
		detail.Unit = "pcs"
	}
	detail.QuantityOnHand, _ = strconv.ParseFloat(raw.Quantity, 64)
	detail.SalePrice, _ = strconv.ParseFloat(raw.SalePrice, 64)
	detail.PurchasePrice, _ = strconv.ParseFloat(raw.Purchase, 64)

	return detail, nil
}

// CmdItem handles inventory item commands
func (c *Client) CmdItem(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: books-cli item <subcommand> [args...]")
		fmt.Println("Subcommands: list, search, get")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  books-cli item list")
		fmt.Println("  books-cli item search \"widget\"")
		fmt.Println("  books-cli item get 42")
		return nil
	}

	switch args[0] {
	case "list":
		return c.itemList()
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: books-cli item search <query>")
		}
		return c.itemSearch(args[1])
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: books-cli item get <id>")
		}
		return c.itemGet(args[1])
	default:
		return fmt.Errorf("unknown item subcommand: %s", args[0])
	}
}

func (c *Client) itemList() error {
	fmt.Printf("%sFetching items...%s\n", Blue, Reset)

	searcher := c.Searcher(itemSearchPath, "")
	items, err := searcher.All(context.Background(), allItemsLimit)
	if err != nil {
		return err
	}

	printItemResults(items)
	return nil
}

func (c *Client) itemSearch(query string) error {
	fmt.Printf("%sSearching items for: %s%s\n", Blue, query, Reset)

	searcher := c.Searcher(itemSearchPath, "")
	items, err := searcher.Search(context.Background(), query, defaultMaxResults)
	if err != nil {
		return err
	}

	printItemResults(items)
	return nil
}

func printItemResults(items []ResultItem) {
	if len(items) == 0 {
		fmt.Printf("%sNo items found%s\n", Yellow, Reset)
		return
	}

	fmt.Printf("\n%sItems (%d):%s\n", Cyan, len(items), Reset)
	for _, item := range items {
		fmt.Printf("  %s", item.Display("name"))
		if sku := item.Extra["sku"]; sku != "" {
			fmt.Printf(" [%s]", sku)
		}
		if price := item.Extra["sale_price"]; price != "" {
			fmt.Printf(" - %s%s%s", Yellow, price, Reset)
		}
		fmt.Println()
	}
}

func (c *Client) itemGet(id string) error {
	fmt.Printf("%sFetching item: %s%s\n", Blue, id, Reset)

	detail, err := c.ItemDetail(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  Name: %s\n", detail.Name)
	if detail.SKU != "" {
		fmt.Printf("  SKU: %s\n", detail.SKU)
	}
	if detail.Description != "" {
		fmt.Printf("  Description: %s\n", detail.Description)
	}
	fmt.Printf("  Unit: %s\n", detail.Unit)
	fmt.Printf("  On hand: %.2f\n", detail.QuantityOnHand)
	fmt.Printf("  Sale price: %s\n", c.FormatCurrency(detail.SalePrice))
	fmt.Printf("  Purchase price: %s\n", c.FormatCurrency(detail.PurchasePrice))

	return nil
}
