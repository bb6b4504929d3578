package books

import (
	"context"
	"fmt"
)

// Endpoint paths for the customer/vendor API.
const (
	customerSearchPath = "/customers/search/"
	customerCreatePath = "/customers/create-api/"
)

// CmdCustomer handles customer commands
func (c *Client) CmdCustomer(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: books-cli customer <subcommand> [args...]")
		fmt.Println("Subcommands: list, search, create")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  books-cli customer list")
		fmt.Println("  books-cli customer search \"john\"")
		fmt.Println("  books-cli customer create \"New Customer\"")
		return nil
	}

	switch args[0] {
	case "list":
		return c.customerList()
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: books-cli customer search <query>")
		}
		return c.customerSearch(args[1])
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: books-cli customer create <name>")
		}
		return c.customerCreate(args[1])
	default:
		return fmt.Errorf("unknown customer subcommand: %s", args[0])
	}
}

func (c *Client) customerList() error {
	fmt.Printf("%sFetching customers...%s\n", Blue, Reset)

	searcher := c.Searcher(customerSearchPath, customerCreatePath)
	items, err := searcher.All(context.Background(), allItemsLimit)
	if err != nil {
		return err
	}

	printCustomerResults(c, items)
	return nil
}

func (c *Client) customerSearch(query string) error {
	fmt.Printf("%sSearching customers for: %s%s\n", Blue, query, Reset)

	searcher := c.Searcher(customerSearchPath, customerCreatePath)
	items, err := searcher.Search(context.Background(), query, defaultMaxResults)
	if err != nil {
		return err
	}

	printCustomerResults(c, items)
	return nil
}

func printCustomerResults(c *Client, items []ResultItem) {
	if len(items) == 0 {
		fmt.Printf("%sNo customers found%s\n", Yellow, Reset)
		return
	}

	fmt.Printf("\n%sCustomers (%d):%s\n", Cyan, len(items), Reset)
	for _, item := range items {
		fmt.Printf("  %s", item.Display("name"))
		if item.Type != "" {
			fmt.Printf(" - %s%s%s", Yellow, item.Type, Reset)
		}
		if item.Email != "" {
			fmt.Printf(" <%s>", item.Email)
		}
		if item.Balance != nil {
			color := Green
			if *item.Balance < 0 {
				color = Red
			}
			fmt.Printf("  %s%s%s", color, c.FormatCurrency(*item.Balance), Reset)
		}
		fmt.Println()
	}
}

func (c *Client) customerCreate(name string) error {
	fmt.Printf("%sCreating customer: %s%s\n", Blue, name, Reset)

	searcher := c.Searcher(customerSearchPath, customerCreatePath)
	item, err := searcher.Create(context.Background(), name)
	if err != nil {
		return err
	}

	fmt.Printf("%s✓ Customer created: %s (id %s)%s\n", Green, item.Display("name"), item.ID, Reset)
	return nil
}
