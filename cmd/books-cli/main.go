package main

import (
	"fmt"
	"os"

	"github.com/lexysoft/books-cli/internal/books"
)

func main() {
	// No arguments or "tui" command -> launch TUI
	if len(os.Args) < 2 || os.Args[1] == "tui" {
		config, err := books.LoadConfig()
		if err != nil {
			// First run: walk through the setup wizard, then retry.
			if err := books.RunSetupTUI(); err != nil {
				fmt.Printf("%sError: %s%s\n", books.Red, err, books.Reset)
				os.Exit(1)
			}
			config, err = books.LoadConfig()
			if err != nil {
				fmt.Printf("%sError: %s%s\n", books.Red, err, books.Reset)
				os.Exit(1)
			}
		}
		client := books.NewClient(config)
		if err := books.RunTUI(client); err != nil {
			fmt.Printf("%sError: %s%s\n", books.Red, err, books.Reset)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cmd := os.Args[1]

	// Help doesn't need config
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		os.Exit(0)
	}

	// Version
	if cmd == "version" || cmd == "-v" || cmd == "--version" {
		fmt.Printf("Books CLI v%s\n", books.Version)
		os.Exit(0)
	}

	// Load config
	config, err := books.LoadConfig()
	if err != nil {
		fmt.Printf("%sError: %s%s\n", books.Red, err, books.Reset)
		os.Exit(1)
	}

	// Create client
	client := books.NewClient(config)

	// Route commands
	var cmdErr error
	switch cmd {
	case "ping":
		cmdErr = client.CmdPing()
	case "config":
		cmdErr = client.CmdConfig()
	case "customer":
		cmdErr = client.CmdCustomer(os.Args[2:])
	case "item":
		cmdErr = client.CmdItem(os.Args[2:])
	case "search":
		cmdErr = client.CmdSearch(os.Args[2:])
	default:
		fmt.Printf("%sUnknown command: %s%s\n", books.Red, cmd, books.Reset)
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Printf("%sError: %s%s\n", books.Red, cmdErr, books.Reset)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%sBooks CLI%s - Terminal client for the Books accounting backend

Usage: books-cli <command> [subcommand] [args...]

Running with no command opens the interactive TUI.

%sCommands:%s

  %stui%s                               Open the interactive TUI (default)
  %sping%s                              Test connection and authentication
  %sconfig%s                            Show current configuration
  %sversion%s                           Show version information

%sCustomers:%s
  %scustomer list%s                     List customers and vendors
  %scustomer search <query>%s           Search customers by name/email/phone
  %scustomer create <name>%s            Create a customer

%sItems:%s
  %sitem list%s                         List inventory items
  %sitem search <query>%s               Search items by name or SKU
  %sitem get <id>%s                     Show one item with stock and prices

%sSearch:%s
  %ssearch customers <query>%s          One-shot customer search
  %ssearch items <query>%s              One-shot item search

%sExamples:%s
  books-cli ping
  books-cli customer search "john"
  books-cli customer create "John Doe"
  books-cli item get 42

`,
		books.Blue, books.Reset,
		books.Yellow, books.Reset,
		books.Green, books.Reset, books.Green, books.Reset, books.Green, books.Reset, books.Green, books.Reset,
		books.Yellow, books.Reset,
		books.Green, books.Reset, books.Green, books.Reset, books.Green, books.Reset,
		books.Yellow, books.Reset,
		books.Green, books.Reset, books.Green, books.Reset, books.Green, books.Reset,
		books.Yellow, books.Reset,
		books.Green, books.Reset, books.Green, books.Reset,
		books.Yellow, books.Reset,
	)
}
