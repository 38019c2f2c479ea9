// Package cmd implements the sobres CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Backend:    %s\n", cfg.General.Backend)
	fmt.Printf("    Namespace:  %s\n", cfg.General.Namespace)
	fmt.Printf("    Data dir:   %s\n", cfg.DataDir())
	if b, err := store.ParseBackend(cfg.General.Backend); err == nil && b != store.BackendMemory {
		fmt.Printf("    Ledger:     %s\n", store.DefaultPath(cfg.DataDir(), b))
	}
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Currency:   %s\n", cfg.Display.CurrencySymbol)
	fmt.Printf("    Theme:      %s\n", cfg.Display.Theme)
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Confirm overspend: %v\n", cfg.Budget.ConfirmOverspend)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:    %s\n", cfg.Server.Addr)
	fmt.Printf("    Interval:   %s\n", cfg.Interval())
	fmt.Printf("    Events:     %d\n", cfg.Server.EventsBuffer)
	fmt.Printf("    Rate limit: %d req/s\n", cfg.Server.RatePerSec)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:      %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `sobres setup` to reconfigure.")
	return nil
}
