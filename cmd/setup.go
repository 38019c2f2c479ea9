package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	vals := tui.SetupValuesFrom(cfg)
	err := tui.NewSetupForm(&vals).WithTheme(huh.ThemeBase16()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	vals.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `sobres setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
