package cmd

import (
	"fmt"

	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/tui"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if !theme.SetActive(s.cfg.Display.Theme) {
		s.log.Warn("unknown theme, using default", "theme", s.cfg.Display.Theme)
	}

	// Force TrueColor so every background style produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	ctx := logging.WithContext(cmd.Context(), logging.Component(s.log, logging.ComponentTUI))
	app := tui.NewApp(ctx, s.svc, s.cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
