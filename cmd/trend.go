package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"

	"github.com/spf13/cobra"
)

var flagTrendMonths int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Income and expenses over the last months",
	Args:  cobra.NoArgs,
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&flagTrendMonths, "months", "m", 6, "Number of months to show")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	if flagTrendMonths < 1 {
		return fmt.Errorf("invalid --months %d: must be at least 1", flagTrendMonths)
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var txs []model.Transaction
	s.svc.View(func(l *ledger.Ledger) {
		for tx := range l.Transactions("") {
			txs = append(txs, tx)
		}
	})

	now := time.Now()
	from := time.Date(now.Year(), now.Month()-time.Month(flagTrendMonths-1), 1, 0, 0, 0, 0, time.UTC)
	months := report.AggregateMonths(txs, from, now)

	rows := make([][]string, 0, len(months))
	expenses := make([]float64, len(months))
	for i, m := range months {
		rows = append(rows, []string{
			cli.FormatMonth(m.Month.Year(), m.Month.Month()),
			cli.FormatNumber(int64(m.Transactions)),
			cli.FormatMoney(m.Income),
			cli.FormatMoney(m.Expense),
			cli.Money(cli.FormatSignedMoney(m.Net), m.Net < 0),
		})
		// oldest first for the sparkline
		expenses[len(months)-1-i] = m.Expense.Float()
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Últimos %d meses", flagTrendMonths),
		Headers: []string{"Mes", "Movs", "Ingresos", "Gastos", "Neto"},
		Rows:    rows,
	}))
	fmt.Printf("  Gastos  %s\n\n", cli.RenderSparkline(expenses))
	return nil
}
