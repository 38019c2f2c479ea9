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

var (
	flagSummaryMonth int
	flagSummaryYear  int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expenses and category spend for one month",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&flagSummaryMonth, "month", 0, "Month 1-12 (default current)")
	summaryCmd.Flags().IntVar(&flagSummaryYear, "year", 0, "Year (default current)")
	rootCmd.AddCommand(summaryCmd)
}

// summaryMonth resolves --year/--month against now.
func summaryMonth(now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()
	if flagSummaryYear != 0 {
		year = flagSummaryYear
	}
	if flagSummaryMonth != 0 {
		if flagSummaryMonth < 1 || flagSummaryMonth > 12 {
			return 0, 0, fmt.Errorf("invalid month %d: want 1-12", flagSummaryMonth)
		}
		month = time.Month(flagSummaryMonth)
	}
	return year, month, nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	year, month, err := summaryMonth(time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		sum   model.MonthSummary
		ok    bool
		total model.Money
		txs   []model.Transaction
		cat   model.Catalog
	)
	s.svc.View(func(l *ledger.Ledger) {
		sum, ok = l.Summarize(year, month)
		total = l.Total()
		cat = l.Catalog()
		for tx := range l.Transactions(model.Expense) {
			if tx.Date.InMonth(year, month) {
				txs = append(txs, tx)
			}
		}
	})

	label := cli.FormatMonth(year, month)
	fmt.Println()
	fmt.Println(cli.RenderTitle("SOBRES  " + label))
	fmt.Println()

	if !ok {
		fmt.Printf("  Sin movimientos en %s.\n", label)
		fmt.Println("  Registra uno con: sobres add \"Salario\" 1500 --income")
		fmt.Println()
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Resumen", "Monto"},
		Rows: [][]string{
			{"Ingresos", cli.FormatMoney(sum.Income)},
			{"Gastos", cli.FormatMoney(sum.Expense)},
			{"Neto", cli.FormatSignedMoney(sum.Net)},
			{"Movimientos", cli.FormatNumber(int64(sum.Transactions))},
			{"---"},
			{"Disponible en sobres", cli.FormatMoney(total)},
		},
	}))

	stats := report.AggregateCategories(txs, cat)
	if len(stats) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{
			st.Category.Name,
			cli.FormatNumber(int64(st.Transactions)),
			cli.FormatMoney(st.Spent),
			fmt.Sprintf("%.1f%%", st.SharePercent),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Gasto por categoría",
		Headers: []string{"Categoría", "Movs", "Gastado", "Parte"},
		Rows:    rows,
	}))
	return nil
}
