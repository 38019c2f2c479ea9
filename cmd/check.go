package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"

	"github.com/spf13/cobra"
)

var errBalanceDrift = errors.New("stored balances do not match the transactions")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify envelope balances against a replay of every transaction",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		stored   map[model.CategoryID]model.Money
		replayed map[model.CategoryID]model.Money
		catalog  model.Catalog
		count    int
	)
	s.svc.View(func(l *ledger.Ledger) {
		stored = l.Balances()
		replayed = l.Recompute()
		catalog = l.Catalog()
		count = l.Len()
	})

	drift := false
	rows := make([][]string, 0, len(catalog))
	for _, c := range catalog {
		status := "ok"
		if d := replayed[c.ID] - stored[c.ID]; d != 0 {
			status = cli.Warn("difiere " + cli.FormatSignedMoney(d))
			drift = true
		}
		rows = append(rows, []string{c.Name, cli.FormatMoney(stored[c.ID]), cli.FormatMoney(replayed[c.ID]), status})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Comprobación  %d movimientos", count),
		Headers:  []string{"Sobre", "Guardado", "Recalculado", "Estado"},
		Rows:     rows,
		LeftCols: []int{3},
	}))

	if drift {
		return errBalanceDrift
	}
	fmt.Println("  Los saldos cuadran.")
	return nil
}
