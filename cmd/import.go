package cmd

import (
	"fmt"
	"slices"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/legacy"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the budget with a browser localStorage export",
	Long: "Import a JSON file holding the financeTransactions, financePercentages and\n" +
		"financeCategoryBalances keys of the old web page. Balances are rebuilt\n" +
		"from the transactions; any difference with the stored ones is reported.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every transaction and restore the default allocation",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	importCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Replace existing data without asking")
	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(importCmd, resetCmd)
}

// confirmReplace asks before existing data is thrown away.
func confirmReplace(title string, existing int) (bool, error) {
	if flagYes || existing == 0 {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(fmt.Sprintf("Se perderán %d movimientos.", existing)).
		Affirmative("Continuar").
		Negative("Cancelar").
		Value(&ok).
		Run()
	return ok, err
}

func runImport(cmd *cobra.Command, args []string) error {
	res, err := legacy.ReadFile(args[0], model.DefaultCategories)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	log := logging.Component(s.log, logging.ComponentImport)

	ok, err := confirmReplace("¿Reemplazar el presupuesto actual?", len(s.svc.State().Transactions))
	if err != nil || !ok {
		return err
	}

	for _, w := range res.Warnings {
		log.Warn(w)
		fmt.Println("  " + cli.Warn("! "+w))
	}

	if err := s.svc.Import(cmd.Context(), res.State); err != nil {
		return err
	}
	fmt.Printf("  Importados %d movimientos en %q\n", len(res.State.Transactions), s.svc.Namespace())

	if len(res.Drift) == 0 {
		return nil
	}
	ids := make([]model.CategoryID, 0, len(res.Drift))
	for id := range res.Drift {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{
			categoryLabel(model.DefaultCategories, id),
			cli.FormatMoney(res.Stored[id]),
			cli.FormatMoney(res.State.Balances[id]),
			cli.FormatSignedMoney(res.Drift[id]),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Saldos recalculados",
		Headers: []string{"Sobre", "En la página", "Recalculado", "Diferencia"},
		Rows:    rows,
	}))
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := confirmReplace(fmt.Sprintf("¿Vaciar el presupuesto %q?", s.svc.Namespace()), len(s.svc.State().Transactions))
	if err != nil || !ok {
		return err
	}
	if err := s.svc.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("  Presupuesto %q vaciado.\n", s.svc.Namespace())
	return nil
}
