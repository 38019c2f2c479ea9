package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagTxDate     string
	flagTxIncome   bool
	flagTxExpense  bool
	flagTxCategory string
	flagTxDesc     string
	flagTxAmount   string
	flagTxType     string
	flagYes        bool

	flagListType   string
	flagListLimit  int
	flagListSearch string
)

var addCmd = &cobra.Command{
	Use:   "add DESCRIPTION AMOUNT",
	Short: "Record an income or an expense",
	Example: `  sobres add "Salario" 1500 --income
  sobres add "Supermercado" 82.40 --category necesidades --date 04/03/2024`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a recorded transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a transaction and undo its effect on the envelopes",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List transactions, newest first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	addCmd.Flags().StringVar(&flagTxDate, "date", "", "Date as dd/mm/yyyy or yyyy-mm-dd (default today)")
	addCmd.Flags().BoolVar(&flagTxIncome, "income", false, "Record an income")
	addCmd.Flags().BoolVar(&flagTxExpense, "expense", false, "Record an expense (default)")
	addCmd.Flags().StringVarP(&flagTxCategory, "category", "c", "", "Expense category, by name or id")
	addCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask before overspending an envelope")
	addCmd.MarkFlagsMutuallyExclusive("income", "expense")

	editCmd.Flags().StringVar(&flagTxDesc, "desc", "", "New description")
	editCmd.Flags().StringVar(&flagTxAmount, "amount", "", "New amount")
	editCmd.Flags().StringVar(&flagTxDate, "date", "", "New date")
	editCmd.Flags().StringVar(&flagTxType, "type", "", "New type: income or expense")
	editCmd.Flags().StringVarP(&flagTxCategory, "category", "c", "", "New expense category")
	editCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask before overspending an envelope")

	deleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")

	listCmd.Flags().StringVarP(&flagListType, "type", "t", "", "Only income or expense")
	listCmd.Flags().IntVarP(&flagListLimit, "limit", "l", 20, "Max rows, 0 for all")
	listCmd.Flags().StringVarP(&flagListSearch, "search", "s", "", "Only descriptions containing this text")

	rootCmd.AddCommand(addCmd, editCmd, deleteCmd, listCmd)
}

// overspendConfirm asks on the terminal before an expense overdraws its
// envelope, unless --yes is set or the config turns the question off.
func overspendConfirm(cfg config.Config) ledger.ConfirmFunc {
	if flagYes || !cfg.Budget.ConfirmOverspend {
		return ledger.Confirm
	}
	return func(w ledger.OverspendWarning) bool {
		var ok bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("%s no tiene fondos suficientes", w.Category.Name)).
			Description(fmt.Sprintf("Disponible %s, gasto %s. Faltan %s.",
				cli.FormatMoney(w.Available), cli.FormatMoney(w.Amount), cli.FormatMoney(w.Shortfall()))).
			Affirmative("Registrar igual").
			Negative("Cancelar").
			Value(&ok).
			Run()
		return err == nil && ok
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return id, nil
}

func printTransaction(verb string, tx model.Transaction, catalog model.Catalog) {
	fmt.Printf("  %s #%d  %s  %s  %s\n", verb, tx.ID, cli.FormatDate(tx.Date), tx.Description,
		cli.Money(cli.FormatTransactionAmount(tx), tx.Type == model.Expense))
	if tx.Type == model.Expense {
		fmt.Printf("  Sale de %s\n", categoryLabel(catalog, tx.CategoryID))
		return
	}
	parts := make([]string, 0, len(tx.Split))
	for _, c := range ledger.Credits(tx) {
		parts = append(parts, categoryLabel(catalog, c.CategoryID)+" "+cli.FormatMoney(c.Amount))
	}
	fmt.Printf("  Reparto: %s\n", strings.Join(parts, " · "))
}

func categoryLabel(catalog model.Catalog, id model.CategoryID) string {
	if c, ok := catalog.Lookup(id); ok {
		return c.Name
	}
	return fmt.Sprintf("#%d", id)
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	amount, err := model.ParseMoney(args[1])
	if err != nil {
		return err
	}
	date, err := cli.ParseDateInput(flagTxDate, model.Today())
	if err != nil {
		return err
	}

	in := ledger.TransactionInput{
		Description: args[0],
		Amount:      amount,
		Date:        date,
		Type:        model.Expense,
	}
	if flagTxIncome {
		in.Type = model.Income
	}

	catalog := model.DefaultCategories
	if in.Type == model.Expense {
		if flagTxCategory == "" {
			return errors.New("expenses need --category")
		}
		c, err := parseCategory(catalog, flagTxCategory)
		if err != nil {
			return err
		}
		in.CategoryID = c.ID
	}

	tx, err := s.svc.Add(cmd.Context(), in, overspendConfirm(s.cfg))
	if errors.Is(err, ledger.ErrOverspendDeclined) {
		fmt.Println("  Gasto no registrado.")
		return nil
	}
	if err != nil {
		return err
	}
	printTransaction("Guardado", tx, catalog)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		tx      model.Transaction
		found   bool
		catalog model.Catalog
	)
	s.svc.View(func(l *ledger.Ledger) {
		tx, found = l.Get(id)
		catalog = l.Catalog()
	})
	if !found {
		return &ledger.NotFoundError{ID: id}
	}

	in := ledger.InputOf(tx)
	flags := cmd.Flags()
	if flags.Changed("desc") {
		in.Description = flagTxDesc
	}
	if flags.Changed("amount") {
		if in.Amount, err = model.ParseMoney(flagTxAmount); err != nil {
			return err
		}
	}
	if flags.Changed("date") {
		if in.Date, err = cli.ParseDateInput(flagTxDate, model.Today()); err != nil {
			return err
		}
	}
	if flags.Changed("type") {
		if in.Type, err = model.ParseTransactionType(flagTxType); err != nil {
			return err
		}
	}
	if flags.Changed("category") {
		c, err := parseCategory(catalog, flagTxCategory)
		if err != nil {
			return err
		}
		in.CategoryID = c.ID
	}
	if in.Type == model.Income {
		in.CategoryID = 0
	} else if in.CategoryID == 0 {
		return errors.New("expenses need --category")
	}

	updated, err := s.svc.Edit(cmd.Context(), id, in, overspendConfirm(s.cfg))
	if errors.Is(err, ledger.ErrOverspendDeclined) {
		fmt.Println("  Sin cambios.")
		return nil
	}
	if err != nil {
		return err
	}
	printTransaction("Actualizado", updated, catalog)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		tx    model.Transaction
		found bool
	)
	s.svc.View(func(l *ledger.Ledger) { tx, found = l.Get(id) })
	if !found {
		return &ledger.NotFoundError{ID: id}
	}

	if !flagYes {
		ok := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("¿Eliminar «%s»?", tx.Description)).
			Description(fmt.Sprintf("%s  %s  %s", cli.FormatDate(tx.Date), cli.FormatTypeLabel(tx.Type), cli.FormatTransactionAmount(tx))).
			Affirmative("Eliminar").
			Negative("Cancelar").
			Value(&ok).
			Run()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if _, err := s.svc.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("  Eliminado #%d %s\n", tx.ID, tx.Description)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	var filter model.TransactionType
	if flagListType != "" {
		t, err := model.ParseTransactionType(flagListType)
		if err != nil {
			return err
		}
		filter = t
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		txs     []model.Transaction
		catalog model.Catalog
	)
	s.svc.View(func(l *ledger.Ledger) {
		catalog = l.Catalog()
		for tx := range l.Transactions(filter) {
			txs = append(txs, tx)
		}
	})
	txs = report.FilterByText(txs, flagListSearch)

	if len(txs) == 0 {
		fmt.Println("\n  Sin movimientos.")
		return nil
	}

	shown := txs
	if flagListLimit > 0 && len(shown) > flagListLimit {
		shown = shown[:flagListLimit]
	}

	rows := make([][]string, 0, len(shown))
	for _, tx := range shown {
		cat := "Reparto"
		if tx.Type == model.Expense {
			cat = categoryLabel(catalog, tx.CategoryID)
		}
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			cli.FormatDate(tx.Date),
			tx.Description,
			cat,
			cli.FormatTypeLabel(tx.Type),
			cli.FormatTransactionAmount(tx),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Movimientos  %d de %d", len(shown), len(txs)),
		Headers:  []string{"ID", "Fecha", "Descripción", "Categoría", "Tipo", "Monto"},
		Rows:     rows,
		LeftCols: []int{1, 2, 3, 4},
	}))
	return nil
}
