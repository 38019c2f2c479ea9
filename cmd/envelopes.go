package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/report"

	"github.com/spf13/cobra"
)

var envelopesCmd = &cobra.Command{
	Use:     "envelopes",
	Aliases: []string{"sobres", "balances"},
	Short:   "Envelope balances and this month's usage",
	Args:    cobra.NoArgs,
	RunE:    runEnvelopes,
}

var allocCmd = &cobra.Command{
	Use:   "alloc",
	Short: "Show or change how incomes are split",
	Args:  cobra.NoArgs,
	RunE:  runAllocShow,
}

var allocShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current allocation percentages",
	Args:  cobra.NoArgs,
	RunE:  runAllocShow,
}

var allocSetCmd = &cobra.Command{
	Use:   "set CATEGORY=PERCENT...",
	Short: "Replace the allocation percentages",
	Long: "Replace the allocation percentages. Every category must be given and the\n" +
		"values must add up to 100. Only incomes recorded afterwards use the new split.",
	Example: "  sobres alloc set necesidades=50 ahorro=25 educacion=10 entretenimiento=10 otros=5",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAllocSet,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the budget categories",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func init() {
	allocCmd.AddCommand(allocShowCmd, allocSetCmd)
	rootCmd.AddCommand(envelopesCmd, allocCmd, categoriesCmd)
}

func runEnvelopes(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	var (
		envs  []model.EnvelopeStats
		total model.Money
	)
	s.svc.View(func(l *ledger.Ledger) {
		txs := make([]model.Transaction, 0, l.Len())
		for tx := range l.Transactions(model.Income) {
			txs = append(txs, tx)
		}
		income := report.MonthIncome(txs, now.Year(), now.Month())
		envs = report.EnvelopeUsage(l.Allocations(), l.Balances(), income, l.Catalog())
		total = l.Total()
	})

	rows := make([][]string, 0, len(envs)+2)
	for _, e := range envs {
		usage := cli.Muted("sin ingresos")
		if e.Assigned > 0 {
			usage = cli.RenderUsageBar(e.Usage, 20) + fmt.Sprintf(" %3.0f%%", e.Usage*100)
		}
		rows = append(rows, []string{
			e.Category.Name,
			fmt.Sprintf("%d%%", e.Percent),
			cli.FormatMoney(e.Assigned),
			cli.Money(cli.FormatMoney(e.Available), e.Available < 0),
			usage,
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"TOTAL", "", "", cli.FormatMoney(total), ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Sobres  " + cli.FormatMonth(now.Year(), now.Month()),
		Headers:  []string{"Sobre", "%", "Asignado", "Disponible", "Queda"},
		Rows:     rows,
		LeftCols: []int{4},
	}))
	return nil
}

func runAllocShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	allocs := s.svc.State().Allocations
	printAllocations(allocs)
	return nil
}

func printAllocations(allocs []model.Allocation) {
	rows := make([][]string, 0, len(allocs)+2)
	for _, a := range allocs {
		rows = append(rows, []string{a.Name, fmt.Sprintf("%d%%", a.Value)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"TOTAL", fmt.Sprintf("%d%%", model.AllocationTotal(allocs))})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Reparto de ingresos",
		Headers: []string{"Sobre", "Porcentaje"},
		Rows:    rows,
	}))
}

// parseAllocations reads CATEGORY=PERCENT arguments. Categories left out
// keep no share, so the set must still add up to 100.
func parseAllocations(catalog model.Catalog, args []string) ([]model.Allocation, error) {
	set := make([]model.Allocation, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid allocation %q: want CATEGORY=PERCENT", arg)
		}
		c, err := parseCategory(catalog, name)
		if err != nil {
			return nil, err
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "%"))
		if err != nil {
			return nil, fmt.Errorf("invalid percentage for %s: %q", c.Name, value)
		}
		set = append(set, model.Allocation{CategoryID: c.ID, Name: c.Name, Value: pct})
	}
	return set, nil
}

func runAllocSet(cmd *cobra.Command, args []string) error {
	set, err := parseAllocations(model.DefaultCategories, args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.svc.SetAllocations(cmd.Context(), set); err != nil {
		return err
	}
	printAllocations(s.svc.State().Allocations)
	fmt.Println("  Los ingresos ya registrados conservan su reparto.")
	return nil
}

func runCategories(_ *cobra.Command, _ []string) error {
	rows := make([][]string, 0, len(model.DefaultCategories))
	for _, c := range model.DefaultCategories {
		rows = append(rows, []string{strconv.Itoa(int(c.ID)), c.Name, c.Color})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"ID", "Categoría", "Color"},
		Rows:     rows,
		LeftCols: []int{1, 2},
	}))
	return nil
}
