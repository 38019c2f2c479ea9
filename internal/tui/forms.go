package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formNone formKind = iota
	formTransaction
	formDelete
	formOverspend
	formAllocations
	formSetup
)

// formValues backs every field of the modal forms.
type formValues struct {
	Description string
	Amount      string
	Date        string
	Type        model.TransactionType
	Category    model.CategoryID
	Confirm     bool
	Percents    []string
}

// pendingChange is a transaction add or edit waiting on an overspend
// answer. id is zero for adds.
type pendingChange struct {
	id    int64
	input ledger.TransactionInput
}

func (a App) formWidth() int {
	return max(min(a.width-10, 72), 40)
}

func (a App) showForm(kind formKind, form *huh.Form) (tea.Model, tea.Cmd) {
	a.form = form.
		WithTheme(huh.ThemeBase16()).
		WithWidth(a.formWidth()).
		WithShowHelp(true)
	a.formKind = kind
	return a, a.form.Init()
}

func (a App) closeForm() App {
	a.form = nil
	a.formKind = formNone
	return a
}

// openTransactionForm opens the add form, or the edit form when id is set.
func (a App) openTransactionForm(id int64) (tea.Model, tea.Cmd) {
	*a.vals = formValues{
		Date:     cli.FormatDate(model.DateOf(a.now())),
		Type:     model.Expense,
		Category: a.catalog[0].ID,
	}
	title := "Nuevo movimiento"

	if id != 0 {
		tx, ok := a.findTransaction(id)
		if !ok {
			a.setError(&ledger.NotFoundError{ID: id})
			return a, nil
		}
		a.vals.Description = tx.Description
		a.vals.Amount = tx.Amount.String()
		a.vals.Date = cli.FormatDate(tx.Date)
		a.vals.Type = tx.Type
		if tx.Type == model.Expense {
			a.vals.Category = tx.CategoryID
		}
		title = fmt.Sprintf("Editar movimiento #%d", id)
	}
	a.pending = pendingChange{id: id}

	categories := make([]huh.Option[model.CategoryID], len(a.catalog))
	for i, c := range a.catalog {
		categories[i] = huh.NewOption(c.Name, c.ID)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Descripción").
				CharLimit(200).
				Value(&a.vals.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("la descripción es obligatoria")
					}
					return nil
				}),
			huh.NewInput().
				Title("Monto").
				Placeholder("0.00").
				Value(&a.vals.Amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Fecha").
				Description("dd/mm/aaaa").
				Value(&a.vals.Date).
				Validate(func(s string) error {
					_, err := cli.ParseDateInput(s, model.DateOf(a.now()))
					return err
				}),
			huh.NewSelect[model.TransactionType]().
				Title("Tipo").
				Options(
					huh.NewOption("Gasto", model.Expense),
					huh.NewOption("Ingreso", model.Income),
				).
				Value(&a.vals.Type),
		),
		huh.NewGroup(
			huh.NewSelect[model.CategoryID]().
				Title("Categoría").
				Options(categories...).
				Value(&a.vals.Category),
		).WithHideFunc(func() bool { return a.vals.Type == model.Income }),
	)
	return a.showForm(formTransaction, form)
}

func validateAmount(s string) error {
	m, err := model.ParseMoney(s)
	if err != nil {
		return errors.New("monto inválido")
	}
	if m <= 0 {
		return errors.New("el monto debe ser mayor que cero")
	}
	if m > model.MaxAmount {
		return errors.New("monto demasiado grande")
	}
	return nil
}

// transactionInput reads the transaction form.
func (a App) transactionInput() (ledger.TransactionInput, error) {
	amount, err := model.ParseMoney(a.vals.Amount)
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	date, err := cli.ParseDateInput(a.vals.Date, model.DateOf(a.now()))
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	in := ledger.TransactionInput{
		Description: a.vals.Description,
		Amount:      amount,
		Date:        date,
		Type:        a.vals.Type,
	}
	if in.Type == model.Expense {
		in.CategoryID = a.vals.Category
	}
	return in, nil
}

func (a App) openDeleteForm(tx model.Transaction) (tea.Model, tea.Cmd) {
	*a.vals = formValues{}
	a.pending = pendingChange{id: tx.ID}

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("¿Eliminar «%s»?", tx.Description)).
			Description(fmt.Sprintf("%s  %s  %s", cli.FormatDate(tx.Date), cli.FormatTypeLabel(tx.Type), cli.FormatTransactionAmount(tx))).
			Affirmative("Eliminar").
			Negative("Cancelar").
			Value(&a.vals.Confirm),
	))
	return a.showForm(formDelete, form)
}

func (a App) openOverspendForm(w ledger.OverspendWarning) (tea.Model, tea.Cmd) {
	a.vals.Confirm = false

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("%s no tiene fondos suficientes", w.Category.Name)).
			Description(fmt.Sprintf("Disponible %s, gasto %s. Faltan %s.",
				cli.FormatMoney(w.Available), cli.FormatMoney(w.Amount), cli.FormatMoney(w.Shortfall()))).
			Affirmative("Registrar igual").
			Negative("Cancelar").
			Value(&a.vals.Confirm),
	))
	return a.showForm(formOverspend, form)
}

func (a App) openAllocationForm() (tea.Model, tea.Cmd) {
	*a.vals = formValues{Percents: make([]string, len(a.catalog))}

	current := make(map[model.CategoryID]int, len(a.allocs))
	for _, al := range a.allocs {
		current[al.CategoryID] = al.Value
	}

	fields := make([]huh.Field, 0, len(a.catalog)+1)
	fields = append(fields, huh.NewNote().
		Title("Porcentajes de reparto").
		Description("Cada ingreso nuevo se reparte así. Deben sumar 100."))
	for i, c := range a.catalog {
		a.vals.Percents[i] = strconv.Itoa(current[c.ID])
		fields = append(fields, huh.NewInput().
			Title(c.Name).
			Value(&a.vals.Percents[i]).
			Validate(validatePercent))
	}

	return a.showForm(formAllocations, huh.NewForm(huh.NewGroup(fields...)))
}

func validatePercent(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return errors.New("entero entre 0 y 100")
	}
	return nil
}

// allocationSet reads the allocation form.
func (a App) allocationSet() ([]model.Allocation, error) {
	set := make([]model.Allocation, len(a.catalog))
	for i, c := range a.catalog {
		n, err := strconv.Atoi(strings.TrimSpace(a.vals.Percents[i]))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		set[i] = model.Allocation{CategoryID: c.ID, Name: c.Name, Value: n}
	}
	return set, nil
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a = a.closeForm()
		a.setMessage("Cancelado")
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submitForm()
	case huh.StateAborted:
		a = a.closeForm()
		a.setMessage("Cancelado")
		return a, nil
	}
	return a, cmd
}

// submitForm acts on a completed form.
func (a App) submitForm() (tea.Model, tea.Cmd) {
	kind := a.formKind
	a = a.closeForm()

	switch kind {
	case formTransaction:
		in, err := a.transactionInput()
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.pending.input = in
		if w, warned := a.commit(false); warned {
			return a.openOverspendForm(w)
		}

	case formOverspend:
		if !a.vals.Confirm {
			a.setMessage("Gasto no registrado")
			return a, nil
		}
		a.commit(true)

	case formDelete:
		if !a.vals.Confirm {
			return a, nil
		}
		a.deleteTransaction(a.pending.id)

	case formAllocations:
		set, err := a.allocationSet()
		if err == nil {
			err = a.svc.SetAllocations(a.ctx, set)
		}
		if err != nil {
			a.setError(err)
			return a, nil
		}
		a.refresh()
		a.setMessage("Porcentajes actualizados")

	case formSetup:
		a.finishSetup()
	}
	return a, nil
}

// commit records the pending add or edit. If the expense overspends its
// category, confirmation is required and not yet given, nothing is
// recorded and the warning is returned.
func (a *App) commit(confirmed bool) (ledger.OverspendWarning, bool) {
	var (
		warning ledger.OverspendWarning
		warned  bool
	)
	confirm := func(w ledger.OverspendWarning) bool {
		if confirmed || !a.cfg.Budget.ConfirmOverspend {
			return true
		}
		warning, warned = w, true
		return false
	}

	var (
		tx  model.Transaction
		err error
	)
	if a.pending.id != 0 {
		tx, err = a.svc.Edit(a.ctx, a.pending.id, a.pending.input, confirm)
	} else {
		tx, err = a.svc.Add(a.ctx, a.pending.input, confirm)
	}

	switch {
	case warned && errors.Is(err, ledger.ErrOverspendDeclined):
		return warning, true
	case err != nil:
		a.setError(err)
	default:
		a.refresh()
		a.pending = pendingChange{}
		a.setMessage(fmt.Sprintf("Guardado #%d %s", tx.ID, tx.Description))
	}
	return ledger.OverspendWarning{}, false
}

func (a *App) deleteTransaction(id int64) {
	tx, err := a.svc.Delete(a.ctx, id)
	if err != nil {
		a.setError(err)
		return
	}
	a.refresh()
	a.setMessage(fmt.Sprintf("Eliminado #%d %s", tx.ID, tx.Description))
}

func (a App) viewForm() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.form.View())

	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("esc cancela")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Right, card, hint),
		lipgloss.WithWhitespaceBackground(t.Background))
}
