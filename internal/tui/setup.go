package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/sobres/internal/cli"
	"github.com/theirongolddev/sobres/internal/config"
	"github.com/theirongolddev/sobres/internal/store"
	"github.com/theirongolddev/sobres/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// SetupValues are the answers of the setup wizard.
type SetupValues struct {
	Currency         string
	Theme            string
	Backend          string
	ConfirmOverspend bool
}

// SetupValuesFrom seeds the wizard with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Currency:         cfg.Display.CurrencySymbol,
		Theme:            cfg.Display.Theme,
		Backend:          cfg.General.Backend,
		ConfirmOverspend: cfg.Budget.ConfirmOverspend,
	}
}

// Apply copies the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Display.CurrencySymbol = strings.TrimSpace(v.Currency)
	cfg.Display.Theme = v.Theme
	cfg.General.Backend = v.Backend
	cfg.Budget.ConfirmOverspend = v.ConfirmOverspend
}

// NewSetupForm builds the first-run wizard. Answers are written to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themes[i] = huh.NewOption(t.Name, t.Name)
	}
	backends := make([]huh.Option[string], 0, len(store.Backends))
	for _, b := range store.Backends {
		backends = append(backends, huh.NewOption(string(b), string(b)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Bienvenido a sobres").
				Description("Cada ingreso se reparte entre tus sobres según porcentajes.\nCada gasto sale de un sobre.\n\nConfiguremos un par de cosas."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Símbolo de moneda").
				Value(&vals.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("no puede estar vacío")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Tema de colores").
				Options(themes...).
				Value(&vals.Theme),
			huh.NewSelect[string]().
				Title("Almacenamiento").
				Description("Se aplica la próxima vez que abras sobres.").
				Options(backends...).
				Value(&vals.Backend),
			huh.NewConfirm().
				Title("¿Preguntar antes de gastar más de lo disponible en un sobre?").
				Affirmative("Sí").
				Negative("No").
				Value(&vals.ConfirmOverspend),
		),
	)
}

func (a App) startSetup() (tea.Model, tea.Cmd) {
	a.needSetup = false
	*a.setupVals = SetupValuesFrom(a.cfg)
	return a.showForm(formSetup, NewSetupForm(a.setupVals))
}

func (a *App) finishSetup() {
	a.setupVals.Apply(&a.cfg)
	theme.SetActive(a.cfg.Display.Theme)
	cli.CurrencySymbol = a.cfg.Display.CurrencySymbol

	if err := config.Save(a.cfg); err != nil {
		a.setError(err)
		return
	}
	a.setMessage("Configuración guardada en " + config.ConfigPath())
}
