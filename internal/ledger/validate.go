package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/theirongolddev/sobres/internal/model"
)

// TransactionInput carries the user-editable fields of a transaction.
type TransactionInput struct {
	Description string                `json:"description" validate:"required,max=200"`
	Amount      model.Money           `json:"amount" validate:"gt=0,lte=10000000000000"`
	Date        model.Date            `json:"date"`
	Type        model.TransactionType `json:"type" validate:"oneof=income expense"`
	CategoryID  model.CategoryID      `json:"categoryId"`
}

// InputOf returns the input that would recreate t.
func InputOf(t model.Transaction) TransactionInput {
	return TransactionInput{
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date,
		Type:        t.Type,
		CategoryID:  t.CategoryID,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// prepare validates in and returns the transaction it describes, without
// id or split.
func (l *Ledger) prepare(in TransactionInput) (model.Transaction, error) {
	in.Description = strings.TrimSpace(in.Description)

	if err := validate.Struct(in); err != nil {
		return model.Transaction{}, translate(err)
	}
	if in.Date.IsZero() {
		return model.Transaction{}, &ValidationError{Field: "date", Reason: "is required"}
	}

	tx := model.Transaction{
		Description: in.Description,
		Amount:      in.Amount,
		Date:        model.DateOf(in.Date.Time),
		Type:        in.Type,
	}
	if in.Type == model.Expense {
		if in.CategoryID == 0 {
			return model.Transaction{}, &ValidationError{Field: "categoryId", Reason: "is required for an expense"}
		}
		if _, ok := l.catalog.Lookup(in.CategoryID); !ok {
			return model.Transaction{}, &ValidationError{
				Field:  "categoryId",
				Reason: fmt.Sprintf("unknown category %d", in.CategoryID),
			}
		}
		tx.CategoryID = in.CategoryID
	}
	return tx, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "input", Reason: err.Error()}
	}

	fe := verrs[0]
	reason := fe.Tag()
	switch fe.Tag() {
	case "required":
		reason = "must not be empty"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		reason = "must be greater than 0"
	case "lte":
		reason = "exceeds the maximum allowed"
	case "oneof":
		reason = fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}

// checkAllocations validates a replacement allocation set and returns it
// normalized: names refreshed from the catalog, order preserved.
func (l *Ledger) checkAllocations(set []model.Allocation) ([]model.Allocation, error) {
	if len(set) == 0 {
		return nil, &ValidationError{Field: "percentages", Reason: "at least one category is required"}
	}

	seen := make(map[model.CategoryID]bool, len(set))
	out := make([]model.Allocation, len(set))
	total := 0
	for i, a := range set {
		cat, ok := l.catalog.Lookup(a.CategoryID)
		if !ok {
			return nil, &ValidationError{
				Field:  "percentages",
				Reason: fmt.Sprintf("unknown category %d", a.CategoryID),
			}
		}
		if seen[a.CategoryID] {
			return nil, &ValidationError{
				Field:  "percentages",
				Reason: fmt.Sprintf("%s listed more than once", cat.Name),
			}
		}
		seen[a.CategoryID] = true
		if a.Value < 0 || a.Value > 100 {
			return nil, &ValidationError{
				Field:  "percentages",
				Reason: fmt.Sprintf("%s must be between 0 and 100 (got %d)", cat.Name, a.Value),
			}
		}
		total += a.Value
		out[i] = model.Allocation{CategoryID: cat.ID, Name: cat.Name, Value: a.Value}
	}
	if total != 100 {
		return nil, &ValidationError{
			Field:  "percentages",
			Reason: fmt.Sprintf("must sum to 100 (got %d)", total),
		}
	}
	return out, nil
}
