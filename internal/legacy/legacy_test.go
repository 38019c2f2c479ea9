package legacy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
)

// nested is an export where each value was decoded before saving.
const nested = `{
  "financeTransactions": [
    {"id": 1709251200000, "description": "Salario", "categoryId": null, "amount": 1000, "date": "2024-03-01", "type": "income"},
    {"id": 1709510400000, "description": "Supermercado", "categoryId": 1, "amount": 300.1, "date": "2024-03-04", "type": "expense"},
    {"id": 1709596800000, "description": "Café", "categoryId": "4", "amount": "0.3", "date": "2024-03-05T10:00:00.000Z", "type": "expense"}
  ],
  "financePercentages": [
    {"categoryId": 1, "name": "Necesidades", "value": 50},
    {"categoryId": 2, "name": "Ahorro", "value": 20},
    {"categoryId": 3, "name": "Educación", "value": 10},
    {"categoryId": 4, "name": "Entretenimiento", "value": 10},
    {"categoryId": 5, "name": "Otros", "value": 10}
  ],
  "financeCategoryBalances": {"1": 199.89999999999998, "2": 200, "3": 100, "4": 99.7, "5": 100.01}
}`

func TestParseNested(t *testing.T) {
	res, err := Parse([]byte(nested), model.DefaultCategories)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	require.Len(t, res.State.Transactions, 3)
	first := res.State.Transactions[0]
	assert.Equal(t, int64(1709251200000), first.ID)
	assert.Equal(t, model.Income, first.Type)
	assert.Equal(t, model.DefaultAllocations(), first.Split)

	third := res.State.Transactions[2]
	assert.Equal(t, model.Cents(0, 30), third.Amount)
	assert.Equal(t, model.CategoryID(4), third.CategoryID)
	assert.Equal(t, model.NewDate(2024, 3, 5), third.Date)

	want := map[model.CategoryID]model.Money{
		1: model.Cents(199, 90),
		2: model.Units(200),
		3: model.Units(100),
		4: model.Cents(99, 70),
		5: model.Units(100),
	}
	assert.Equal(t, want, res.State.Balances)

	// The float noise rounds away; the stray cent in Otros does not.
	assert.Equal(t, map[model.CategoryID]model.Money{5: -1}, res.Drift)
	assert.Equal(t, model.Cents(100, 1), res.Stored[5])
}

func TestParseStringValues(t *testing.T) {
	// The page stores every value as a JSON string.
	data := `{
	  "financeTransactions": "[{\"id\":5,\"description\":\"Pago\",\"categoryId\":null,\"amount\":50,\"date\":\"2024-01-02\",\"type\":\"income\"}]",
	  "financePercentages": "[{\"categoryId\":2,\"name\":\"Ahorro\",\"value\":100}]",
	  "financeCategoryBalances": "{\"2\":50}"
	}`

	res, err := Parse([]byte(data), model.DefaultCategories)
	require.NoError(t, err)
	assert.Empty(t, res.Drift)
	assert.Equal(t, []model.Allocation{{CategoryID: 2, Name: "Ahorro", Value: 100}}, res.State.Allocations)
	assert.Equal(t, model.Units(50), res.State.Balances[2])

	l, err := ledger.Restore(model.DefaultCategories, res.State)
	require.NoError(t, err)
	tx, err := l.Add(ledger.TransactionInput{
		Description: "Nuevo", Amount: 1, Date: model.NewDate(2024, 1, 3), Type: model.Income,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), tx.ID, "new ids continue after imported ones")
}

func TestParseSkipsBadEntries(t *testing.T) {
	data := `{
	  "financeTransactions": [
	    {"id": 1, "description": "ok", "amount": 10, "date": "2024-01-01", "type": "income"},
	    {"id": 2, "description": "no category", "amount": 10, "date": "2024-01-01", "type": "expense"},
	    {"id": 3, "description": "zero", "amount": 0, "date": "2024-01-01", "type": "income"},
	    {"id": 4, "description": "bad date", "amount": 1, "date": "soon", "type": "income"},
	    {"id": 5, "description": "bad type", "amount": 1, "date": "2024-01-01", "type": "transfer"},
	    {"id": 1, "description": "dup", "amount": 1, "date": "2024-01-01", "type": "income"},
	    {"id": 6, "description": "unknown cat", "categoryId": 9, "amount": 1, "date": "2024-01-01", "type": "expense"}
	  ],
	  "financePercentages": [{"categoryId": 1, "name": "Necesidades", "value": 70}]
	}`

	res, err := Parse([]byte(data), model.DefaultCategories)
	require.NoError(t, err)
	require.Len(t, res.State.Transactions, 1)
	assert.Len(t, res.Warnings, 7, "six skipped transactions and the rejected percentages")
	assert.Equal(t, model.DefaultAllocations(), res.State.Allocations)
}

func TestParseMissingKeys(t *testing.T) {
	res, err := Parse([]byte(`{}`), model.DefaultCategories)
	require.NoError(t, err)
	assert.Empty(t, res.State.Transactions)
	assert.Equal(t, model.DefaultAllocations(), res.State.Allocations)
	assert.Len(t, res.State.Balances, len(model.DefaultCategories))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"financeTransactions": {"id": 1}}`), model.DefaultCategories)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), KeyTransactions))

	_, err = Parse([]byte(`not json`), model.DefaultCategories)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(nested), 0o600))

	res, err := ReadFile(path, model.DefaultCategories)
	require.NoError(t, err)
	assert.Len(t, res.State.Transactions, 3)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"), model.DefaultCategories)
	assert.Error(t, err)
}
