// Package legacy reads the browser storage export of the old budget page.
//
// The export is a JSON object with the keys financeTransactions,
// financePercentages and financeCategoryBalances. Each value is either
// the string the page stored or the decoded JSON itself.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/model"
)

// Storage keys written by the page.
const (
	KeyTransactions = "financeTransactions"
	KeyPercentages  = "financePercentages"
	KeyBalances     = "financeCategoryBalances"
)

type export struct {
	Transactions json.RawMessage `json:"financeTransactions"`
	Percentages  json.RawMessage `json:"financePercentages"`
	Balances     json.RawMessage `json:"financeCategoryBalances"`
}

type legacyTx struct {
	ID          json.Number     `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	CategoryID  *json.Number    `json:"categoryId"`
}

// Result is an imported ledger state plus what had to be adjusted.
type Result struct {
	State ledger.State
	// Stored holds the balances as the page had them, rounded to cents.
	Stored map[model.CategoryID]model.Money
	// Drift is replayed minus stored, only for categories that differ.
	Drift map[model.CategoryID]model.Money
	// Warnings lists entries that were skipped or replaced.
	Warnings []string
}

// ReadFile parses the export at path.
func ReadFile(path string, catalog model.Catalog) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading export: %w", err)
	}
	return Parse(data, catalog)
}

// Parse converts an export into ledger state. Balances are rebuilt from
// the transactions rather than copied.
func Parse(data []byte, catalog model.Catalog) (Result, error) {
	var ex export
	if err := json.Unmarshal(data, &ex); err != nil {
		return Result{}, fmt.Errorf("parsing export: %w", err)
	}

	var res Result

	allocs, err := parsePercentages(unwrap(ex.Percentages), catalog, &res)
	if err != nil {
		return Result{}, err
	}

	txs, err := parseTransactions(unwrap(ex.Transactions), catalog, &res)
	if err != nil {
		return Result{}, err
	}

	res.Stored, err = parseBalances(unwrap(ex.Balances))
	if err != nil {
		return Result{}, err
	}

	l, err := ledger.Restore(catalog, ledger.State{Transactions: txs, Allocations: allocs})
	if err != nil {
		return Result{}, err
	}
	res.State = l.State()
	res.State.Balances = l.Recompute()

	res.Drift = make(map[model.CategoryID]model.Money)
	for id, bal := range res.State.Balances {
		if d := bal - res.Stored[id]; d != 0 {
			res.Drift[id] = d
		}
	}
	return res, nil
}

// unwrap returns the JSON inside a string value, or raw unchanged.
func unwrap(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []byte(s)
		}
	}
	return raw
}

func parsePercentages(data []byte, catalog model.Catalog, res *Result) ([]model.Allocation, error) {
	if data == nil {
		res.Warnings = append(res.Warnings, "no percentages found, using defaults")
		return model.DefaultAllocations(), nil
	}

	var set []model.Allocation
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyPercentages, err)
	}
	if err := ledger.New(catalog).SetAllocations(set); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("percentages rejected (%v), using defaults", err))
		return model.DefaultAllocations(), nil
	}
	return set, nil
}

func parseTransactions(data []byte, catalog model.Catalog, res *Result) ([]model.Transaction, error) {
	if data == nil {
		return nil, nil
	}

	var raw []legacyTx
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyTransactions, err)
	}

	seen := make(map[int64]bool, len(raw))
	txs := make([]model.Transaction, 0, len(raw))
	for i, lt := range raw {
		tx, err := convert(lt, catalog)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("transaction #%d skipped: %v", i+1, err))
			continue
		}
		if seen[tx.ID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("transaction #%d skipped: duplicate id %d", i+1, tx.ID))
			continue
		}
		seen[tx.ID] = true
		txs = append(txs, tx)
	}
	return txs, nil
}

func convert(lt legacyTx, catalog model.Catalog) (model.Transaction, error) {
	id, err := lt.ID.Int64()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("bad id %q", lt.ID)
	}

	typ, err := model.ParseTransactionType(lt.Type)
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := model.FromDecimal(lt.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	if amount <= 0 {
		return model.Transaction{}, fmt.Errorf("amount %s is not positive", lt.Amount)
	}

	date, err := model.ParseDate(lt.Date)
	if err != nil {
		return model.Transaction{}, err
	}

	desc := strings.TrimSpace(lt.Description)
	if desc == "" {
		return model.Transaction{}, errors.New("empty description")
	}

	tx := model.Transaction{
		ID:          id,
		Description: desc,
		Amount:      amount,
		Date:        date,
		Type:        typ,
	}
	if typ == model.Expense {
		if lt.CategoryID == nil {
			return model.Transaction{}, errors.New("expense without category")
		}
		n, err := strconv.Atoi(lt.CategoryID.String())
		if err != nil {
			return model.Transaction{}, fmt.Errorf("bad category %q", *lt.CategoryID)
		}
		cat, ok := catalog.Lookup(model.CategoryID(n))
		if !ok {
			return model.Transaction{}, fmt.Errorf("unknown category %d", n)
		}
		tx.CategoryID = cat.ID
	}
	return tx, nil
}

func parseBalances(data []byte) (map[model.CategoryID]model.Money, error) {
	out := make(map[model.CategoryID]model.Money)
	if data == nil {
		return out, nil
	}

	var raw map[string]decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyBalances, err)
	}
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: bad category key %q", KeyBalances, k)
		}
		m, err := model.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", KeyBalances, err)
		}
		out[model.CategoryID(id)] = m
	}
	return out, nil
}
