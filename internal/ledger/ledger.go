// Package ledger implements the envelope budget: a transaction history,
// the allocation percentages that split every income, and the running
// balance of each category.
package ledger

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/theirongolddev/sobres/internal/model"
)

// State is the persisted form of a ledger.
type State struct {
	Transactions []model.Transaction               `json:"transactions"`
	Allocations  []model.Allocation                `json:"percentages"`
	Balances     map[model.CategoryID]model.Money `json:"categoryBalances"`
}

// Ledger owns the transactions, allocations and category balances of one
// budget. It is not safe for concurrent use.
//
// Every operation validates its input before touching any state, so a
// returned error always means nothing changed.
type Ledger struct {
	catalog  model.Catalog
	txs      []model.Transaction
	allocs   []model.Allocation
	balances map[model.CategoryID]model.Money
	nextID   int64
}

// New returns an empty ledger with the default allocation set and a zero
// balance for every category.
func New(catalog model.Catalog) *Ledger {
	l := &Ledger{
		catalog:  catalog,
		balances: make(map[model.CategoryID]model.Money, len(catalog)),
		nextID:   1,
	}
	for _, a := range model.DefaultAllocations() {
		if cat, ok := catalog.Lookup(a.CategoryID); ok {
			l.allocs = append(l.allocs, model.Allocation{CategoryID: cat.ID, Name: cat.Name, Value: a.Value})
		}
	}
	for _, id := range catalog.IDs() {
		l.balances[id] = 0
	}
	return l
}

// Restore rebuilds a ledger from persisted state. Balances are taken as
// stored; use Recompute to compare them against the history. Incomes
// without a recorded split are given the stored allocation set.
func Restore(catalog model.Catalog, st State) (*Ledger, error) {
	l := New(catalog)

	if len(st.Allocations) > 0 {
		l.allocs = make([]model.Allocation, len(st.Allocations))
		for i, a := range st.Allocations {
			cat, ok := catalog.Lookup(a.CategoryID)
			if !ok {
				return nil, fmt.Errorf("restoring ledger: allocation for unknown category %d", a.CategoryID)
			}
			a.Name = cat.Name
			l.allocs[i] = a
		}
	}

	seen := make(map[int64]bool, len(st.Transactions))
	l.txs = make([]model.Transaction, 0, len(st.Transactions))
	for _, tx := range st.Transactions {
		if seen[tx.ID] {
			return nil, fmt.Errorf("restoring ledger: duplicate transaction id %d", tx.ID)
		}
		seen[tx.ID] = true
		if !tx.Type.Valid() {
			return nil, fmt.Errorf("restoring ledger: transaction %d has unknown type %q", tx.ID, tx.Type)
		}

		tx = tx.Clone()
		if tx.Type == model.Income {
			tx.CategoryID = 0
			if len(tx.Split) == 0 {
				tx.Split = slices.Clone(l.allocs)
			}
			for _, a := range tx.Split {
				if _, ok := catalog.Lookup(a.CategoryID); !ok {
					return nil, fmt.Errorf("restoring ledger: transaction %d splits into unknown category %d", tx.ID, a.CategoryID)
				}
			}
		} else {
			if _, ok := catalog.Lookup(tx.CategoryID); !ok {
				return nil, fmt.Errorf("restoring ledger: transaction %d has unknown category %d", tx.ID, tx.CategoryID)
			}
			tx.Split = nil
		}
		l.txs = append(l.txs, tx)
		if tx.ID >= l.nextID {
			l.nextID = tx.ID + 1
		}
	}

	for id, bal := range st.Balances {
		if _, ok := catalog.Lookup(id); !ok {
			return nil, fmt.Errorf("restoring ledger: balance for unknown category %d", id)
		}
		l.balances[id] = bal
	}
	return l, nil
}

// State returns a deep copy of the ledger for persistence.
func (l *Ledger) State() State {
	txs := make([]model.Transaction, len(l.txs))
	for i, tx := range l.txs {
		txs[i] = tx.Clone()
	}
	return State{
		Transactions: txs,
		Allocations:  slices.Clone(l.allocs),
		Balances:     maps.Clone(l.balances),
	}
}

// Catalog returns the categories this ledger was built with.
func (l *Ledger) Catalog() model.Catalog {
	return l.catalog
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	return len(l.txs)
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id int64) (model.Transaction, bool) {
	i := l.index(id)
	if i < 0 {
		return model.Transaction{}, false
	}
	return l.txs[i].Clone(), true
}

// Allocations returns a copy of the current allocation set.
func (l *Ledger) Allocations() []model.Allocation {
	return slices.Clone(l.allocs)
}

// Balance returns the available funds in a category.
func (l *Ledger) Balance(id model.CategoryID) (model.Money, bool) {
	if _, ok := l.catalog.Lookup(id); !ok {
		return 0, false
	}
	return l.balances[id], true
}

// Balances returns a copy of all category balances.
func (l *Ledger) Balances() map[model.CategoryID]model.Money {
	return maps.Clone(l.balances)
}

// Total returns the sum of all category balances.
func (l *Ledger) Total() model.Money {
	var total model.Money
	for _, b := range l.balances {
		total += b
	}
	return total
}

// Add records a new transaction. An income is split across the current
// allocation set; an expense is taken from its category. If an expense
// exceeds the funds in its category, confirm decides whether to go ahead.
func (l *Ledger) Add(in TransactionInput, confirm ConfirmFunc) (model.Transaction, error) {
	tx, err := l.prepare(in)
	if err != nil {
		return model.Transaction{}, err
	}

	if w, over := l.overspend(tx, l.balances); over && !confirm.allow(w) {
		return model.Transaction{}, ErrOverspendDeclined
	}

	tx.ID = l.nextID
	if tx.Type == model.Income {
		tx.Split = slices.Clone(l.allocs)
	}

	l.nextID++
	apply(l.balances, tx, 1)
	l.txs = append(l.txs, tx)
	return tx.Clone(), nil
}

// Edit replaces the transaction with the given id, keeping its id and its
// position in the history. The old effect on the balances is reversed
// exactly before the new one is applied. An income that stays an income
// keeps the split it was first recorded with; an expense turned into an
// income takes the current allocation set.
func (l *Ledger) Edit(id int64, in TransactionInput, confirm ConfirmFunc) (model.Transaction, error) {
	i := l.index(id)
	if i < 0 {
		return model.Transaction{}, &NotFoundError{ID: id}
	}

	tx, err := l.prepare(in)
	if err != nil {
		return model.Transaction{}, err
	}

	old := l.txs[i]
	tx.ID = old.ID
	if tx.Type == model.Income {
		if old.Type == model.Income {
			tx.Split = slices.Clone(old.Split)
		} else {
			tx.Split = slices.Clone(l.allocs)
		}
	}

	after := maps.Clone(l.balances)
	apply(after, old, -1)
	if w, over := l.overspend(tx, after); over && !confirm.allow(w) {
		return model.Transaction{}, ErrOverspendDeclined
	}

	apply(after, tx, 1)
	l.balances = after
	l.txs[i] = tx
	return tx.Clone(), nil
}

// Delete removes a transaction and reverses its effect on the balances.
func (l *Ledger) Delete(id int64) (model.Transaction, error) {
	i := l.index(id)
	if i < 0 {
		return model.Transaction{}, &NotFoundError{ID: id}
	}

	old := l.txs[i]
	apply(l.balances, old, -1)
	l.txs = slices.Delete(l.txs, i, i+1)
	return old, nil
}

// SetAllocations replaces the allocation set. The set must be non-empty,
// name each category at most once, and its values must sum to exactly
// 100. Past incomes are not redistributed.
func (l *Ledger) SetAllocations(set []model.Allocation) error {
	allocs, err := l.checkAllocations(set)
	if err != nil {
		return err
	}
	l.allocs = allocs
	return nil
}

// CheckOverspend reports whether recording in would take its category
// below zero. Invalid input never warns.
func (l *Ledger) CheckOverspend(in TransactionInput) (OverspendWarning, bool) {
	tx, err := l.prepare(in)
	if err != nil {
		return OverspendWarning{}, false
	}
	return l.overspend(tx, l.balances)
}

// CheckOverspendEdit is CheckOverspend for replacing transaction id:
// funds are measured after the original has been reversed.
func (l *Ledger) CheckOverspendEdit(id int64, in TransactionInput) (OverspendWarning, bool) {
	i := l.index(id)
	if i < 0 {
		return l.CheckOverspend(in)
	}
	tx, err := l.prepare(in)
	if err != nil {
		return OverspendWarning{}, false
	}
	after := maps.Clone(l.balances)
	apply(after, l.txs[i], -1)
	return l.overspend(tx, after)
}

// Summarize totals the transactions dated in the given month. The second
// result is false when there are none, which is distinct from a month
// whose totals happen to be zero.
func (l *Ledger) Summarize(year int, month time.Month) (model.MonthSummary, bool) {
	sum := model.MonthSummary{
		Year:       year,
		Month:      month,
		ByCategory: make(map[model.CategoryID]model.Money),
	}
	for _, tx := range l.txs {
		if !tx.Date.InMonth(year, month) {
			continue
		}
		sum.Transactions++
		switch tx.Type {
		case model.Income:
			sum.Income += tx.Amount
		case model.Expense:
			sum.Expense += tx.Amount
			sum.ByCategory[tx.CategoryID] += tx.Amount
		}
	}
	if sum.Transactions == 0 {
		return model.MonthSummary{}, false
	}
	sum.Net = sum.Income - sum.Expense
	return sum, true
}

// Transactions yields transactions newest first, optionally only those of
// one type (an empty filter yields all). Transactions on the same date
// keep their insertion order. The sequence reads a snapshot taken when
// Transactions is called and may be ranged over more than once.
func (l *Ledger) Transactions(filter model.TransactionType) iter.Seq[model.Transaction] {
	snap := make([]model.Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		if filter == "" || tx.Type == filter {
			snap = append(snap, tx.Clone())
		}
	}
	slices.SortStableFunc(snap, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	return func(yield func(model.Transaction) bool) {
		for _, tx := range snap {
			if !yield(tx.Clone()) {
				return
			}
		}
	}
}

// Recompute folds the full history into fresh balances. For a ledger that
// has only been changed through its methods the result equals Balances.
func (l *Ledger) Recompute() map[model.CategoryID]model.Money {
	balances := make(map[model.CategoryID]model.Money, len(l.catalog))
	for _, id := range l.catalog.IDs() {
		balances[id] = 0
	}
	for _, tx := range l.txs {
		apply(balances, tx, 1)
	}
	return balances
}

// Credits returns how an income transaction is spread over categories.
// Expenses have no credits.
func Credits(tx model.Transaction) []model.Credit {
	if tx.Type != model.Income {
		return nil
	}
	return Distribute(tx.Amount, tx.Split)
}

func (l *Ledger) overspend(tx model.Transaction, balances map[model.CategoryID]model.Money) (OverspendWarning, bool) {
	if tx.Type != model.Expense {
		return OverspendWarning{}, false
	}
	available := balances[tx.CategoryID]
	if tx.Amount <= available {
		return OverspendWarning{}, false
	}
	cat, _ := l.catalog.Lookup(tx.CategoryID)
	return OverspendWarning{Category: cat, Available: available, Amount: tx.Amount}, true
}

func (l *Ledger) index(id int64) int {
	return slices.IndexFunc(l.txs, func(tx model.Transaction) bool { return tx.ID == id })
}

// apply adds (sign 1) or reverses (sign -1) the effect of tx.
func apply(balances map[model.CategoryID]model.Money, tx model.Transaction, sign model.Money) {
	switch tx.Type {
	case model.Income:
		for _, c := range Distribute(tx.Amount, tx.Split) {
			balances[c.CategoryID] += sign * c.Amount
		}
	case model.Expense:
		balances[tx.CategoryID] -= sign * tx.Amount
	}
}
