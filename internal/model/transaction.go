package model

import "fmt"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income"/"expense" and their Spanish labels.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "income", "in", "ingreso":
		return Income, nil
	case "expense", "out", "gasto":
		return Expense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q (want income or expense)", s)
}

// Credit is the share of an income routed to one category.
type Credit struct {
	CategoryID CategoryID `json:"categoryId"`
	Amount     Money      `json:"amount"`
}

// Transaction is a single ledger entry. CategoryID is set only for
// expenses. Split is set only for incomes: the allocation set in effect
// when the income was first recorded.
type Transaction struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      Money           `json:"amount"`
	Date        Date            `json:"date"`
	Type        TransactionType `json:"type"`
	CategoryID  CategoryID      `json:"categoryId,omitempty"`
	Split       []Allocation    `json:"split,omitempty"`
}

// Signed returns the amount with expenses negative.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return -t.Amount
	}
	return t.Amount
}

// Clone returns a copy that shares no slices with t.
func (t Transaction) Clone() Transaction {
	if t.Split != nil {
		t.Split = append([]Allocation(nil), t.Split...)
	}
	return t
}
