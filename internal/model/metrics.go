package model

import "time"

// MonthSummary holds income and expense totals for one calendar month.
type MonthSummary struct {
	Year         int
	Month        time.Month
	Transactions int
	Income       Money
	Expense      Money
	Net          Money
	// ByCategory maps category to total expense, only for categories with spending.
	ByCategory map[CategoryID]Money
}

// MonthlyStats is one row of a multi-month trend.
type MonthlyStats struct {
	Month        time.Time // first day of the month, UTC
	Transactions int
	Income       Money
	Expense      Money
	Net          Money
}

// CategoryStats holds expense totals for a single category.
type CategoryStats struct {
	Category     Category
	Transactions int
	Spent        Money
	SharePercent float64 // share of total expense, 0-100
}
