// Package report computes the totals shown by the summary, trend and
// envelope views.
package report

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/sobres/internal/model"
)

// Cards holds the three headline figures for a month: income, expense
// and what is left.
type Cards struct {
	Income  model.Money
	Expense model.Money
	Balance model.Money
}

// MonthCards totals the transactions dated in the given month.
func MonthCards(txs []model.Transaction, year int, month time.Month) Cards {
	var c Cards
	for _, tx := range txs {
		if !tx.Date.InMonth(year, month) {
			continue
		}
		switch tx.Type {
		case model.Income:
			c.Income += tx.Amount
		case model.Expense:
			c.Expense += tx.Amount
		}
	}
	c.Balance = c.Income - c.Expense
	return c
}

// CurrentMonthCards is MonthCards for the month containing now.
func CurrentMonthCards(txs []model.Transaction, now time.Time) Cards {
	return MonthCards(txs, now.Year(), now.Month())
}

// MonthIncome returns the income recorded in the given month.
func MonthIncome(txs []model.Transaction, year int, month time.Month) model.Money {
	return MonthCards(txs, year, month).Income
}

// AggregateMonths computes per-month totals for every month from the one
// containing from through the one containing to, most recent first.
// Months without transactions are included as zeros.
func AggregateMonths(txs []model.Transaction, from, to time.Time) []model.MonthlyStats {
	start := monthStart(from)
	end := monthStart(to)
	if end.Before(start) {
		start, end = end, start
	}

	byMonth := make(map[time.Time]*model.MonthlyStats)
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		byMonth[m] = &model.MonthlyStats{Month: m}
	}

	for _, tx := range txs {
		ms, ok := byMonth[monthStart(tx.Date.Time)]
		if !ok {
			continue
		}
		ms.Transactions++
		switch tx.Type {
		case model.Income:
			ms.Income += tx.Amount
		case model.Expense:
			ms.Expense += tx.Amount
		}
	}

	months := make([]model.MonthlyStats, 0, len(byMonth))
	for _, ms := range byMonth {
		ms.Net = ms.Income - ms.Expense
		months = append(months, *ms)
	}
	slices.SortFunc(months, func(a, b model.MonthlyStats) int {
		return b.Month.Compare(a.Month)
	})
	return months
}

// AggregateCategories computes expense totals per category, sorted by
// amount spent, largest first. Categories with no expenses are omitted.
func AggregateCategories(txs []model.Transaction, catalog model.Catalog) []model.CategoryStats {
	byCat := make(map[model.CategoryID]*model.CategoryStats)
	var total model.Money

	for _, tx := range txs {
		if tx.Type != model.Expense {
			continue
		}
		cs, ok := byCat[tx.CategoryID]
		if !ok {
			cat, found := catalog.Lookup(tx.CategoryID)
			if !found {
				cat = model.Category{ID: tx.CategoryID}
			}
			cs = &model.CategoryStats{Category: cat}
			byCat[tx.CategoryID] = cs
		}
		cs.Transactions++
		cs.Spent += tx.Amount
		total += tx.Amount
	}

	cats := make([]model.CategoryStats, 0, len(byCat))
	for _, cs := range byCat {
		if total > 0 {
			cs.SharePercent = float64(cs.Spent) / float64(total) * 100
		}
		cats = append(cats, *cs)
	}
	slices.SortFunc(cats, func(a, b model.CategoryStats) int {
		if a.Spent != b.Spent {
			if a.Spent > b.Spent {
				return -1
			}
			return 1
		}
		return int(a.Category.ID - b.Category.ID)
	})
	return cats
}

// EnvelopeUsage describes each allocation entry: its funds, what this
// month's income assigned to it, and how much of that is still there.
func EnvelopeUsage(allocs []model.Allocation, balances map[model.CategoryID]model.Money, monthIncome model.Money, catalog model.Catalog) []model.EnvelopeStats {
	out := make([]model.EnvelopeStats, 0, len(allocs))
	for _, a := range allocs {
		cat, ok := catalog.Lookup(a.CategoryID)
		if !ok {
			cat = model.Category{ID: a.CategoryID, Name: a.Name}
		}
		es := model.EnvelopeStats{
			Category:  cat,
			Percent:   a.Value,
			Available: balances[a.CategoryID],
			Assigned:  model.Money(math.Round(float64(monthIncome) * float64(a.Value) / 100)),
		}
		if es.Assigned > 0 {
			es.Usage = min(max(float64(es.Available)/float64(es.Assigned), 0), 1)
		}
		out = append(out, es)
	}
	return out
}

// FilterByType returns transactions of the given type. An empty type
// returns txs unchanged.
func FilterByType(txs []model.Transaction, t model.TransactionType) []model.Transaction {
	if t == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if tx.Type == t {
			result = append(result, tx)
		}
	}
	return result
}

// FilterByTime returns transactions dated within [since, until). A zero
// bound is open.
func FilterByTime(txs []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txs
	}

	var result []model.Transaction
	for _, tx := range txs {
		if !since.IsZero() && tx.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !tx.Date.Before(until) {
			continue
		}
		result = append(result, tx)
	}
	return result
}

// FilterByText returns transactions whose description contains q,
// ignoring case.
func FilterByText(txs []model.Transaction, q string) []model.Transaction {
	if q == "" {
		return txs
	}
	var result []model.Transaction
	for _, tx := range txs {
		if containsIgnoreCase(tx.Description, q) {
			result = append(result, tx)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
