package report

import (
	"testing"
	"time"

	"github.com/theirongolddev/sobres/internal/model"
)

func income(id int64, amount model.Money, d model.Date) model.Transaction {
	return model.Transaction{ID: id, Description: "Salario", Amount: amount, Date: d, Type: model.Income}
}

func expense(id int64, desc string, amount model.Money, d model.Date, cat model.CategoryID) model.Transaction {
	return model.Transaction{ID: id, Description: desc, Amount: amount, Date: d, Type: model.Expense, CategoryID: cat}
}

func sample() []model.Transaction {
	return []model.Transaction{
		income(1, model.Units(1000), model.NewDate(2024, 1, 1)),
		expense(2, "Supermercado", model.Units(300), model.NewDate(2024, 1, 5), 1),
		expense(3, "Cine", model.Units(50), model.NewDate(2024, 1, 20), 4),
		income(4, model.Units(800), model.NewDate(2024, 3, 1)),
		expense(5, "Libros", model.Units(120), model.NewDate(2024, 3, 10), 3),
		expense(6, "supermercado chino", model.Units(80), model.NewDate(2024, 3, 11), 1),
	}
}

func TestMonthCards(t *testing.T) {
	got := MonthCards(sample(), 2024, time.January)
	want := Cards{Income: model.Units(1000), Expense: model.Units(350), Balance: model.Units(650)}
	if got != want {
		t.Fatalf("MonthCards = %+v, want %+v", got, want)
	}

	empty := MonthCards(sample(), 2024, time.February)
	if empty != (Cards{}) {
		t.Fatalf("MonthCards(Feb) = %+v, want zero", empty)
	}

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if got := CurrentMonthCards(sample(), now).Expense; got != model.Units(200) {
		t.Fatalf("CurrentMonthCards expense = %v, want 200.00", got)
	}
}

func TestAggregateMonths_GapFilledNewestFirst(t *testing.T) {
	from := time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	months := AggregateMonths(sample(), from, to)
	if len(months) != 4 {
		t.Fatalf("len = %d, want 4", len(months))
	}

	wantMonths := []time.Month{time.March, time.February, time.January, time.December}
	for i, m := range months {
		if m.Month.Month() != wantMonths[i] || m.Month.Day() != 1 {
			t.Fatalf("months[%d] = %v, want 1 %v", i, m.Month, wantMonths[i])
		}
	}

	if months[1].Transactions != 0 || months[1].Net != 0 {
		t.Fatalf("February = %+v, want zeros", months[1])
	}
	if months[2].Net != model.Units(650) {
		t.Fatalf("January net = %v, want 650.00", months[2].Net)
	}
	if months[0].Transactions != 3 {
		t.Fatalf("March transactions = %d, want 3", months[0].Transactions)
	}
}

func TestAggregateMonths_ReversedBounds(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if len(AggregateMonths(nil, b, a)) != 2 {
		t.Fatal("reversed bounds should still cover both months")
	}
}

func TestAggregateCategories(t *testing.T) {
	cats := AggregateCategories(sample(), model.DefaultCategories)
	if len(cats) != 3 {
		t.Fatalf("len = %d, want 3", len(cats))
	}

	if cats[0].Category.Name != "Necesidades" || cats[0].Spent != model.Units(380) || cats[0].Transactions != 2 {
		t.Fatalf("cats[0] = %+v", cats[0])
	}
	if cats[1].Category.ID != 3 || cats[2].Category.ID != 4 {
		t.Fatalf("order = %d, %d; want 3, 4", cats[1].Category.ID, cats[2].Category.ID)
	}

	var share float64
	for _, c := range cats {
		share += c.SharePercent
	}
	if share < 99.999 || share > 100.001 {
		t.Fatalf("shares sum to %f, want 100", share)
	}
}

func TestEnvelopeUsage(t *testing.T) {
	allocs := []model.Allocation{
		{CategoryID: 1, Name: "Necesidades", Value: 50},
		{CategoryID: 2, Name: "Ahorro", Value: 30},
		{CategoryID: 4, Name: "Entretenimiento", Value: 20},
	}
	balances := map[model.CategoryID]model.Money{
		1: model.Units(250),
		2: model.Units(900),
		4: -model.Units(10),
	}

	got := EnvelopeUsage(allocs, balances, model.Units(1000), model.DefaultCategories)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	tests := []struct {
		assigned model.Money
		usage    float64
	}{
		{model.Units(500), 0.5},
		{model.Units(300), 1}, // more than assigned is capped
		{model.Units(200), 0}, // negative funds show as empty
	}
	for i, tt := range tests {
		if got[i].Assigned != tt.assigned {
			t.Errorf("[%d] Assigned = %v, want %v", i, got[i].Assigned, tt.assigned)
		}
		if got[i].Usage != tt.usage {
			t.Errorf("[%d] Usage = %v, want %v", i, got[i].Usage, tt.usage)
		}
	}
	if got[0].Category.Color != "#4a6fa5" {
		t.Fatalf("category not resolved from catalog: %+v", got[0].Category)
	}

	none := EnvelopeUsage(allocs, balances, 0, model.DefaultCategories)
	for _, es := range none {
		if es.Usage != 0 || es.Assigned != 0 {
			t.Fatalf("no income: %+v, want zero usage", es)
		}
	}
}

func TestFilters(t *testing.T) {
	txs := sample()

	if n := len(FilterByType(txs, model.Income)); n != 2 {
		t.Fatalf("FilterByType(income) = %d, want 2", n)
	}
	if n := len(FilterByType(txs, "")); n != len(txs) {
		t.Fatalf("FilterByType(all) = %d, want %d", n, len(txs))
	}

	since := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	got := FilterByTime(txs, since, until)
	if len(got) != 3 || got[0].ID != 2 || got[2].ID != 4 {
		t.Fatalf("FilterByTime = %v, want ids 2,3,4", got)
	}

	got = FilterByText(txs, "SUPER")
	if len(got) != 2 {
		t.Fatalf("FilterByText = %d results, want 2", len(got))
	}
}
