package ledger

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/theirongolddev/sobres/internal/model"
)

const benchTransactions = 5000

func BenchmarkAdd(b *testing.B) {
	f := gofakeit.New(1)
	inputs := make([]TransactionInput, 1024)
	for i := range inputs {
		inputs[i] = randomInput(f)
	}

	l := New(model.DefaultCategories)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := l.Add(inputs[i%len(inputs)], Confirm); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecompute(b *testing.B) {
	l := seededLedger(b, gofakeit.New(2), benchTransactions)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = l.Recompute()
	}
}

func BenchmarkRestore(b *testing.B) {
	st := seededLedger(b, gofakeit.New(3), benchTransactions).State()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Restore(model.DefaultCategories, st); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTransactions(b *testing.B) {
	l := seededLedger(b, gofakeit.New(4), benchTransactions)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := 0
		for range l.Transactions(model.Expense) {
			n++
		}
		if n == 0 {
			b.Fatal("no expenses")
		}
	}
}

func BenchmarkSummarize(b *testing.B) {
	l := seededLedger(b, gofakeit.New(5), benchTransactions)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = l.Summarize(2024, 3)
	}
}
