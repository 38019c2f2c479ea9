package ledger

import (
	"cmp"
	"slices"

	"github.com/theirongolddev/sobres/internal/model"
)

// Distribute splits amount across an allocation set in whole cents.
//
// Each entry first gets amount*value/100 rounded down. The cents left over
// go one each to the entries with the largest discarded fractions, earlier
// entries winning ties. When the values sum to 100 the credits add up to
// exactly amount. Entries that receive nothing are omitted.
func Distribute(amount model.Money, split []model.Allocation) []model.Credit {
	total := int64(model.AllocationTotal(split))
	if amount <= 0 || total <= 0 {
		return nil
	}

	type part struct {
		idx int
		rem int64
	}

	credits := make([]model.Credit, len(split))
	parts := make([]part, len(split))
	var assigned int64
	for i, a := range split {
		n := int64(amount) * int64(a.Value)
		credits[i] = model.Credit{CategoryID: a.CategoryID, Amount: model.Money(n / 100)}
		parts[i] = part{idx: i, rem: n % 100}
		assigned += n / 100
	}

	// Target rounds half up so sets that do not sum to 100 still split
	// deterministically.
	left := (int64(amount)*total+50)/100 - assigned
	slices.SortStableFunc(parts, func(a, b part) int {
		return cmp.Compare(b.rem, a.rem)
	})
	for _, p := range parts {
		if left <= 0 {
			break
		}
		credits[p.idx].Amount++
		left--
	}

	out := credits[:0]
	for _, c := range credits {
		if c.Amount != 0 {
			out = append(out, c)
		}
	}
	return out
}
