package model

// EnvelopeStats describes one allocation entry alongside its current funds.
type EnvelopeStats struct {
	Category  Category
	Percent   int
	Available Money
	// Assigned is this month's income times Percent.
	Assigned Money
	// Usage is Available as a fraction of Assigned, clamped to [0, 1].
	// Zero when nothing was assigned this month.
	Usage float64
}
