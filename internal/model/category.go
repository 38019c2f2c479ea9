// Package model defines the core data types for the budget ledger.
package model

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CategoryID identifies a spending envelope.
type CategoryID int

// Category is a fixed spending envelope.
type Category struct {
	ID    CategoryID `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
}

// Catalog is an ordered, read-only set of categories.
type Catalog []Category

// DefaultCategories is the built-in category set.
var DefaultCategories = Catalog{
	{ID: 1, Name: "Necesidades", Color: "#4a6fa5"},
	{ID: 2, Name: "Ahorro", Color: "#7dcd85"},
	{ID: 3, Name: "Educación", Color: "#e9c46a"},
	{ID: 4, Name: "Entretenimiento", Color: "#e76f51"},
	{ID: 5, Name: "Otros", Color: "#9d4edd"},
}

// Lookup returns the category with the given id.
func (c Catalog) Lookup(id CategoryID) (Category, bool) {
	for _, cat := range c {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Find resolves a category from user input: a numeric id or a name.
// Names match case-insensitively and ignore accents ("educacion" finds "Educación").
func (c Catalog) Find(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Category{}, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return c.Lookup(CategoryID(n))
	}

	want := foldName(s)
	for _, cat := range c {
		if foldName(cat.Name) == want {
			return cat, true
		}
	}
	return Category{}, false
}

// IDs returns the category ids in catalog order.
func (c Catalog) IDs() []CategoryID {
	ids := make([]CategoryID, len(c))
	for i, cat := range c {
		ids[i] = cat.ID
	}
	return ids
}

// LookupCategory looks up id in DefaultCategories.
func LookupCategory(id CategoryID) (Category, bool) {
	return DefaultCategories.Lookup(id)
}

// FindCategory resolves s against DefaultCategories.
func FindCategory(s string) (Category, bool) {
	return DefaultCategories.Find(s)
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Allocation is the share of every income routed to one category.
// Value is a whole percentage in [0, 100].
type Allocation struct {
	CategoryID CategoryID `json:"categoryId"`
	Name       string     `json:"name"`
	Value      int        `json:"value"`
}

// DefaultAllocations returns the 50/20/10/10/10 split over DefaultCategories.
func DefaultAllocations() []Allocation {
	values := []int{50, 20, 10, 10, 10}
	allocs := make([]Allocation, len(DefaultCategories))
	for i, cat := range DefaultCategories {
		allocs[i] = Allocation{CategoryID: cat.ID, Name: cat.Name, Value: values[i]}
	}
	return allocs
}

// AllocationTotal sums the percentage values of a set.
func AllocationTotal(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Value
	}
	return total
}
