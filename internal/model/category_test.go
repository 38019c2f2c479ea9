package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFindCategory(t *testing.T) {
	tests := []struct {
		in     string
		wantID CategoryID
		ok     bool
	}{
		{"1", 1, true},
		{"Ahorro", 2, true},
		{"ahorro", 2, true},
		{"educacion", 3, true},
		{"EDUCACIÓN", 3, true},
		{" otros ", 5, true},
		{"9", 0, false},
		{"Desconocida", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := FindCategory(tt.in)
		if ok != tt.ok || got.ID != tt.wantID {
			t.Errorf("FindCategory(%q) = (%d, %v), want (%d, %v)", tt.in, got.ID, ok, tt.wantID, tt.ok)
		}
	}
}

func TestLookupCategoryNotFound(t *testing.T) {
	if _, ok := LookupCategory(0); ok {
		t.Fatal("LookupCategory(0) found a category")
	}
	c, ok := LookupCategory(4)
	if !ok || c.Name != "Entretenimiento" || c.Color != "#e76f51" {
		t.Fatalf("LookupCategory(4) = %+v, %v", c, ok)
	}
}

func TestDefaultAllocations(t *testing.T) {
	allocs := DefaultAllocations()
	if len(allocs) != len(DefaultCategories) {
		t.Fatalf("len = %d, want %d", len(allocs), len(DefaultCategories))
	}
	if got := AllocationTotal(allocs); got != 100 {
		t.Fatalf("total = %d, want 100", got)
	}
	if allocs[0].Value != 50 || allocs[0].Name != "Necesidades" {
		t.Fatalf("first allocation = %+v", allocs[0])
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2024-02-29"` {
		t.Fatalf("Marshal = %s", data)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2024-02-29T15:04:05.000Z"`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("Unmarshal = %v, want %v", back, d)
	}
	if !back.InMonth(2024, time.February) || back.InMonth(2024, time.March) {
		t.Fatal("InMonth mismatch")
	}
}
