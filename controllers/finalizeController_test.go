package controllers

import (
	"testing"

	"invotrack/models"
)

func TestMergeKeyPrefersBarcode(t *testing.T) {
	key := mergeKey(models.InvoiceLine{Name: "Milk 3%", Barcode: "7290000000001"})
	if key["barcode"] != "7290000000001" {
		t.Fatalf("got %v", key)
	}
	if _, ok := key["nameslug"]; ok {
		t.Fatalf("barcode key must not also match by name: %v", key)
	}
}

func TestMergeKeyNormalizesName(t *testing.T) {
	// Case and punctuation variants of the same product must hit the same
	// key, not create duplicates.
	for _, name := range []string{" Milk 3%", "milk 3", "MILK   3"} {
		key := mergeKey(models.InvoiceLine{Name: name})
		if key["nameslug"] != "milk-3" {
			t.Fatalf("mergeKey(%q) = %v, want nameslug milk-3", name, key)
		}
	}
}

func TestNormalizeLinesRecomputesTotals(t *testing.T) {
	lines := normalizeLines([]models.InvoiceLine{
		{Name: "a", Quantity: 3, UnitPrice: 3.333, LineTotal: 999},
		{Name: "b", Quantity: 0, UnitPrice: 5, LineTotal: 123},
	})

	if lines[0].UnitPrice != 3.33 {
		t.Fatalf("unit price = %v, want 3.33", lines[0].UnitPrice)
	}
	if lines[0].LineTotal != 9.99 {
		t.Fatalf("line total = %v, want 9.99 (client value ignored)", lines[0].LineTotal)
	}
	if lines[1].LineTotal != 0 {
		t.Fatalf("line total = %v, want 0", lines[1].LineTotal)
	}
}
