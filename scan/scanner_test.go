package scan

import (
	"strings"
	"testing"

	"invotrack/models"
)

func TestParseScanResponse(t *testing.T) {
	content := `{
		"docType": "delivery_note",
		"docNumber": "DN-42",
		"supplierName": "Tnuva",
		"supplierTaxId": "520041146",
		"date": "2026-08-30",
		"total": 117.5,
		"items": [
			{"catalogNumber": "C-1", "description": "Milk 3%", "quantity": 10, "totalPrice": 65},
			{"catalogNumber": "C-2", "description": "Cottage", "quantity": 7, "totalPrice": 52.5, "barcode": "7290004127336"}
		]
	}`

	out, err := parseScanResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.DocType != models.DocTypeDeliveryNote || out.DocNumber != "DN-42" {
		t.Fatalf("header mapping wrong: %+v", out)
	}
	if out.Total != 117.5 || len(out.Lines) != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}

	l := out.Lines[0]
	if l.UnitPrice != 6.5 {
		t.Fatalf("unit price = %v, want 6.5 (65 over 10)", l.UnitPrice)
	}
	if l.LineTotal != 65 {
		t.Fatalf("line total = %v, want 65", l.LineTotal)
	}
	if out.Lines[1].Barcode != "7290004127336" {
		t.Fatalf("barcode lost: %+v", out.Lines[1])
	}
}

func TestParseScanResponseStripsCodeFence(t *testing.T) {
	content := "```json\n" + `{"docType":"invoice","items":[{"description":"w","quantity":1,"totalPrice":5}]}` + "\n```"

	out, err := parseScanResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Lines) != 1 || out.Lines[0].UnitPrice != 5 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestParseScanResponseDefaultsDocType(t *testing.T) {
	out, err := parseScanResponse(`{"docType":"quote","items":[{"description":"w","quantity":1,"totalPrice":1}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.DocType != models.DocTypeInvoice {
		t.Fatalf("doc type = %q, want invoice fallback", out.DocType)
	}
}

func TestParseScanResponseZeroQuantity(t *testing.T) {
	out, err := parseScanResponse(`{"docType":"invoice","items":[{"description":"w","quantity":0,"totalPrice":10}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Lines[0].UnitPrice != 0 || out.Lines[0].LineTotal != 0 {
		t.Fatalf("zero quantity must not divide: %+v", out.Lines[0])
	}
}

func TestParseScanResponseSkipsEmptyItems(t *testing.T) {
	content := `{"docType":"invoice","items":[
		{"description":"","catalogNumber":"","quantity":1,"totalPrice":5},
		{"description":"real","quantity":1,"totalPrice":5}
	]}`
	out, err := parseScanResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Lines) != 1 || out.Lines[0].Name != "real" {
		t.Fatalf("unexpected lines: %+v", out.Lines)
	}
}

func TestParseScanResponseRejectsGarbage(t *testing.T) {
	if _, err := parseScanResponse("Sorry, I cannot read this image."); err == nil {
		t.Fatal("expected error for prose output")
	}
	if _, err := parseScanResponse(`{"docType":"invoice","items":[]}`); err == nil {
		t.Fatal("expected error when no line items survive")
	}
}

func TestParseScanResponseRoundsDerivedPrices(t *testing.T) {
	out, err := parseScanResponse(`{"docType":"invoice","items":[{"description":"w","quantity":3,"totalPrice":10}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Lines[0].UnitPrice != 3.33 {
		t.Fatalf("unit price = %v, want 3.33", out.Lines[0].UnitPrice)
	}
	if out.Lines[0].LineTotal != 9.99 {
		t.Fatalf("line total = %v, want 9.99", out.Lines[0].LineTotal)
	}
}

func TestNewScannerRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewScanner(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}
