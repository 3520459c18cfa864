package pos

import (
	"context"
	"testing"

	"invotrack/models"
)

// fakeAdapter scripts per-capability outcomes so the push workflow can be
// driven without a vendor.
type fakeAdapter struct {
	supplierResult OperationResult
	productResults map[string]OperationResult
	documentResult OperationResult
	documentCalls  int
	documentLines  int
}

func (f *fakeAdapter) TestConnection(context.Context, ConnectionConfig) OperationResult {
	return OperationResult{Success: true}
}
func (f *fakeAdapter) SyncProducts(context.Context, ConnectionConfig) SyncResult  { return SyncResult{} }
func (f *fakeAdapter) SyncSuppliers(context.Context, ConnectionConfig) SyncResult { return SyncResult{} }
func (f *fakeAdapter) SyncSales(context.Context, ConnectionConfig) SyncResult     { return SyncResult{} }
func (f *fakeAdapter) SyncDocuments(context.Context, ConnectionConfig) SyncResult { return SyncResult{} }

func (f *fakeAdapter) CreateOrUpdateSupplier(_ context.Context, _ ConnectionConfig, _ *models.Supplier) OperationResult {
	return f.supplierResult
}

func (f *fakeAdapter) CreateOrUpdateProduct(_ context.Context, _ ConnectionConfig, p *models.Product) OperationResult {
	if res, ok := f.productResults[p.Name]; ok {
		return res
	}
	return OperationResult{Success: true, ExternalID: "ext-" + p.Name}
}

func (f *fakeAdapter) DeactivateProduct(context.Context, ConnectionConfig, *models.Product) OperationResult {
	return OperationResult{Success: true}
}

func (f *fakeAdapter) CreateDocument(_ context.Context, _ ConnectionConfig, doc *models.InvoiceHistoryItem, _ *models.Supplier) OperationResult {
	f.documentCalls++
	f.documentLines = len(doc.Lines)
	return f.documentResult
}

func pushFixture() (*models.InvoiceHistoryItem, *models.Supplier, []models.Product) {
	doc := &models.InvoiceHistoryItem{
		DocType:   models.DocTypeInvoice,
		DocNumber: "INV-1",
		Total:     30,
	}
	supplier := &models.Supplier{Name: "Acme"}
	products := []models.Product{
		{Name: "a", Quantity: 1, UnitPrice: 10, LineTotal: 10},
		{Name: "b", Quantity: 2, UnitPrice: 10, LineTotal: 20},
	}
	return doc, supplier, products
}

func TestPushInvoiceHappyPath(t *testing.T) {
	adapter := &fakeAdapter{
		supplierResult: OperationResult{Success: true, ExternalID: "acc-1"},
		documentResult: OperationResult{Success: true, ExternalID: "doc-1"},
	}
	doc, supplier, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{SystemID: SystemCaspit}, doc, supplier, products)
	if outcome.SupplierExternalID != "acc-1" || outcome.DocID != "doc-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.SyncedLines) != 2 || outcome.SkippedLines != 0 {
		t.Fatalf("unexpected lines: %+v", outcome)
	}
	if products[0].ExternalProductID != "ext-a" {
		t.Fatal("external ids must be written back to the product slice")
	}
	if supplier.ExternalAccountID != "acc-1" {
		t.Fatal("external id must be written back to the supplier")
	}
	if adapter.documentLines != 2 {
		t.Fatalf("document carried %d lines, want 2", adapter.documentLines)
	}
}

func TestPushInvoiceSupplierFailureSkipsDocument(t *testing.T) {
	adapter := &fakeAdapter{
		supplierResult: OperationResult{Success: false, Message: "nope"},
		documentResult: OperationResult{Success: true, ExternalID: "doc-1"},
	}
	doc, supplier, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{}, doc, supplier, products)
	if outcome.SupplierExternalID != "" || outcome.DocID != "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	// Products still sync even when the supplier does not.
	if len(outcome.SyncedLines) != 2 {
		t.Fatalf("got %d synced lines, want 2", len(outcome.SyncedLines))
	}
	if adapter.documentCalls != 0 {
		t.Fatal("document must not be created without a supplier account")
	}
}

func TestPushInvoiceFailedProductExcludedFromDocument(t *testing.T) {
	adapter := &fakeAdapter{
		supplierResult: OperationResult{Success: true, ExternalID: "acc-1"},
		productResults: map[string]OperationResult{
			"b": {Success: false, Message: "rejected"},
		},
		documentResult: OperationResult{Success: true, ExternalID: "doc-1"},
	}
	doc, supplier, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{}, doc, supplier, products)
	if len(outcome.SyncedLines) != 1 || outcome.SkippedLines != 1 {
		t.Fatalf("unexpected lines: %+v", outcome)
	}
	if adapter.documentLines != 1 {
		t.Fatalf("document carried %d lines, want 1", adapter.documentLines)
	}
	if outcome.DocID != "doc-1" {
		t.Fatal("document still created from the surviving lines")
	}
}

func TestPushInvoiceAllProductsFailSkipsDocument(t *testing.T) {
	adapter := &fakeAdapter{
		supplierResult: OperationResult{Success: true, ExternalID: "acc-1"},
		productResults: map[string]OperationResult{
			"a": {Success: false},
			"b": {Success: false},
		},
		documentResult: OperationResult{Success: true, ExternalID: "doc-1"},
	}
	doc, supplier, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{}, doc, supplier, products)
	if adapter.documentCalls != 0 {
		t.Fatal("document must not be created without lines")
	}
	if outcome.SkippedLines != 2 {
		t.Fatalf("got %d skipped lines, want 2", outcome.SkippedLines)
	}
}

func TestPushInvoiceDocumentFailureKeepsPartialOutcome(t *testing.T) {
	adapter := &fakeAdapter{
		supplierResult: OperationResult{Success: true, ExternalID: "acc-1"},
		documentResult: OperationResult{Success: false, Message: "vendor down"},
	}
	doc, supplier, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{}, doc, supplier, products)
	if outcome.DocID != "" {
		t.Fatal("doc id must stay empty when creation fails")
	}
	if outcome.SupplierExternalID != "acc-1" || len(outcome.SyncedLines) != 2 {
		t.Fatalf("supplier and product sync must survive: %+v", outcome)
	}
}

func TestPushInvoiceNilSupplier(t *testing.T) {
	adapter := &fakeAdapter{documentResult: OperationResult{Success: true}}
	doc, _, products := pushFixture()

	outcome := PushInvoice(context.Background(), adapter, ConnectionConfig{}, doc, nil, products)
	if outcome.SupplierExternalID != "" || outcome.DocID != "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.SyncedLines) != 2 {
		t.Fatal("products still sync without a supplier")
	}
}
