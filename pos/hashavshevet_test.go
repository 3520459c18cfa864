package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"invotrack/models"
)

type hashFixture struct {
	adapter    *HashavshevetAdapter
	totalPages int
	lastAuth   string
	lastItem   map[string]interface{}
}

func newHashFixture(t *testing.T) *hashFixture {
	t.Helper()
	f := &hashFixture{totalPages: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["apiKey"] == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"AccessToken":"hash-tok-1234"}`)
	})
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.lastAuth = r.Header.Get("Authorization")
			if f.lastAuth != "Bearer hash-tok-1234" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/items", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewDecoder(r.Body).Decode(&f.lastItem)
			fmt.Fprint(w, `{"RecordKey":"rk-100"}`)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		items := make([]map[string]interface{}, 0, size)
		for i := 0; i < size; i++ {
			items = append(items, map[string]interface{}{
				"RecordKey":  fmt.Sprintf("rk-%d-%d", page, i),
				"ItemKey":    fmt.Sprintf("IK-%d-%d", page, i),
				"ItemName":   fmt.Sprintf("Item %d-%d", page, i),
				"Quantity":   "4", // numbers arrive as strings from some installs
				"PurchPrice": 2,
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Items":      items,
			"TotalPages": f.totalPages,
		})
	}))
	mux.HandleFunc("/accounts", authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"AccountKey":"ak-7"}`)
	}))
	mux.HandleFunc("/documents", authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"RecordKey":"doc-55"}`)
	}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	f.adapter = NewHashavshevetAdapter(server.Client())
	f.adapter.BaseURL = server.URL
	f.adapter.PageSize = 3
	f.adapter.PageCap = 10
	return f
}

func hashConfig() ConnectionConfig {
	return ConnectionConfig{SystemID: SystemHashavshevet, User: "u", Pwd: "p", TaxID: "515555555", APIKey: "key-1"}
}

func TestHashavshevetTestConnection(t *testing.T) {
	f := newHashFixture(t)

	res := f.adapter.TestConnection(context.Background(), hashConfig())
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}

	cfg := hashConfig()
	cfg.APIKey = ""
	cfg.TaxID = "other"
	if res := f.adapter.TestConnection(context.Background(), cfg); res.Success {
		t.Fatal("expected failure without an api key")
	}
}

func TestHashavshevetSyncProductsUsesBearerAndWrapper(t *testing.T) {
	f := newHashFixture(t)
	f.totalPages = 2

	res := f.adapter.SyncProducts(context.Background(), hashConfig())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Message)
	}
	if f.lastAuth != "Bearer hash-tok-1234" {
		t.Fatalf("token must travel in the Authorization header, got %q", f.lastAuth)
	}
	if want := 2 * f.adapter.PageSize; res.ItemsSynced != want {
		t.Fatalf("got %d items, want %d", res.ItemsSynced, want)
	}

	p := res.Products[0]
	if p.ExternalProductID != "rk-1-0" || p.CatalogNumber != "IK-1-0" {
		t.Fatalf("unexpected mapping: %+v", p)
	}
	if p.Quantity != 4 || p.UnitPrice != 2 || p.LineTotal != 8 {
		t.Fatalf("numeric mapping wrong: %+v", p)
	}
}

func TestHashavshevetCreateProductTakesServerKey(t *testing.T) {
	f := newHashFixture(t)

	product := &models.Product{Name: "New item", CatalogNumber: "NI-1", Quantity: 1, UnitPrice: 9}
	res := f.adapter.CreateOrUpdateProduct(context.Background(), hashConfig(), product)
	if !res.Success {
		t.Fatalf("create failed: %s", res.Message)
	}
	if res.ExternalID != "rk-100" {
		t.Fatalf("expected server-assigned key rk-100, got %q", res.ExternalID)
	}
	if _, ok := f.lastItem["RecordKey"]; ok {
		t.Fatal("create payload must not carry a record key")
	}
}

func TestHashavshevetUpdateProductSendsRecordKey(t *testing.T) {
	f := newHashFixture(t)

	product := &models.Product{Name: "Old item", ExternalProductID: "rk-9", Quantity: 1, UnitPrice: 9}
	res := f.adapter.CreateOrUpdateProduct(context.Background(), hashConfig(), product)
	if !res.Success {
		t.Fatalf("update failed: %s", res.Message)
	}
	if f.lastItem["RecordKey"] != "rk-9" {
		t.Fatalf("update payload must carry the record key, got %v", f.lastItem["RecordKey"])
	}
}

func TestHashavshevetDeactivateSendsInactiveFlag(t *testing.T) {
	f := newHashFixture(t)

	product := &models.Product{Name: "Old item", ExternalProductID: "rk-9"}
	res := f.adapter.DeactivateProduct(context.Background(), hashConfig(), product)
	if !res.Success {
		t.Fatalf("deactivate failed: %s", res.Message)
	}
	if f.lastItem["Active"] != "N" {
		t.Fatalf("expected Active N, got %v", f.lastItem["Active"])
	}

	if res := f.adapter.DeactivateProduct(context.Background(), hashConfig(), &models.Product{Name: "x"}); res.Success {
		t.Fatal("deactivating an unsynced product must fail")
	}
}

func TestHashavshevetCreateSupplierTakesAccountKey(t *testing.T) {
	f := newHashFixture(t)

	res := f.adapter.CreateOrUpdateSupplier(context.Background(), hashConfig(), &models.Supplier{Name: "Acme", PaymentTerms: "net 30"})
	if !res.Success {
		t.Fatalf("create failed: %s", res.Message)
	}
	if res.ExternalID != "ak-7" {
		t.Fatalf("expected server-assigned key ak-7, got %q", res.ExternalID)
	}
}

func TestHashavshevetCreateDocument(t *testing.T) {
	f := newHashFixture(t)

	doc := &models.InvoiceHistoryItem{
		DocType: models.DocTypeDeliveryNote,
		Lines:   []models.InvoiceLine{{Name: "w", Quantity: 2, UnitPrice: 3, LineTotal: 6}},
	}
	res := f.adapter.CreateDocument(context.Background(), hashConfig(), doc, &models.Supplier{Name: "Acme", ExternalAccountID: "ak-7"})
	if !res.Success {
		t.Fatalf("create document failed: %s", res.Message)
	}
	if res.ExternalID != "doc-55" {
		t.Fatalf("got document id %q, want doc-55", res.ExternalID)
	}
}

func TestHashavshevetItemToInternal(t *testing.T) {
	a := NewHashavshevetAdapter(nil)

	t.Run("drops record without identifiers", func(t *testing.T) {
		if p := a.itemToInternal([]byte(`{"Quantity":1}`)); p != nil {
			t.Fatalf("expected nil, got %+v", p)
		}
	})

	t.Run("derives unit price from row sum", func(t *testing.T) {
		p := a.itemToInternal([]byte(`{"ItemName":"w","Quantity":4,"RowSum":10}`))
		if p == nil || p.UnitPrice != 2.5 {
			t.Fatalf("got %+v", p)
		}
	})

	t.Run("name falls back to item key", func(t *testing.T) {
		p := a.itemToInternal([]byte(`{"ItemKey":"IK-3"}`))
		if p == nil || p.Name != "Item IK-3" {
			t.Fatalf("got %+v", p)
		}
	})
}
