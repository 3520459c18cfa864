package pos

import (
	"context"
	"testing"
)

func TestManagerKnowsBothVendors(t *testing.T) {
	m := NewManager(NewHTTPClient())

	if _, ok := m.Adapter(SystemCaspit).(*CaspitAdapter); !ok {
		t.Fatalf("caspit adapter has wrong type: %T", m.Adapter(SystemCaspit))
	}
	if _, ok := m.Adapter(SystemHashavshevet).(*HashavshevetAdapter); !ok {
		t.Fatalf("hashavshevet adapter has wrong type: %T", m.Adapter(SystemHashavshevet))
	}
	if m.Adapter("quickbooks") != nil {
		t.Fatal("unknown system must return nil")
	}
}

func TestManagerUnknownSystemFailsUniformly(t *testing.T) {
	m := NewManager(NewHTTPClient())
	cfg := ConnectionConfig{SystemID: "quickbooks"}

	if res := m.TestConnection(context.Background(), cfg); res.Success {
		t.Fatal("expected failure for unknown system")
	}
	if res := m.Sync(context.Background(), "products", cfg); res.Success {
		t.Fatal("expected failure for unknown system")
	}
}

func TestManagerUnknownSyncKind(t *testing.T) {
	m := NewManager(NewHTTPClient())
	cfg := ConnectionConfig{SystemID: SystemCaspit}

	res := m.Sync(context.Background(), "customers", cfg)
	if res.Success {
		t.Fatal("expected failure for unknown kind")
	}
}

type panickyAdapter struct{ Adapter }

func (panickyAdapter) SyncProducts(context.Context, ConnectionConfig) SyncResult {
	panic("vendor response drove the adapter off a cliff")
}

func (panickyAdapter) TestConnection(context.Context, ConnectionConfig) OperationResult {
	panic("boom")
}

func TestManagerRecoversAdapterPanic(t *testing.T) {
	m := NewManager(nil)
	m.adapters["broken"] = panickyAdapter{}
	cfg := ConnectionConfig{SystemID: "broken"}

	res := m.Sync(context.Background(), "products", cfg)
	if res.Success {
		t.Fatal("panic must surface as a failed result")
	}

	op := m.TestConnection(context.Background(), cfg)
	if op.Success {
		t.Fatal("panic must surface as a failed result")
	}
}
