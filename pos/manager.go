package pos

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// System identifiers accepted by the manager.
const (
	SystemCaspit       = "caspit"
	SystemHashavshevet = "hashavshevet"
)

// Manager is the registry of vendor adapters. Callers dispatch by system id
// and get the uniform result shapes back whatever the vendor does.
type Manager struct {
	adapters map[string]Adapter
}

func NewManager(client HTTPDoer) *Manager {
	return &Manager{
		adapters: map[string]Adapter{
			SystemCaspit:       NewCaspitAdapter(client),
			SystemHashavshevet: NewHashavshevetAdapter(client),
		},
	}
}

// Adapter returns the adapter for systemID, or nil for unknown ids. Callers
// must handle nil rather than assume the id is registered.
func (m *Manager) Adapter(systemID string) Adapter {
	return m.adapters[systemID]
}

func (m *Manager) TestConnection(ctx context.Context, cfg ConnectionConfig) (result OperationResult) {
	defer recoverOp(&result, cfg.SystemID)

	adapter := m.Adapter(cfg.SystemID)
	if adapter == nil {
		return OperationResult{Success: false, Message: fmt.Sprintf("unknown POS system %q", cfg.SystemID)}
	}
	return adapter.TestConnection(ctx, cfg)
}

// Sync dispatches a bulk fetch by kind: "products", "suppliers", "sales" or
// "documents".
func (m *Manager) Sync(ctx context.Context, kind string, cfg ConnectionConfig) (result SyncResult) {
	defer recoverSync(&result, cfg.SystemID)

	adapter := m.Adapter(cfg.SystemID)
	if adapter == nil {
		return SyncResult{Success: false, Message: fmt.Sprintf("unknown POS system %q", cfg.SystemID)}
	}

	switch kind {
	case "products":
		return adapter.SyncProducts(ctx, cfg)
	case "suppliers":
		return adapter.SyncSuppliers(ctx, cfg)
	case "sales":
		return adapter.SyncSales(ctx, cfg)
	case "documents":
		return adapter.SyncDocuments(ctx, cfg)
	}
	return SyncResult{Success: false, Message: fmt.Sprintf("unknown sync kind %q", kind)}
}

func recoverOp(result *OperationResult, systemID string) {
	if r := recover(); r != nil {
		log.Error().Str("component", "pos").Str("system", systemID).Interface("panic", r).Msg("adapter panicked")
		*result = OperationResult{Success: false, Message: "internal POS integration error"}
	}
}

func recoverSync(result *SyncResult, systemID string) {
	if r := recover(); r != nil {
		log.Error().Str("component", "pos").Str("system", systemID).Interface("panic", r).Msg("adapter panicked")
		*result = SyncResult{Success: false, Message: "internal POS integration error"}
	}
}
