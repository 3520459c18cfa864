package pos

import (
	"context"

	"github.com/rs/zerolog/log"

	"invotrack/models"
)

// PushOutcome reports what the best-effort POS push of a finalized invoice
// managed to do. The push never fails as a whole: the bookkeeping record is
// written regardless, so every field here may legitimately be empty.
type PushOutcome struct {
	SupplierExternalID string
	DocID              string
	SyncedLines        []models.InvoiceLine
	SkippedLines       int
}

// PushInvoice runs the POS half of invoice finalization: upsert the
// supplier, upsert each product line, and create the purchase document once
// a supplier account and at least one synced line exist. Each sub-step is
// isolated; a supplier failure does not stop product sync and a product
// failure only drops that line from the document.
func PushInvoice(ctx context.Context, adapter Adapter, cfg ConnectionConfig, doc *models.InvoiceHistoryItem, supplier *models.Supplier, products []models.Product) PushOutcome {
	logger := log.With().Str("component", "pos").Str("system", cfg.SystemID).Logger()
	outcome := PushOutcome{}

	if supplier != nil {
		res := adapter.CreateOrUpdateSupplier(ctx, cfg, supplier)
		if res.Success {
			supplier.ExternalAccountID = res.ExternalID
			outcome.SupplierExternalID = res.ExternalID
		} else {
			logger.Warn().Str("supplier", supplier.Name).Str("reason", res.Message).Msg("supplier sync failed, continuing without supplier link")
		}
	}

	for i := range products {
		res := adapter.CreateOrUpdateProduct(ctx, cfg, &products[i])
		if !res.Success {
			logger.Warn().Str("product", products[i].Name).Str("reason", res.Message).Msg("product sync failed, excluding from document lines")
			outcome.SkippedLines++
			continue
		}
		products[i].ExternalProductID = res.ExternalID
		outcome.SyncedLines = append(outcome.SyncedLines, models.InvoiceLine{
			ProductID:     res.ExternalID,
			CatalogNumber: products[i].CatalogNumber,
			Name:          products[i].Name,
			Quantity:      products[i].Quantity,
			UnitPrice:     products[i].UnitPrice,
			LineTotal:     products[i].LineTotal,
			Barcode:       products[i].Barcode,
		})
	}

	if outcome.SupplierExternalID == "" || len(outcome.SyncedLines) == 0 {
		return outcome
	}

	pushDoc := *doc
	pushDoc.Lines = outcome.SyncedLines
	res := adapter.CreateDocument(ctx, cfg, &pushDoc, supplier)
	if !res.Success {
		logger.Warn().Str("reason", res.Message).Msg("document creation failed, invoice will be stored without a POS document id")
		return outcome
	}
	outcome.DocID = res.ExternalID
	return outcome
}
