package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invotrack/config"
	"invotrack/models"
	"invotrack/pos"
	"invotrack/utils"
)

var finalizeLog = utils.WithComponent("finalize")

// FinalizeInvoiceInput is the reviewed scan result the client sends back.
type FinalizeInvoiceInput struct {
	DocType       string               `json:"doctype" binding:"required"`
	DocNumber     string               `json:"docnumber"`
	SupplierName  string               `json:"suppliername"`
	SupplierTaxID string               `json:"suppliertaxid"`
	IssuedAt      string               `json:"issuedat"`
	Total         float64              `json:"total"`
	Lines         []models.InvoiceLine `json:"lines" binding:"required"`
	ImageURL      string               `json:"imageurl"`
	PreviewURL    string               `json:"previewurl"`
}

// FinalizeInvoice turns a reviewed scan into bookkeeping state:
//
//  1. Each line becomes a local product (merge-upsert by barcode or
//     slugified name). This step is authoritative and runs first.
//  2. If a POS is configured and the document type warrants it, the
//     supplier, the products and finally the purchase document are pushed
//     best-effort; no POS failure stops finalization.
//  3. The invoice history record is always written, with whatever POS
//     document id was obtained.
func FinalizeInvoice(c *gin.Context) {
	var input FinalizeInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(input.Lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one line is required"})
		return
	}

	ctx := context.TODO()

	lines := normalizeLines(input.Lines)

	products, err := persistScannedLines(ctx, lines)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save products"})
		return
	}

	supplier := upsertLocalSupplier(ctx, input.SupplierName, input.SupplierTaxID)

	invoice := models.InvoiceHistoryItem{
		ID:            primitive.NewObjectID(),
		DocType:       input.DocType,
		DocNumber:     input.DocNumber,
		SupplierName:  input.SupplierName,
		SupplierTaxID: input.SupplierTaxID,
		Lines:         lines,
		Total:         models.Round2(input.Total),
		PaymentStatus: models.PaymentUnpaid,
		ImageURL:      input.ImageURL,
		PreviewURL:    input.PreviewURL,
		IssuedAt:      input.IssuedAt,
		CreatedAt:     time.Now(),
	}
	if supplier != nil {
		invoice.SupplierID = supplier.ID.Hex()
	}

	settings := LoadPosSettings(ctx)
	if settings != nil && posEligibleDocType(input.DocType) {
		adapter := PosManager.Adapter(settings.SystemID)
		if adapter != nil {
			outcome := pos.PushInvoice(c.Request.Context(), adapter, connectionConfig(*settings), &invoice, supplier, products)
			invoice.PosSystemID = settings.SystemID
			invoice.PosDocID = outcome.DocID
			if supplier != nil && outcome.SupplierExternalID != "" {
				config.SupplierCollection.UpdateOne(ctx,
					bson.M{"_id": supplier.ID},
					bson.M{"$set": bson.M{"externalaccountid": outcome.SupplierExternalID, "updated_at": time.Now()}})
			}
			storeExternalProductIDs(ctx, products)
		}
	}

	if _, err := config.InvoiceCollection.InsertOne(ctx, invoice); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save invoice"})
		return
	}

	finalizeLog.Info().
		Str("invoice", invoice.ID.Hex()).
		Str("doctype", invoice.DocType).
		Str("posdocid", invoice.PosDocID).
		Int("lines", len(invoice.Lines)).
		Msg("invoice finalized")

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Invoice finalized",
		"id":       invoice.ID.Hex(),
		"posdocid": invoice.PosDocID,
	})
}

func posEligibleDocType(docType string) bool {
	return docType == models.DocTypeInvoice || docType == models.DocTypeDeliveryNote
}

// persistScannedLines merge-upserts every scanned line into the product
// collection, keyed by barcode when present and slugified name otherwise.
// Existing products accumulate quantity and take the latest cost price.
func persistScannedLines(ctx context.Context, lines []models.InvoiceLine) ([]models.Product, error) {
	products := make([]models.Product, 0, len(lines))
	for _, line := range lines {
		key := mergeKey(line)

		var existing models.Product
		err := config.ProductCollection.FindOne(ctx, key).Decode(&existing)
		switch {
		case err == mongo.ErrNoDocuments:
			product := models.Product{
				ID:            primitive.NewObjectID(),
				CatalogNumber: line.CatalogNumber,
				Name:          line.Name,
				NameSlug:      utils.Slugify(line.Name),
				Quantity:      line.Quantity,
				UnitPrice:     models.Round2(line.UnitPrice),
				Barcode:       line.Barcode,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}
			if line.Barcode == "" {
				product.CatalogNumber = firstNonEmpty(line.CatalogNumber, utils.Slugify(line.Name))
			}
			product.Recalc()
			if _, err := config.ProductCollection.InsertOne(ctx, product); err != nil {
				return nil, err
			}
			products = append(products, product)
		case err != nil:
			return nil, err
		default:
			quantity := existing.Quantity + line.Quantity
			unitPrice := models.Round2(line.UnitPrice)
			update := bson.M{
				"quantity":   quantity,
				"unitprice":  unitPrice,
				"linetotal":  models.Round2(quantity * unitPrice),
				"updated_at": time.Now(),
			}
			if existing.CatalogNumber == "" && line.CatalogNumber != "" {
				update["catalognumber"] = line.CatalogNumber
			}
			if existing.NameSlug == "" {
				update["nameslug"] = utils.Slugify(existing.Name)
			}
			if _, err := config.ProductCollection.UpdateOne(ctx, bson.M{"_id": existing.ID}, bson.M{"$set": update}); err != nil {
				return nil, err
			}
			existing.Quantity = quantity
			existing.UnitPrice = unitPrice
			existing.Recalc()
			products = append(products, existing)
		}
	}
	return products, nil
}

// upsertLocalSupplier finds or creates the local supplier record for the
// scanned document. A missing name means the document stays unlinked.
func upsertLocalSupplier(ctx context.Context, name, taxID string) *models.Supplier {
	if name == "" {
		return nil
	}

	var supplier models.Supplier
	filter := bson.M{"name": name}
	if taxID != "" {
		filter = bson.M{"$or": []bson.M{{"taxid": taxID}, {"name": name}}}
	}
	err := config.SupplierCollection.FindOne(ctx, filter).Decode(&supplier)
	if err == nil {
		return &supplier
	}
	if err != mongo.ErrNoDocuments {
		finalizeLog.Error().Err(err).Str("supplier", name).Msg("supplier lookup failed")
		return nil
	}

	supplier = models.Supplier{
		ID:        primitive.NewObjectID(),
		Name:      name,
		TaxID:     taxID,
		Status:    "Active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := config.SupplierCollection.InsertOne(ctx, supplier); err != nil {
		finalizeLog.Error().Err(err).Str("supplier", name).Msg("supplier insert failed")
		return nil
	}
	return &supplier
}

// storeExternalProductIDs writes back the vendor ids PushInvoice assigned.
func storeExternalProductIDs(ctx context.Context, products []models.Product) {
	for _, p := range products {
		if p.ExternalProductID == "" {
			continue
		}
		_, err := config.ProductCollection.UpdateOne(ctx,
			bson.M{"_id": p.ID},
			bson.M{"$set": bson.M{"externalproductid": p.ExternalProductID, "updated_at": time.Now()}},
			options.Update())
		if err != nil {
			finalizeLog.Error().Err(err).Str("product", p.Name).Msg("failed to store external product id")
		}
	}
}

// mergeKey picks the product lookup key for a scanned line: barcode when
// present, slugified name otherwise.
func mergeKey(line models.InvoiceLine) bson.M {
	if line.Barcode != "" {
		return bson.M{"barcode": line.Barcode}
	}
	return bson.M{"nameslug": utils.Slugify(line.Name)}
}

// normalizeLines recomputes every line total from the reviewed quantity and
// unit price. Client-supplied totals are not trusted.
func normalizeLines(lines []models.InvoiceLine) []models.InvoiceLine {
	out := make([]models.InvoiceLine, len(lines))
	for i, l := range lines {
		l.UnitPrice = models.Round2(l.UnitPrice)
		l.LineTotal = models.Round2(l.Quantity * l.UnitPrice)
		out[i] = l
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
