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
	"invotrack/middleware"
	"invotrack/models"
	"invotrack/pos"
	"invotrack/utils"
)

// PosManager is the shared adapter registry for all POS endpoints.
var PosManager = pos.NewManager(pos.NewHTTPClient())

var posLog = utils.WithComponent("pos-api")

func connectionConfig(s models.PosSettings) pos.ConnectionConfig {
	return pos.ConnectionConfig{
		SystemID: s.SystemID,
		User:     s.User,
		Pwd:      s.Pwd,
		TaxID:    s.TaxID,
		APIKey:   s.APIKey,
	}
}

// LoadPosSettings returns the stored POS connection, or nil when none is
// configured.
func LoadPosSettings(ctx context.Context) *models.PosSettings {
	var settings models.PosSettings
	err := config.PosSettingsCollection.FindOne(ctx, bson.M{}).Decode(&settings)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			posLog.Error().Err(err).Msg("failed to load POS settings")
		}
		return nil
	}
	return &settings
}

func SavePosSettings(c *gin.Context) {
	var settings models.PosSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if PosManager.Adapter(settings.SystemID) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown POS system"})
		return
	}

	settings.UpdatedAt = time.Now()
	_, err := config.PosSettingsCollection.ReplaceOne(context.TODO(),
		bson.M{"systemid": settings.SystemID},
		settings,
		options.Replace().SetUpsert(true))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save POS settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "POS settings saved"})
}

func GetPosSettings(c *gin.Context) {
	settings := LoadPosSettings(context.TODO())
	if settings == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}
	// Never return the stored secret material.
	settings.Pwd = ""
	settings.APIKey = ""
	c.JSON(http.StatusOK, gin.H{"configured": true, "settings": settings})
}

// TestPosConnection tests the credentials in the request body, or the stored
// ones when the body is empty.
func TestPosConnection(c *gin.Context) {
	var cfg pos.ConnectionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil || cfg.SystemID == "" {
		settings := LoadPosSettings(context.TODO())
		if settings == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No POS connection configured"})
			return
		}
		cfg = connectionConfig(*settings)
	}

	result := PosManager.TestConnection(c.Request.Context(), cfg)
	c.JSON(http.StatusOK, result)
}

// SyncPos dispatches a manual sync: kind is products, suppliers, sales or
// documents. Synced products and suppliers are merged into the local
// collections.
func SyncPos(c *gin.Context) {
	kind := c.Param("kind")

	settings := LoadPosSettings(context.TODO())
	if settings == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No POS connection configured"})
		return
	}

	result := PosManager.Sync(c.Request.Context(), kind, connectionConfig(*settings))

	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	middleware.PosSyncTotal.WithLabelValues(settings.SystemID, kind, outcome).Inc()

	if result.Success && len(result.Products) > 0 {
		MergeSyncedProducts(context.TODO(), result.Products)
	}
	if result.Success && len(result.Suppliers) > 0 {
		mergeSyncedSuppliers(context.TODO(), result.Suppliers)
	}

	c.JSON(http.StatusOK, result)
}

// MergeSyncedProducts upserts vendor products into the local collection,
// keyed by external id, then barcode, then catalog number.
func MergeSyncedProducts(ctx context.Context, products []models.Product) {
	for _, p := range products {
		var key bson.M
		switch {
		case p.ExternalProductID != "":
			key = bson.M{"externalproductid": p.ExternalProductID}
		case p.Barcode != "":
			key = bson.M{"barcode": p.Barcode}
		default:
			key = bson.M{"catalognumber": p.CatalogNumber}
		}

		update := bson.M{
			"$set": bson.M{
				"externalproductid": p.ExternalProductID,
				"catalognumber":     p.CatalogNumber,
				"name":              p.Name,
				"nameslug":          utils.Slugify(p.Name),
				"quantity":          p.Quantity,
				"unitprice":         p.UnitPrice,
				"saleprice":         p.SalePrice,
				"linetotal":         p.LineTotal,
				"barcode":           p.Barcode,
				"updated_at":        time.Now(),
			},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		}
		if _, err := config.ProductCollection.UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
			posLog.Error().Err(err).Str("product", p.Name).Msg("failed to merge synced product")
		}
	}
}

func mergeSyncedSuppliers(ctx context.Context, suppliers []models.Supplier) {
	for _, s := range suppliers {
		key := bson.M{"name": s.Name}
		if s.ExternalAccountID != "" {
			key = bson.M{"externalaccountid": s.ExternalAccountID}
		}
		update := bson.M{
			"$set": bson.M{
				"name":              s.Name,
				"externalaccountid": s.ExternalAccountID,
				"taxid":             s.TaxID,
				"phone":             s.Phone,
				"email":             s.Email,
				"address":           s.Address,
				"status":            s.Status,
				"updated_at":        time.Now(),
			},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		}
		if _, err := config.SupplierCollection.UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
			posLog.Error().Err(err).Str("supplier", s.Name).Msg("failed to merge synced supplier")
		}
	}
}

// PushProductToPos creates or updates one product in the configured POS and
// stores the external id it came back with.
func PushProductToPos(c *gin.Context) {
	product, settings, ok := productAndSettings(c)
	if !ok {
		return
	}

	adapter := PosManager.Adapter(settings.SystemID)
	result := adapter.CreateOrUpdateProduct(c.Request.Context(), connectionConfig(*settings), product)
	if result.Success && result.ExternalID != "" {
		config.ProductCollection.UpdateOne(context.TODO(),
			bson.M{"_id": product.ID},
			bson.M{"$set": bson.M{"externalproductid": result.ExternalID, "updated_at": time.Now()}})
	}
	c.JSON(http.StatusOK, result)
}

// DeactivateProductInPos marks the product inactive on the vendor side. The
// local record is untouched.
func DeactivateProductInPos(c *gin.Context) {
	product, settings, ok := productAndSettings(c)
	if !ok {
		return
	}

	adapter := PosManager.Adapter(settings.SystemID)
	result := adapter.DeactivateProduct(c.Request.Context(), connectionConfig(*settings), product)
	c.JSON(http.StatusOK, result)
}

func productAndSettings(c *gin.Context) (*models.Product, *models.PosSettings, bool) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return nil, nil, false
	}

	var product models.Product
	if err := config.ProductCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return nil, nil, false
	}

	settings := LoadPosSettings(context.TODO())
	if settings == nil || PosManager.Adapter(settings.SystemID) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No POS connection configured"})
		return nil, nil, false
	}
	return &product, settings, true
}
