package utils

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invotrack/config"
	"invotrack/models"
	"invotrack/pos"
)

// NightlyPosSync refreshes the local product catalog from every stored POS
// connection that has auto-sync enabled, then sends the low-stock alert
// mail. Wired to the gocron scheduler in main.
func NightlyPosSync(manager *pos.Manager) {
	log := WithComponent("cron")
	ctx := context.Background()

	cursor, err := config.PosSettingsCollection.Find(ctx, bson.M{"autosync": true})
	if err != nil {
		log.Error().Err(err).Msg("failed to load POS settings for nightly sync")
		return
	}
	var allSettings []models.PosSettings
	if err := cursor.All(ctx, &allSettings); err != nil {
		log.Error().Err(err).Msg("failed to decode POS settings")
		return
	}

	for _, settings := range allSettings {
		cfg := pos.ConnectionConfig{
			SystemID: settings.SystemID,
			User:     settings.User,
			Pwd:      settings.Pwd,
			TaxID:    settings.TaxID,
			APIKey:   settings.APIKey,
		}
		result := manager.Sync(ctx, "products", cfg)
		if !result.Success {
			log.Warn().Str("system", settings.SystemID).Str("reason", result.Message).Msg("nightly product sync failed")
			continue
		}
		mergeProducts(ctx, result.Products)
		log.Info().Str("system", settings.SystemID).Int("items", result.ItemsSynced).Msg("nightly product sync done")
	}

	sendLowStockAlert(ctx)
}

func mergeProducts(ctx context.Context, products []models.Product) {
	log := WithComponent("cron")
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
				"nameslug":          Slugify(p.Name),
				"quantity":          p.Quantity,
				"unitprice":         p.UnitPrice,
				"linetotal":         p.LineTotal,
				"barcode":           p.Barcode,
				"updated_at":        time.Now(),
			},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		}
		if _, err := config.ProductCollection.UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
			log.Error().Err(err).Str("product", p.Name).Msg("failed to merge product during nightly sync")
		}
	}
}

func sendLowStockAlert(ctx context.Context) {
	log := WithComponent("cron")

	cursor, err := config.ProductCollection.Find(ctx, bson.M{
		"minstock": bson.M{"$gt": 0},
		"$expr":    bson.M{"$lte": []string{"$quantity", "$minstock"}},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to query low-stock products")
		return
	}
	var low []models.Product
	if err := cursor.All(ctx, &low); err != nil || len(low) == 0 {
		return
	}

	var adminUsers []models.User
	userCursor, err := config.UserCollection.Find(ctx, bson.M{"role": "admin"})
	if err != nil {
		return
	}
	if err := userCursor.All(ctx, &adminUsers); err != nil {
		return
	}

	body := "The following products are at or below their minimum stock:\n\n"
	for _, p := range low {
		body += fmt.Sprintf("- %s (%s): %.2f on hand, minimum %.2f\n", p.Name, p.CatalogNumber, p.Quantity, p.MinStock)
	}

	for _, user := range adminUsers {
		if err := SendEmail(user.Email, "InvoTrack low stock alert", body); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("failed to send low-stock alert")
		}
	}
}
