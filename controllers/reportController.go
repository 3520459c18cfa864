package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"invotrack/config"
	"invotrack/models"
)

// Dashboard aggregates the accounting summary: document counts, unpaid
// totals, monthly expenses by supplier and the low-stock count.
func Dashboard(c *gin.Context) {
	ctx := context.TODO()
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	invoiceCount, err := config.InvoiceCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	unpaidPipeline := []bson.M{
		{"$match": bson.M{"paymentstatus": bson.M{"$ne": models.PaymentPaid}}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total"},
			"count": bson.M{"$sum": 1},
		}},
	}
	unpaidTotal := 0.0
	unpaidCount := 0
	cursor, err := config.InvoiceCollection.Aggregate(ctx, unpaidPipeline)
	if err == nil {
		var rows []struct {
			Total float64 `bson:"total"`
			Count int     `bson:"count"`
		}
		if cursor.All(ctx, &rows) == nil && len(rows) > 0 {
			unpaidTotal = rows[0].Total
			unpaidCount = rows[0].Count
		}
	}

	monthlyPipeline := []bson.M{
		{"$match": bson.M{"created_at": bson.M{"$gte": monthStart}}},
		{"$group": bson.M{
			"_id":   "$suppliername",
			"total": bson.M{"$sum": "$total"},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"total": -1}},
	}
	var monthlyBySupplier []bson.M
	cursor, err = config.InvoiceCollection.Aggregate(ctx, monthlyPipeline)
	if err == nil {
		cursor.All(ctx, &monthlyBySupplier)
	}

	lowStockCount, _ := config.ProductCollection.CountDocuments(ctx, bson.M{
		"minstock": bson.M{"$gt": 0},
		"$expr":    bson.M{"$lte": []string{"$quantity", "$minstock"}},
	})
	productCount, _ := config.ProductCollection.CountDocuments(ctx, bson.M{})
	supplierCount, _ := config.SupplierCollection.CountDocuments(ctx, bson.M{})

	c.JSON(http.StatusOK, gin.H{
		"invoices":           invoiceCount,
		"products":           productCount,
		"suppliers":          supplierCount,
		"unpaid_total":       models.Round2(unpaidTotal),
		"unpaid_count":       unpaidCount,
		"month_by_supplier":  monthlyBySupplier,
		"low_stock_products": lowStockCount,
	})
}

// MonthlyExpenseReport groups finalized documents by month for the given
// year.
func MonthlyExpenseReport(c *gin.Context) {
	ctx := context.TODO()
	year := time.Now().Year()
	if y := c.Query("year"); y != "" {
		var parsed time.Time
		var err error
		if parsed, err = time.Parse("2006", y); err == nil {
			year = parsed.Year()
		}
	}

	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	pipeline := []bson.M{
		{"$match": bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}},
		{"$group": bson.M{
			"_id":   bson.M{"$month": "$created_at"},
			"total": bson.M{"$sum": "$total"},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"_id": 1}},
	}

	cursor, err := config.InvoiceCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	var months []bson.M
	if err := cursor.All(ctx, &months); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": months})
}
