package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invotrack/config"
	"invotrack/models"
	"invotrack/scan"
	"invotrack/utils"
)

var (
	scannerOnce sync.Once
	scanner     *scan.Scanner
	scannerErr  error
)

var invoiceLog = utils.WithComponent("invoices")

func getScanner() (*scan.Scanner, error) {
	scannerOnce.Do(func() {
		scanner, scannerErr = scan.NewScanner()
	})
	return scanner, scannerErr
}

// ScanInvoice runs the uploaded document photo through the vision model and
// returns the extracted lines for review, along with the stored image URLs.
// Nothing is persisted until the client finalizes.
func ScanInvoice(c *gin.Context) {
	s, err := getScanner()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document scanning is not configured"})
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	out, err := s.ScanImage(c.Request.Context(), data, file.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not read the document, try a clearer photo"})
		return
	}

	// Image upload is best-effort enrichment; a storage failure must not
	// lose the scan result.
	imageURL, previewURL, err := UploadInvoiceImage(data, file.Header.Get("Content-Type"))
	if err != nil {
		invoiceLog.Warn().Err(err).Msg("invoice image upload failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"scan":       out,
		"imageurl":   imageURL,
		"previewurl": previewURL,
	})
}

func ListInvoices(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filter := bson.M{}
	if status := c.Query("paymentstatus"); status != "" {
		filter["paymentstatus"] = status
	}
	if docType := c.Query("doctype"); docType != "" {
		filter["doctype"] = docType
	}
	if supplier := c.Query("supplier"); supplier != "" {
		filter["suppliername"] = bson.M{"$regex": supplier, "$options": "i"}
	}

	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.M{"created_at": -1})

	cursor, err := config.InvoiceCollection.Find(context.TODO(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoices"})
		return
	}
	defer cursor.Close(context.TODO())

	invoices := []models.InvoiceHistoryItem{}
	if err := cursor.All(context.TODO(), &invoices); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode invoices"})
		return
	}

	total, _ := config.InvoiceCollection.CountDocuments(context.TODO(), filter)
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "total": total, "page": page})
}

func GetInvoice(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	var invoice models.InvoiceHistoryItem
	if err := config.InvoiceCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&invoice); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoicePaymentStatus moves an invoice along the payment lifecycle.
// Illegal transitions are rejected.
func UpdateInvoicePaymentStatus(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	var input struct {
		PaymentStatus string `json:"paymentstatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var invoice models.InvoiceHistoryItem
	if err := config.InvoiceCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&invoice); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	if !models.NextPaymentStatus(invoice.PaymentStatus, input.PaymentStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment status transition"})
		return
	}

	_, err = config.InvoiceCollection.UpdateOne(context.TODO(),
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"paymentstatus": input.PaymentStatus, "updated_at": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update invoice"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}

func DeleteInvoice(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	res, err := config.InvoiceCollection.DeleteOne(context.TODO(), bson.M{"_id": objID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invoice"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}
