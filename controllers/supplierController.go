package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invotrack/config"
	"invotrack/models"
)

func CreateSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier.ID = primitive.NewObjectID()
	if supplier.Status == "" {
		supplier.Status = "Active"
	}
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = time.Now()

	if _, err := config.SupplierCollection.InsertOne(context.TODO(), supplier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create supplier"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Supplier created", "id": supplier.ID.Hex()})
}

func GetAllSuppliers(c *gin.Context) {
	filter := bson.M{}
	if search := c.Query("search"); search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	cursor, err := config.SupplierCollection.Find(context.TODO(), filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}
	defer cursor.Close(context.TODO())

	suppliers := []models.Supplier{}
	if err := cursor.All(context.TODO(), &suppliers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode suppliers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func GetSupplier(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
		return
	}

	var supplier models.Supplier
	if err := config.SupplierCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&supplier); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func EditSupplier(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
		return
	}

	var input models.UpdateSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateFields := bson.M{"updated_at": time.Now()}
	if input.Name != "" {
		updateFields["name"] = input.Name
	}
	if input.TaxID != "" {
		updateFields["taxid"] = input.TaxID
	}
	if input.ContactPerson != "" {
		updateFields["contact_person"] = input.ContactPerson
	}
	if input.Phone != "" {
		updateFields["phone"] = input.Phone
	}
	if input.Email != "" {
		updateFields["email"] = input.Email
	}
	if input.Address != "" {
		updateFields["address"] = input.Address
	}
	if input.PaymentTerms != "" {
		updateFields["payment_terms"] = input.PaymentTerms
	}
	if input.Status != "" {
		updateFields["status"] = input.Status
	}

	res, err := config.SupplierCollection.UpdateOne(context.TODO(), bson.M{"_id": objID}, bson.M{"$set": updateFields})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier updated"})
}

func DeleteSupplier(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
		return
	}

	res, err := config.SupplierCollection.DeleteOne(context.TODO(), bson.M{"_id": objID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete supplier"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted"})
}

// GetSuppliersForSelect returns the id/name pairs used by dropdowns.
func GetSuppliersForSelect(c *gin.Context) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1}).
		SetSort(bson.M{"name": 1})

	cursor, err := config.SupplierCollection.Find(context.TODO(), bson.M{"status": "Active"}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}
	defer cursor.Close(context.TODO())

	suppliers := []models.Supplier{}
	if err := cursor.All(context.TODO(), &suppliers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode suppliers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}
