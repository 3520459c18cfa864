package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"invotrack/config"
	"invotrack/models"
	"invotrack/utils"
)

func CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product.ID = primitive.NewObjectID()
	product.NameSlug = utils.Slugify(product.Name)
	product.Recalc()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	if _, err := config.ProductCollection.InsertOne(context.TODO(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "id": product.ID.Hex()})
}

func GetAllProducts(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filter := bson.M{}
	if search := c.Query("search"); search != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": search, "$options": "i"}},
			{"catalognumber": bson.M{"$regex": search, "$options": "i"}},
			{"barcode": search},
		}
	}
	if supplierID := c.Query("supplierid"); supplierID != "" {
		filter["supplierid"] = supplierID
	}

	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.M{"updated_at": -1})

	cursor, err := config.ProductCollection.Find(context.TODO(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	defer cursor.Close(context.TODO())

	products := []models.Product{}
	if err := cursor.All(context.TODO(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode products"})
		return
	}

	total, _ := config.ProductCollection.CountDocuments(context.TODO(), filter)
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total, "page": page})
}

func GetProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if err := config.ProductCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// EditProduct updates a product. Quantity or price changes recompute the
// line total server-side; the client value is ignored.
func EditProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var input models.UpdateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Product
	if err := config.ProductCollection.FindOne(context.TODO(), bson.M{"_id": objID}).Decode(&existing); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	updateFields := bson.M{"updated_at": time.Now()}
	if input.Name != "" {
		updateFields["name"] = input.Name
		updateFields["nameslug"] = utils.Slugify(input.Name)
	}
	if input.CatalogNumber != "" {
		updateFields["catalognumber"] = input.CatalogNumber
	}
	if input.Barcode != "" {
		updateFields["barcode"] = input.Barcode
	}
	if input.SupplierID != "" {
		updateFields["supplierid"] = input.SupplierID
	}
	if input.SalePrice != nil {
		updateFields["saleprice"] = models.Round2(*input.SalePrice)
	}
	if input.MinStock != nil {
		updateFields["minstock"] = *input.MinStock
	}

	quantity := existing.Quantity
	unitPrice := existing.UnitPrice
	if input.Quantity != nil {
		quantity = *input.Quantity
		updateFields["quantity"] = quantity
	}
	if input.UnitPrice != nil {
		unitPrice = models.Round2(*input.UnitPrice)
		updateFields["unitprice"] = unitPrice
	}
	updateFields["linetotal"] = models.Round2(quantity * unitPrice)

	_, err = config.ProductCollection.UpdateOne(context.TODO(), bson.M{"_id": objID}, bson.M{"$set": updateFields})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

func DeleteProduct(c *gin.Context) {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	res, err := config.ProductCollection.DeleteOne(context.TODO(), bson.M{"_id": objID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// GetLowStockProducts lists products at or below their minimum stock
// threshold.
func GetLowStockProducts(c *gin.Context) {
	filter := bson.M{
		"minstock": bson.M{"$gt": 0},
		"$expr":    bson.M{"$lte": []string{"$quantity", "$minstock"}},
	}

	cursor, err := config.ProductCollection.Find(context.TODO(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	defer cursor.Close(context.TODO())

	products := []models.Product{}
	if err := cursor.All(context.TODO(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
