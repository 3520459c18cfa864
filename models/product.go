package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ExternalProductID string             `bson:"externalproductid,omitempty" json:"externalproductid,omitempty"`
	CatalogNumber     string             `bson:"catalognumber,omitempty" json:"catalognumber,omitempty"`
	Name              string             `bson:"name" json:"name" binding:"required"`
	NameSlug          string             `bson:"nameslug,omitempty" json:"-"`
	Quantity          float64            `bson:"quantity" json:"quantity"`
	UnitPrice         float64            `bson:"unitprice" json:"unitprice"`
	SalePrice         float64            `bson:"saleprice,omitempty" json:"saleprice,omitempty"`
	LineTotal         float64            `bson:"linetotal" json:"linetotal"`
	Barcode           string             `bson:"barcode,omitempty" json:"barcode,omitempty"`
	MinStock          float64            `bson:"minstock,omitempty" json:"minstock,omitempty"`
	SupplierID        string             `bson:"supplierid,omitempty" json:"supplierid,omitempty"`
	CreatedAt         time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt         time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type UpdateProduct struct {
	CatalogNumber string   `json:"catalognumber,omitempty"`
	Name          string   `json:"name,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	UnitPrice     *float64 `json:"unitprice,omitempty"`
	SalePrice     *float64 `json:"saleprice,omitempty"`
	Barcode       string   `json:"barcode,omitempty"`
	MinStock      *float64 `json:"minstock,omitempty"`
	SupplierID    string   `json:"supplierid,omitempty"`
}

// Recalc recomputes LineTotal from Quantity and UnitPrice. The stored total
// is never trusted from upstream input.
func (p *Product) Recalc() {
	p.LineTotal = Round2(p.Quantity * p.UnitPrice)
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// UnitPriceFrom derives a unit price from a line total and quantity.
// A zero quantity yields 0 rather than a division error.
func UnitPriceFrom(total, quantity float64) float64 {
	if quantity == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(total).
		Div(decimal.NewFromFloat(quantity)).
		Round(2).Float64()
	return f
}
