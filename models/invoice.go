package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document types recognized by the scanner and the POS push.
const (
	DocTypeInvoice      = "invoice"
	DocTypeDeliveryNote = "delivery_note"
	DocTypeReceipt      = "receipt"
)

// Payment lifecycle: unpaid -> pending_payment -> paid.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPending = "pending_payment"
	PaymentPaid    = "paid"
)

type InvoiceLine struct {
	ProductID     string  `bson:"product_id,omitempty" json:"product_id,omitempty"`
	CatalogNumber string  `bson:"catalognumber,omitempty" json:"catalognumber,omitempty"`
	Name          string  `bson:"name" json:"name"`
	Quantity      float64 `bson:"quantity" json:"quantity"`
	UnitPrice     float64 `bson:"unit_price" json:"unit_price"`
	LineTotal     float64 `bson:"line_total" json:"line_total"`
	Barcode       string  `bson:"barcode,omitempty" json:"barcode,omitempty"`
}

type InvoiceHistoryItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DocType       string             `bson:"doctype" json:"doctype"`
	DocNumber     string             `bson:"docnumber,omitempty" json:"docnumber,omitempty"`
	SupplierID    string             `bson:"supplierid,omitempty" json:"supplierid,omitempty"`
	SupplierName  string             `bson:"suppliername,omitempty" json:"suppliername,omitempty"`
	SupplierTaxID string             `bson:"suppliertaxid,omitempty" json:"suppliertaxid,omitempty"`
	Lines         []InvoiceLine      `bson:"lines" json:"lines"`
	Total         float64            `bson:"total" json:"total"`
	PaymentStatus string             `bson:"paymentstatus" json:"paymentstatus"`
	PosSystemID   string             `bson:"possystemid,omitempty" json:"possystemid,omitempty"`
	PosDocID      string             `bson:"posdocid,omitempty" json:"posdocid,omitempty"`
	ImageURL      string             `bson:"imageurl,omitempty" json:"imageurl,omitempty"`
	PreviewURL    string             `bson:"previewurl,omitempty" json:"previewurl,omitempty"`
	IssuedAt      string             `bson:"issuedat,omitempty" json:"issuedat,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// NextPaymentStatus reports whether moving an invoice to the given status is
// a legal lifecycle transition.
func NextPaymentStatus(current, next string) bool {
	switch current {
	case PaymentUnpaid:
		return next == PaymentPending || next == PaymentPaid
	case PaymentPending:
		return next == PaymentPaid
	}
	return false
}
