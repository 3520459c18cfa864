package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Supplier struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name" binding:"required"`
	ExternalAccountID string             `bson:"externalaccountid,omitempty" json:"externalaccountid,omitempty"`
	TaxID             string             `bson:"taxid,omitempty" json:"taxid,omitempty"`
	ContactPerson     string             `bson:"contact_person,omitempty" json:"contact_person,omitempty"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty"`
	Address           string             `bson:"address,omitempty" json:"address,omitempty"`
	PaymentTerms      string             `bson:"payment_terms,omitempty" json:"payment_terms,omitempty"`
	Status            string             `bson:"status,omitempty" json:"status,omitempty"` // "Active", "Inactive"
	CreatedAt         time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt         time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

type UpdateSupplier struct {
	Name          string `json:"name,omitempty"`
	TaxID         string `json:"taxid,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
	PaymentTerms  string `json:"payment_terms,omitempty"`
	Status        string `json:"status,omitempty"`
}
