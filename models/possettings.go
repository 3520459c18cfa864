package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PosSettings is the stored connection record for the configured POS
// back-end. One document per system id.
type PosSettings struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SystemID  string             `bson:"systemid" json:"systemid" binding:"required"`
	User      string             `bson:"user,omitempty" json:"user,omitempty"`
	Pwd       string             `bson:"pwd,omitempty" json:"pwd,omitempty"`
	TaxID     string             `bson:"taxid,omitempty" json:"taxid,omitempty"`
	APIKey    string             `bson:"apikey,omitempty" json:"apikey,omitempty"`
	AutoSync  bool               `bson:"autosync" json:"autosync"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
