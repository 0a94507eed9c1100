package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Crop status values.
const (
	CropStatusActive  = "active"
	CropStatusSoldOut = "sold_out"
	CropStatusExpired = "expired"
	CropStatusRemoved = "removed"
)

// AlternateName stores a translation of the crop name for voice/SMS matching.
type AlternateName struct {
	Language string `bson:"language" json:"language"`
	Name     string `bson:"name" json:"name"`
}

type Crop struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CropID   string             `bson:"cropID" json:"cropID"`
	FarmerID primitive.ObjectID `bson:"farmer" json:"farmer"`

	Name           string          `bson:"name" json:"name"`
	AlternateNames []AlternateName `bson:"alternateNames,omitempty" json:"alternateNames,omitempty"`
	Category       string          `bson:"category" json:"category"`
	Variety        string          `bson:"variety,omitempty" json:"variety,omitempty"`
	Quality        string          `bson:"quality,omitempty" json:"quality,omitempty"`
	Description    string          `bson:"description,omitempty" json:"description,omitempty"`

	// Three-way quantity ledger: Quantity is the nominal listed amount,
	// the rest partitions it into unreserved / held-against-confirmed / transferred.
	Quantity          Quantity `bson:"quantity" json:"quantity"`
	AvailableQuantity Quantity `bson:"availableQuantity" json:"availableQuantity"`
	BookedQuantity    Quantity `bson:"bookedQuantity" json:"bookedQuantity"`
	SoldQuantity      Quantity `bson:"soldQuantity" json:"soldQuantity"`

	Price Price `bson:"price" json:"price"`

	AvailableFrom time.Time  `bson:"availableFrom" json:"availableFrom"`
	AvailableTo   time.Time  `bson:"availableTo" json:"availableTo"`
	HarvestDate   *time.Time `bson:"harvestDate,omitempty" json:"harvestDate,omitempty"`

	PickupLocation Location    `bson:"pickupLocation,omitempty" json:"pickupLocation"`
	Images         []CropImage `bson:"images,omitempty" json:"images,omitempty"`

	Status    string `bson:"status" json:"status"`
	IsVisible bool   `bson:"isVisible" json:"isVisible"`

	ViewCount    int    `bson:"viewCount" json:"viewCount"`
	RequestCount int    `bson:"requestCount" json:"requestCount"`
	EntryMethod  string `bson:"entryMethod,omitempty" json:"entryMethod,omitempty"` // web, ivr, sms, admin

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsAvailable reports whether the crop can still receive new purchase requests.
func (c *Crop) IsAvailable(now time.Time) bool {
	return c.Status == CropStatusActive &&
		c.IsVisible &&
		c.AvailableQuantity.Value > 0 &&
		!now.After(c.AvailableTo)
}
