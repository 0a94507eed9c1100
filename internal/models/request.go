package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request status lifecycle. Terminal states: farmer_rejected, buyer_rejected,
// completed, cancelled, expired.
const (
	RequestStatusPending         = "pending"
	RequestStatusViewed          = "viewed"
	RequestStatusFarmerAccepted  = "farmer_accepted"
	RequestStatusFarmerRejected  = "farmer_rejected"
	RequestStatusFarmerCountered = "farmer_countered"
	RequestStatusBuyerAccepted   = "buyer_accepted"
	RequestStatusBuyerRejected   = "buyer_rejected"
	RequestStatusConfirmed       = "confirmed"
	RequestStatusInTransit       = "in_transit"
	RequestStatusCompleted       = "completed"
	RequestStatusCancelled       = "cancelled"
	RequestStatusExpired         = "expired"
)

// StatusChange is one entry in the request's status timeline.
type StatusChange struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

// PriceOffer is one entry in the negotiation price history.
type PriceOffer struct {
	OfferedBy string    `bson:"offeredBy" json:"offeredBy"` // buyer or farmer
	Price     Price     `bson:"price" json:"price"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// CounterOffer is the farmer's revised proposal for price and/or quantity.
type CounterOffer struct {
	Price     Price     `bson:"price" json:"price"`
	Quantity  Quantity  `bson:"quantity" json:"quantity"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	OfferedAt time.Time `bson:"offeredAt" json:"offeredAt"`
}

// FinalAgreement is the quantity/price pair locked in when a request is confirmed.
type FinalAgreement struct {
	Quantity    Quantity  `bson:"quantity" json:"quantity"`
	Price       Price     `bson:"price" json:"price"`
	TotalAmount float64   `bson:"totalAmount" json:"totalAmount"`
	AgreedAt    time.Time `bson:"agreedAt" json:"agreedAt"`
}

// Rating left by one party about the other after completion.
type Rating struct {
	Rating  int       `bson:"rating" json:"rating"`
	Review  string    `bson:"review,omitempty" json:"review,omitempty"`
	RatedAt time.Time `bson:"ratedAt" json:"ratedAt"`
}

type Request struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID string             `bson:"requestID" json:"requestID"`

	BuyerID  primitive.ObjectID `bson:"buyer" json:"buyer"`
	FarmerID primitive.ObjectID `bson:"farmer" json:"farmer"`
	CropID   primitive.ObjectID `bson:"crop" json:"crop"`

	RequestedQuantity Quantity `bson:"requestedQuantity" json:"requestedQuantity"`
	OfferedPrice      Price    `bson:"offeredPrice" json:"offeredPrice"`

	PriceHistory []PriceOffer `bson:"priceHistory,omitempty" json:"priceHistory,omitempty"`

	PreferredDeliveryDate *time.Time `bson:"preferredDeliveryDate,omitempty" json:"preferredDeliveryDate,omitempty"`
	DeliveryMethod        string     `bson:"deliveryMethod,omitempty" json:"deliveryMethod,omitempty"`
	DeliveryAddress       Location   `bson:"deliveryAddress,omitempty" json:"deliveryAddress"`

	Status        string         `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"statusHistory" json:"statusHistory"`

	CounterOffer   *CounterOffer   `bson:"counterOffer,omitempty" json:"counterOffer,omitempty"`
	FinalAgreement *FinalAgreement `bson:"finalAgreement,omitempty" json:"finalAgreement,omitempty"`

	BuyerNote  string `bson:"buyerNote,omitempty" json:"buyerNote,omitempty"`
	FarmerNote string `bson:"farmerNote,omitempty" json:"farmerNote,omitempty"`

	BuyerRating  *Rating `bson:"buyerRating,omitempty" json:"buyerRating,omitempty"`
	FarmerRating *Rating `bson:"farmerRating,omitempty" json:"farmerRating,omitempty"`

	// IVR follow-up tracking for farmers who respond by phone.
	IVRCallAttempts int        `bson:"ivrCallAttempts" json:"ivrCallAttempts"`
	LastIVRCallTime *time.Time `bson:"lastIVRCallTime,omitempty" json:"lastIVRCallTime,omitempty"`

	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsOpen reports whether the request is still awaiting a response from either party.
func (r *Request) IsOpen(now time.Time) bool {
	switch r.Status {
	case RequestStatusPending, RequestStatusViewed, RequestStatusFarmerAccepted, RequestStatusFarmerCountered:
		return now.Before(r.ExpiresAt)
	}
	return false
}
