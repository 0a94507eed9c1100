package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types pushed to buyers and farmers during negotiation.
const (
	NotificationNewRequest      = "new_request"
	NotificationRequestAccepted = "request_accepted"
	NotificationRequestRejected = "request_rejected"
	NotificationCounterOffer    = "counter_offer"
	NotificationOrderConfirmed  = "order_confirmed"
	NotificationOrderCompleted  = "order_completed"
	NotificationOrderCancelled  = "order_cancelled"
	NotificationRatingReceived  = "rating_received"
)

// Notification is an in-app notification; dispatch to SMS/IVR/email is external.
type Notification struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  primitive.ObjectID `bson:"user" json:"user"`
	Type    string             `bson:"type" json:"type"`
	Title   string             `bson:"title" json:"title"`
	Message string             `bson:"message" json:"message"`

	RelatedRequestID *primitive.ObjectID `bson:"relatedRequest,omitempty" json:"relatedRequest,omitempty"`
	RelatedCropID    *primitive.ObjectID `bson:"relatedCrop,omitempty" json:"relatedCrop,omitempty"`

	IsRead    bool       `bson:"isRead" json:"isRead"`
	ReadAt    *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}
