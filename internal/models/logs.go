package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SMSLog records an inbound or outbound SMS. Delivery itself is external;
// the server only records intent and provider callbacks.
type SMSLog struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	From       string              `bson:"from" json:"from"`
	To         string              `bson:"to" json:"to"`
	SenderID   *primitive.ObjectID `bson:"sender,omitempty" json:"sender,omitempty"`
	Message    string              `bson:"message" json:"message"`
	MessageSid string              `bson:"messageSid,omitempty" json:"messageSid,omitempty"`
	// notification, request_notification, status_update, conversation, verification
	MessageType string     `bson:"messageType" json:"messageType"`
	Direction   string     `bson:"direction" json:"direction"` // inbound, outbound
	Status      string     `bson:"status" json:"status"`       // queued, sent, delivered, failed, received
	SentAt      *time.Time `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
}

// CallLog records an IVR interaction with a farmer.
type CallLog struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FarmerID    *primitive.ObjectID `bson:"farmer,omitempty" json:"farmer,omitempty"`
	CallSid     string              `bson:"callSid,omitempty" json:"callSid,omitempty"`
	PhoneNumber string              `bson:"phoneNumber" json:"phoneNumber"`
	CallType    string              `bson:"callType" json:"callType"` // inbound, outbound, automated
	// farmer_login, new_crop_entry, view_requests, request_response, notification
	CallPurpose string     `bson:"callPurpose,omitempty" json:"callPurpose,omitempty"`
	CallStatus  string     `bson:"callStatus" json:"callStatus"` // initiated, in_progress, completed, failed
	StartTime   time.Time  `bson:"startTime" json:"startTime"`
	EndTime     *time.Time `bson:"endTime,omitempty" json:"endTime,omitempty"`
	DurationSec int        `bson:"duration" json:"duration"`
}
