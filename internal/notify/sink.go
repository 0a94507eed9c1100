// Package notify records notification intent and pushes realtime events to
// connected clients. Actual SMS/IVR/email delivery is handled by an external
// dispatcher reading the logs; nothing here blocks or fails a request.
package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"agri-market-api-server/internal/models"
	"agri-market-api-server/internal/socket"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Sink struct {
	DB           *mongo.Database
	Hub          *socket.Hub
	SenderNumber string
}

func NewSink(db *mongo.Database, hub *socket.Hub, senderNumber string) *Sink {
	return &Sink{DB: db, Hub: hub, SenderNumber: senderNumber}
}

// Event is the payload pushed over the websocket.
type Event struct {
	Event     string      `json:"event"`
	RequestID string      `json:"requestID,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Notify stores an in-app notification and pushes it to the user if online.
// Fire and forget: failures are logged, never returned.
func (s *Sink) Notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, requestID *primitive.ObjectID) {
	notification := models.Notification{
		UserID:           userID,
		Type:             notifType,
		Title:            title,
		Message:          message,
		RelatedRequestID: requestID,
		CreatedAt:        time.Now(),
	}

	if _, err := s.DB.Collection("notifications").InsertOne(ctx, notification); err != nil {
		log.Printf("CRITICAL: failed to store notification for user %s: %v", userID.Hex(), err)
	}

	payload, _ := json.Marshal(Event{Event: notifType, Data: notification})
	if err := s.Hub.Send(userID.Hex(), payload); err != nil {
		log.Printf("Failed to push notification to %s: %v", userID.Hex(), err)
	}
}

// RecordSMSIntent logs an outbound SMS for the external gateway to pick up.
func (s *Sink) RecordSMSIntent(ctx context.Context, to, message, messageType string) {
	smsLog := models.SMSLog{
		From:        s.SenderNumber,
		To:          to,
		Message:     message,
		MessageType: messageType,
		Direction:   "outbound",
		Status:      "queued",
		CreatedAt:   time.Now(),
	}

	if _, err := s.DB.Collection("sms_logs").InsertOne(ctx, smsLog); err != nil {
		log.Printf("CRITICAL: failed to record SMS intent to %s: %v", to, err)
	}
}
