package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"agri-market-api-server/internal/models"
	"agri-market-api-server/internal/notify"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SMSHandler receives provider webhooks. Parsing the message content and
// dispatching replies is done by an external gateway; the server only logs.
type SMSHandler struct {
	DB   *mongo.Database
	Sink *notify.Sink
}

// HandleIncoming logs an inbound SMS from a farmer or buyer.
// Provider webhooks expect a 200 regardless, so failures only log.
func (h *SMSHandler) HandleIncoming(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	messageSid := c.PostForm("MessageSid")
	if from == "" || body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From and Body are required"})
		return
	}

	smsLog := models.SMSLog{
		From:        from,
		To:          c.PostForm("To"),
		Message:     body,
		MessageSid:  messageSid,
		MessageType: "conversation",
		Direction:   "inbound",
		Status:      "received",
		CreatedAt:   time.Now(),
	}

	var sender models.User
	err := h.DB.Collection("users").FindOne(context.Background(),
		bson.M{"mobile": normalizeMobile(from)}).Decode(&sender)
	if err == nil {
		smsLog.SenderID = &sender.ID
	}

	if _, err := h.DB.Collection("sms_logs").InsertOne(context.Background(), smsLog); err != nil {
		log.Printf("CRITICAL: failed to log inbound SMS from %s: %v", from, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// HandleStatusCallback updates delivery status for a previously queued SMS.
func (h *SMSHandler) HandleStatusCallback(c *gin.Context) {
	messageSid := c.PostForm("MessageSid")
	status := c.PostForm("MessageStatus")
	if messageSid == "" || status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MessageSid and MessageStatus are required"})
		return
	}

	set := bson.M{"status": status}
	if status == "sent" || status == "delivered" {
		now := time.Now()
		set["sentAt"] = now
	}

	result, err := h.DB.Collection("sms_logs").UpdateOne(context.Background(),
		bson.M{"messageSid": messageSid}, bson.M{"$set": set})
	if err != nil {
		log.Printf("CRITICAL: failed to update SMS status for %s: %v", messageSid, err)
	} else if result.MatchedCount == 0 {
		log.Printf("SMS status callback for unknown MessageSid %s", messageSid)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SendSMSPayload struct {
	To          string `json:"to" binding:"required"`
	Message     string `json:"message" binding:"required"`
	MessageType string `json:"messageType"`
}

// Send queues an outbound SMS for the external gateway. Admin only.
func (h *SMSHandler) Send(c *gin.Context) {
	var payload SendSMSPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.MessageType == "" {
		payload.MessageType = "notification"
	}

	h.Sink.RecordSMSIntent(context.Background(), payload.To, payload.Message, payload.MessageType)

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// normalizeMobile strips a country code prefix so provider numbers match the
// 10-digit mobiles stored on users.
func normalizeMobile(number string) string {
	if len(number) > 10 {
		return number[len(number)-10:]
	}
	return number
}
