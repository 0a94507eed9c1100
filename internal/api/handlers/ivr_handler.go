package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agri-market-api-server/internal/auth"
	"agri-market-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IVRHandler receives telephony webhooks for farmers calling in. Voice flow
// and speech handling live in the external IVR platform; the server logs
// calls and authenticates PINs.
type IVRHandler struct {
	DB *mongo.Database
}

// HandleIncomingCall records the start of an IVR session.
func (h *IVRHandler) HandleIncomingCall(c *gin.Context) {
	phoneNumber := c.PostForm("From")
	if phoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From is required"})
		return
	}

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		callSid = uuid.New().String()
	}

	callLog := models.CallLog{
		CallSid:     callSid,
		PhoneNumber: phoneNumber,
		CallType:    "inbound",
		CallPurpose: c.PostForm("Purpose"),
		CallStatus:  "initiated",
		StartTime:   time.Now(),
	}

	var farmer models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{
		"mobile": normalizeMobile(phoneNumber),
		"role":   models.RoleFarmer,
	}).Decode(&farmer)
	if err == nil {
		callLog.FarmerID = &farmer.ID
	}

	if _, err := h.DB.Collection("call_logs").InsertOne(context.Background(), callLog); err != nil {
		log.Printf("CRITICAL: failed to log incoming call from %s: %v", phoneNumber, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"callSid":    callSid,
		"registered": callLog.FarmerID != nil,
	})
}

// HandleCallStatus closes out a call log when the session ends.
func (h *IVRHandler) HandleCallStatus(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	status := c.PostForm("CallStatus")
	if callSid == "" || status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CallSid and CallStatus are required"})
		return
	}

	now := time.Now()
	set := bson.M{"callStatus": status}
	if status == "completed" || status == "failed" {
		set["endTime"] = now
	}
	if duration := c.PostForm("CallDuration"); duration != "" {
		set["duration"] = callDurationSeconds(duration)
	}

	result, err := h.DB.Collection("call_logs").UpdateOne(context.Background(),
		bson.M{"callSid": callSid}, bson.M{"$set": set})
	if err != nil {
		log.Printf("CRITICAL: failed to update call status for %s: %v", callSid, err)
	} else if result.MatchedCount == 0 {
		log.Printf("Call status callback for unknown CallSid %s", callSid)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// VerifyPIN authenticates a farmer over the phone by mobile number and
// 4-digit PIN, returning a token the IVR platform uses for follow-up calls.
func (h *IVRHandler) VerifyPIN(c *gin.Context) {
	phoneNumber := c.PostForm("From")
	pin := strings.TrimSpace(c.PostForm("Digits"))
	if phoneNumber == "" || pin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "From and Digits are required"})
		return
	}

	var farmer models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{
		"mobile": normalizeMobile(phoneNumber),
		"role":   models.RoleFarmer,
	}).Decode(&farmer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusUnauthorized, gin.H{"verified": false, "error": "Farmer not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up farmer"})
		}
		return
	}

	if farmer.PIN == "" || !auth.CheckPasswordHash(pin, farmer.PIN) {
		c.JSON(http.StatusUnauthorized, gin.H{"verified": false, "error": "Invalid PIN"})
		return
	}

	token, err := auth.GenerateJWT(farmer.ID.Hex(), farmer.Mobile, farmer.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true, "token": token})
}

// callDurationSeconds parses the provider's CallDuration form value. Malformed
// or negative values are recorded as zero rather than rejecting the callback.
func callDurationSeconds(raw string) int {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
