package handlers

import (
	"context"
	"net/http"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationHandler struct {
	DB *mongo.Database
}

// GetMyNotifications lists the user's notifications, unread first by recency.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := bson.M{"user": userID}
	if c.Query("unread") == "true" {
		filter["isRead"] = false
	}

	page, limit := pagination(c, 20)
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("notifications")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query notifications"})
		return
	}
	defer cursor.Close(context.Background())

	var notifications []models.Notification
	if err = cursor.All(context.Background(), &notifications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode notifications"})
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	unreadCount, _ := collection.CountDocuments(context.Background(),
		bson.M{"user": userID, "isRead": false})

	c.JSON(http.StatusOK, gin.H{
		"count":       len(notifications),
		"unreadCount": unreadCount,
		"data":        notifications,
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	now := time.Now()
	result, err := h.DB.Collection("notifications").UpdateOne(context.Background(),
		bson.M{"_id": notificationID, "user": userID},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkAllRead marks every unread notification for the user as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	result, err := h.DB.Collection("notifications").UpdateMany(context.Background(),
		bson.M{"user": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "readAt": now}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "updated": result.ModifiedCount})
}
