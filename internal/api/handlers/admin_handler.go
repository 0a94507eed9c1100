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

type AdminHandler struct {
	DB *mongo.Database
}

// GetAllUsers lists users, optionally filtered by role and district.
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	filter := bson.M{}
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}
	if district := c.Query("district"); district != "" {
		filter["location.district"] = district
	}
	if active := c.Query("isActive"); active != "" {
		filter["isActive"] = active == "true"
	}

	page, limit := pagination(c, 20)
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("users")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query users"})
		return
	}
	defer cursor.Close(context.Background())

	var users []models.User
	if err = cursor.All(context.Background(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}

	total, _ := collection.CountDocuments(context.Background(), filter)

	c.JSON(http.StatusOK, gin.H{
		"count":       len(users),
		"total":       total,
		"currentPage": page,
		"data":        users,
	})
}

// GetUserDetails returns one user with their listing or request counts.
func (h *AdminHandler) GetUserDetails(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	activity := gin.H{}
	switch user.Role {
	case models.RoleFarmer:
		cropCount, _ := h.DB.Collection("crops").CountDocuments(context.Background(), bson.M{"farmer": userID})
		requestCount, _ := h.DB.Collection("requests").CountDocuments(context.Background(), bson.M{"farmer": userID})
		activity["crops"] = cropCount
		activity["requests"] = requestCount
	case models.RoleBuyer:
		requestCount, _ := h.DB.Collection("requests").CountDocuments(context.Background(), bson.M{"buyer": userID})
		activity["requests"] = requestCount
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "activity": activity})
}

type UpdateUserPayload struct {
	Name     *string          `json:"name"`
	IsActive *bool            `json:"isActive"`
	Location *models.Location `json:"location"`
}

// UpdateUser lets an admin edit profile fields or deactivate an account.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var payload UpdateUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil {
		set["name"] = *payload.Name
	}
	if payload.IsActive != nil {
		set["isActive"] = *payload.IsActive
	}
	if payload.Location != nil {
		set["location"] = *payload.Location
	}

	result, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "User updated successfully"})
}

// GetAnalytics returns marketplace-wide totals for the admin dashboard.
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	users := h.DB.Collection("users")
	crops := h.DB.Collection("crops")
	requests := h.DB.Collection("requests")

	totalFarmers, _ := users.CountDocuments(context.Background(), bson.M{"role": models.RoleFarmer})
	totalBuyers, _ := users.CountDocuments(context.Background(), bson.M{"role": models.RoleBuyer})
	totalCrops, _ := crops.CountDocuments(context.Background(), bson.M{})
	activeCrops, _ := crops.CountDocuments(context.Background(), bson.M{"status": models.CropStatusActive})
	totalRequests, _ := requests.CountDocuments(context.Background(), bson.M{})
	completedOrders, _ := requests.CountDocuments(context.Background(), bson.M{"status": models.RequestStatusCompleted})
	openRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"status": bson.M{"$in": []string{
			models.RequestStatusPending,
			models.RequestStatusViewed,
			models.RequestStatusFarmerAccepted,
			models.RequestStatusFarmerCountered,
		}},
	})

	// Gross value of completed orders, from the final agreement.
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.RequestStatusCompleted}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$finalAgreement.totalAmount"},
		}}},
	}
	cursor, err := requests.Aggregate(context.Background(), pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate order value"})
		return
	}
	defer cursor.Close(context.Background())

	var totals []struct {
		Total float64 `bson:"total"`
	}
	if err = cursor.All(context.Background(), &totals); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode order value"})
		return
	}
	var grossOrderValue float64
	if len(totals) > 0 {
		grossOrderValue = totals[0].Total
	}

	c.JSON(http.StatusOK, gin.H{
		"totalFarmers":    totalFarmers,
		"totalBuyers":     totalBuyers,
		"totalCrops":      totalCrops,
		"activeCrops":     activeCrops,
		"totalRequests":   totalRequests,
		"openRequests":    openRequests,
		"completedOrders": completedOrders,
		"grossOrderValue": grossOrderValue,
	})
}

// GetSMSLogs lists recorded SMS traffic, optionally by direction or status.
func (h *AdminHandler) GetSMSLogs(c *gin.Context) {
	filter := bson.M{}
	if direction := c.Query("direction"); direction != "" {
		filter["direction"] = direction
	}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	page, limit := pagination(c, 50)
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("sms_logs")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query SMS logs"})
		return
	}
	defer cursor.Close(context.Background())

	var logs []models.SMSLog
	if err = cursor.All(context.Background(), &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode SMS logs"})
		return
	}
	if logs == nil {
		logs = []models.SMSLog{}
	}

	total, _ := collection.CountDocuments(context.Background(), filter)

	c.JSON(http.StatusOK, gin.H{
		"count": len(logs),
		"total": total,
		"data":  logs,
	})
}

// GetCallLogs lists IVR call history across all farmers.
func (h *AdminHandler) GetCallLogs(c *gin.Context) {
	filter := bson.M{}
	if callType := c.Query("callType"); callType != "" {
		filter["callType"] = callType
	}
	if status := c.Query("callStatus"); status != "" {
		filter["callStatus"] = status
	}

	page, limit := pagination(c, 50)
	findOptions := options.Find().
		SetSort(bson.M{"startTime": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("call_logs")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query call logs"})
		return
	}
	defer cursor.Close(context.Background())

	var logs []models.CallLog
	if err = cursor.All(context.Background(), &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode call logs"})
		return
	}
	if logs == nil {
		logs = []models.CallLog{}
	}

	total, _ := collection.CountDocuments(context.Background(), filter)

	c.JSON(http.StatusOK, gin.H{
		"count": len(logs),
		"total": total,
		"data":  logs,
	})
}
