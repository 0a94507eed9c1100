package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/models"
	"agri-market-api-server/internal/notify"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BuyerHandler struct {
	DB     *mongo.Database
	Ledger *ledger.Ledger
	Sink   *notify.Sink
}

// BrowseCrops lists active, visible, unexpired crops with optional filters.
func (h *BuyerHandler) BrowseCrops(c *gin.Context) {
	filter := bson.M{
		"status":      models.CropStatusActive,
		"isVisible":   true,
		"availableTo": bson.M{"$gte": time.Now()},
	}

	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}
	if district := c.Query("district"); district != "" {
		filter["pickupLocation.district"] = district
	}
	priceRange := bson.M{}
	if minPrice := c.Query("minPrice"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			priceRange["$gte"] = v
		}
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			priceRange["$lte"] = v
		}
	}
	if len(priceRange) > 0 {
		filter["price.value"] = priceRange
	}

	page, limit := pagination(c, 20)
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("crops")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query crops"})
		return
	}
	defer cursor.Close(context.Background())

	var crops []models.Crop
	if err = cursor.All(context.Background(), &crops); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode crops"})
		return
	}
	if crops == nil {
		crops = []models.Crop{}
	}

	total, err := collection.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count crops"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(crops),
		"total":       total,
		"currentPage": page,
		"data":        crops,
	})
}

// GetCropDetails returns one crop and bumps its view counter.
func (h *BuyerHandler) GetCropDetails(c *gin.Context) {
	cropID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid crop id"})
		return
	}

	collection := h.DB.Collection("crops")
	var crop models.Crop
	if err := collection.FindOne(context.Background(), bson.M{"_id": cropID}).Decode(&crop); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Crop not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve crop"})
		}
		return
	}

	// View counter is informational, a failed bump is not an error.
	collection.UpdateOne(context.Background(), bson.M{"_id": cropID}, bson.M{"$inc": bson.M{"viewCount": 1}})
	crop.ViewCount++

	c.JSON(http.StatusOK, crop)
}

type CreateRequestPayload struct {
	CropID            string          `json:"cropId" binding:"required"`
	RequestedQuantity QuantityInput   `json:"requestedQuantity" binding:"required"`
	OfferedPrice      QuantityInput   `json:"offeredPrice" binding:"required"`
	DeliveryAddress   models.Location `json:"deliveryAddress"`
	DeliveryMethod    string          `json:"deliveryMethod"`
	BuyerNote         string          `json:"buyerNote"`
}

// CreateRequest opens a purchase request against an available crop.
func (h *BuyerHandler) CreateRequest(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.RequestedQuantity.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requested quantity must be positive"})
		return
	}
	if payload.OfferedPrice.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Offered price must be positive"})
		return
	}

	cropID, err := primitive.ObjectIDFromHex(payload.CropID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid crop id"})
		return
	}

	request, err := h.Ledger.CreateRequest(context.Background(), ledger.CreateRequestParams{
		BuyerID:           buyerID,
		CropID:            cropID,
		RequestedQuantity: payload.RequestedQuantity.Quantity(),
		OfferedPrice:      payload.OfferedPrice.Price(),
		DeliveryAddress:   payload.DeliveryAddress,
		DeliveryMethod:    payload.DeliveryMethod,
		BuyerNote:         payload.BuyerNote,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.FarmerID, models.NotificationNewRequest,
		"New purchase request",
		fmt.Sprintf("A buyer requested %.2f %s of your crop", request.RequestedQuantity.Value, request.RequestedQuantity.Unit),
		&request.ID)

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Request created successfully",
		"data":    request,
	})
}

// GetMyRequests lists the buyer's requests, optionally by status.
func (h *BuyerHandler) GetMyRequests(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := bson.M{"buyer": buyerID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	page, limit := pagination(c, 100)
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("requests")
	cursor, err := collection.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.Request
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}
	if requests == nil {
		requests = []models.Request{}
	}

	total, _ := collection.CountDocuments(context.Background(), filter)

	c.JSON(http.StatusOK, gin.H{
		"count":       len(requests),
		"total":       total,
		"currentPage": page,
		"data":        requests,
	})
}

// GetRequestDetails returns one of the buyer's requests.
func (h *BuyerHandler) GetRequestDetails(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, ok := h.findOwnRequest(c, buyerID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, request)
}

// AcceptCounterOffer confirms the deal at the farmer's counter terms. Only
// legal when the request is exactly in farmer_countered.
func (h *BuyerHandler) AcceptCounterOffer(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, ok := h.findOwnRequest(c, buyerID)
	if !ok {
		return
	}

	if err := h.Ledger.AcceptCounterOffer(context.Background(), request); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.FarmerID, models.NotificationOrderConfirmed,
		"Order confirmed",
		fmt.Sprintf("Request %s is confirmed at the counter-offer terms", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Counter offer accepted",
		"data":    request,
	})
}

type CancelRequestPayload struct {
	Reason string `json:"reason"`
}

// CancelRequest cancels an open or confirmed request.
func (h *BuyerHandler) CancelRequest(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload CancelRequestPayload
	c.ShouldBindJSON(&payload)

	request, ok := h.findOwnRequest(c, buyerID)
	if !ok {
		return
	}

	if err := h.Ledger.Cancel(context.Background(), request, payload.Reason); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.FarmerID, models.NotificationOrderCancelled,
		"Request cancelled",
		fmt.Sprintf("Request %s was cancelled by the buyer", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Request cancelled",
	})
}

type RatePayload struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}

// RateFarmer records the buyer's rating on a completed request.
func (h *BuyerHandler) RateFarmer(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload RatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, ok := h.findOwnRequest(c, buyerID)
	if !ok {
		return
	}

	if err := h.Ledger.RateByBuyer(context.Background(), request, payload.Rating, payload.Review); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.FarmerID, models.NotificationRatingReceived,
		"New rating received",
		fmt.Sprintf("A buyer rated order %s", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Rating submitted successfully",
	})
}

// GetDashboardStats aggregates the buyer's request counts and recent activity.
func (h *BuyerHandler) GetDashboardStats(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests := h.DB.Collection("requests")
	crops := h.DB.Collection("crops")

	totalRequests, _ := requests.CountDocuments(context.Background(), bson.M{"buyer": buyerID})
	pendingRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"buyer":  buyerID,
		"status": models.RequestStatusPending,
	})
	confirmedRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"buyer":  buyerID,
		"status": models.RequestStatusConfirmed,
	})
	availableCrops, _ := crops.CountDocuments(context.Background(), bson.M{
		"status":      models.CropStatusActive,
		"isVisible":   true,
		"availableTo": bson.M{"$gte": time.Now()},
	})

	findOptions := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(5)
	cursor, err := requests.Find(context.Background(), bson.M{"buyer": buyerID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query recent requests"})
		return
	}
	defer cursor.Close(context.Background())

	var recentRequests []models.Request
	if err = cursor.All(context.Background(), &recentRequests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent requests"})
		return
	}
	if recentRequests == nil {
		recentRequests = []models.Request{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalRequests":     totalRequests,
			"pendingRequests":   pendingRequests,
			"confirmedRequests": confirmedRequests,
			"availableCrops":    availableCrops,
		},
		"recentRequests": recentRequests,
	})
}

// findOwnRequest loads the request in the path param scoped to this buyer.
func (h *BuyerHandler) findOwnRequest(c *gin.Context, buyerID primitive.ObjectID) (*models.Request, bool) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return nil, false
	}

	var request models.Request
	err = h.DB.Collection("requests").FindOne(context.Background(), bson.M{
		"_id":   requestID,
		"buyer": buyerID,
	}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
		}
		return nil, false
	}

	return &request, true
}

// pagination reads page/limit query params with a per-endpoint default limit.
func pagination(c *gin.Context, defaultLimit int64) (page, limit int64) {
	page = 1
	limit = defaultLimit
	if v, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
