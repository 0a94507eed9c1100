package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/models"
	"agri-market-api-server/internal/notify"
	"agri-market-api-server/internal/s3"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FarmerHandler struct {
	DB       *mongo.Database
	Ledger   *ledger.Ledger
	Sink     *notify.Sink
	Uploader *s3.Uploader
}

type AddCropPayload struct {
	Name           string                 `json:"name" binding:"required"`
	AlternateNames []models.AlternateName `json:"alternateNames"`
	Category       string                 `json:"category" binding:"required"`
	Variety        string                 `json:"variety"`
	Quality        string                 `json:"quality"`
	Description    string                 `json:"description"`
	Quantity       models.Quantity        `json:"quantity" binding:"required"`
	Price          models.Price           `json:"price" binding:"required"`
	AvailableFrom  *time.Time             `json:"availableFrom"`
	AvailableTo    time.Time              `json:"availableTo" binding:"required"`
	HarvestDate    *time.Time             `json:"harvestDate"`
	PickupLocation models.Location        `json:"pickupLocation"`
}

// AddCrop lists a new crop. The full quantity starts as available.
func (h *FarmerHandler) AddCrop(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload AddCropPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Quantity.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	now := time.Now()
	availableFrom := now
	if payload.AvailableFrom != nil {
		availableFrom = *payload.AvailableFrom
	}
	if payload.Quantity.Unit == "" {
		payload.Quantity.Unit = "kg"
	}

	newCrop := models.Crop{
		CropID:            fmt.Sprintf("CROP-%s", strings.ToUpper(uuid.New().String()[:8])),
		FarmerID:          farmerID,
		Name:              payload.Name,
		AlternateNames:    payload.AlternateNames,
		Category:          payload.Category,
		Variety:           payload.Variety,
		Quality:           payload.Quality,
		Description:       payload.Description,
		Quantity:          payload.Quantity,
		AvailableQuantity: payload.Quantity,
		BookedQuantity:    models.Quantity{Value: 0, Unit: payload.Quantity.Unit},
		SoldQuantity:      models.Quantity{Value: 0, Unit: payload.Quantity.Unit},
		Price:             payload.Price,
		AvailableFrom:     availableFrom,
		AvailableTo:       payload.AvailableTo,
		HarvestDate:       payload.HarvestDate,
		PickupLocation:    payload.PickupLocation,
		Status:            models.CropStatusActive,
		IsVisible:         true,
		EntryMethod:       "web",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	result, err := h.DB.Collection("crops").InsertOne(context.Background(), newCrop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create crop"})
		return
	}
	newCrop.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Crop added successfully",
		"data":    newCrop,
	})
}

// GetMyCrops lists the farmer's crop listings, optionally by status.
func (h *FarmerHandler) GetMyCrops(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := bson.M{"farmer": farmerID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	page, limit := pagination(c, 10)
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

	total, _ := collection.CountDocuments(context.Background(), filter)

	c.JSON(http.StatusOK, gin.H{
		"count":       len(crops),
		"total":       total,
		"currentPage": page,
		"data":        crops,
	})
}

// GetCropDetails returns one of the farmer's own crops.
func (h *FarmerHandler) GetCropDetails(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	crop, ok := h.findOwnCrop(c, farmerID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, crop)
}

type UpdateCropPayload struct {
	Name           *string          `json:"name"`
	Category       *string          `json:"category"`
	Variety        *string          `json:"variety"`
	Quality        *string          `json:"quality"`
	Description    *string          `json:"description"`
	Price          *models.Price    `json:"price"`
	AvailableTo    *time.Time       `json:"availableTo"`
	PickupLocation *models.Location `json:"pickupLocation"`
	IsVisible      *bool            `json:"isVisible"`
}

// UpdateCrop edits listing fields. Quantities are not edited here; they only
// move through the request lifecycle.
func (h *FarmerHandler) UpdateCrop(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload UpdateCropPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crop, ok := h.findOwnCrop(c, farmerID)
	if !ok {
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil {
		set["name"] = *payload.Name
	}
	if payload.Category != nil {
		set["category"] = *payload.Category
	}
	if payload.Variety != nil {
		set["variety"] = *payload.Variety
	}
	if payload.Quality != nil {
		set["quality"] = *payload.Quality
	}
	if payload.Description != nil {
		set["description"] = *payload.Description
	}
	if payload.Price != nil {
		set["price"] = *payload.Price
	}
	if payload.AvailableTo != nil {
		set["availableTo"] = *payload.AvailableTo
	}
	if payload.PickupLocation != nil {
		set["pickupLocation"] = *payload.PickupLocation
	}
	if payload.IsVisible != nil {
		set["isVisible"] = *payload.IsVisible
	}

	_, err := h.DB.Collection("crops").UpdateOne(context.Background(),
		bson.M{"_id": crop.ID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update crop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Crop updated successfully"})
}

// DeleteCrop soft-removes a listing. Never a hard delete: the document stays
// for request history.
func (h *FarmerHandler) DeleteCrop(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	crop, ok := h.findOwnCrop(c, farmerID)
	if !ok {
		return
	}

	_, err := h.DB.Collection("crops").UpdateOne(context.Background(),
		bson.M{"_id": crop.ID},
		bson.M{"$set": bson.M{
			"status":    models.CropStatusRemoved,
			"isVisible": false,
			"updatedAt": time.Now(),
		}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove crop"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Crop removed successfully"})
}

// UploadCropImage stores a crop photo on S3 and appends its URL to the crop.
func (h *FarmerHandler) UploadCropImage(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	crop, ok := h.findOwnCrop(c, farmerID)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectKey := fmt.Sprintf("crops/%s/%s%s", crop.CropID, uuid.New().String(), filepath.Ext(fileHeader.Filename))
	url, err := h.Uploader.UploadFile(context.Background(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	image := models.CropImage{
		URL:        url,
		FileName:   fileHeader.Filename,
		UploadedAt: time.Now(),
	}
	_, err = h.DB.Collection("crops").UpdateOne(context.Background(),
		bson.M{"_id": crop.ID},
		bson.M{"$push": bson.M{"images": image}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image reference"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "url": url})
}

// GetMyRequests lists requests against the farmer's crops.
func (h *FarmerHandler) GetMyRequests(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := bson.M{"farmer": farmerID}
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

// GetRequestDetails returns one request. Reading it marks a pending request
// as viewed; re-reading never re-fires the transition.
func (h *FarmerHandler) GetRequestDetails(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, ok := h.findOwnRequest(c, farmerID)
	if !ok {
		return
	}

	if err := h.Ledger.MarkViewed(context.Background(), request); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// AcceptRequest accepts the buyer's terms as offered.
func (h *FarmerHandler) AcceptRequest(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, ok := h.findOwnRequest(c, farmerID)
	if !ok {
		return
	}

	if err := h.Ledger.FarmerAccept(context.Background(), request); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.BuyerID, models.NotificationRequestAccepted,
		"Request accepted",
		fmt.Sprintf("The farmer accepted request %s", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Request accepted successfully",
		"data":    request,
	})
}

type RejectRequestPayload struct {
	Reason string `json:"reason"`
}

// RejectRequest declines the request. Terminal.
func (h *FarmerHandler) RejectRequest(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload RejectRequestPayload
	c.ShouldBindJSON(&payload)

	request, ok := h.findOwnRequest(c, farmerID)
	if !ok {
		return
	}

	if err := h.Ledger.FarmerReject(context.Background(), request, payload.Reason); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.BuyerID, models.NotificationRequestRejected,
		"Request rejected",
		fmt.Sprintf("The farmer rejected request %s", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Request rejected",
		"data":    request,
	})
}

type CounterOfferPayload struct {
	Price    *QuantityInput `json:"price"`
	Quantity *QuantityInput `json:"quantity"`
	Note     string         `json:"note"`
}

// CounterOffer proposes revised terms back to the buyer.
func (h *FarmerHandler) CounterOffer(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload CounterOfferPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, ok := h.findOwnRequest(c, farmerID)
	if !ok {
		return
	}

	params := ledger.CounterOfferParams{Note: payload.Note}
	if payload.Price != nil {
		price := payload.Price.Price()
		if price.Unit == "" {
			price.Unit = request.OfferedPrice.Unit
		}
		params.Price = &price
	}
	if payload.Quantity != nil {
		quantity := payload.Quantity.Quantity()
		if quantity.Unit == "" {
			quantity.Unit = request.RequestedQuantity.Unit
		}
		params.Quantity = &quantity
	}

	if err := h.Ledger.FarmerCounter(context.Background(), request, params); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.BuyerID, models.NotificationCounterOffer,
		"Counter offer received",
		fmt.Sprintf("The farmer countered on request %s", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Counter offer sent",
		"data":    request,
	})
}

// CompleteRequest marks a confirmed order delivered; booked stock becomes sold.
func (h *FarmerHandler) CompleteRequest(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	request, ok := h.findOwnRequest(c, farmerID)
	if !ok {
		return
	}

	if err := h.Ledger.Complete(context.Background(), request); err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Sink.Notify(context.Background(), request.BuyerID, models.NotificationOrderCompleted,
		"Order completed",
		fmt.Sprintf("Order %s has been delivered", request.RequestID),
		&request.ID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Request completed",
		"data":    request,
	})
}

// GetDashboardStats aggregates crop and request counts for the farmer.
func (h *FarmerHandler) GetDashboardStats(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	crops := h.DB.Collection("crops")
	requests := h.DB.Collection("requests")

	totalCrops, _ := crops.CountDocuments(context.Background(), bson.M{"farmer": farmerID})
	activeCrops, _ := crops.CountDocuments(context.Background(), bson.M{"farmer": farmerID, "status": models.CropStatusActive})
	soldOutCrops, _ := crops.CountDocuments(context.Background(), bson.M{"farmer": farmerID, "status": models.CropStatusSoldOut})
	expiredCrops, _ := crops.CountDocuments(context.Background(), bson.M{"farmer": farmerID, "status": models.CropStatusExpired})

	totalRequests, _ := requests.CountDocuments(context.Background(), bson.M{"farmer": farmerID})
	pendingRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"farmer": farmerID,
		"status": bson.M{"$in": []string{models.RequestStatusPending, models.RequestStatusViewed}},
	})
	acceptedRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"farmer": farmerID,
		"status": bson.M{"$in": []string{models.RequestStatusFarmerAccepted, models.RequestStatusConfirmed}},
	})
	counteredRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"farmer": farmerID,
		"status": models.RequestStatusFarmerCountered,
	})

	findOptions := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(5)
	cursor, err := requests.Find(context.Background(), bson.M{"farmer": farmerID}, findOptions)
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
			"totalCrops":        totalCrops,
			"activeCrops":       activeCrops,
			"soldOutCrops":      soldOutCrops,
			"expiredCrops":      expiredCrops,
			"totalRequests":     totalRequests,
			"pendingRequests":   pendingRequests,
			"acceptedRequests":  acceptedRequests,
			"counteredRequests": counteredRequests,
		},
		"recentRequests": recentRequests,
	})
}

// GetCallLogs lists the farmer's IVR call history.
func (h *FarmerHandler) GetCallLogs(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := pagination(c, 20)
	findOptions := options.Find().
		SetSort(bson.M{"startTime": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	collection := h.DB.Collection("call_logs")
	cursor, err := collection.Find(context.Background(), bson.M{"farmer": farmerID}, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query call logs"})
		return
	}
	defer cursor.Close(context.Background())

	var callLogs []models.CallLog
	if err = cursor.All(context.Background(), &callLogs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode call logs"})
		return
	}
	if callLogs == nil {
		callLogs = []models.CallLog{}
	}

	total, _ := collection.CountDocuments(context.Background(), bson.M{"farmer": farmerID})

	c.JSON(http.StatusOK, gin.H{
		"count": len(callLogs),
		"total": total,
		"data":  callLogs,
	})
}

func (h *FarmerHandler) findOwnCrop(c *gin.Context, farmerID primitive.ObjectID) (*models.Crop, bool) {
	cropID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid crop id"})
		return nil, false
	}

	var crop models.Crop
	err = h.DB.Collection("crops").FindOne(context.Background(), bson.M{
		"_id":    cropID,
		"farmer": farmerID,
	}).Decode(&crop)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Crop not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve crop"})
		}
		return nil, false
	}

	return &crop, true
}

func (h *FarmerHandler) findOwnRequest(c *gin.Context, farmerID primitive.ObjectID) (*models.Request, bool) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return nil, false
	}

	var request models.Request
	err = h.DB.Collection("requests").FindOne(context.Background(), bson.M{
		"_id":    requestID,
		"farmer": farmerID,
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
