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

type SearchCropsPayload struct {
	SearchTerm string `json:"searchTerm"`
	Category   string `json:"category"`
	District   string `json:"district"`
	Quality    string `json:"quality"`
	Page       int64  `json:"page"`
	Limit      int64  `json:"limit"`
}

// SearchCrops is the free-text variant of BrowseCrops. Each result is
// annotated with whether the buyer already has a live negotiation or order
// with that crop's farmer, so the UI can steer them to it instead of
// opening a duplicate.
func (h *BuyerHandler) SearchCrops(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload SearchCropsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := bson.M{
		"status":      models.CropStatusActive,
		"isVisible":   true,
		"availableTo": bson.M{"$gte": time.Now()},
	}
	if payload.SearchTerm != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": payload.SearchTerm, "$options": "i"}},
			{"description": bson.M{"$regex": payload.SearchTerm, "$options": "i"}},
		}
	}
	if payload.Category != "" {
		filter["category"] = payload.Category
	}
	if payload.District != "" {
		filter["pickupLocation.district"] = payload.District
	}
	if payload.Quality != "" {
		filter["quality"] = payload.Quality
	}

	page, limit := payload.Page, payload.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
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

	farmerIDs := make([]primitive.ObjectID, 0, len(crops))
	seen := make(map[primitive.ObjectID]bool)
	for i := range crops {
		if !seen[crops[i].FarmerID] {
			seen[crops[i].FarmerID] = true
			farmerIDs = append(farmerIDs, crops[i].FarmerID)
		}
	}

	engaged := map[primitive.ObjectID]bool{}
	if len(farmerIDs) > 0 {
		reqCursor, err := h.DB.Collection("requests").Find(context.Background(), bson.M{
			"buyer":  buyerID,
			"farmer": bson.M{"$in": farmerIDs},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query requests"})
			return
		}
		defer reqCursor.Close(context.Background())

		var requests []models.Request
		if err = reqCursor.All(context.Background(), &requests); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
			return
		}
		engaged = engagedFarmers(requests, time.Now())
	}

	results := make([]gin.H, 0, len(crops))
	for i := range crops {
		results = append(results, gin.H{
			"crop":                     crops[i],
			"hasOpenRequestWithFarmer": engaged[crops[i].FarmerID],
		})
	}

	total, err := collection.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count crops"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(results),
		"total":       total,
		"currentPage": page,
		"data":        results,
	})
}

// engagedFarmers reduces a buyer's requests to the set of farmers they have
// a still-open negotiation or a confirmed order with.
func engagedFarmers(requests []models.Request, now time.Time) map[primitive.ObjectID]bool {
	engaged := make(map[primitive.ObjectID]bool)
	for i := range requests {
		r := &requests[i]
		if r.IsOpen(now) || r.Status == models.RequestStatusConfirmed {
			engaged[r.FarmerID] = true
		}
	}
	return engaged
}

type SearchFarmersPayload struct {
	SearchTerm     string `json:"searchTerm"`
	District       string `json:"district"`
	State          string `json:"state"`
	FarmingType    string `json:"farmingType"`
	HasActiveCrops bool   `json:"hasActiveCrops"`
	Page           int64  `json:"page"`
	Limit          int64  `json:"limit"`
}

// SearchFarmers finds farmers by name or location, each with a count of
// their active listings.
func (h *BuyerHandler) SearchFarmers(c *gin.Context) {
	var payload SearchFarmersPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := bson.M{
		"role":     models.RoleFarmer,
		"isActive": true,
	}
	if payload.SearchTerm != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": payload.SearchTerm, "$options": "i"}},
			{"location.village": bson.M{"$regex": payload.SearchTerm, "$options": "i"}},
			{"location.district": bson.M{"$regex": payload.SearchTerm, "$options": "i"}},
		}
	}
	if payload.District != "" {
		filter["location.district"] = bson.M{"$regex": payload.District, "$options": "i"}
	}
	if payload.State != "" {
		filter["location.state"] = bson.M{"$regex": payload.State, "$options": "i"}
	}
	if payload.FarmingType != "" {
		filter["farmerDetails.farmingType"] = payload.FarmingType
	}

	page, limit := payload.Page, payload.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(limit).
		SetSkip((page - 1) * limit).
		SetProjection(bson.M{"password": 0, "pin": 0, "otp": 0, "otpExpiry": 0})

	users := h.DB.Collection("users")
	cursor, err := users.Find(context.Background(), filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query farmers"})
		return
	}
	defer cursor.Close(context.Background())

	var farmers []models.User
	if err = cursor.All(context.Background(), &farmers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode farmers"})
		return
	}

	crops := h.DB.Collection("crops")
	results := make([]gin.H, 0, len(farmers))
	for i := range farmers {
		activeCrops, err := crops.CountDocuments(context.Background(), bson.M{
			"farmer":    farmers[i].ID,
			"status":    models.CropStatusActive,
			"isVisible": true,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count crops"})
			return
		}
		if payload.HasActiveCrops && activeCrops == 0 {
			continue
		}
		results = append(results, gin.H{
			"farmer":      farmers[i],
			"activeCrops": activeCrops,
		})
	}

	total, err := users.CountDocuments(context.Background(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count farmers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(results),
		"total":       total,
		"currentPage": page,
		"data":        results,
	})
}

// GetFarmerDetails returns a farmer's public profile with their active listings.
func (h *BuyerHandler) GetFarmerDetails(c *gin.Context) {
	farmerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farmer id"})
		return
	}

	var farmer models.User
	err = h.DB.Collection("users").FindOne(context.Background(),
		bson.M{"_id": farmerID, "role": models.RoleFarmer},
		options.FindOne().SetProjection(bson.M{"password": 0, "pin": 0, "otp": 0, "otpExpiry": 0}),
	).Decode(&farmer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Farmer not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve farmer"})
		}
		return
	}

	cursor, err := h.DB.Collection("crops").Find(context.Background(), bson.M{
		"farmer":    farmerID,
		"status":    models.CropStatusActive,
		"isVisible": true,
	})
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

	c.JSON(http.StatusOK, gin.H{
		"farmer": farmer,
		"crops":  crops,
	})
}
