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

// GetWantedCrops lists the buyer's standing sourcing requirements.
func (h *BuyerHandler) GetWantedCrops(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(),
		bson.M{"_id": buyerID},
		options.FindOne().SetProjection(bson.M{"buyerDetails.wantedCrops": 1}),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Buyer not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wanted crops"})
		}
		return
	}

	wanted := []models.WantedCrop{}
	if user.BuyerDetails != nil && user.BuyerDetails.WantedCrops != nil {
		wanted = user.BuyerDetails.WantedCrops
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(wanted),
		"data":  wanted,
	})
}

type AddWantedCropPayload struct {
	CropName          string   `json:"cropName" binding:"required"`
	Category          string   `json:"category"`
	RequiredQuantity  float64  `json:"requiredQuantity" binding:"required,gt=0"`
	Unit              string   `json:"unit"`
	BudgetPerUnit     float64  `json:"budgetPerUnit"`
	Frequency         string   `json:"frequency" binding:"omitempty,oneof=once weekly monthly seasonal"`
	Districts         []string `json:"districts"`
	QualityPreference string   `json:"qualityPreference"`
	Notes             string   `json:"notes"`
}

// AddWantedCrop appends a sourcing requirement to the buyer's profile.
func (h *BuyerHandler) AddWantedCrop(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload AddWantedCropPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := models.WantedCrop{
		ID:                primitive.NewObjectID(),
		CropName:          payload.CropName,
		Category:          payload.Category,
		RequiredQuantity:  payload.RequiredQuantity,
		Unit:              payload.Unit,
		BudgetPerUnit:     payload.BudgetPerUnit,
		Frequency:         payload.Frequency,
		Districts:         payload.Districts,
		QualityPreference: payload.QualityPreference,
		Notes:             payload.Notes,
		Active:            true,
		CreatedAt:         time.Now(),
	}
	if entry.Unit == "" {
		entry.Unit = "kg"
	}

	result, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": buyerID, "role": models.RoleBuyer},
		bson.M{"$push": bson.M{"buyerDetails.wantedCrops": entry}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add wanted crop"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Buyer not found"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Wanted crop added successfully",
		"data":    entry,
	})
}

type UpdateWantedCropPayload struct {
	CropName          *string  `json:"cropName"`
	Category          *string  `json:"category"`
	RequiredQuantity  *float64 `json:"requiredQuantity"`
	Unit              *string  `json:"unit"`
	BudgetPerUnit     *float64 `json:"budgetPerUnit"`
	Frequency         *string  `json:"frequency"`
	Districts         []string `json:"districts"`
	QualityPreference *string  `json:"qualityPreference"`
	Notes             *string  `json:"notes"`
	Active            *bool    `json:"active"`
}

// UpdateWantedCrop edits one entry in place by its subdocument id.
func (h *BuyerHandler) UpdateWantedCrop(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	entryID, err := primitive.ObjectIDFromHex(c.Param("cropId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wanted crop id"})
		return
	}

	var payload UpdateWantedCropPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if payload.CropName != nil {
		set["buyerDetails.wantedCrops.$.cropName"] = *payload.CropName
	}
	if payload.Category != nil {
		set["buyerDetails.wantedCrops.$.category"] = *payload.Category
	}
	if payload.RequiredQuantity != nil {
		set["buyerDetails.wantedCrops.$.requiredQuantity"] = *payload.RequiredQuantity
	}
	if payload.Unit != nil {
		set["buyerDetails.wantedCrops.$.unit"] = *payload.Unit
	}
	if payload.BudgetPerUnit != nil {
		set["buyerDetails.wantedCrops.$.budgetPerUnit"] = *payload.BudgetPerUnit
	}
	if payload.Frequency != nil {
		set["buyerDetails.wantedCrops.$.frequency"] = *payload.Frequency
	}
	if payload.Districts != nil {
		set["buyerDetails.wantedCrops.$.districts"] = payload.Districts
	}
	if payload.QualityPreference != nil {
		set["buyerDetails.wantedCrops.$.qualityPreference"] = *payload.QualityPreference
	}
	if payload.Notes != nil {
		set["buyerDetails.wantedCrops.$.notes"] = *payload.Notes
	}
	if payload.Active != nil {
		set["buyerDetails.wantedCrops.$.active"] = *payload.Active
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	result, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": buyerID, "buyerDetails.wantedCrops._id": entryID},
		bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wanted crop"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wanted crop not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Wanted crop updated successfully",
	})
}

// DeleteWantedCrop removes one entry from the buyer's list.
func (h *BuyerHandler) DeleteWantedCrop(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	entryID, err := primitive.ObjectIDFromHex(c.Param("cropId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wanted crop id"})
		return
	}

	result, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": buyerID},
		bson.M{"$pull": bson.M{"buyerDetails.wantedCrops": bson.M{"_id": entryID}}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove wanted crop"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wanted crop not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Wanted crop removed successfully",
	})
}
