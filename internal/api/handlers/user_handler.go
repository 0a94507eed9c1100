package handlers

import (
	"context"
	"net/http"
	"time"

	"agri-market-api-server/internal/auth"
	"agri-market-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserHandler struct {
	DB *mongo.Database
}

// GetMyProfile returns the authenticated user's document.
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateProfilePayload struct {
	Name              *string               `json:"name"`
	Email             *string               `json:"email"`
	PreferredLanguage *string               `json:"preferredLanguage"`
	Location          *models.Location      `json:"location"`
	FarmerDetails     *models.FarmerDetails `json:"farmerDetails"`
	BuyerDetails      *models.BuyerDetails  `json:"buyerDetails"`
}

// UpdateMyProfile updates editable profile fields. Mobile and role are fixed.
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload UpdateProfilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil {
		set["name"] = *payload.Name
	}
	if payload.Email != nil {
		set["email"] = *payload.Email
	}
	if payload.PreferredLanguage != nil {
		set["preferredLanguage"] = *payload.PreferredLanguage
	}
	if payload.Location != nil {
		set["location"] = *payload.Location
	}
	if payload.FarmerDetails != nil {
		set["farmerDetails"] = *payload.FarmerDetails
	}
	if payload.BuyerDetails != nil {
		set["buyerDetails"] = *payload.BuyerDetails
	}

	_, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Profile updated successfully"})
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword verifies the current password before setting a new one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload ChangePasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}

	if !auth.CheckPasswordHash(payload.CurrentPassword, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	_, err = h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Password changed successfully"})
}

type SetPINPayload struct {
	PIN string `json:"pin" binding:"required,len=4,numeric"`
}

// SetPIN sets the 4-digit PIN farmers use to authenticate over IVR.
func (h *UserHandler) SetPIN(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload SetPINPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(payload.PIN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash PIN"})
		return
	}

	_, err = h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"pin": hash, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set PIN"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "PIN set successfully"})
}
