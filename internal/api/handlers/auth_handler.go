package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"agri-market-api-server/internal/auth"
	"agri-market-api-server/internal/email"
	"agri-market-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuthHandler struct {
	DB   *mongo.Database
	Mail *email.Service
}

type RegisterRequest struct {
	Mobile   string          `json:"mobile" binding:"required,len=10"`
	Name     string          `json:"name" binding:"required"`
	Role     string          `json:"role" binding:"required,oneof=farmer buyer"`
	Password string          `json:"password" binding:"required,min=6"`
	PIN      string          `json:"pin" binding:"omitempty,len=4"`
	Location models.Location `json:"location"`

	FarmerDetails *models.FarmerDetails `json:"farmerDetails"`
	BuyerDetails  *models.BuyerDetails  `json:"buyerDetails"`
	// Company name, required when registering a company buyer.
	CompanyName string `json:"companyName"`
}

// Register creates a farmer or buyer account. Company buyers also get their
// company document created and linked.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users := h.DB.Collection("users")

	count, err := users.CountDocuments(context.Background(), bson.M{"mobile": req.Mobile})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking for user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Mobile number already registered"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	newUser := models.User{
		Mobile:        req.Mobile,
		Name:          req.Name,
		Role:          req.Role,
		Password:      hashedPassword,
		Location:      req.Location,
		FarmerDetails: req.FarmerDetails,
		BuyerDetails:  req.BuyerDetails,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if req.PIN != "" {
		hashedPIN, err := auth.HashPassword(req.PIN)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process PIN"})
			return
		}
		newUser.PIN = hashedPIN
	}

	result, err := users.InsertOne(context.Background(), newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	newUser.ID = result.InsertedID.(primitive.ObjectID)

	// Company buyers get a company document with themselves as owner.
	if req.Role == models.RoleBuyer && req.BuyerDetails != nil && req.BuyerDetails.BuyerType == models.BuyerTypeCompany {
		company := models.Company{
			OwnerID:   newUser.ID,
			Name:      req.CompanyName,
			GSTNumber: req.BuyerDetails.GSTNumber,
			Address:   req.Location,
			Employees: []models.Employee{},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		companyResult, err := h.DB.Collection("companies").InsertOne(context.Background(), company)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
			return
		}
		companyID := companyResult.InsertedID.(primitive.ObjectID)
		_, err = users.UpdateOne(context.Background(),
			bson.M{"_id": newUser.ID},
			bson.M{"$set": bson.M{"buyerDetails.company": companyID}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link company"})
			return
		}
	}

	token, err := auth.GenerateJWT(newUser.ID.Hex(), newUser.Mobile, newUser.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"token":  token,
		"user":   newUser,
	})
}

type LoginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates by mobile number and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"mobile": req.Mobile}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid mobile number or password"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error during login"})
		}
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid mobile number or password"})
		return
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Mobile, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"token":  token,
		"user":   user,
	})
}

type ForgotPasswordRequest struct {
	Mobile string `json:"mobile" binding:"required,len=10,numeric"`
}

// ForgotPassword generates a one-time password for the account behind the
// mobile number and emails it to the registered address. Recovery requires
// an email on file; farmers without one go through the IVR PIN flow instead.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users := h.DB.Collection("users")

	var user models.User
	err := users.FindOne(context.Background(), bson.M{"mobile": req.Mobile}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Mobile number not registered"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error during lookup"})
		}
		return
	}

	if strings.TrimSpace(user.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No email address registered for this mobile number"})
		return
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}
	expiresAt := time.Now().Add(auth.OTPTTL)

	_, err = users.UpdateOne(context.Background(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"otp": otp, "otpExpiry": expiresAt}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store OTP"})
		return
	}

	if err := h.Mail.SendOTP(user.Email, user.Name, otp, expiresAt); err != nil {
		// A stored OTP nobody received is a liability, clear it.
		if _, clearErr := users.UpdateOne(context.Background(),
			bson.M{"_id": user.ID},
			bson.M{"$unset": bson.M{"otp": 1, "otpExpiry": 1}}); clearErr != nil {
			log.Printf("CRITICAL: failed to clear undelivered OTP for user %s: %v", user.ID.Hex(), clearErr)
		}
		log.Printf("Failed to send OTP email to %s: %v", maskEmail(user.Email), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP sent to " + maskEmail(user.Email),
		"email":     maskEmail(user.Email),
		"expiresAt": expiresAt,
	})
}

type VerifyOTPRequest struct {
	Mobile string `json:"mobile" binding:"required,len=10,numeric"`
	OTP    string `json:"otp" binding:"required,len=6,numeric"`
}

// VerifyOTP checks a recovery code and, when valid, clears it and issues a
// JWT so the user can sign in and change their password.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users := h.DB.Collection("users")

	var user models.User
	err := users.FindOne(context.Background(), bson.M{"mobile": req.Mobile}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired OTP"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error during lookup"})
		}
		return
	}

	if !auth.ValidateOTP(req.OTP, user.OTP, user.OTPExpiresAt, time.Now()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired OTP"})
		return
	}

	// Single use: clear before handing out the token.
	_, err = users.UpdateOne(context.Background(),
		bson.M{"_id": user.ID},
		bson.M{"$unset": bson.M{"otp": 1, "otpExpiry": 1}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear OTP"})
		return
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Mobile, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"token":  token,
		"user":   user,
	})
}

type CheckMobileRequest struct {
	Mobile string `json:"mobile" binding:"required,len=10,numeric"`
}

// CheckMobile tells the recovery flow whether a mobile number is registered
// and has an email on file, before any OTP is generated.
func (h *AuthHandler) CheckMobile(c *gin.Context) {
	var req CheckMobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"mobile": req.Mobile}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Mobile number not registered"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error during lookup"})
		}
		return
	}

	if strings.TrimSpace(user.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No email address registered for this mobile number"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email": maskEmail(user.Email),
		"name":  user.Name,
		"role":  user.Role,
	})
}

// maskEmail hides the local part of an address except its first two
// characters, e.g. "farmer@example.com" becomes "fa***@example.com".
func maskEmail(addr string) string {
	at := strings.Index(addr, "@")
	if at < 2 {
		return addr
	}
	return addr[:2] + "***" + addr[at:]
}
