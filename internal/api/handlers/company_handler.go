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

type CompanyHandler struct {
	DB *mongo.Database
}

// GetMyCompany returns the company owned by the authenticated buyer.
func (h *CompanyHandler) GetMyCompany(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	company, ok := h.findOwnCompany(c, ownerID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, company)
}

type UpdateCompanyPayload struct {
	Name      *string          `json:"name"`
	GSTNumber *string          `json:"gstNumber"`
	Address   *models.Location `json:"address"`
}

// UpdateCompany edits company profile fields.
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload UpdateCompanyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.findOwnCompany(c, ownerID)
	if !ok {
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil {
		set["name"] = *payload.Name
	}
	if payload.GSTNumber != nil {
		set["gstNumber"] = *payload.GSTNumber
	}
	if payload.Address != nil {
		set["address"] = *payload.Address
	}

	_, err := h.DB.Collection("companies").UpdateOne(context.Background(),
		bson.M{"_id": company.ID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update company"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Company updated successfully"})
}

type AddEmployeePayload struct {
	Name        string                     `json:"name" binding:"required"`
	Mobile      string                     `json:"mobile" binding:"required,len=10"`
	Designation string                     `json:"designation"`
	Permissions models.EmployeePermissions `json:"permissions"`
}

// AddEmployee registers a sub-account under the company.
func (h *CompanyHandler) AddEmployee(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload AddEmployeePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.findOwnCompany(c, ownerID)
	if !ok {
		return
	}

	for _, employee := range company.Employees {
		if employee.Mobile == payload.Mobile {
			c.JSON(http.StatusConflict, gin.H{"error": "An employee with this mobile number already exists"})
			return
		}
	}

	employee := models.Employee{
		ID:          primitive.NewObjectID(),
		Name:        payload.Name,
		Mobile:      payload.Mobile,
		Designation: payload.Designation,
		Permissions: payload.Permissions,
		AddedAt:     time.Now(),
	}

	_, err := h.DB.Collection("companies").UpdateOne(context.Background(),
		bson.M{"_id": company.ID},
		bson.M{"$push": bson.M{"employees": employee}, "$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add employee"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Employee added successfully",
		"data":    employee,
	})
}

type UpdateEmployeePayload struct {
	Name        *string                     `json:"name"`
	Designation *string                     `json:"designation"`
	Permissions *models.EmployeePermissions `json:"permissions"`
}

// UpdateEmployee edits an employee's details or permissions.
func (h *CompanyHandler) UpdateEmployee(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	employeeID, err := primitive.ObjectIDFromHex(c.Param("employeeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee id"})
		return
	}

	var payload UpdateEmployeePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil {
		set["employees.$.name"] = *payload.Name
	}
	if payload.Designation != nil {
		set["employees.$.designation"] = *payload.Designation
	}
	if payload.Permissions != nil {
		set["employees.$.permissions"] = *payload.Permissions
	}

	result, err := h.DB.Collection("companies").UpdateOne(context.Background(),
		bson.M{"owner": ownerID, "employees._id": employeeID},
		bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update employee"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Employee updated successfully"})
}

// RemoveEmployee pulls an employee out of the company roster.
func (h *CompanyHandler) RemoveEmployee(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	employeeID, err := primitive.ObjectIDFromHex(c.Param("employeeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee id"})
		return
	}

	result, err := h.DB.Collection("companies").UpdateOne(context.Background(),
		bson.M{"owner": ownerID},
		bson.M{
			"$pull": bson.M{"employees": bson.M{"_id": employeeID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove employee"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Employee removed successfully"})
}

func (h *CompanyHandler) findOwnCompany(c *gin.Context, ownerID primitive.ObjectID) (*models.Company, bool) {
	var company models.Company
	err := h.DB.Collection("companies").FindOne(context.Background(),
		bson.M{"owner": ownerID}).Decode(&company)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve company"})
		}
		return nil, false
	}

	return &company, true
}

// GetDashboard aggregates request activity across every buyer account linked
// to the company.
func (h *CompanyHandler) GetDashboard(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	company, ok := h.findOwnCompany(c, ownerID)
	if !ok {
		return
	}

	memberIDs, err := h.memberIDs(company)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve company members"})
		return
	}

	requests := h.DB.Collection("requests")
	memberFilter := bson.M{"buyer": bson.M{"$in": memberIDs}}

	totalRequests, _ := requests.CountDocuments(context.Background(), memberFilter)
	pendingRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"buyer":  bson.M{"$in": memberIDs},
		"status": models.RequestStatusPending,
	})
	confirmedRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"buyer":  bson.M{"$in": memberIDs},
		"status": models.RequestStatusConfirmed,
	})
	completedRequests, _ := requests.CountDocuments(context.Background(), bson.M{
		"buyer":  bson.M{"$in": memberIDs},
		"status": models.RequestStatusCompleted,
	})
	availableCrops, _ := h.DB.Collection("crops").CountDocuments(context.Background(), bson.M{
		"status":            models.CropStatusActive,
		"isVisible":         true,
		"availableQuantity": bson.M{"$gt": 0},
	})

	findOptions := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(10)
	cursor, err := requests.Find(context.Background(), memberFilter, findOptions)
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
			"completedRequests": completedRequests,
			"availableCrops":    availableCrops,
			"employees":         len(company.Employees),
		},
		"recentRequests": recentRequests,
	})
}

// GetStock reports completed purchases across the company, grouped by crop.
func (h *CompanyHandler) GetStock(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	company, ok := h.findOwnCompany(c, ownerID)
	if !ok {
		return
	}

	memberIDs, err := h.memberIDs(company)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve company members"})
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"buyer":  bson.M{"$in": memberIDs},
			"status": models.RequestStatusCompleted,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "crops",
			"localField":   "crop",
			"foreignField": "_id",
			"as":           "cropInfo",
		}}},
		{{Key: "$unwind", Value: "$cropInfo"}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"cropName": "$cropInfo.name",
				"category": "$cropInfo.category",
			},
			"totalQuantity": bson.M{"$sum": "$finalAgreement.quantity.value"},
			"totalValue":    bson.M{"$sum": "$finalAgreement.totalAmount"},
			"orders":        bson.M{"$sum": 1},
			"lastPurchased": bson.M{"$max": "$updatedAt"},
		}}},
		{{Key: "$sort", Value: bson.M{"totalQuantity": -1}}},
	}

	cursor, err := h.DB.Collection("requests").Aggregate(context.Background(), pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate stock"})
		return
	}
	defer cursor.Close(context.Background())

	var stock []bson.M
	if err = cursor.All(context.Background(), &stock); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode stock"})
		return
	}
	if stock == nil {
		stock = []bson.M{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(stock),
		"data":  stock,
	})
}

// memberIDs resolves every buyer account purchasing under this company: the
// owner plus any account linked through buyerDetails.company.
func (h *CompanyHandler) memberIDs(company *models.Company) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{company.OwnerID}

	cursor, err := h.DB.Collection("users").Find(context.Background(),
		bson.M{"buyerDetails.company": company.ID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	var members []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(context.Background(), &members); err != nil {
		return nil, err
	}

	for _, m := range members {
		if m.ID != company.OwnerID {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}
