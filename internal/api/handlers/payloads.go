package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID resolves the authenticated user's ObjectID from the context
// set by the Authenticate middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identity"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// QuantityInput accepts either a bare number or a {value, unit} object in
// request bodies. Legacy clients send bare numbers; the unit then defaults to
// the crop's own unit downstream.
type QuantityInput struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (q *QuantityInput) UnmarshalJSON(data []byte) error {
	var bare float64
	if err := json.Unmarshal(data, &bare); err == nil {
		q.Value = bare
		q.Unit = ""
		return nil
	}

	type plain QuantityInput
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*q = QuantityInput(obj)
	return nil
}

func (q QuantityInput) Quantity() models.Quantity {
	return models.Quantity{Value: q.Value, Unit: q.Unit}
}

func (q QuantityInput) Price() models.Price {
	return models.Price{Value: q.Value, Unit: q.Unit}
}

// respondLedgerError maps core ledger errors onto HTTP responses. Unexpected
// errors become a generic 500 with no internal detail.
func respondLedgerError(c *gin.Context, err error) {
	var transitionErr *ledger.InvalidTransitionError
	switch {
	case errors.Is(err, ledger.ErrCropNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Crop not found"})
	case errors.Is(err, ledger.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
	case errors.Is(err, ledger.ErrCropUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Crop is no longer available"})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": transitionErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
