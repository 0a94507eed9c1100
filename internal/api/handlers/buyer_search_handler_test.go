package handlers

import (
	"testing"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEngagedFarmers(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	negotiating := primitive.NewObjectID()
	countered := primitive.NewObjectID()
	ordered := primitive.NewObjectID()
	lapsed := primitive.NewObjectID()
	rejected := primitive.NewObjectID()

	requests := []models.Request{
		{FarmerID: negotiating, Status: models.RequestStatusViewed, ExpiresAt: future},
		{FarmerID: countered, Status: models.RequestStatusFarmerCountered, ExpiresAt: future},
		{FarmerID: ordered, Status: models.RequestStatusConfirmed, ExpiresAt: past},
		{FarmerID: lapsed, Status: models.RequestStatusPending, ExpiresAt: past},
		{FarmerID: rejected, Status: models.RequestStatusFarmerRejected, ExpiresAt: future},
	}

	engaged := engagedFarmers(requests, now)

	assert.True(t, engaged[negotiating])
	assert.True(t, engaged[countered])
	assert.True(t, engaged[ordered], "a confirmed order counts even past the negotiation deadline")
	assert.False(t, engaged[lapsed], "an unanswered request past its deadline is not a live negotiation")
	assert.False(t, engaged[rejected])
}
