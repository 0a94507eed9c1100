package jobs

import (
	"testing"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// matchesRequestExpiry evaluates the sweep filter against an in-memory
// request the way the database would.
func matchesRequestExpiry(filter bson.M, req models.Request) bool {
	statuses := filter["status"].(bson.M)["$in"].([]string)
	deadline := filter["expiresAt"].(bson.M)["$lte"].(time.Time)

	inSet := false
	for _, s := range statuses {
		if req.Status == s {
			inSet = true
			break
		}
	}
	return inSet && !req.ExpiresAt.After(deadline)
}

func matchesCropExpiry(filter bson.M, crop models.Crop) bool {
	deadline := filter["availableTo"].(bson.M)["$lte"].(time.Time)
	return crop.Status == filter["status"] && !crop.AvailableTo.After(deadline)
}

func TestRequestExpirySweepsOnlyUnansweredRequests(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	filter := requestExpiryFilter(now)

	statuses := filter["status"].(bson.M)["$in"].([]string)
	assert.ElementsMatch(t, []string{models.RequestStatusPending, models.RequestStatusViewed}, statuses)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    string
		expiresAt time.Time
		expired   bool
	}{
		{"pending past deadline", models.RequestStatusPending, past, true},
		{"viewed past deadline", models.RequestStatusViewed, past, true},
		{"pending before deadline", models.RequestStatusPending, future, false},
		{"countered past deadline stays open", models.RequestStatusFarmerCountered, past, false},
		{"accepted past deadline stays open", models.RequestStatusFarmerAccepted, past, false},
		{"confirmed past deadline stays open", models.RequestStatusConfirmed, past, false},
		{"already expired", models.RequestStatusExpired, past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.Request{Status: tt.status, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expired, matchesRequestExpiry(filter, req))
		})
	}
}

func TestRequestExpiryUpdateRecordsHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	update := requestExpiryUpdate(now)

	set := update["$set"].(bson.M)
	assert.Equal(t, models.RequestStatusExpired, set["status"])
	assert.Equal(t, now, set["updatedAt"])

	change := update["$push"].(bson.M)["statusHistory"].(models.StatusChange)
	assert.Equal(t, models.RequestStatusExpired, change.Status)
	assert.Equal(t, now, change.Timestamp)
	assert.NotEmpty(t, change.Note)
}

func TestCropExpirySweepsOnlyActiveListings(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	filter := cropExpiryFilter(now)

	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name        string
		status      string
		availableTo time.Time
		expired     bool
	}{
		{"active past window", models.CropStatusActive, past, true},
		{"active still inside window", models.CropStatusActive, future, false},
		{"sold out past window stays", models.CropStatusSoldOut, past, false},
		{"removed past window stays", models.CropStatusRemoved, past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crop := models.Crop{Status: tt.status, AvailableTo: tt.availableTo}
			assert.Equal(t, tt.expired, matchesCropExpiry(filter, crop))
		})
	}

	set := cropExpiryUpdate(now)["$set"].(bson.M)
	assert.Equal(t, models.CropStatusExpired, set["status"])
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(nil, "not a cron spec")
	require.Error(t, err)
}
