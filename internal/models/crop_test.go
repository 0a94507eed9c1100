package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCropIsAvailable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	base := func() Crop {
		return Crop{
			Status:            CropStatusActive,
			IsVisible:         true,
			AvailableQuantity: Quantity{Value: 100, Unit: "kg"},
			AvailableTo:       now.Add(24 * time.Hour),
		}
	}

	t.Run("available", func(t *testing.T) {
		crop := base()
		assert.True(t, crop.IsAvailable(now))
	})

	t.Run("hidden", func(t *testing.T) {
		crop := base()
		crop.IsVisible = false
		assert.False(t, crop.IsAvailable(now))
	})

	t.Run("not active", func(t *testing.T) {
		for _, status := range []string{CropStatusSoldOut, CropStatusExpired, CropStatusRemoved} {
			crop := base()
			crop.Status = status
			assert.False(t, crop.IsAvailable(now), status)
		}
	})

	t.Run("nothing left", func(t *testing.T) {
		crop := base()
		crop.AvailableQuantity.Value = 0
		assert.False(t, crop.IsAvailable(now))
	})

	t.Run("window closed", func(t *testing.T) {
		crop := base()
		crop.AvailableTo = now.Add(-time.Minute)
		assert.False(t, crop.IsAvailable(now))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		crop := base()
		crop.AvailableTo = now
		assert.True(t, crop.IsAvailable(now))
	})
}

func TestRequestIsOpen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, status := range []string{
		RequestStatusPending,
		RequestStatusViewed,
		RequestStatusFarmerAccepted,
		RequestStatusFarmerCountered,
	} {
		req := Request{Status: status, ExpiresAt: now.Add(time.Hour)}
		assert.True(t, req.IsOpen(now), status)
	}

	expired := Request{Status: RequestStatusPending, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, expired.IsOpen(now))

	for _, status := range []string{
		RequestStatusFarmerRejected,
		RequestStatusConfirmed,
		RequestStatusCompleted,
		RequestStatusCancelled,
		RequestStatusExpired,
	} {
		req := Request{Status: status, ExpiresAt: now.Add(time.Hour)}
		assert.False(t, req.IsOpen(now), status)
	}
}
