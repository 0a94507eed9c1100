package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memCropStore struct {
	crops   map[primitive.ObjectID]*models.Crop
	saveErr error
}

func newMemCropStore() *memCropStore {
	return &memCropStore{crops: make(map[primitive.ObjectID]*models.Crop)}
}

func (s *memCropStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Crop, error) {
	crop, ok := s.crops[id]
	if !ok {
		return nil, ErrCropNotFound
	}
	copied := *crop
	return &copied, nil
}

func (s *memCropStore) Save(_ context.Context, crop *models.Crop) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *crop
	s.crops[crop.ID] = &copied
	return nil
}

type memRequestStore struct {
	requests map[primitive.ObjectID]*models.Request
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{requests: make(map[primitive.ObjectID]*models.Request)}
}

func (s *memRequestStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *memRequestStore) Insert(_ context.Context, req *models.Request) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	copied := *req
	s.requests[req.ID] = &copied
	return nil
}

func (s *memRequestStore) ReplaceWithStatusGuard(_ context.Context, req *models.Request, from []string) (bool, error) {
	stored, ok := s.requests[req.ID]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if stored.Status == status {
			copied := *req
			s.requests[req.ID] = &copied
			return true, nil
		}
	}
	return false, nil
}

func testFixture(t *testing.T) (*Ledger, *memCropStore, *memRequestStore, *models.Crop) {
	t.Helper()

	crops := newMemCropStore()
	requests := newMemRequestStore()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := New(crops, requests)
	l.Now = func() time.Time { return now }

	crop := &models.Crop{
		ID:                primitive.NewObjectID(),
		CropID:            "CROP-TEST0001",
		FarmerID:          primitive.NewObjectID(),
		Name:              "Tomato",
		Quantity:          models.Quantity{Value: 500, Unit: "kg"},
		AvailableQuantity: models.Quantity{Value: 500, Unit: "kg"},
		BookedQuantity:    models.Quantity{Value: 0, Unit: "kg"},
		SoldQuantity:      models.Quantity{Value: 0, Unit: "kg"},
		Price:             models.Price{Value: 20, Unit: "kg"},
		AvailableFrom:     now.Add(-24 * time.Hour),
		AvailableTo:       now.Add(7 * 24 * time.Hour),
		Status:            models.CropStatusActive,
		IsVisible:         true,
	}
	crops.crops[crop.ID] = crop

	return l, crops, requests, crop
}

func createTestRequest(t *testing.T, l *Ledger, crop *models.Crop, qty float64) *models.Request {
	t.Helper()
	req, err := l.CreateRequest(context.Background(), CreateRequestParams{
		BuyerID:           primitive.NewObjectID(),
		CropID:            crop.ID,
		RequestedQuantity: models.Quantity{Value: qty, Unit: "kg"},
		OfferedPrice:      models.Price{Value: 18, Unit: "kg"},
	})
	require.NoError(t, err)
	return req
}

func TestCreateRequest(t *testing.T) {
	l, crops, _, crop := testFixture(t)

	req := createTestRequest(t, l, crop, 100)

	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, crop.FarmerID, req.FarmerID)
	assert.Regexp(t, `^REQ-[0-9A-F]{8}$`, req.RequestID)
	assert.Equal(t, l.Now().Add(48*time.Hour), req.ExpiresAt)
	require.Len(t, req.StatusHistory, 1)
	assert.Equal(t, models.RequestStatusPending, req.StatusHistory[0].Status)
	require.Len(t, req.PriceHistory, 1)
	assert.Equal(t, "buyer", req.PriceHistory[0].OfferedBy)

	// Creating a request never reserves stock.
	stored := crops.crops[crop.ID]
	assert.Equal(t, 500.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
	assert.Equal(t, 1, stored.RequestCount)
}

func TestCreateRequestDefaultsUnits(t *testing.T) {
	l, _, _, crop := testFixture(t)

	req, err := l.CreateRequest(context.Background(), CreateRequestParams{
		BuyerID:           primitive.NewObjectID(),
		CropID:            crop.ID,
		RequestedQuantity: models.Quantity{Value: 100},
		OfferedPrice:      models.Price{Value: 18},
	})
	require.NoError(t, err)

	assert.Equal(t, "kg", req.RequestedQuantity.Unit)
	assert.Equal(t, "kg", req.OfferedPrice.Unit)
}

func TestCreateRequestMissingCrop(t *testing.T) {
	l, _, _, _ := testFixture(t)

	_, err := l.CreateRequest(context.Background(), CreateRequestParams{
		BuyerID:           primitive.NewObjectID(),
		CropID:            primitive.NewObjectID(),
		RequestedQuantity: models.Quantity{Value: 100, Unit: "kg"},
	})
	assert.ErrorIs(t, err, ErrCropNotFound)
}

func TestCreateRequestUnavailableCrop(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.Crop)
	}{
		{"hidden", func(c *models.Crop) { c.IsVisible = false }},
		{"removed", func(c *models.Crop) { c.Status = models.CropStatusRemoved }},
		{"sold out quantity", func(c *models.Crop) { c.AvailableQuantity.Value = 0 }},
		{"past availability window", func(c *models.Crop) { c.AvailableTo = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, crops, _, crop := testFixture(t)
			tc.mutate(crops.crops[crop.ID])

			_, err := l.CreateRequest(context.Background(), CreateRequestParams{
				BuyerID:           primitive.NewObjectID(),
				CropID:            crop.ID,
				RequestedQuantity: models.Quantity{Value: 100, Unit: "kg"},
			})
			assert.ErrorIs(t, err, ErrCropUnavailable)
		})
	}
}

func TestMarkViewed(t *testing.T) {
	l, _, requests, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)

	require.NoError(t, l.MarkViewed(context.Background(), req))
	assert.Equal(t, models.RequestStatusViewed, req.Status)
	assert.Len(t, req.StatusHistory, 2)

	// Re-reading the request must not grow the timeline again.
	require.NoError(t, l.MarkViewed(context.Background(), req))
	assert.Equal(t, models.RequestStatusViewed, req.Status)
	assert.Len(t, req.StatusHistory, 2)

	stored := requests.requests[req.ID]
	assert.Equal(t, models.RequestStatusViewed, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestFarmerAcceptFromPendingOrViewed(t *testing.T) {
	l, _, _, crop := testFixture(t)

	// Straight from pending, before the farmer opened the details.
	req := createTestRequest(t, l, crop, 100)
	require.NoError(t, l.FarmerAccept(context.Background(), req))
	assert.Equal(t, models.RequestStatusFarmerAccepted, req.Status)

	// And after viewing.
	req = createTestRequest(t, l, crop, 50)
	require.NoError(t, l.MarkViewed(context.Background(), req))
	require.NoError(t, l.FarmerAccept(context.Background(), req))
	assert.Equal(t, models.RequestStatusFarmerAccepted, req.Status)
}

func TestFarmerAcceptRejectedRequest(t *testing.T) {
	l, _, _, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)
	require.NoError(t, l.FarmerReject(context.Background(), req, "price too low"))

	err := l.FarmerAccept(context.Background(), req)

	var transitionErr *InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, models.RequestStatusFarmerRejected, transitionErr.Actual)
	assert.Contains(t, err.Error(), "invalid status transition")

	// The failed call must not leave a partial mutation behind.
	assert.Equal(t, models.RequestStatusFarmerRejected, req.Status)
	assert.Len(t, req.StatusHistory, 2)
}

func TestFarmerCounter(t *testing.T) {
	l, _, _, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)
	require.NoError(t, l.MarkViewed(context.Background(), req))

	price := models.Price{Value: 22, Unit: "kg"}
	require.NoError(t, l.FarmerCounter(context.Background(), req, CounterOfferParams{
		Price: &price,
		Note:  "quality justifies the price",
	}))

	assert.Equal(t, models.RequestStatusFarmerCountered, req.Status)
	require.NotNil(t, req.CounterOffer)
	assert.Equal(t, 22.0, req.CounterOffer.Price.Value)
	// Quantity not countered, so the buyer's original carries over.
	assert.Equal(t, 100.0, req.CounterOffer.Quantity.Value)
	require.Len(t, req.PriceHistory, 2)
	assert.Equal(t, "farmer", req.PriceHistory[1].OfferedBy)
}

func TestAcceptCounterOffer(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)
	require.NoError(t, l.MarkViewed(context.Background(), req))

	price := models.Price{Value: 22, Unit: "kg"}
	qty := models.Quantity{Value: 80, Unit: "kg"}
	require.NoError(t, l.FarmerCounter(context.Background(), req, CounterOfferParams{Price: &price, Quantity: &qty}))

	require.NoError(t, l.AcceptCounterOffer(context.Background(), req))

	assert.Equal(t, models.RequestStatusConfirmed, req.Status)
	require.NotNil(t, req.FinalAgreement)
	assert.Equal(t, 80.0, req.FinalAgreement.Quantity.Value)
	assert.Equal(t, 22.0, req.FinalAgreement.Price.Value)
	assert.Equal(t, 80*22.0, req.FinalAgreement.TotalAmount)

	// The counter quantity, not the original request, moves on the ledger.
	stored := crops.crops[crop.ID]
	assert.Equal(t, 420.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 80.0, stored.BookedQuantity.Value)
	assert.Equal(t, 0.0, stored.SoldQuantity.Value)
	assert.Equal(t, models.CropStatusActive, stored.Status)
}

func TestAcceptCounterOfferGuard(t *testing.T) {
	l, _, _, crop := testFixture(t)

	for _, setup := range []func(*models.Request){
		func(r *models.Request) {},
		func(r *models.Request) { require.NoError(t, l.FarmerAccept(context.Background(), r)) },
	} {
		req := createTestRequest(t, l, crop, 100)
		setup(req)

		err := l.AcceptCounterOffer(context.Background(), req)
		var transitionErr *InvalidTransitionError
		require.True(t, errors.As(err, &transitionErr))
		assert.Equal(t, []string{models.RequestStatusFarmerCountered}, transitionErr.Expected)
		assert.Nil(t, req.FinalAgreement)
	}
}

func TestCompleteMovesBookedToSold(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 100)

	require.NoError(t, l.Complete(context.Background(), req))

	assert.Equal(t, models.RequestStatusCompleted, req.Status)
	stored := crops.crops[crop.ID]
	assert.Equal(t, 400.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
	assert.Equal(t, 100.0, stored.SoldQuantity.Value)
}

func TestCancelConfirmedReleasesBookedStock(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 100)

	require.NoError(t, l.Cancel(context.Background(), req, "buyer backed out"))

	assert.Equal(t, models.RequestStatusCancelled, req.Status)
	stored := crops.crops[crop.ID]
	assert.Equal(t, 500.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
	assert.Equal(t, 0.0, stored.SoldQuantity.Value)
}

func TestCancelPendingLeavesLedgerAlone(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)

	require.NoError(t, l.Cancel(context.Background(), req, ""))

	assert.Equal(t, models.RequestStatusCancelled, req.Status)
	stored := crops.crops[crop.ID]
	assert.Equal(t, 500.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
}

func TestCancelCompletedRequest(t *testing.T) {
	l, _, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 100)
	require.NoError(t, l.Complete(context.Background(), req))

	err := l.Cancel(context.Background(), req, "")
	var transitionErr *InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, models.RequestStatusCompleted, transitionErr.Actual)
}

func TestSoldOutAndReactivation(t *testing.T) {
	l, crops, _, crop := testFixture(t)

	// Confirm the entire listing.
	req := confirmedRequest(t, l, crop, 500)
	stored := crops.crops[crop.ID]
	assert.Equal(t, 0.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 500.0, stored.BookedQuantity.Value)
	assert.Equal(t, models.CropStatusActive, stored.Status)

	// Completion leaves nothing available or booked: sold out.
	require.NoError(t, l.Complete(context.Background(), req))
	stored = crops.crops[crop.ID]
	assert.Equal(t, models.CropStatusSoldOut, stored.Status)
	assert.Equal(t, 500.0, stored.SoldQuantity.Value)
}

func TestCancelRevertsSoldOut(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 500)

	// Force the sold out state while stock is still only booked.
	stored := crops.crops[crop.ID]
	stored.Status = models.CropStatusSoldOut
	stored.BookedQuantity.Value = 500
	stored.AvailableQuantity.Value = 0

	require.NoError(t, l.Cancel(context.Background(), req, ""))

	stored = crops.crops[crop.ID]
	assert.Equal(t, models.CropStatusActive, stored.Status)
	assert.Equal(t, 500.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
}

func TestOverbookingClampsAvailableToZero(t *testing.T) {
	l, crops, _, crop := testFixture(t)

	// Two buyers race for more than the listing holds.
	first := confirmedRequest(t, l, crop, 300)
	second := confirmedRequest(t, l, crop, 300)

	stored := crops.crops[crop.ID]
	assert.Equal(t, 0.0, stored.AvailableQuantity.Value)
	assert.Equal(t, 600.0, stored.BookedQuantity.Value)

	require.NoError(t, l.Complete(context.Background(), first))
	require.NoError(t, l.Complete(context.Background(), second))
	stored = crops.crops[crop.ID]
	assert.Equal(t, 0.0, stored.BookedQuantity.Value)
	assert.Equal(t, 600.0, stored.SoldQuantity.Value)
}

func TestQuantityLedgerFailureDoesNotFailTransition(t *testing.T) {
	l, crops, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 100)

	crops.saveErr = errors.New("mongo down")

	// Completion still succeeds; the crop write is best effort.
	require.NoError(t, l.Complete(context.Background(), req))
	assert.Equal(t, models.RequestStatusCompleted, req.Status)

	stored := crops.crops[crop.ID]
	assert.Equal(t, 100.0, stored.BookedQuantity.Value)
	assert.Equal(t, 0.0, stored.SoldQuantity.Value)
}

func TestTransitionLostRace(t *testing.T) {
	l, _, requests, crop := testFixture(t)
	req := createTestRequest(t, l, crop, 100)

	// Another actor cancels in the store behind this copy's back.
	stale := *req
	require.NoError(t, l.Cancel(context.Background(), req, ""))

	err := l.FarmerAccept(context.Background(), &stale)
	var transitionErr *InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, models.RequestStatusCancelled, transitionErr.Actual)

	// The loser's in-memory copy is rolled back.
	assert.Equal(t, models.RequestStatusPending, stale.Status)
	assert.Len(t, stale.StatusHistory, 1)

	stored := requests.requests[req.ID]
	assert.Equal(t, models.RequestStatusCancelled, stored.Status)
}

func TestRateByBuyer(t *testing.T) {
	l, _, _, crop := testFixture(t)
	req := confirmedRequest(t, l, crop, 100)

	err := l.RateByBuyer(context.Background(), req, 5, "great produce")
	var transitionErr *InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))

	require.NoError(t, l.Complete(context.Background(), req))
	require.NoError(t, l.RateByBuyer(context.Background(), req, 5, "great produce"))
	require.NotNil(t, req.BuyerRating)
	assert.Equal(t, 5, req.BuyerRating.Rating)
}

// confirmedRequest drives a fresh request through counter and acceptance so
// the quantity sits in booked.
func confirmedRequest(t *testing.T, l *Ledger, crop *models.Crop, qty float64) *models.Request {
	t.Helper()
	req := createTestRequest(t, l, crop, qty)
	require.NoError(t, l.MarkViewed(context.Background(), req))
	require.NoError(t, l.FarmerCounter(context.Background(), req, CounterOfferParams{}))
	require.NoError(t, l.AcceptCounterOffer(context.Background(), req))
	return req
}
