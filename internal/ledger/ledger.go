// Package ledger owns the purchase-request status machine and the paired crop
// quantity ledger. Handlers load the documents, check ownership, and delegate
// every status change here; no other code mutates request status or the
// available/booked/sold partition.
package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRequestTTL is how long a new request stays open for a response.
const DefaultRequestTTL = 48 * time.Hour

type Ledger struct {
	Crops    CropStore
	Requests RequestStore

	// RequestTTL controls the expiry window on new requests.
	RequestTTL time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

func New(crops CropStore, requests RequestStore) *Ledger {
	return &Ledger{
		Crops:      crops,
		Requests:   requests,
		RequestTTL: DefaultRequestTTL,
		Now:        time.Now,
	}
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// CreateRequestParams carries the buyer's input for a new purchase request.
// Quantity and price units default to the crop's own units when omitted.
type CreateRequestParams struct {
	BuyerID           primitive.ObjectID
	CropID            primitive.ObjectID
	RequestedQuantity models.Quantity
	OfferedPrice      models.Price
	DeliveryAddress   models.Location
	DeliveryMethod    string
	BuyerNote         string
}

// CreateRequest validates the crop availability predicate and creates the
// request in `pending`. The crop's request counter bump is best effort.
func (l *Ledger) CreateRequest(ctx context.Context, p CreateRequestParams) (*models.Request, error) {
	crop, err := l.Crops.GetByID(ctx, p.CropID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCropNotFound, p.CropID.Hex())
	}

	now := l.now()
	if !crop.IsAvailable(now) {
		return nil, ErrCropUnavailable
	}

	qty := p.RequestedQuantity
	if qty.Unit == "" {
		qty.Unit = crop.Quantity.Unit
	}
	price := p.OfferedPrice
	if price.Unit == "" {
		price.Unit = crop.Price.Unit
	}

	req := &models.Request{
		RequestID:         newRequestID(),
		BuyerID:           p.BuyerID,
		FarmerID:          crop.FarmerID,
		CropID:            crop.ID,
		RequestedQuantity: qty,
		OfferedPrice:      price,
		DeliveryAddress:   p.DeliveryAddress,
		DeliveryMethod:    p.DeliveryMethod,
		BuyerNote:         p.BuyerNote,
		Status:            models.RequestStatusPending,
		StatusHistory: []models.StatusChange{
			{Status: models.RequestStatusPending, Timestamp: now, Note: "Request created"},
		},
		PriceHistory: []models.PriceOffer{
			{OfferedBy: "buyer", Price: price, Timestamp: now},
		},
		ExpiresAt: now.Add(l.ttl()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := l.Requests.Insert(ctx, req); err != nil {
		return nil, err
	}

	crop.RequestCount++
	if err := l.Crops.Save(ctx, crop); err != nil {
		log.Printf("CRITICAL: failed to bump request count on crop %s: %v", crop.CropID, err)
	}

	return req, nil
}

// MarkViewed records that the farmer has seen the request. The transition only
// fires from `pending`; for any other status this is a no-op, so reading the
// request details twice never changes state again.
func (l *Ledger) MarkViewed(ctx context.Context, req *models.Request) error {
	if req.Status != models.RequestStatusPending {
		return nil
	}
	return l.transition(ctx, req, []string{models.RequestStatusPending},
		models.RequestStatusViewed, "Farmer viewed the request")
}

// FarmerAccept moves an open request to farmer_accepted.
func (l *Ledger) FarmerAccept(ctx context.Context, req *models.Request) error {
	return l.transition(ctx, req,
		[]string{models.RequestStatusPending, models.RequestStatusViewed},
		models.RequestStatusFarmerAccepted, "Farmer accepted the request")
}

// FarmerReject moves an open request to the terminal farmer_rejected state.
func (l *Ledger) FarmerReject(ctx context.Context, req *models.Request, reason string) error {
	note := reason
	if note == "" {
		note = "Farmer rejected the request"
	}
	req.FarmerNote = reason
	return l.transition(ctx, req,
		[]string{models.RequestStatusPending, models.RequestStatusViewed},
		models.RequestStatusFarmerRejected, note)
}

// CounterOfferParams carries the farmer's revised proposal. Price and quantity
// default to the buyer's original offer when omitted.
type CounterOfferParams struct {
	Price    *models.Price
	Quantity *models.Quantity
	Note     string
}

// FarmerCounter records a counter offer and moves the request to farmer_countered.
func (l *Ledger) FarmerCounter(ctx context.Context, req *models.Request, p CounterOfferParams) error {
	now := l.now()

	offer := &models.CounterOffer{
		Price:     req.OfferedPrice,
		Quantity:  req.RequestedQuantity,
		Note:      p.Note,
		OfferedAt: now,
	}
	if p.Price != nil {
		offer.Price = *p.Price
	}
	if p.Quantity != nil {
		offer.Quantity = *p.Quantity
	}

	req.CounterOffer = offer
	req.PriceHistory = append(req.PriceHistory, models.PriceOffer{
		OfferedBy: "farmer",
		Price:     offer.Price,
		Timestamp: now,
	})

	return l.transition(ctx, req,
		[]string{models.RequestStatusPending, models.RequestStatusViewed},
		models.RequestStatusFarmerCountered, "Farmer made a counter offer")
}

// AcceptCounterOffer confirms the deal at the farmer's counter terms. Legal
// only when the current status is exactly farmer_countered; the final
// agreement is locked in and the crop quantity ledger is adjusted.
func (l *Ledger) AcceptCounterOffer(ctx context.Context, req *models.Request) error {
	if req.Status != models.RequestStatusFarmerCountered {
		return &InvalidTransitionError{
			RequestID: req.RequestID,
			Expected:  []string{models.RequestStatusFarmerCountered},
			Actual:    req.Status,
		}
	}

	now := l.now()
	req.FinalAgreement = &models.FinalAgreement{
		Quantity:    req.CounterOffer.Quantity,
		Price:       req.CounterOffer.Price,
		TotalAmount: req.CounterOffer.Quantity.Value * req.CounterOffer.Price.Value,
		AgreedAt:    now,
	}

	oldStatus := req.Status
	if err := l.transition(ctx, req, []string{models.RequestStatusFarmerCountered},
		models.RequestStatusConfirmed, "Buyer accepted counter offer"); err != nil {
		req.FinalAgreement = nil
		return err
	}

	l.applyQuantityChange(ctx, req, oldStatus, models.RequestStatusConfirmed)
	return nil
}

// Cancel moves an open or confirmed request to the terminal cancelled state.
// A confirmed cancellation releases the booked quantity back to available.
func (l *Ledger) Cancel(ctx context.Context, req *models.Request, reason string) error {
	note := reason
	if note == "" {
		note = "Request cancelled"
	}

	oldStatus := req.Status
	err := l.transition(ctx, req, []string{
		models.RequestStatusPending,
		models.RequestStatusViewed,
		models.RequestStatusFarmerAccepted,
		models.RequestStatusFarmerCountered,
		models.RequestStatusConfirmed,
	}, models.RequestStatusCancelled, note)
	if err != nil {
		return err
	}

	if oldStatus == models.RequestStatusConfirmed {
		l.applyQuantityChange(ctx, req, oldStatus, models.RequestStatusCancelled)
	}
	return nil
}

// Complete marks a confirmed request as fulfilled and moves the booked
// quantity to sold.
func (l *Ledger) Complete(ctx context.Context, req *models.Request) error {
	oldStatus := req.Status
	if err := l.transition(ctx, req, []string{models.RequestStatusConfirmed},
		models.RequestStatusCompleted, "Order delivered and confirmed"); err != nil {
		return err
	}
	l.applyQuantityChange(ctx, req, oldStatus, models.RequestStatusCompleted)
	return nil
}

// RateByBuyer records the buyer's rating of the farmer. Only completed
// requests can be rated.
func (l *Ledger) RateByBuyer(ctx context.Context, req *models.Request, rating int, review string) error {
	if req.Status != models.RequestStatusCompleted {
		return &InvalidTransitionError{
			RequestID: req.RequestID,
			Expected:  []string{models.RequestStatusCompleted},
			Actual:    req.Status,
		}
	}

	req.BuyerRating = &models.Rating{Rating: rating, Review: review, RatedAt: l.now()}
	ok, err := l.Requests.ReplaceWithStatusGuard(ctx, req, []string{models.RequestStatusCompleted})
	if err != nil {
		return err
	}
	if !ok {
		return ErrRequestNotFound
	}
	return nil
}

// transition enforces the status guard, appends the timeline entry and writes
// the document with a compare-and-set on the previous status. On a lost race
// the in-memory request is restored and the caller gets the guard error.
func (l *Ledger) transition(ctx context.Context, req *models.Request, from []string, to, note string) error {
	actual := req.Status
	legal := false
	for _, s := range from {
		if s == actual {
			legal = true
			break
		}
	}
	if !legal {
		return &InvalidTransitionError{RequestID: req.RequestID, Expected: from, Actual: actual}
	}

	now := l.now()
	req.Status = to
	req.StatusHistory = append(req.StatusHistory, models.StatusChange{
		Status:    to,
		Timestamp: now,
		Note:      note,
	})
	req.UpdatedAt = now

	ok, err := l.Requests.ReplaceWithStatusGuard(ctx, req, from)
	if err == nil && ok {
		return nil
	}

	// Roll back the in-memory mutation before reporting.
	req.Status = actual
	req.StatusHistory = req.StatusHistory[:len(req.StatusHistory)-1]
	if err != nil {
		return err
	}

	// Someone else transitioned first; report what the store holds now.
	current := "unknown"
	if fresh, ferr := l.Requests.GetByID(ctx, req.ID); ferr == nil {
		current = fresh.Status
	}
	return &InvalidTransitionError{RequestID: req.RequestID, Expected: from, Actual: current}
}

// applyQuantityChange keeps the crop's available/booked/sold partition in step
// with a request status change. It is best effort: a failure here is logged
// and never propagated, because the status transition has already succeeded
// and the negotiation flow must stay available. The drift this can cause is a
// known trade-off.
func (l *Ledger) applyQuantityChange(ctx context.Context, req *models.Request, oldStatus, newStatus string) {
	if err := l.updateCropQuantities(ctx, req, oldStatus, newStatus); err != nil {
		log.Printf("CRITICAL: quantity ledger update for request %s (%s -> %s) failed: %v",
			req.RequestID, oldStatus, newStatus, err)
	}
}

func (l *Ledger) updateCropQuantities(ctx context.Context, req *models.Request, oldStatus, newStatus string) error {
	crop, err := l.Crops.GetByID(ctx, req.CropID)
	if err != nil {
		return fmt.Errorf("load crop %s: %w", req.CropID.Hex(), err)
	}

	qty := req.RequestedQuantity
	if req.FinalAgreement != nil {
		qty = req.FinalAgreement.Quantity
	}
	value := ConvertQuantity(qty, crop.AvailableQuantity.Unit)

	switch {
	case newStatus == models.RequestStatusConfirmed && oldStatus != models.RequestStatusConfirmed:
		crop.AvailableQuantity.Value = max(0, crop.AvailableQuantity.Value-value)
		crop.BookedQuantity.Value += value
		crop.BookedQuantity.Unit = crop.AvailableQuantity.Unit
	case newStatus == models.RequestStatusCompleted && oldStatus == models.RequestStatusConfirmed:
		crop.BookedQuantity.Value = max(0, crop.BookedQuantity.Value-value)
		crop.SoldQuantity.Value += value
		crop.SoldQuantity.Unit = crop.AvailableQuantity.Unit
	case newStatus == models.RequestStatusCancelled && oldStatus == models.RequestStatusConfirmed:
		crop.BookedQuantity.Value = max(0, crop.BookedQuantity.Value-value)
		crop.AvailableQuantity.Value += value
	default:
		return nil
	}

	if crop.AvailableQuantity.Value == 0 && crop.BookedQuantity.Value == 0 {
		crop.Status = models.CropStatusSoldOut
	} else if crop.Status == models.CropStatusSoldOut &&
		(crop.AvailableQuantity.Value > 0 || crop.BookedQuantity.Value > 0) {
		crop.Status = models.CropStatusActive
	}

	crop.UpdatedAt = l.now()
	if err := l.Crops.Save(ctx, crop); err != nil {
		return fmt.Errorf("save crop %s: %w", crop.CropID, err)
	}
	return nil
}

func (l *Ledger) ttl() time.Duration {
	if l.RequestTTL > 0 {
		return l.RequestTTL
	}
	return DefaultRequestTTL
}

func newRequestID() string {
	return fmt.Sprintf("REQ-%s", strings.ToUpper(uuid.New().String()[:8]))
}
