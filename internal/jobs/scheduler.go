// Package jobs runs the scheduled expiry sweeps that keep stale requests and
// crop listings from lingering in an open state.
package jobs

import (
	"context"
	"log"
	"time"

	"agri-market-api-server/internal/models"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Scheduler struct {
	cron *cron.Cron
	db   *mongo.Database
}

func NewScheduler(db *mongo.Database, schedule string) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	s := &Scheduler{cron: c, db: db}

	if _, err := c.AddFunc(schedule, s.ExpireRequests); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(schedule, s.ExpireCrops); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Expiry scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Expiry scheduler stopped")
}

// requestExpiryFilter matches requests that should expire: those still
// awaiting the farmer and past their deadline. An accepted or countered
// negotiation stays open regardless of age.
func requestExpiryFilter(now time.Time) bson.M {
	return bson.M{
		"status":    bson.M{"$in": []string{models.RequestStatusPending, models.RequestStatusViewed}},
		"expiresAt": bson.M{"$lte": now},
	}
}

func requestExpiryUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":    models.RequestStatusExpired,
			"updatedAt": now,
		},
		"$push": bson.M{
			"statusHistory": models.StatusChange{
				Status:    models.RequestStatusExpired,
				Timestamp: now,
				Note:      "Request expired without farmer response",
			},
		},
	}
}

// cropExpiryFilter matches active listings whose availability window closed.
func cropExpiryFilter(now time.Time) bson.M {
	return bson.M{
		"status":      models.CropStatusActive,
		"availableTo": bson.M{"$lte": now},
	}
}

func cropExpiryUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":    models.CropStatusExpired,
			"updatedAt": now,
		},
	}
}

// ExpireRequests moves unanswered requests past their deadline to expired.
func (s *Scheduler) ExpireRequests() {
	now := time.Now()

	result, err := s.db.Collection("requests").UpdateMany(context.Background(),
		requestExpiryFilter(now), requestExpiryUpdate(now))
	if err != nil {
		log.Printf("CRITICAL: request expiry sweep failed: %v", err)
		return
	}
	if result.ModifiedCount > 0 {
		log.Printf("Expired %d stale requests", result.ModifiedCount)
	}
}

// ExpireCrops marks active listings past their availability window as expired.
func (s *Scheduler) ExpireCrops() {
	now := time.Now()

	result, err := s.db.Collection("crops").UpdateMany(context.Background(),
		cropExpiryFilter(now), cropExpiryUpdate(now))
	if err != nil {
		log.Printf("CRITICAL: crop expiry sweep failed: %v", err)
		return
	}
	if result.ModifiedCount > 0 {
		log.Printf("Expired %d crop listings", result.ModifiedCount)
	}
}
