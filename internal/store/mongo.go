// Package store provides the Mongo-backed implementations of the ledger's
// CropStore and RequestStore interfaces.
package store

import (
	"context"

	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CropStore struct {
	coll *mongo.Collection
}

func NewCropStore(db *mongo.Database) *CropStore {
	return &CropStore{coll: db.Collection("crops")}
}

func (s *CropStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Crop, error) {
	var crop models.Crop
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&crop)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ledger.ErrCropNotFound
		}
		return nil, err
	}
	return &crop, nil
}

func (s *CropStore) Save(ctx context.Context, crop *models.Crop) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": crop.ID}, crop)
	return err
}

type RequestStore struct {
	coll *mongo.Collection
}

func NewRequestStore(db *mongo.Database) *RequestStore {
	return &RequestStore{coll: db.Collection("requests")}
}

func (s *RequestStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ledger.ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *RequestStore) Insert(ctx context.Context, req *models.Request) error {
	result, err := s.coll.InsertOne(ctx, req)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}
	return nil
}

// ReplaceWithStatusGuard is the "whoever is faster" write: the filter pins the
// previous status, so a concurrent transition makes MatchedCount zero instead
// of silently overwriting.
func (s *RequestStore) ReplaceWithStatusGuard(ctx context.Context, req *models.Request, from []string) (bool, error) {
	filter := bson.M{
		"_id":    req.ID,
		"status": bson.M{"$in": from},
	}
	result, err := s.coll.ReplaceOne(ctx, filter, req)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
