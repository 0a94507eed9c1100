package ledger

import (
	"context"

	"agri-market-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CropStore is the narrow persistence surface the ledger needs for crops.
type CropStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	Save(ctx context.Context, crop *models.Crop) error
}

// RequestStore is the narrow persistence surface the ledger needs for requests.
type RequestStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	Insert(ctx context.Context, req *models.Request) error

	// ReplaceWithStatusGuard writes the full request document only when the
	// stored status is still one of `from`. Returns false when the guard did
	// not match, so two racing transitions cannot both win.
	ReplaceWithStatusGuard(ctx context.Context, req *models.Request, from []string) (bool, error)
}
