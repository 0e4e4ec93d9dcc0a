package repository

import (
	"context"

	"gidersen/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the catalog data access operations.
type ProductRepository interface {
	// ListActive retrieves every active listing joined with its seller, newest first.
	ListActive(ctx context.Context) ([]model.ProductRow, error)

	// Create inserts an active listing and returns its ID.
	Create(ctx context.Context, p model.NewProductRow) (uuid.UUID, error)

	// Deactivate marks a listing owned by sellerID as inactive.
	// Returns model.ErrProductNotFound when no such active listing exists.
	Deactivate(ctx context.Context, id, sellerID uuid.UUID) error
}

// SellerRepository defines seller profile data access operations.
type SellerRepository interface {
	// GetByUserID retrieves the profile owned by an auth user. Returns nil, nil when absent.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.SellerRow, error)

	// Create inserts a profile for an auth user.
	Create(ctx context.Context, userID uuid.UUID, storeName, location string, phone *string) (*model.SellerRow, error)
}
