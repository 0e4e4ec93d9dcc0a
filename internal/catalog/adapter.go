// Package catalog translates catalog-store rows into storefront view models
// and owns listing image uploads.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gidersen/internal/model"
	"gidersen/internal/repository"
	"gidersen/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Adapter is the data access boundary used by the storefront controller.
type Adapter interface {
	// ListActive returns the full active catalog, newest first.
	ListActive(ctx context.Context) ([]model.Product, error)

	// CreateListing inserts an active listing for sellerID and returns its ID.
	// imagePath may be empty.
	CreateListing(ctx context.Context, sellerID string, in model.ProductInput, imagePath string) (string, error)

	// DeactivateListing soft deletes a listing owned by sellerID.
	DeactivateListing(ctx context.Context, productID, sellerID string) error

	// FindSeller returns the profile owned by an auth user, or nil when absent.
	FindSeller(ctx context.Context, ownerID string) (*model.Seller, error)

	// CreateSeller inserts a profile for an auth user.
	CreateSeller(ctx context.Context, ownerID string, in model.ProfileInput) (*model.Seller, error)

	// UploadImage stores a listing image under a seller-scoped key and returns the key.
	UploadImage(ctx context.Context, sellerID string, img model.ImageFile) (string, error)
}

// adapter implements Adapter over the repositories and object store.
type adapter struct {
	products repository.ProductRepository
	sellers  repository.SellerRepository
	store    storage.ObjectStore
	resolver URLResolver
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures the adapter.
type Option func(*adapter)

// WithClock overrides the time source used for image keys.
func WithClock(now func() time.Time) Option {
	return func(a *adapter) { a.now = now }
}

// NewAdapter creates the catalog adapter.
func NewAdapter(
	products repository.ProductRepository,
	sellers repository.SellerRepository,
	store storage.ObjectStore,
	resolver URLResolver,
	logger zerolog.Logger,
	opts ...Option,
) Adapter {
	a := &adapter{
		products: products,
		sellers:  sellers,
		store:    store,
		resolver: resolver,
		now:      time.Now,
		logger:   logger.With().Str("component", "catalog-adapter").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListActive returns the full active catalog, newest first.
func (a *adapter) ListActive(ctx context.Context) ([]model.Product, error) {
	rows, err := a.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return MapProducts(rows, a.resolver), nil
}

// CreateListing inserts an active listing for sellerID.
func (a *adapter) CreateListing(ctx context.Context, sellerID string, in model.ProductInput, imagePath string) (string, error) {
	sid, err := uuid.Parse(sellerID)
	if err != nil {
		return "", model.ErrSellerNotFound
	}

	row := model.NewProductRow{
		SellerID:         sid,
		Name:             strings.TrimSpace(in.Name),
		Category:         strings.TrimSpace(in.Category),
		MarketplacePrice: in.MarketplacePrice,
		GidersenPrice:    in.GidersenPrice,
	}
	if imagePath != "" {
		row.ImagePath = &imagePath
	}

	id, err := a.products.Create(ctx, row)
	if err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}

	return id.String(), nil
}

// DeactivateListing soft deletes a listing owned by sellerID.
func (a *adapter) DeactivateListing(ctx context.Context, productID, sellerID string) error {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return model.ErrProductNotFound
	}
	sid, err := uuid.Parse(sellerID)
	if err != nil {
		return model.ErrSellerNotFound
	}

	return a.products.Deactivate(ctx, pid, sid)
}

// FindSeller returns the profile owned by an auth user.
func (a *adapter) FindSeller(ctx context.Context, ownerID string) (*model.Seller, error) {
	uid, err := uuid.Parse(ownerID)
	if err != nil {
		a.logger.Warn().Str("owner_id", ownerID).Msg("session owner is not a uuid")
		return nil, nil
	}

	row, err := a.sellers.GetByUserID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to find seller: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	return row.ToSeller(), nil
}

// CreateSeller inserts a profile for an auth user.
func (a *adapter) CreateSeller(ctx context.Context, ownerID string, in model.ProfileInput) (*model.Seller, error) {
	uid, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid session owner %q: %w", ownerID, err)
	}

	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}

	row, err := a.sellers.Create(ctx, uid, strings.TrimSpace(in.StoreName), strings.TrimSpace(in.Location), phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create seller profile: %w", err)
	}

	return row.ToSeller(), nil
}

// UploadImage stores a listing image and returns its key.
func (a *adapter) UploadImage(ctx context.Context, sellerID string, img model.ImageFile) (string, error) {
	if a.store == nil {
		return "", fmt.Errorf("image storage is not configured")
	}

	key := ImageKey(sellerID, a.now(), img.Filename)
	contentType := img.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeFor(img.Filename)
	}

	if err := a.store.Put(ctx, key, contentType, img.Data); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}
