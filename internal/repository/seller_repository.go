package repository

import (
	"context"
	"errors"
	"fmt"

	"gidersen/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// sellerRepository implements the SellerRepository interface using PostgreSQL.
type sellerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSellerRepository creates a new PostgreSQL-backed seller repository.
func NewSellerRepository(pool *pgxpool.Pool, logger zerolog.Logger) SellerRepository {
	return &sellerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "seller").Logger(),
	}
}

// GetByUserID retrieves the profile owned by an auth user.
func (r *sellerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.SellerRow, error) {
	query := `
		SELECT id, user_id, store_name, location, phone, created_at
		FROM sellers
		WHERE user_id = $1
	`

	var s model.SellerRow
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.StoreName, &s.Location, &s.Phone, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("user_id", userID.String()).Msg("seller profile not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query seller")
		return nil, fmt.Errorf("failed to query seller: %w", err)
	}

	return &s, nil
}

// Create inserts a profile for an auth user.
func (r *sellerRepository) Create(ctx context.Context, userID uuid.UUID, storeName, location string, phone *string) (*model.SellerRow, error) {
	query := `
		INSERT INTO sellers (user_id, store_name, location, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, store_name, location, phone, created_at
	`

	var s model.SellerRow
	err := r.pool.QueryRow(ctx, query, userID, storeName, location, phone).Scan(
		&s.ID, &s.UserID, &s.StoreName, &s.Location, &s.Phone, &s.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create seller")
		return nil, fmt.Errorf("failed to create seller: %w", err)
	}

	r.logger.Info().
		Str("seller_id", s.ID.String()).
		Str("user_id", userID.String()).
		Msg("seller profile created")

	return &s, nil
}
