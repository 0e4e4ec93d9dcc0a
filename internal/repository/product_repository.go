package repository

import (
	"context"
	"fmt"

	"gidersen/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// ListActive retrieves every active listing joined with its seller, newest first.
func (r *productRepository) ListActive(ctx context.Context) ([]model.ProductRow, error) {
	query := `
		SELECT p.id, p.seller_id, p.name, p.category, p.marketplace_price, p.gidersen_price,
		       p.image_path, p.is_active, p.created_at,
		       s.id, s.store_name, s.location, s.phone
		FROM products p
		LEFT JOIN sellers s ON s.id = p.seller_id
		WHERE p.is_active
		ORDER BY p.created_at DESC, p.id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query active products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.ProductRow{}
	for rows.Next() {
		var (
			p           model.ProductRow
			sellerRowID *uuid.UUID
			storeName   *string
			location    *string
			phone       *string
		)
		err := rows.Scan(
			&p.ID, &p.SellerID, &p.Name, &p.Category, &p.MarketplacePrice, &p.GidersenPrice,
			&p.ImagePath, &p.IsActive, &p.CreatedAt,
			&sellerRowID, &storeName, &location, &phone,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		if sellerRowID != nil {
			p.Seller = &model.SellerRef{
				ID:        *sellerRowID,
				StoreName: deref(storeName),
				Location:  deref(location),
				Phone:     phone,
			}
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	r.logger.Debug().Int("count", len(products)).Msg("listed active products")

	return products, nil
}

// Create inserts an active listing and returns its ID.
func (r *productRepository) Create(ctx context.Context, p model.NewProductRow) (uuid.UUID, error) {
	query := `
		INSERT INTO products (seller_id, name, category, marketplace_price, gidersen_price, image_path, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		p.SellerID, p.Name, p.Category, p.MarketplacePrice, p.GidersenPrice, p.ImagePath,
	).Scan(&id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("seller_id", p.SellerID.String()).
			Msg("failed to create product")
		return uuid.Nil, fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().
		Str("product_id", id.String()).
		Str("seller_id", p.SellerID.String()).
		Msg("product created")

	return id, nil
}

// Deactivate marks a listing owned by sellerID as inactive.
func (r *productRepository) Deactivate(ctx context.Context, id, sellerID uuid.UUID) error {
	query := `
		UPDATE products
		SET is_active = FALSE
		WHERE id = $1 AND seller_id = $2 AND is_active
	`

	tag, err := r.pool.Exec(ctx, query, id, sellerID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to deactivate product")
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("product_id", id.String()).
			Str("seller_id", sellerID.String()).
			Msg("no active product owned by seller")
		return model.ErrProductNotFound
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
