package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Product is the flat listing shape rendered by the storefront.
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	SellerID         string    `json:"sellerId"`
	SellerName       string    `json:"firm"`
	Category         string    `json:"category"`
	MarketplacePrice float64   `json:"marketplacePrice"`
	GidersenPrice    float64   `json:"gidersenPrice"`
	ImageURL         string    `json:"image,omitempty"`
	Location         string    `json:"location"`
	Phone            string    `json:"phone,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// DiscountPercent returns the reduction of the gidersen price against the
// marketplace price, rounded and clamped to [0, 100]. ok is false when the
// marketplace price is not positive, in which case no badge is shown.
func (p Product) DiscountPercent() (pct int, ok bool) {
	return DiscountPercent(p.MarketplacePrice, p.GidersenPrice)
}

// HasImage reports whether the listing has a resolved image URL.
func (p Product) HasImage() bool {
	return p.ImageURL != ""
}

// DiscountPercent computes round(100 * (1 - discounted/reference)).
func DiscountPercent(reference, discounted float64) (int, bool) {
	if reference <= 0 || math.IsNaN(reference) || math.IsNaN(discounted) {
		return 0, false
	}

	pct := math.Round(100 * (1 - discounted/reference))
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}

	return int(pct), true
}

// ProductRow is a products row joined with its owning seller, as returned by
// the catalog store.
type ProductRow struct {
	ID               uuid.UUID  `db:"id"`
	SellerID         *uuid.UUID `db:"seller_id"`
	Name             string     `db:"name"`
	Category         string     `db:"category"`
	MarketplacePrice float64    `db:"marketplace_price"`
	GidersenPrice    float64    `db:"gidersen_price"`
	ImagePath        *string    `db:"image_path"`
	IsActive         bool       `db:"is_active"`
	CreatedAt        time.Time  `db:"created_at"`

	// Seller is nil when the listing has no associated seller row.
	Seller *SellerRef
}

// SellerRef holds the seller columns joined onto a product row.
type SellerRef struct {
	ID        uuid.UUID `db:"id"`
	StoreName string    `db:"store_name"`
	Location  string    `db:"location"`
	Phone     *string   `db:"phone"`
}

// NewProductRow is the insert payload for a listing.
type NewProductRow struct {
	SellerID         uuid.UUID
	Name             string
	Category         string
	MarketplacePrice float64
	GidersenPrice    float64
	ImagePath        *string
}

// Categories offered by the listing form.
var Categories = []string{
	"Elektronik",
	"Moda",
	"Ev & Yaşam",
	"Ev Aletleri",
	"Mobilya",
}
