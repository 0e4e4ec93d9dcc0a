package model

import (
	"time"

	"github.com/google/uuid"
)

// Seller is the store profile bound to an authenticated session.
type Seller struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	StoreName string `json:"name"`
	Location  string `json:"location"`
	Phone     string `json:"phone,omitempty"`
}

// SellerRow is a row of the sellers table.
type SellerRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	StoreName string    `db:"store_name"`
	Location  string    `db:"location"`
	Phone     *string   `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
}

// ToSeller maps the row into the session-facing seller identity.
func (r SellerRow) ToSeller() *Seller {
	s := &Seller{
		ID:        r.ID.String(),
		OwnerID:   r.UserID.String(),
		StoreName: r.StoreName,
		Location:  r.Location,
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	return s
}
