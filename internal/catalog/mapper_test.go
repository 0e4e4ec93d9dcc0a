package catalog

import (
	"testing"
	"time"

	"gidersen/internal/model"
	"gidersen/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveImageURL(t *testing.T) {
	resolver := storage.NewPublicURLResolver("https://project.example.co", "product-images")

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{name: "Empty reference has no image", ref: "", expected: ""},
		{name: "Absolute https passes through", ref: "https://images.example.com/a.jpg", expected: "https://images.example.com/a.jpg"},
		{name: "Absolute http passes through", ref: "http://cdn.example.com/b.png", expected: "http://cdn.example.com/b.png"},
		{name: "Storage key resolves against bucket", ref: "s1/1700000000000.jpg", expected: "https://project.example.co/storage/v1/object/public/product-images/s1/1700000000000.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveImageURL(tt.ref, resolver))
		})
	}
}

func TestMapProduct(t *testing.T) {
	resolver := storage.NewPublicURLResolver("https://project.example.co", "product-images")
	now := time.Now()
	sellerID := uuid.New()
	phone := "0212 000 00 00"
	image := "key.png"

	row := model.ProductRow{
		ID:               uuid.New(),
		SellerID:         &sellerID,
		Name:             "Mouse",
		Category:         "Elektronik",
		MarketplacePrice: 4200,
		GidersenPrice:    3500,
		ImagePath:        &image,
		IsActive:         true,
		CreatedAt:        now,
		Seller: &model.SellerRef{
			ID:        sellerID,
			StoreName: "Teknoloji Dünyası",
			Location:  "Kadıköy, İstanbul",
			Phone:     &phone,
		},
	}

	p := MapProduct(row, resolver)
	assert.Equal(t, row.ID.String(), p.ID)
	assert.Equal(t, sellerID.String(), p.SellerID)
	assert.Equal(t, "Teknoloji Dünyası", p.SellerName)
	assert.Equal(t, "Kadıköy, İstanbul", p.Location)
	assert.Equal(t, phone, p.Phone)
	assert.Equal(t, "https://project.example.co/storage/v1/object/public/product-images/key.png", p.ImageURL)
	assert.Equal(t, now, p.CreatedAt)

	t.Run("No associated seller maps to empty fields", func(t *testing.T) {
		orphan := row
		orphan.Seller = nil
		orphan.SellerID = nil
		orphan.ImagePath = nil

		p := MapProduct(orphan, resolver)
		assert.Empty(t, p.SellerID)
		assert.Empty(t, p.SellerName)
		assert.Empty(t, p.Location)
		assert.Empty(t, p.Phone)
		assert.False(t, p.HasImage())
		assert.Equal(t, "Mouse", p.Name)
	})
}

func TestImageKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	assert.Equal(t, "seller-1/1700000000123.jpg", ImageKey("seller-1", at, "Photo.JPG"))
	assert.Equal(t, "seller-1/1700000000123.webp", ImageKey("seller-1", at, "dir/x.webp"))
	assert.Equal(t, "seller-1/1700000000123.bin", ImageKey("seller-1", at, "noext"))
}
