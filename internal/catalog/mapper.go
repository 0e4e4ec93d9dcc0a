package catalog

import (
	"fmt"
	"path"
	"strings"
	"time"

	"gidersen/internal/model"
)

// URLResolver maps a stored object key to its public URL.
type URLResolver interface {
	URL(key string) string
}

// ResolveImageURL resolves a stored image reference. Empty references mean
// no image, absolute http(s) references pass through unchanged, and anything
// else is treated as a key in the product image bucket.
func ResolveImageURL(ref string, resolver URLResolver) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http"):
		return ref
	case resolver == nil:
		return ""
	default:
		return resolver.URL(ref)
	}
}

// MapProduct flattens a joined product row into the storefront view model.
// A row without a seller keeps empty seller fields.
func MapProduct(row model.ProductRow, resolver URLResolver) model.Product {
	p := model.Product{
		ID:               row.ID.String(),
		Name:             row.Name,
		Category:         row.Category,
		MarketplacePrice: row.MarketplacePrice,
		GidersenPrice:    row.GidersenPrice,
		CreatedAt:        row.CreatedAt,
	}

	if row.ImagePath != nil {
		p.ImageURL = ResolveImageURL(*row.ImagePath, resolver)
	}

	if row.Seller != nil {
		p.SellerID = row.Seller.ID.String()
		p.SellerName = row.Seller.StoreName
		p.Location = row.Seller.Location
		if row.Seller.Phone != nil {
			p.Phone = *row.Seller.Phone
		}
	} else if row.SellerID != nil {
		p.SellerID = row.SellerID.String()
	}

	return p
}

// MapProducts maps rows preserving order.
func MapProducts(rows []model.ProductRow, resolver URLResolver) []model.Product {
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, MapProduct(row, resolver))
	}
	return products
}

// ImageKey builds the seller-scoped, time-uniqued object key
// {sellerID}/{unixMillis}.{ext}.
func ImageKey(sellerID string, now time.Time, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", sellerID, now.UnixMilli(), ext)
}
