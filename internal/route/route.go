// Package route classifies request paths into the storefront's top-level views.
package route

import "strings"

// View is one of the named top-level pages.
type View string

const (
	Home          View = "home"
	HowItWorks    View = "how-it-works"
	Products      View = "products"
	ProductDetail View = "product-detail"
	FirmPortal    View = "firm-portal"
)

// Canonical paths.
const (
	PathHome       = "/"
	PathHowItWorks = "/how-it-works"
	PathProducts   = "/products"
	PathProduct    = "/product/"
	PathFirm       = "/firm"
)

// Classify maps a path to its view. Checks are ordered so the most specific
// prefix wins; anything unmatched is home.
func Classify(path string) View {
	switch {
	case strings.HasPrefix(path, PathHowItWorks):
		return HowItWorks
	case strings.HasPrefix(path, PathProducts):
		return Products
	case strings.HasPrefix(path, PathProduct):
		return ProductDetail
	case strings.HasPrefix(path, PathFirm):
		return FirmPortal
	default:
		return Home
	}
}

// PathFor returns the path to navigate to for a view. A product detail
// without an id falls back to the listing.
func PathFor(v View, productID string) string {
	switch v {
	case Products:
		return PathProducts
	case HowItWorks:
		return PathHowItWorks
	case FirmPortal:
		return PathFirm
	case ProductDetail:
		if productID == "" {
			return PathProducts
		}
		return PathProduct + productID
	default:
		return PathHome
	}
}

// ProductID extracts :id from /product/:id.
func ProductID(path string) (string, bool) {
	if !strings.HasPrefix(path, PathProduct) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(path, PathProduct), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// Known reports whether path is one of the routed pages. Unknown paths are
// redirected home.
func Known(path string) bool {
	switch path {
	case PathHome, PathHowItWorks, PathProducts, PathFirm:
		return true
	}
	_, ok := ProductID(path)
	return ok
}

// Canonical returns the served form of a known path. A product path with a
// trailing slash loses it; every other path is returned unchanged.
func Canonical(path string) string {
	if id, ok := ProductID(path); ok {
		return PathProduct + id
	}
	return path
}

// Resolve returns the view for path and whether the caller should be
// redirected to the home page instead.
func Resolve(path string) (View, bool) {
	if !Known(path) {
		return Home, true
	}
	return Classify(path), false
}
