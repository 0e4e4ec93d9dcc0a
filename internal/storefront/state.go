// Package storefront holds the per-browser application state: the catalog
// snapshot, the seller identity and the current view.
package storefront

import (
	"gidersen/internal/model"
	"gidersen/internal/route"
)

// State is a point-in-time copy of a Controller's state.
type State struct {
	Catalog []model.Product
	Loading bool

	// Seller is set only when an auth session and its seller profile both exist.
	Seller *model.Seller
	// PendingProfile marks a signed-in account that has no seller profile yet.
	PendingProfile bool
	Account        string

	Selected *model.Product
	Path     string
	View     route.View
	MenuOpen bool
	MapView  bool

	Error  string
	Notice string
}

// Authenticated reports whether a seller identity is present.
func (s State) Authenticated() bool {
	return s.Seller != nil
}

// Deals returns the first n products of the snapshot.
func (s State) Deals(n int) []model.Product {
	if n > len(s.Catalog) {
		n = len(s.Catalog)
	}
	return s.Catalog[:n]
}

func (s *State) clone() State {
	out := *s
	if s.Catalog != nil {
		out.Catalog = append([]model.Product(nil), s.Catalog...)
	}
	if s.Seller != nil {
		seller := *s.Seller
		out.Seller = &seller
	}
	if s.Selected != nil {
		p := *s.Selected
		out.Selected = &p
	}
	return out
}

func (s *State) navigate(path string) {
	s.Path = path
	s.View = route.Classify(path)
	s.MenuOpen = false
}

func findProduct(products []model.Product, id string) *model.Product {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p
		}
	}
	return nil
}
