// Package storefronttest provides in-memory stand-ins for the catalog
// adapter and the auth service, for tests of code built on the storefront.
package storefronttest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gidersen/internal/identity"
	"gidersen/internal/model"
)

// Catalog is an in-memory catalog.Adapter. The exported error fields and
// Block are read on every call and may be set between calls.
type Catalog struct {
	mu        sync.Mutex
	products  []model.Product // newest first
	inactive  map[string]bool
	sellers   map[string]*model.Seller // by owner id
	nextID    int
	listCalls int
	uploads   []model.ImageFile

	ListErr         error
	CreateErr       error
	CreateSellerErr error
	UploadErr       error

	// Block, when non-nil, holds ListActive until it is closed or the
	// caller's context is done.
	Block chan struct{}
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		inactive: make(map[string]bool),
		sellers:  make(map[string]*model.Seller),
	}
}

// AddSeller stores a seller profile for ownerID.
func (f *Catalog) AddSeller(ownerID, id, name string) *model.Seller {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.Seller{ID: id, OwnerID: ownerID, StoreName: name, Location: "Kadıköy, İstanbul"}
	f.sellers[ownerID] = s
	return s
}

// Seed adds an active listing as the newest one.
func (f *Catalog) Seed(p model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append([]model.Product{p}, f.products...)
}

// ListCalls returns how many times ListActive was called.
func (f *Catalog) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// Products returns every stored listing, active or not.
func (f *Catalog) Products() []model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Product(nil), f.products...)
}

// SellerCount returns the number of stored seller profiles.
func (f *Catalog) SellerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sellers)
}

func (f *Catalog) ListActive(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	block := f.Block
	f.listCalls++
	listErr := f.ListErr
	var out []model.Product
	for _, p := range f.products {
		if !f.inactive[p.ID] {
			out = append(out, p)
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}
	return out, nil
}

func (f *Catalog) CreateListing(_ context.Context, sellerID string, in model.ProductInput, imagePath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return "", f.CreateErr
	}

	f.nextID++
	p := model.Product{
		ID:               fmt.Sprintf("p-%d", f.nextID),
		Name:             in.Name,
		SellerID:         sellerID,
		Category:         in.Category,
		MarketplacePrice: in.MarketplacePrice,
		GidersenPrice:    in.GidersenPrice,
		ImageURL:         imagePath,
		CreatedAt:        time.Now(),
	}
	for _, s := range f.sellers {
		if s.ID == sellerID {
			p.SellerName = s.StoreName
			p.Location = s.Location
		}
	}
	f.products = append([]model.Product{p}, f.products...)
	return p.ID, nil
}

func (f *Catalog) DeactivateListing(_ context.Context, productID, sellerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == productID && p.SellerID == sellerID && !f.inactive[p.ID] {
			f.inactive[p.ID] = true
			return nil
		}
	}
	return model.ErrProductNotFound
}

func (f *Catalog) FindSeller(_ context.Context, ownerID string) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sellers[ownerID]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (f *Catalog) CreateSeller(_ context.Context, ownerID string, in model.ProfileInput) (*model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateSellerErr != nil {
		return nil, f.CreateSellerErr
	}
	s := &model.Seller{ID: "seller-" + ownerID, OwnerID: ownerID, StoreName: in.StoreName, Location: in.Location, Phone: in.Phone}
	f.sellers[ownerID] = s
	out := *s
	return &out, nil
}

// UploadImage records img and returns a fixed key under the seller's prefix.
func (f *Catalog) UploadImage(_ context.Context, sellerID string, img model.ImageFile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	f.uploads = append(f.uploads, img)
	return sellerID + "/1700000000000.png", nil
}

// Uploads returns the images accepted by UploadImage.
func (f *Catalog) Uploads() []model.ImageFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ImageFile(nil), f.uploads...)
}

// Provider is an in-memory identity.Provider. Accounts maps email to
// password; set it before use.
type Provider struct {
	mu       sync.Mutex
	Accounts map[string]string
	signOuts int

	// Confirm makes SignUp return no session, as with email confirmation.
	Confirm    bool
	SignUpErr  error
	SignOutErr error
}

// NewProvider creates a Provider with no accounts.
func NewProvider() *Provider {
	return &Provider{Accounts: make(map[string]string)}
}

// UserID is the account id the Provider assigns to email.
func UserID(email string) string { return "user-" + email }

// Session builds the session the Provider issues for email.
func (p *Provider) Session(email string) *identity.Session {
	return &identity.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresAt:    time.Now().Add(time.Hour),
		UserID:       UserID(email),
		Email:        email,
	}
}

// SignOuts returns how many remote sign-outs were requested.
func (p *Provider) SignOuts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signOuts
}

func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pw, ok := p.Accounts[email]; !ok || pw != password {
		return nil, &identity.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return p.Session(email), nil
}

func (p *Provider) SignUp(_ context.Context, email, password string) (*identity.User, *identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SignUpErr != nil {
		return nil, nil, p.SignUpErr
	}
	if _, ok := p.Accounts[email]; ok {
		return nil, nil, &identity.APIError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	p.Accounts[email] = password
	user := &identity.User{ID: UserID(email), Email: email}
	if p.Confirm {
		return user, nil, nil
	}
	return user, p.Session(email), nil
}

func (p *Provider) Refresh(_ context.Context, _ string) (*identity.Session, error) {
	return nil, errors.New("refresh not supported")
}

func (p *Provider) SignOut(_ context.Context, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	return p.SignOutErr
}
