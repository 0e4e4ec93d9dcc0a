package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gidersen/internal/catalog"
	"gidersen/internal/identity"
	"gidersen/internal/metrics"
	"gidersen/internal/model"
	"gidersen/internal/route"

	"github.com/rs/zerolog"
)

// AuthManager is the auth session of one browser session.
type AuthManager interface {
	Session(ctx context.Context) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignUp(ctx context.Context, email, password string) (*identity.User, *identity.Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn identity.Listener) (unsubscribe func())
}

// User-facing messages.
const (
	msgSignInFailed    = "Giriş başarısız: "
	msgSignUpFailed    = "Kayıt başarısız: "
	msgProfileFailed   = "Mağaza profili kaydedilemedi: "
	msgAddFailed       = "İlan yayınlanamadı: "
	msgDeleteFailed    = "İlan silinemedi: "
	msgConfirmEmail    = "Hesabınız oluşturuldu. E-postanızı onayladıktan sonra giriş yapabilirsiniz."
	msgListingAdded    = "İlanınız yayında."
	msgListingRemoved  = "İlan kaldırıldı."
	msgProfileComplete = "Mağaza profiliniz hazır."
)

// Controller is the state container of one browser session. State writes
// are serialized under mu; remote calls run without holding it.
type Controller struct {
	catalog catalog.Adapter
	auth    AuthManager
	metrics metrics.Recorder
	logger  zerolog.Logger

	mu         sync.RWMutex
	state      State
	closed     bool
	inflight   int
	refreshSeq uint64
	appliedSeq uint64

	initOnce    sync.Once
	initErr     error
	unsubscribe func()
	tasks       *taskGroup
}

// NewController creates a Controller at the home view with an empty catalog.
func NewController(adapter catalog.Adapter, auth AuthManager, rec metrics.Recorder, logger zerolog.Logger) *Controller {
	if rec == nil {
		rec = metrics.Nop{}
	}
	c := &Controller{
		catalog: adapter,
		auth:    auth,
		metrics: rec,
		logger:  logger.With().Str("component", "storefront").Logger(),
		tasks:   newTaskGroup(),
	}
	c.state.navigate(route.PathHome)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Flash returns and clears the error and notice messages.
func (c *Controller) Flash() (errMsg, notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	errMsg, notice = c.state.Error, c.state.Notice
	c.state.Error, c.state.Notice = "", ""
	return errMsg, notice
}

// update applies fn to the state. Writes after Close are dropped.
func (c *Controller) update(fn func(s *State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	fn(&c.state)
	return true
}

func (c *Controller) fail(msg string) {
	c.update(func(s *State) {
		s.Error = msg
		s.Notice = ""
	})
}

// ReportError shows msg in the error slot. Used for input the view layer
// rejects before any operation runs.
func (c *Controller) ReportError(msg string) {
	c.fail(msg)
}

func (c *Controller) seller() *model.Seller {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Seller == nil {
		return nil
	}
	seller := *c.state.Seller
	return &seller
}

// InitializeSession restores the auth session and resolves the seller
// profile, then follows session changes. Only the first call does work.
func (c *Controller) InitializeSession(ctx context.Context) error {
	c.initOnce.Do(func() {
		ctx, done := c.tasks.start(ctx)
		defer done()

		s, err := c.auth.Session(ctx)
		unsubscribe := c.auth.Subscribe(c.onAuthEvent)
		if !c.update(func(*State) { c.unsubscribe = unsubscribe }) {
			unsubscribe()
			return
		}

		if err != nil {
			c.initErr = fmt.Errorf("failed to restore auth session: %w", err)
			c.logger.Warn().Err(err).Msg("auth session not restored")
			return
		}
		if s != nil {
			c.initErr = c.resolveSeller(ctx, s)
		}
	})
	return c.initErr
}

func (c *Controller) onAuthEvent(ctx context.Context, event identity.Event, s *identity.Session) {
	c.logger.Debug().Str("event", string(event)).Msg("auth session changed")
	if s == nil {
		c.clearSeller()
		return
	}
	if err := c.resolveSeller(ctx, s); err != nil {
		c.logger.Warn().Err(err).Msg("seller profile not resolved")
	}
}

func (c *Controller) resolveSeller(ctx context.Context, s *identity.Session) error {
	seller, err := c.catalog.FindSeller(ctx, s.UserID)
	if err != nil {
		c.update(func(st *State) {
			st.Seller = nil
			st.PendingProfile = false
			st.Account = s.Email
		})
		return fmt.Errorf("failed to resolve seller: %w", err)
	}

	c.update(func(st *State) {
		st.Seller = seller
		st.PendingProfile = seller == nil
		st.Account = s.Email
	})
	return nil
}

func (c *Controller) clearSeller() {
	c.update(func(st *State) {
		st.Seller = nil
		st.PendingProfile = false
		st.Account = ""
	})
}

// RefreshCatalog replaces the snapshot with the current active catalog. On
// failure the previous snapshot is kept.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	var seq uint64
	c.update(func(s *State) {
		c.inflight++
		c.refreshSeq++
		seq = c.refreshSeq
		s.Loading = true
	})

	ctx, done := c.tasks.start(ctx)
	products, err := c.catalog.ListActive(ctx)
	done()
	c.metrics.CatalogRefresh(err)

	c.update(func(s *State) {
		c.inflight--
		s.Loading = c.inflight > 0
		if err == nil && seq > c.appliedSeq {
			c.appliedSeq = seq
			s.Catalog = products
		}
	})

	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	return nil
}

// SignIn signs the seller in and opens the portal.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if err := model.Validate(model.SignInInput{Email: email, Password: password}); err != nil {
		c.fail(err.Error())
		return err
	}

	ctx, done := c.tasks.start(ctx)
	defer done()

	_, err := c.auth.SignIn(ctx, email, password)
	c.metrics.AuthAttempt("sign_in", err)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.fail(model.ErrInvalidCredentials.Message)
			return model.ErrInvalidCredentials
		}
		c.logger.Error().Err(err).Msg("sign in failed")
		c.fail(msgSignInFailed + err.Error())
		return fmt.Errorf("failed to sign in: %w", err)
	}

	c.update(func(s *State) {
		s.Error = ""
		s.navigate(route.PathFirm)
	})
	return nil
}

// SignUp creates the account and then its seller profile. When the profile
// cannot be stored the fresh session is signed out again and the account is
// left for CompleteProfile on the next sign-in.
func (c *Controller) SignUp(ctx context.Context, in model.SignUpInput) error {
	if err := model.Validate(in); err != nil {
		c.fail(err.Error())
		return err
	}

	ctx, done := c.tasks.start(ctx)
	defer done()

	user, session, err := c.auth.SignUp(ctx, in.Email, in.Password)
	c.metrics.AuthAttempt("sign_up", err)
	if err != nil {
		c.logger.Error().Err(err).Msg("sign up failed")
		c.fail(msgSignUpFailed + err.Error())
		return fmt.Errorf("failed to sign up: %w", err)
	}

	seller, err := c.catalog.CreateSeller(ctx, user.ID, model.ProfileInput{
		StoreName: in.StoreName,
		Location:  in.Location,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("user_id", user.ID).Msg("account created without seller profile")
		if session != nil {
			if outErr := c.auth.SignOut(ctx); outErr != nil {
				c.logger.Warn().Err(outErr).Msg("compensating sign out failed")
			}
		}
		c.update(func(s *State) {
			s.Seller = nil
			s.PendingProfile = false
			s.Error = model.ErrProfileCreation.Message
			s.Notice = ""
		})
		return fmt.Errorf("%w: %w", model.ErrProfileCreation, err)
	}

	if session == nil {
		c.update(func(s *State) {
			s.Error = ""
			s.Notice = msgConfirmEmail
		})
		return nil
	}

	c.update(func(s *State) {
		s.Seller = seller
		s.PendingProfile = false
		s.Account = session.Email
		s.Error = ""
		s.navigate(route.PathFirm)
	})
	return nil
}

// CompleteProfile creates the seller profile for a signed-in account that
// has none.
func (c *Controller) CompleteProfile(ctx context.Context, in model.ProfileInput) error {
	if err := model.Validate(in); err != nil {
		c.fail(err.Error())
		return err
	}

	ctx, done := c.tasks.start(ctx)
	defer done()

	session, err := c.auth.Session(ctx)
	if err != nil {
		c.fail(msgProfileFailed + err.Error())
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		c.fail(model.ErrNotAuthenticated.Message)
		return model.ErrNotAuthenticated
	}

	seller, err := c.catalog.CreateSeller(ctx, session.UserID, in)
	if err != nil {
		c.logger.Error().Err(err).Str("user_id", session.UserID).Msg("profile completion failed")
		c.fail(msgProfileFailed + err.Error())
		return fmt.Errorf("failed to complete profile: %w", err)
	}

	c.update(func(s *State) {
		s.Seller = seller
		s.PendingProfile = false
		s.Error = ""
		s.Notice = msgProfileComplete
		s.navigate(route.PathFirm)
	})
	return nil
}

// SignOut ends the auth session and returns to the home view. The remote
// revocation is best effort.
func (c *Controller) SignOut(ctx context.Context) error {
	ctx, done := c.tasks.start(ctx)
	defer done()

	err := c.auth.SignOut(ctx)
	c.metrics.AuthAttempt("sign_out", err)
	if err != nil {
		c.logger.Warn().Err(err).Msg("remote sign out failed")
	}

	c.update(func(s *State) {
		s.Seller = nil
		s.PendingProfile = false
		s.Account = ""
		s.navigate(route.PathHome)
	})
	return nil
}

// AddProduct publishes a listing for the signed-in seller. A failed image
// upload does not stop the listing; it is published without an image.
func (c *Controller) AddProduct(ctx context.Context, in model.ProductInput, image *model.ImageFile) error {
	seller := c.seller()
	if seller == nil {
		c.fail(model.ErrNotAuthenticated.Message)
		return model.ErrNotAuthenticated
	}
	if err := model.Validate(in); err != nil {
		c.fail(err.Error())
		return err
	}

	ctx, done := c.tasks.start(ctx)
	defer done()

	var imagePath string
	if image != nil && len(image.Data) > 0 {
		key, err := c.catalog.UploadImage(ctx, seller.ID, *image)
		if err != nil {
			c.metrics.ImageUploadFailed()
			c.logger.Warn().Err(err).Str("seller_id", seller.ID).Msg("image upload failed, publishing without image")
		} else {
			imagePath = key
		}
	}

	id, err := c.catalog.CreateListing(ctx, seller.ID, in, imagePath)
	if err != nil {
		c.logger.Error().Err(err).Str("seller_id", seller.ID).Msg("listing insert failed")
		c.fail(msgAddFailed + err.Error())
		return fmt.Errorf("failed to add product: %w", err)
	}
	c.logger.Info().Str("product_id", id).Str("seller_id", seller.ID).Msg("listing published")

	if err := c.RefreshCatalog(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("catalog refresh after insert failed")
	}

	c.update(func(s *State) {
		s.Error = ""
		s.Notice = msgListingAdded
		s.navigate(route.PathFirm)
	})
	return nil
}

// DeleteProduct deactivates a listing of the signed-in seller and drops it
// from the snapshot. Refreshes started before the delete finished are not
// applied afterwards.
func (c *Controller) DeleteProduct(ctx context.Context, productID string) error {
	seller := c.seller()
	if seller == nil {
		c.fail(model.ErrNotAuthenticated.Message)
		return model.ErrNotAuthenticated
	}

	ctx, done := c.tasks.start(ctx)
	defer done()

	if err := c.catalog.DeactivateListing(ctx, productID, seller.ID); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			c.fail(model.ErrProductNotFound.Message)
			return err
		}
		c.logger.Error().Err(err).Str("product_id", productID).Msg("listing delete failed")
		c.fail(msgDeleteFailed + err.Error())
		return fmt.Errorf("failed to delete product: %w", err)
	}

	c.update(func(s *State) {
		kept := make([]model.Product, 0, len(s.Catalog))
		for _, p := range s.Catalog {
			if p.ID != productID {
				kept = append(kept, p)
			}
		}
		s.Catalog = kept
		c.appliedSeq = c.refreshSeq
		if s.Selected != nil && s.Selected.ID == productID {
			s.Selected = nil
		}
		s.Error = ""
		s.Notice = msgListingRemoved
	})
	return nil
}

// Navigate moves to path and closes the menu.
func (c *Controller) Navigate(path string) {
	c.update(func(s *State) { s.navigate(path) })
}

// NavigateTo moves to the path of view. A non-nil product becomes the
// selected product.
func (c *Controller) NavigateTo(view route.View, product *model.Product) {
	id := ""
	if product != nil {
		id = product.ID
	}
	path := route.PathFor(view, id)

	c.update(func(s *State) {
		if product != nil {
			p := *product
			s.Selected = &p
		}
		s.navigate(path)
	})
}

// ProductDetail returns the product for a detail view: the selected product
// when its id matches, otherwise the snapshot entry. A snapshot miss
// triggers one full refresh. It returns nil when the product does not exist.
func (c *Controller) ProductDetail(ctx context.Context, id string) (*model.Product, error) {
	lookup := func() *model.Product {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.state.Selected != nil && c.state.Selected.ID == id {
			p := *c.state.Selected
			return &p
		}
		return findProduct(c.state.Catalog, id)
	}

	if p := lookup(); p != nil {
		c.NavigateTo(route.ProductDetail, p)
		return p, nil
	}

	if err := c.RefreshCatalog(ctx); err != nil {
		return nil, err
	}

	p := lookup()
	if p != nil {
		c.NavigateTo(route.ProductDetail, p)
	}
	return p, nil
}

// ToggleMenu opens or closes the mobile menu.
func (c *Controller) ToggleMenu() {
	c.update(func(s *State) { s.MenuOpen = !s.MenuOpen })
}

// SetMapView switches the listing between list and map mode.
func (c *Controller) SetMapView(on bool) {
	c.update(func(s *State) { s.MapView = on })
}

// MyListings returns the snapshot entries of the signed-in seller.
func (c *Controller) MyListings() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state.Seller == nil {
		return nil
	}
	var mine []model.Product
	for _, p := range c.state.Catalog {
		if p.SellerID == c.state.Seller.ID {
			mine = append(mine, p)
		}
	}
	return mine
}

// Close cancels in-flight work and stops following auth events. State is
// frozen afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.tasks.close()
}
