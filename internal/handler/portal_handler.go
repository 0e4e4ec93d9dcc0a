package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gidersen/internal/model"
	"gidersen/internal/storage"

	"github.com/rs/zerolog"
)

const (
	defaultMaxUpload = 5 << 20
	msgBadForm       = "Form okunamadı."
	msgBadPrice      = "Fiyat alanları sayı olmalı."
	msgImageTooLarge = "Görsel çok büyük."
)

var errImageTooLarge = errors.New("image exceeds upload limit")

// PortalHandler handles the seller portal form posts. Every action ends in
// a redirect to the path the controller navigated to.
type PortalHandler struct {
	sessions  Sessions
	maxUpload int64
	logger    zerolog.Logger
}

// NewPortalHandler creates a new portal handler. maxUpload bounds the
// multipart listing form; zero uses 5 MiB.
func NewPortalHandler(sessions Sessions, maxUpload int64, logger zerolog.Logger) *PortalHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &PortalHandler{
		sessions:  sessions,
		maxUpload: maxUpload,
		logger:    logger.With().Str("handler", "portal").Logger(),
	}
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// Login handles POST /firm/login.
func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)

	if err := c.SignIn(r.Context(), field(r, "email"), r.PostFormValue("password")); err != nil {
		h.logger.Info().Err(err).Msg("sign in rejected")
	}
	redirect(w, r, c)
}

// Register handles POST /firm/register.
func (h *PortalHandler) Register(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)

	err := c.SignUp(r.Context(), model.SignUpInput{
		Email:     field(r, "email"),
		Password:  r.PostFormValue("password"),
		StoreName: field(r, "storeName"),
		Location:  field(r, "location"),
	})
	if err != nil {
		h.logger.Info().Err(err).Msg("registration incomplete")
		if !errors.Is(err, model.ErrProfileCreation) {
			http.Redirect(w, r, "/firm?mode=register", http.StatusSeeOther)
			return
		}
	}
	redirect(w, r, c)
}

// Profile handles POST /firm/profile.
func (h *PortalHandler) Profile(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)

	err := c.CompleteProfile(r.Context(), model.ProfileInput{
		StoreName: field(r, "storeName"),
		Location:  field(r, "location"),
		Phone:     field(r, "phone"),
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("profile completion failed")
	}
	redirect(w, r, c)
}

// Logout handles POST /firm/logout.
func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)
	c.SignOut(r.Context())
	redirect(w, r, c)
}

// AddProduct handles POST /firm/products. The image field is optional.
func (h *PortalHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.ReportError(msgImageTooLarge)
		} else {
			c.ReportError(msgBadForm)
		}
		h.logger.Warn().Err(err).Msg("listing form rejected")
		redirect(w, r, c)
		return
	}

	in, err := parseListing(r)
	if err != nil {
		c.ReportError(msgBadPrice)
		redirect(w, r, c)
		return
	}

	image, err := readImage(r, h.maxUpload)
	if errors.Is(err, errImageTooLarge) {
		h.logger.Warn().Err(err).Int64("limit", h.maxUpload).Msg("listing image rejected")
		c.ReportError(msgImageTooLarge)
		redirect(w, r, c)
		return
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("listing image unreadable, continuing without it")
	}

	if err := c.AddProduct(r.Context(), in, image); err != nil {
		h.logger.Warn().Err(err).Msg("listing not published")
	}
	redirect(w, r, c)
}

// DeleteProduct handles POST /firm/products/{id}/delete.
func (h *PortalHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c := controller(h.sessions, r)

	if err := c.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.logger.Warn().Err(err).Str("product_id", r.PathValue("id")).Msg("listing not deleted")
	}
	redirect(w, r, c)
}

func parseListing(r *http.Request) (model.ProductInput, error) {
	market, err := parsePrice(r.PostFormValue("marketPrice"))
	if err != nil {
		return model.ProductInput{}, err
	}
	gidersen, err := parsePrice(r.PostFormValue("gidersenPrice"))
	if err != nil {
		return model.ProductInput{}, err
	}
	return model.ProductInput{
		Name:             field(r, "name"),
		Category:         field(r, "category"),
		MarketplacePrice: market,
		GidersenPrice:    gidersen,
	}, nil
}

// parsePrice accepts "12500", "12500.50" and "12500,50".
func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return v, nil
}

// readImage returns the uploaded image, or nil when none was sent. Images
// larger than limit fail with errImageTooLarge. The stored content type is
// the client's only when it names a raster image; otherwise it is derived
// from the file extension.
func readImage(r *http.Request, limit int64) (*model.ImageFile, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %q is over %d bytes", errImageTooLarge, header.Filename, limit)
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") || contentType == "image/svg+xml" {
		contentType = storage.ContentTypeFor(header.Filename)
	}

	return &model.ImageFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
