package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gidersen/internal/catalog"
	"gidersen/internal/config"
	"gidersen/internal/handler"
	"gidersen/internal/identity"
	"gidersen/internal/metrics"
	"gidersen/internal/repository"
	"gidersen/internal/router"
	"gidersen/internal/slogan"
	"gidersen/internal/storage"
	"gidersen/internal/storefront"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	testDB *TestDB
	auth   *AuthServer
	images *MemoryObjectStore
	tokens identity.TokenStore
}

// newServer wires the storefront the way cmd/storefront does, against the
// test database and auth server. Servers built from the same stack share
// the token store, as replicas sharing Redis would.
func (s *stack) newServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	backend := config.BackendConfig{URL: s.auth.URL, AnonKey: "anon", JWTSecret: authSecret}
	provider := identity.NewClient(backend, logger)

	adapter := catalog.NewAdapter(
		repository.NewProductRepository(s.testDB.Pool, logger),
		repository.NewSellerRepository(s.testDB.Pool, logger),
		s.images,
		storage.NewPublicURLResolver(s.auth.URL, s.images.Bucket()),
		logger,
	)

	m := metrics.New()
	hub := storefront.NewHub(func(sid string) *storefront.Controller {
		return storefront.NewController(adapter, identity.NewManager(provider, s.tokens, sid, logger), m, logger)
	}, m, logger)
	t.Cleanup(hub.Close)

	renderer, err := handler.NewRenderer(logger)
	require.NoError(t, err)

	h := router.New(router.Handlers{
		Pages:   handler.NewPageHandler(hub, slogan.NewRotator(nil), slogan.DefaultInterval, renderer, logger),
		Portal:  handler.NewPortalHandler(hub, 0, logger),
		API:     handler.NewAPIHandler(hub, s.testDB.Pool, logger),
		Metrics: m,
	}, nil, config.SessionConfig{CookieName: "gidersen_sid"}, logger)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

type apiProduct struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SellerID        string  `json:"sellerId"`
	Firm            string  `json:"firm"`
	GidersenPrice   float64 `json:"gidersenPrice"`
	Image           string  `json:"image"`
	DiscountPercent *int    `json:"discountPercent"`
}

func listProducts(t *testing.T, c *http.Client, base string) []apiProduct {
	t.Helper()
	resp, err := c.Get(base + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []apiProduct
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func getPage(t *testing.T, c *http.Client, target string) (int, string) {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postListing(t *testing.T, c *http.Client, base, name string, image []byte) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("category", "Elektronik"))
	require.NoError(t, mw.WriteField("marketPrice", "4200"))
	require.NoError(t, mw.WriteField("gidersenPrice", "3500"))
	if image != nil {
		part, err := mw.CreateFormFile("image", "urun.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := c.Post(base+"/firm/products", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(page)
}

func TestStorefront_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := &stack{
		testDB: SetupTestDB(t),
		auth:   NewAuthServer(t),
		images: NewMemoryObjectStore(),
		tokens: identity.NewMemoryTokenStore(),
	}
	srv := s.newServer(t)

	t.Run("visitors see the active catalog", func(t *testing.T) {
		CleanupDB(t, s.testDB.Pool)
		id := SeedListing(t, s.testDB.Pool, "Mutfak Gereçleri A.Ş.", "Espresso Kahve Makinesi", 12500, 10800)

		visitor := newBrowser(t)
		products := listProducts(t, visitor, srv.URL)
		require.Len(t, products, 1)
		assert.Equal(t, id, products[0].ID)
		assert.Equal(t, "Mutfak Gereçleri A.Ş.", products[0].Firm)
		require.NotNil(t, products[0].DiscountPercent)
		assert.Equal(t, 14, *products[0].DiscountPercent)

		status, page := getPage(t, visitor, srv.URL+"/product/"+id)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, page, "Espresso Kahve Makinesi")

		status, _ = getPage(t, visitor, srv.URL+"/product/"+uuid.NewString())
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("seller registers, publishes and removes a listing", func(t *testing.T) {
		CleanupDB(t, s.testDB.Pool)
		seller := newBrowser(t)

		resp, err := seller.PostForm(srv.URL+"/firm/register", url.Values{
			"email":     {"firma@gidersen.com"},
			"password":  {"secret1"},
			"storeName": {"Teknoloji Dünyası"},
			"location":  {"Kadıköy, İstanbul"},
		})
		require.NoError(t, err)
		page, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, "/firm", resp.Request.URL.Path)
		assert.Contains(t, string(page), "Yayındaki İlanlarınız")

		ownerID := s.auth.UserID("firma@gidersen.com")
		require.NotEmpty(t, ownerID)
		var storeName string
		require.NoError(t, s.testDB.Pool.QueryRow(context.Background(),
			"SELECT store_name FROM sellers WHERE user_id = $1", ownerID).Scan(&storeName))
		assert.Equal(t, "Teknoloji Dünyası", storeName)

		page2 := postListing(t, seller, srv.URL, "Logitech MX Master 3S Mouse", []byte("\x89PNG\r\n\x1a\n"))
		assert.Contains(t, page2, "İlanınız yayında.")
		assert.Equal(t, 1, strings.Count(page2, "Logitech MX Master 3S Mouse"), "listing shows once in the dashboard")

		keys := s.images.Keys()
		require.Len(t, keys, 1)
		var key string
		for k, ct := range keys {
			key = k
			assert.Equal(t, "image/png", ct)
		}

		visitor := newBrowser(t)
		products := listProducts(t, visitor, srv.URL)
		require.Len(t, products, 1)
		assert.Equal(t, "Teknoloji Dünyası", products[0].Firm)
		assert.Equal(t, s.auth.URL+"/storage/v1/object/public/product-images/"+key, products[0].Image)

		resp, err = seller.PostForm(srv.URL+"/firm/products/"+products[0].ID+"/delete", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, listProducts(t, visitor, srv.URL))

		var active bool
		require.NoError(t, s.testDB.Pool.QueryRow(context.Background(),
			"SELECT is_active FROM products WHERE id = $1", products[0].ID).Scan(&active))
		assert.False(t, active, "delete is a soft delete")
	})

	t.Run("sessions survive a server restart", func(t *testing.T) {
		CleanupDB(t, s.testDB.Pool)
		seller := newBrowser(t)

		resp, err := seller.PostForm(srv.URL+"/firm/register", url.Values{
			"email":     {"kalici@gidersen.com"},
			"password":  {"secret1"},
			"storeName": {"Mobilya Trend"},
			"location":  {"Nilüfer, Bursa"},
		})
		require.NoError(t, err)
		resp.Body.Close()

		// Cookies are not port scoped, so the browser keeps its session id.
		replacement := s.newServer(t)

		_, page := getPage(t, seller, replacement.URL+"/firm")
		assert.Contains(t, page, "Mobilya Trend")
		assert.Contains(t, page, "Yayındaki İlanlarınız")
	})

	t.Run("wrong password and sign out", func(t *testing.T) {
		seller := newBrowser(t)

		resp, err := seller.PostForm(srv.URL+"/firm/login", url.Values{
			"email":    {"firma@gidersen.com"},
			"password": {"yanlis1"},
		})
		require.NoError(t, err)
		page, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Contains(t, string(page), "E-posta veya şifre hatalı.")

		resp, err = seller.PostForm(srv.URL+"/firm/login", url.Values{
			"email":    {"firma@gidersen.com"},
			"password": {"secret1"},
		})
		require.NoError(t, err)
		resp.Body.Close()

		before := s.auth.Logouts()
		resp, err = seller.PostForm(srv.URL+"/firm/logout", nil)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "/", resp.Request.URL.Path)
		assert.Equal(t, before+1, s.auth.Logouts())

		_, firm := getPage(t, seller, srv.URL+"/firm")
		assert.Contains(t, firm, `action="/firm/login"`)
	})

	t.Run("health reports the database", func(t *testing.T) {
		status, body := getPage(t, newBrowser(t), srv.URL+"/health")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "healthy")
	})
}
