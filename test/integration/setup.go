package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gidersen/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the catalog schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.ApplySchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedListing inserts a seller with one active listing and returns the
// listing id.
func SeedListing(t *testing.T, pool *pgxpool.Pool, storeName, productName string, marketplacePrice, gidersenPrice float64) string {
	t.Helper()

	ctx := context.Background()

	var sellerID uuid.UUID
	err := pool.QueryRow(ctx,
		"INSERT INTO sellers (user_id, store_name, location) VALUES ($1, $2, $3) RETURNING id",
		uuid.New(), storeName, "Kadıköy, İstanbul",
	).Scan(&sellerID)
	if err != nil {
		t.Fatalf("failed to seed seller %s: %v", storeName, err)
	}

	var productID uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO products (seller_id, name, category, marketplace_price, gidersen_price)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sellerID, productName, "Elektronik", marketplacePrice, gidersenPrice,
	).Scan(&productID)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", productName, err)
	}
	return productID.String()
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"products", "sellers"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

const authSecret = "integration-secret"

type authUser struct {
	id       string
	password string
}

// AuthServer is a minimal stand-in for the hosted auth API: password
// sign-in, sign-up with immediate sessions, refresh, logout and user lookup.
type AuthServer struct {
	*httptest.Server

	mu      sync.Mutex
	users   map[string]authUser // by email
	refresh map[string]string   // refresh token -> email
	logouts int
}

// NewAuthServer starts an AuthServer that is closed with the test.
func NewAuthServer(t *testing.T) *AuthServer {
	t.Helper()

	a := &AuthServer{
		users:   make(map[string]authUser),
		refresh: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", a.signup)
	mux.HandleFunc("POST /auth/v1/token", a.token)
	mux.HandleFunc("POST /auth/v1/logout", a.logout)

	a.Server = httptest.NewServer(mux)
	t.Cleanup(a.Server.Close)
	return a
}

// UserID returns the id of a registered email, or "" when unknown.
func (a *AuthServer) UserID(email string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.users[email].id
}

// Logouts returns how many logout calls were received.
func (a *AuthServer) Logouts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logouts
}

func (a *AuthServer) signup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad json"})
		return
	}

	a.mu.Lock()
	if _, ok := a.users[in.Email]; ok {
		a.mu.Unlock()
		writeAuthJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
		})
		return
	}
	a.users[in.Email] = authUser{id: uuid.NewString(), password: in.Password}
	a.mu.Unlock()

	a.issue(w, in.Email)
}

func (a *AuthServer) token(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad json"})
		return
	}

	a.mu.Lock()
	email := in.Email
	ok := false
	switch r.URL.Query().Get("grant_type") {
	case "password":
		u, found := a.users[in.Email]
		ok = found && u.password == in.Password
	case "refresh_token":
		email, ok = a.refresh[in.RefreshToken]
		delete(a.refresh, in.RefreshToken)
	}
	a.mu.Unlock()

	if !ok {
		writeAuthJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid_grant", "error_description": "Invalid login credentials",
		})
		return
	}
	a.issue(w, email)
}

func (a *AuthServer) logout(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	a.logouts++
	a.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (a *AuthServer) issue(w http.ResponseWriter, email string) {
	a.mu.Lock()
	u := a.users[email]
	refresh := uuid.NewString()
	a.refresh[refresh] = email
	a.mu.Unlock()

	expires := time.Now().Add(time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.id,
		"email": email,
		"role":  "authenticated",
		"exp":   expires.Unix(),
	})
	signed, err := token.SignedString([]byte(authSecret))
	if err != nil {
		writeAuthJSON(w, http.StatusInternalServerError, map[string]string{"msg": err.Error()})
		return
	}

	writeAuthJSON(w, http.StatusOK, map[string]any{
		"access_token":  signed,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    expires.Unix(),
		"refresh_token": refresh,
		"user":          map[string]string{"id": u.id, "email": email},
	})
}

func writeAuthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// MemoryObjectStore keeps uploaded objects in memory.
type MemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
}

// NewMemoryObjectStore creates an empty store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]string)}
}

func (s *MemoryObjectStore) Put(_ context.Context, key, contentType string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = contentType
	return nil
}

func (s *MemoryObjectStore) Bucket() string { return "product-images" }

// Keys returns the stored object keys with their content types.
func (s *MemoryObjectStore) Keys() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.objects))
	for k, v := range s.objects {
		out[k] = v
	}
	return out
}
