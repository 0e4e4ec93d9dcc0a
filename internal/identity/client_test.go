package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gidersen/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

// signToken issues an HS256 access token the way the auth service does.
func signToken(t *testing.T, userID, email string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestClient(t *testing.T, handler http.HandlerFunc, secret string) *client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.BackendConfig{URL: server.URL, AnonKey: "anon-key", JWTSecret: secret}
	return newClient(cfg, server.Client(), time.Now, zerolog.Nop())
}

func TestClient_SignInWithPassword(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, "user-1", "satici@example.com", exp)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "satici@example.com", body["email"])
		assert.Equal(t, "gizli123", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  token,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "satici@example.com"},
		})
	}, testSecret)

	s, err := c.SignInWithPassword(context.Background(), "satici@example.com", "gizli123")

	require.NoError(t, err)
	assert.Equal(t, token, s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "satici@example.com", s.Email)
	assert.True(t, exp.Equal(s.ExpiresAt))
}

func TestClient_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Legacy invalid_grant", body: `{"error":"invalid_grant","error_description":"Invalid login credentials"}`},
		{name: "Error code invalid_credentials", body: `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}, "")

			_, err := c.SignInWithPassword(context.Background(), "a@b.com", "yanlis")

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCredentials))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, "Invalid login credentials", apiErr.Message)
		})
	}
}

func TestClient_OtherErrorsAreNotCredentialErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}, "")

	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "x")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_SignUp(t *testing.T) {
	t.Run("Autoconfirm returns a session", func(t *testing.T) {
		token := signToken(t, "user-2", "yeni@example.com", time.Now().Add(time.Hour))
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/v1/signup", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  token,
				"refresh_token": "refresh-2",
				"user":          map[string]string{"id": "user-2", "email": "yeni@example.com"},
			})
		}, testSecret)

		user, s, err := c.SignUp(context.Background(), "yeni@example.com", "gizli123")

		require.NoError(t, err)
		assert.Equal(t, "user-2", user.ID)
		require.NotNil(t, s)
		assert.Equal(t, "refresh-2", s.RefreshToken)
	})

	t.Run("Email confirmation returns the bare user", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": "user-3", "email": "onay@example.com"})
		}, "")

		user, s, err := c.SignUp(context.Background(), "onay@example.com", "gizli123")

		require.NoError(t, err)
		assert.Equal(t, "user-3", user.ID)
		assert.Nil(t, s)
	})
}

func TestClient_RefreshSignOut(t *testing.T) {
	token := signToken(t, "user-1", "a@b.com", time.Now().Add(time.Hour))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "old-refresh", body["refresh_token"])
			json.NewEncoder(w).Encode(map[string]any{"access_token": token, "refresh_token": "new-refresh"})
		case "/auth/v1/logout":
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, "")

	ctx := context.Background()

	s, err := c.Refresh(ctx, "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-refresh", s.RefreshToken)
	assert.Equal(t, "user-1", s.UserID, "user id falls back to the token subject")

	require.NoError(t, c.SignOut(ctx, token))
}

func TestParseAccessToken(t *testing.T) {
	valid := signToken(t, "user-1", "a@b.com", time.Now().Add(time.Hour))
	expired := signToken(t, "user-1", "a@b.com", time.Now().Add(-time.Hour))

	t.Run("Unverified decode", func(t *testing.T) {
		claims, err := ParseAccessToken(expired, "")
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("Verified", func(t *testing.T) {
		claims, err := ParseAccessToken(valid, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", claims.Email)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		_, err := ParseAccessToken(valid, "other-secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired with verification", func(t *testing.T) {
		_, err := ParseAccessToken(expired, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseAccessToken("not-a-token", "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Session{}).Expired(now, time.Minute))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).Expired(now, time.Minute))
	assert.True(t, (&Session{ExpiresAt: now.Add(30 * time.Second)}).Expired(now, time.Minute))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Second)}).Expired(now, 0))
}
