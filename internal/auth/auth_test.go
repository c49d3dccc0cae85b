package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(ttl time.Duration) *Manager {
	return NewManager(&config.Config{
		BaseURL:            "http://localhost:8080",
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		SessionSecret:      "test-secret",
		SessionTTL:         ttl,
	}, nil)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	manager := testManager(time.Hour)

	session := models.Session{
		ID:        "108274613",
		Email:     "maria@example.com",
		Name:      "María",
		AvatarURL: "https://lh3.example.com/a/photo.jpg",
	}

	token, err := manager.IssueSessionToken(session)
	require.NoError(t, err)

	verified := manager.VerifySessionToken(token)
	require.NotNil(t, verified)
	assert.Equal(t, session, *verified)
}

func TestSessionToken_Invalid(t *testing.T) {
	manager := testManager(time.Hour)

	assert.Nil(t, manager.VerifySessionToken("not-a-token"))
	assert.Nil(t, manager.VerifySessionToken(""))
}

func TestSessionToken_WrongSecret(t *testing.T) {
	manager := testManager(time.Hour)
	token, err := manager.IssueSessionToken(models.Session{ID: "108274613"})
	require.NoError(t, err)

	other := NewManager(&config.Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		SessionSecret:      "different-secret",
		SessionTTL:         time.Hour,
	}, nil)

	assert.Nil(t, other.VerifySessionToken(token))
}

func TestSessionToken_Expired(t *testing.T) {
	manager := testManager(-time.Minute)
	token, err := manager.IssueSessionToken(models.Session{ID: "108274613"})
	require.NoError(t, err)

	assert.Nil(t, manager.VerifySessionToken(token))
}

func TestFetchUserinfo(t *testing.T) {
	t.Run("resolves the profile", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"108274613","email":"maria@example.com","name":"María","picture":"https://lh3.example.com/a/photo.jpg"}`))
		}))
		defer upstream.Close()

		manager := testManager(time.Hour)
		manager.userinfoURL = upstream.URL

		session, err := manager.fetchUserinfo(context.Background(), "access-token")
		require.NoError(t, err)
		assert.Equal(t, "108274613", session.ID)
		assert.Equal(t, "maria@example.com", session.Email)
	})

	t.Run("rejected token is an error", func(t *testing.T) {
		// An expired or invalid access token comes back as a JSON error
		// envelope, never a profile
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		}))
		defer upstream.Close()

		manager := testManager(time.Hour)
		manager.userinfoURL = upstream.URL

		session, err := manager.fetchUserinfo(context.Background(), "expired-token")
		require.Error(t, err)
		assert.Nil(t, session)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestMiddleware_AttachesSession(t *testing.T) {
	manager := testManager(time.Hour)
	token, err := manager.IssueSessionToken(models.Session{ID: "108274613", Email: "maria@example.com"})
	require.NoError(t, err)

	var seen *models.Session
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user-actions", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName(), Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, "108274613", seen.ID)
}

func TestMiddleware_NoCookie(t *testing.T) {
	manager := testManager(time.Hour)

	var seen *models.Session
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)
}

func TestHandleSession(t *testing.T) {
	manager := testManager(time.Hour)

	t.Run("authenticated", func(t *testing.T) {
		token, err := manager.IssueSessionToken(models.Session{ID: "108274613", Email: "maria@example.com"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName(), Value: token})
		rec := httptest.NewRecorder()
		manager.HandleSession(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "maria@example.com")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		manager.HandleSession(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unauthenticated")
	})
}
