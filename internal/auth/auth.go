// Package auth implements the identity boundary: an OAuth2
// authorization-code flow against Google, a signed session cookie, and the
// middleware that attaches the session to incoming requests.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/pulso-app/pulso/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	sessionCookie = "pulso_session"
	stateCookie   = "pulso_oauth_state"

	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Manager owns the sign-in flow and session verification
type Manager struct {
	oauth       *oauth2.Config
	secret      []byte
	sessionTTL  time.Duration
	store       storage.UserActionStore
	http        *resty.Client
	userinfoURL string
}

// NewManager builds a Manager from application config. The store may be nil
// when no datastore is configured; sign-in still works, the upsert is skipped.
func NewManager(cfg *config.Config, store storage.UserActionStore) *Manager {
	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		secret:      []byte(cfg.SessionSecret),
		sessionTTL:  cfg.SessionTTL,
		store:       store,
		http:        resty.New().SetTimeout(30 * time.Second),
		userinfoURL: defaultUserinfoURL,
	}
}

type sessionClaims struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type userinfoResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// HandleSignIn starts the authorization-code flow
func (m *Manager) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, m.oauth.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the flow: verifies state, exchanges the code,
// resolves the user profile, upserts the user row, and issues the session
// cookie
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateFromCookie, err := r.Cookie(stateCookie)
	if err != nil || stateFromCookie.Value == "" || r.URL.Query().Get("state") != stateFromCookie.Value {
		logrus.Warn("OAuth callback with missing or mismatched state")
		http.Redirect(w, r, "/auth-error", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/auth-error", http.StatusFound)
		return
	}

	token, err := m.oauth.Exchange(r.Context(), code)
	if err != nil {
		logrus.Errorf("OAuth code exchange failed: %v", err)
		http.Redirect(w, r, "/auth-error", http.StatusFound)
		return
	}

	session, err := m.fetchUserinfo(r.Context(), token.AccessToken)
	if err != nil {
		logrus.Errorf("Failed to fetch user profile: %v", err)
		http.Redirect(w, r, "/auth-error", http.StatusFound)
		return
	}

	if m.store != nil {
		if err := m.store.UpsertUser(r.Context(), *session); err != nil {
			// Sign-in proceeds; the users table is bookkeeping, not a gate.
			logrus.Errorf("Failed to upsert user %s: %v", session.Email, err)
		}
	}

	if err := m.issueCookie(w, session); err != nil {
		logrus.Errorf("Failed to issue session cookie: %v", err)
		http.Redirect(w, r, "/auth-error", http.StatusFound)
		return
	}

	logrus.Infof("User %s signed in", session.Email)
	http.Redirect(w, r, "/buscar", http.StatusFound)
}

func (m *Manager) fetchUserinfo(ctx context.Context, accessToken string) (*models.Session, error) {
	resp, err := m.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get(m.userinfoURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("userinfo request returned status %d", resp.StatusCode())
	}

	var info userinfoResponse
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return nil, err
	}

	return &models.Session{
		ID:        info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

func (m *Manager) issueCookie(w http.ResponseWriter, session *models.Session) error {
	now := time.Now()
	claims := sessionClaims{
		Email:     session.Email,
		Name:      session.Name,
		AvatarURL: session.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// HandleSignOut clears the session cookie
func (m *Manager) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/signin", http.StatusFound)
}

// HandleSession returns the current session as JSON, or 401
func (m *Manager) HandleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session := m.sessionFromRequest(r)
	if session == nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unauthenticated"})
		return
	}

	json.NewEncoder(w).Encode(session)
}

// Middleware attaches the session, when present and valid, to the request
// context. It never rejects: handlers that require authentication check
// SessionFromContext themselves.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session := m.sessionFromRequest(r); session != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, session))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) sessionFromRequest(r *http.Request) *models.Session {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	return m.VerifySessionToken(cookie.Value)
}

// VerifySessionToken parses and validates a signed session token
func (m *Manager) VerifySessionToken(token string) *models.Session {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil
	}

	return &models.Session{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}
}

// IssueSessionToken signs a session into a token string. Exposed for tests
// and tooling that need to mint a session without the browser flow.
func (m *Manager) IssueSessionToken(session models.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email:     session.Email,
		Name:      session.Name,
		AvatarURL: session.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// SessionCookieName is the cookie carrying the signed session token
func SessionCookieName() string {
	return sessionCookie
}

// SessionFromContext returns the authenticated session, or nil
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionContextKey).(*models.Session)
	return session
}
