package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulso-app/pulso/internal/auth"
	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of the user-action store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertAction(ctx context.Context, userID, actionType, payload string) error {
	args := m.Called(userID, actionType, payload)
	return args.Error(0)
}

func (m *MockStore) UpsertUser(ctx context.Context, session models.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	return nil
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Port:               "0",
		BaseURL:            "http://localhost:8080",
		SearchAPIBaseURL:   upstreamURL,
		LookupAPIBaseURL:   upstreamURL,
		PostsCacheTTL:      10 * time.Minute,
		AnalyticsCacheTTL:  2 * time.Hour,
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		SessionSecret:      "test-secret",
		SessionTTL:         time.Hour,
	}
}

func newTestServer(t *testing.T, upstreamURL string, store *MockStore) (*Server, *auth.Manager) {
	t.Helper()

	cfg := testConfig(upstreamURL)
	sessions := auth.NewManager(cfg, nil)

	// A typed nil must not end up inside the interface value
	if store == nil {
		return NewServer(cfg, nil, sessions), sessions
	}
	return NewServer(cfg, store, sessions), sessions
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestPostsProxy_ForwardsEmptyQuery(t *testing.T) {
	var forwardedBody map[string]any

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&forwardedBody)
		w.Write([]byte(`{"status":"success","posts":[]}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// No required-field check beyond structural JSON parse
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", forwardedBody["query"])
	assert.JSONEq(t, `{"status":"success","posts":[]}`, rec.Body.String())
}

func TestPostsProxy_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"query":`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeErrorBody(t, rec))
}

func TestAnalyticsProxy_RequiresKeyword(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "keyword is required", decodeErrorBody(t, rec))
}

func TestAnalyticsProxy_AppliesDefaults(t *testing.T) {
	var forwardedQuery map[string]string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics", r.URL.Path)
		forwardedQuery = map[string]string{
			"keyword":    r.URL.Query().Get("keyword"),
			"id_company": r.URL.Query().Get("id_company"),
			"limit":      r.URL.Query().Get("limit"),
		}
		w.Write([]byte(`{"keyword":"Rappi","count_mentions":12}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics?keyword=Rappi", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rappi", forwardedQuery["keyword"])
	assert.Equal(t, "1", forwardedQuery["id_company"])
	assert.Equal(t, "1000", forwardedQuery["limit"])
}

func TestAnalyticsProxy_CachesSuccessfulResponses(t *testing.T) {
	upstreamCalls := 0

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		w.Write([]byte(`{"keyword":"Rappi","count_mentions":12}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL, nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/analytics?keyword=Rappi", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1, upstreamCalls, "repeat requests within the TTL hit the cache")
}

func TestOpportunityProxy_RequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/opportunity", strings.NewReader(`{"id_company":2}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query is required", decodeErrorBody(t, rec))
}

func TestOpportunityProxy_AppliesDefaultsAndUpstreamPath(t *testing.T) {
	var forwardedPath string
	var forwardedBody opportunityBody

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwardedPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&forwardedBody)
		w.Write([]byte(`{"query":"Rappi","results":[]}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/opportunity", strings.NewReader(`{"query":"Rappi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/oportunity", forwardedPath, "upstream spells the path without the double p")
	assert.Equal(t, 1, forwardedBody.IDCompany)
	assert.Equal(t, 100, forwardedBody.Limit)
}

func TestProxy_RelaysUpstreamErrorStatusAndMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"capture backend overloaded"}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, upstream.URL, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"query":"Rappi"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "capture backend overloaded", decodeErrorBody(t, rec))
}

func TestProxy_UpstreamUnreachable(t *testing.T) {
	srv, _ := newTestServer(t, "http://127.0.0.1:1", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics?keyword=Rappi", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeErrorBody(t, rec))
}

func TestUserActions_RequiresSession(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", &MockStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/user-actions",
		strings.NewReader(`{"type":"company_confirmation","payload":{}}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated", decodeErrorBody(t, rec))
}

func authenticatedRequest(t *testing.T, sessions *auth.Manager, method, target, body string) *http.Request {
	t.Helper()

	token, err := sessions.IssueSessionToken(models.Session{
		ID:    "user-123",
		Email: "maria@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName(), Value: token})
	return req
}

func TestUserActions_RequiresType(t *testing.T) {
	srv, sessions := newTestServer(t, "http://unused.invalid", &MockStore{})

	req := authenticatedRequest(t, sessions, http.MethodPost, "/api/user-actions", `{"payload":{}}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing type", decodeErrorBody(t, rec))
}

func TestUserActions_PersistsRow(t *testing.T) {
	store := &MockStore{}
	store.On("InsertAction", "user-123", "company_confirmation", `{"companyName":"Rappi"}`).Return(nil)

	srv, sessions := newTestServer(t, "http://unused.invalid", store)

	req := authenticatedRequest(t, sessions, http.MethodPost, "/api/user-actions",
		`{"type":"company_confirmation","payload":{"companyName":"Rappi"}}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestUserActions_DatastoreError(t *testing.T) {
	store := &MockStore{}
	store.On("InsertAction", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	srv, sessions := newTestServer(t, "http://unused.invalid", store)

	req := authenticatedRequest(t, sessions, http.MethodPost, "/api/user-actions",
		`{"type":"company_confirmation","payload":{}}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DB error", decodeErrorBody(t, rec))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestMetricsEndpoint_CountsRequests(t *testing.T) {
	srv, _ := newTestServer(t, "http://unused.invalid", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var metrics Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.Requests["analytics"])
	assert.Equal(t, 1, metrics.Errors["analytics"])
}
