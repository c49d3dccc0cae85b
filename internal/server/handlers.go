package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pulso-app/pulso/internal/api"
	"github.com/pulso-app/pulso/internal/auth"
	"github.com/sirupsen/logrus"
)

// handlePostsProxy forwards a capture request to the upstream posts
// endpoint. The body is relayed as-is after a structural JSON check; an
// empty query is not rejected here, the upstream decides what to do with it.
func (s *Server) handlePostsProxy(w http.ResponseWriter, r *http.Request) {
	s.countRequest("posts")

	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		s.countError("posts")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	s.forward(w, forwardRequest{
		route:    "posts",
		method:   http.MethodPost,
		url:      s.config.SearchAPIBaseURL + "/posts",
		body:     body,
		cacheKey: "posts:" + string(body),
		cacheTTL: s.config.PostsCacheTTL,
		fallback: "Failed to fetch company posts",
	})
}

// handleAnalyticsProxy forwards an analytics request, defaulting id_company
// and limit. keyword is the one required field on this route.
func (s *Server) handleAnalyticsProxy(w http.ResponseWriter, r *http.Request) {
	s.countRequest("analytics")

	query := r.URL.Query()
	keyword := query.Get("keyword")
	if keyword == "" {
		s.countError("analytics")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
		return
	}

	idCompany := query.Get("id_company")
	if idCompany == "" {
		idCompany = "1"
	}
	limit := query.Get("limit")
	if limit == "" {
		limit = "1000"
	}

	s.forward(w, forwardRequest{
		route:  "analytics",
		method: http.MethodGet,
		url:    s.config.SearchAPIBaseURL + "/analytics",
		queryParams: map[string]string{
			"keyword":    keyword,
			"id_company": idCompany,
			"limit":      limit,
		},
		cacheKey: "analytics:" + keyword + ":" + idCompany + ":" + limit,
		cacheTTL: s.config.AnalyticsCacheTTL,
		fallback: "Failed to fetch analytics",
	})
}

type opportunityBody struct {
	Query     string `json:"query"`
	IDCompany int    `json:"id_company"`
	Limit     int    `json:"limit"`
}

// handleOpportunityProxy forwards an opportunity request with defaults
// applied. The upstream path is /oportunity, the upstream's own spelling.
func (s *Server) handleOpportunityProxy(w http.ResponseWriter, r *http.Request) {
	s.countRequest("opportunity")

	var body opportunityBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.countError("opportunity")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	if body.Query == "" {
		s.countError("opportunity")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	if body.IDCompany == 0 {
		body.IDCompany = api.DefaultIDCompany
	}
	if body.Limit == 0 {
		body.Limit = api.DefaultOpportunityLimit
	}

	payload, err := json.Marshal(body)
	if err != nil {
		s.countError("opportunity")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	s.forward(w, forwardRequest{
		route:    "opportunity",
		method:   http.MethodPost,
		url:      s.config.SearchAPIBaseURL + "/oportunity",
		body:     payload,
		cacheKey: "opportunity:" + string(payload),
		cacheTTL: s.config.AnalyticsCacheTTL,
		fallback: "Failed to fetch opportunity",
	})
}

type userActionBody struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleUserActions persists one row to the user-action log, keyed by the
// authenticated user
func (s *Server) handleUserActions(w http.ResponseWriter, r *http.Request) {
	s.countRequest("user-actions")

	session := auth.SessionFromContext(r.Context())
	if session == nil {
		s.countError("user-actions")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthenticated"})
		return
	}

	var body userActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.countError("user-actions")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	if body.Type == "" {
		s.countError("user-actions")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing type"})
		return
	}

	userID := session.ID
	if userID == "" {
		userID = session.Email
	}

	payload := "{}"
	if len(body.Payload) > 0 && string(body.Payload) != "null" {
		payload = string(body.Payload)
	}

	if s.store == nil {
		s.countError("user-actions")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "DB error"})
		return
	}

	if err := s.store.InsertAction(r.Context(), userID, body.Type, payload); err != nil {
		logrus.Errorf("Failed to insert user action: %v", err)
		s.countError("user-actions")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "DB error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// forwardRequest describes one upstream call and how to cache and fail it
type forwardRequest struct {
	route       string
	method      string
	url         string
	body        []byte
	queryParams map[string]string
	cacheKey    string
	cacheTTL    time.Duration
	fallback    string
}

// forward performs the upstream call and relays the outcome: the JSON body
// verbatim on success, the upstream status with a synthesized {error} body
// on upstream failure, and 500 on transport failure. Successful responses
// are cached for the route's TTL.
func (s *Server) forward(w http.ResponseWriter, req forwardRequest) {
	if cached, found := s.cache.Get(req.cacheKey); found {
		s.countCache(true)
		writeRawJSON(w, http.StatusOK, cached.([]byte))
		return
	}
	s.countCache(false)

	request := s.upstream.R()
	if req.body != nil {
		request.SetBody(req.body)
	}
	if req.queryParams != nil {
		request.SetQueryParams(req.queryParams)
	}

	resp, err := request.Execute(req.method, req.url)
	if err != nil {
		logrus.Errorf("Upstream %s request failed: %v", req.route, err)
		s.countError(req.route)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		message := api.ExtractErrorMessage(resp.Body(), req.fallback)
		logrus.Warnf("Upstream %s returned status %d: %s", req.route, resp.StatusCode(), message)
		s.countError(req.route)
		writeJSON(w, resp.StatusCode(), map[string]string{"error": message})
		return
	}

	body := resp.Body()
	s.cache.Set(req.cacheKey, body, req.cacheTTL)
	writeRawJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
