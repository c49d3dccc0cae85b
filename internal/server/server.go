package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/mux"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pulso-app/pulso/internal/auth"
	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/storage"
	"github.com/sirupsen/logrus"
)

// Server is the same-origin proxy boundary of the application: it validates
// and defaults incoming requests, forwards them to the upstream Global
// Search API, relays the JSON verbatim, and persists user actions.
type Server struct {
	config   *config.Config
	store    storage.UserActionStore
	sessions *auth.Manager
	upstream *resty.Client
	cache    *gocache.Cache
	router   *mux.Router
	server   *http.Server

	metrics Metrics
	mu      sync.RWMutex
}

// Metrics holds per-route proxy counters
type Metrics struct {
	Requests    map[string]int `json:"requests"`
	Errors      map[string]int `json:"errors"`
	CacheHits   int            `json:"cache_hits"`
	CacheMisses int            `json:"cache_misses"`
	LastRequest time.Time      `json:"last_request"`
}

// NewServer wires the router. The store and session manager may be nil when
// their backing services are not configured; the user-action route then
// degrades per its error contract instead of failing at startup.
func NewServer(cfg *config.Config, store storage.UserActionStore, sessions *auth.Manager) *Server {
	s := &Server{
		config:   cfg,
		store:    store,
		sessions: sessions,
		upstream: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
		// No janitor goroutine; the maintenance scheduler sweeps instead
		cache: gocache.New(cfg.PostsCacheTTL, 0),
		metrics: Metrics{
			Requests: make(map[string]int),
			Errors:   make(map[string]int),
		},
	}

	router := mux.NewRouter()

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/posts", s.handlePostsProxy).Methods("POST")
	apiRouter.HandleFunc("/analytics", s.handleAnalyticsProxy).Methods("GET")
	apiRouter.HandleFunc("/opportunity", s.handleOpportunityProxy).Methods("POST")
	apiRouter.HandleFunc("/user-actions", s.handleUserActions).Methods("POST")

	if sessions != nil {
		router.HandleFunc("/auth/signin", sessions.HandleSignIn).Methods("GET")
		router.HandleFunc("/auth/callback", sessions.HandleCallback).Methods("GET")
		router.HandleFunc("/auth/signout", sessions.HandleSignOut).Methods("GET", "POST")
		router.HandleFunc("/auth/session", sessions.HandleSession).Methods("GET")
		router.Use(sessions.Middleware)
	}

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")

	s.router = router
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving; it blocks until the server stops
func (s *Server) Start() error {
	logrus.Infof("HTTP server starting on port %s", s.config.Port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// SweepCache drops expired proxy responses and logs cache pressure
func (s *Server) SweepCache() {
	s.cache.DeleteExpired()

	s.mu.RLock()
	hits, misses := s.metrics.CacheHits, s.metrics.CacheMisses
	s.mu.RUnlock()

	logrus.Infof("Proxy cache sweep complete: %d entries, %d hits, %d misses", s.cache.ItemCount(), hits, misses)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) countRequest(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Requests[route]++
	s.metrics.LastRequest = time.Now()
}

func (s *Server) countError(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Errors[route]++
}

func (s *Server) countCache(hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hit {
		s.metrics.CacheHits++
	} else {
		s.metrics.CacheMisses++
	}
}
