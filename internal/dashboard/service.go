package dashboard

import (
	"context"
	"sync"

	"github.com/pulso-app/pulso/internal/api"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/pulso-app/pulso/internal/navigation"
	"github.com/sirupsen/logrus"
)

// Fetcher is the request boundary the container depends on; *api.Client
// satisfies it
type Fetcher interface {
	FetchCompanyPosts(ctx context.Context, params api.PostsParams) (*models.PostCollection, error)
	FetchAnalytics(ctx context.Context, params api.AnalyticsParams) (*models.AnalyticsSummary, error)
	FetchOpportunity(ctx context.Context, params api.OpportunityParams) (*models.OpportunityReport, error)
	RecordUserAction(ctx context.Context, actionType string, payload any) error
}

// State is the aggregate the presentation layer renders from: the three
// fetchable resources plus an independent loading flag and error message per
// resource. Consumers hold read-only snapshots; all mutation goes through
// the Service.
type State struct {
	IsLoading            bool
	IsLoadingAnalytics   bool
	IsLoadingOpportunity bool

	CompanyPosts *models.PostCollection
	Analytics    *models.AnalyticsSummary
	Opportunity  *models.OpportunityReport

	Error            *string
	AnalyticsError   *string
	OpportunityError *string
}

// Service is the single source of truth for the three fetchable resources.
// Each fetch carries a per-resource sequence number; a settlement whose
// sequence is no longer the latest issued for that resource is discarded,
// so a reset or newer fetch can never be overwritten by a stale response.
type Service struct {
	fetcher Fetcher

	mu    sync.Mutex
	state State

	postsSeq       uint64
	analyticsSeq   uint64
	opportunitySeq uint64

	sideEffects sync.WaitGroup
}

// NewService creates a container with empty state. Posts start in the
// loading state because callers are expected to issue a capture immediately.
func NewService(fetcher Fetcher) *Service {
	return &Service{
		fetcher: fetcher,
		state:   State{IsLoading: true},
	}
}

// Snapshot returns a copy of the current state
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FetchCompanyPosts captures posts for a query and merges them into the
// accumulated collection. On success it also triggers the analytics and
// opportunity fetches for the same query, fire-and-forget. Failures are
// stored in the posts error slot; prior posts are left untouched.
func (s *Service) FetchCompanyPosts(ctx context.Context, params api.PostsParams) {
	s.mu.Lock()
	s.postsSeq++
	seq := s.postsSeq
	s.state.IsLoading = true
	s.mu.Unlock()

	logrus.Debugf("Starting posts request for %q", params.Query)
	collection, err := s.fetcher.FetchCompanyPosts(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.postsSeq {
		logrus.Debugf("Discarding superseded posts response for %q", params.Query)
		return
	}

	if err != nil {
		message := err.Error()
		logrus.Warnf("Posts request for %q failed: %v", params.Query, err)
		s.state.Error = &message
	} else {
		s.state.CompanyPosts = MergePostCollections(s.state.CompanyPosts, collection)
		s.state.Error = nil
		s.triggerDerivedFetches(ctx, params.Query)
	}

	s.state.IsLoading = false
}

// triggerDerivedFetches kicks off the analytics and opportunity requests for
// a freshly captured query. Callers hold s.mu; the fetches themselves run on
// their own goroutines and are detached from the caller's cancellation.
func (s *Service) triggerDerivedFetches(ctx context.Context, query string) {
	detached := context.WithoutCancel(ctx)

	s.sideEffects.Add(2)
	go func() {
		defer s.sideEffects.Done()
		s.FetchAnalytics(detached, api.AnalyticsParams{
			Keyword:   query,
			IDCompany: api.DefaultIDCompany,
			Limit:     api.DefaultAnalyticsLimit,
		})
	}()
	go func() {
		defer s.sideEffects.Done()
		s.FetchOpportunity(detached, api.OpportunityParams{
			Query:     query,
			IDCompany: api.DefaultIDCompany,
			Limit:     api.DefaultOpportunityLimit,
		})
	}()
}

// FetchAnalytics replaces the analytics slice with a fresh fetch. Failures
// are stored in the analytics error slot; the prior slice is left untouched.
func (s *Service) FetchAnalytics(ctx context.Context, params api.AnalyticsParams) {
	s.mu.Lock()
	s.analyticsSeq++
	seq := s.analyticsSeq
	s.state.IsLoadingAnalytics = true
	s.mu.Unlock()

	summary, err := s.fetcher.FetchAnalytics(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.analyticsSeq {
		logrus.Debugf("Discarding superseded analytics response for %q", params.Keyword)
		return
	}

	if err != nil {
		message := err.Error()
		logrus.Warnf("Analytics request for %q failed: %v", params.Keyword, err)
		s.state.AnalyticsError = &message
	} else {
		s.state.Analytics = summary
		s.state.AnalyticsError = nil
	}

	s.state.IsLoadingAnalytics = false
}

// FetchOpportunity replaces the opportunity slice with a fresh fetch.
// Symmetric to FetchAnalytics.
func (s *Service) FetchOpportunity(ctx context.Context, params api.OpportunityParams) {
	s.mu.Lock()
	s.opportunitySeq++
	seq := s.opportunitySeq
	s.state.IsLoadingOpportunity = true
	s.mu.Unlock()

	report, err := s.fetcher.FetchOpportunity(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.opportunitySeq {
		logrus.Debugf("Discarding superseded opportunity response for %q", params.Query)
		return
	}

	if err != nil {
		message := err.Error()
		logrus.Warnf("Opportunity request for %q failed: %v", params.Query, err)
		s.state.OpportunityError = &message
	} else {
		s.state.Opportunity = report
		s.state.OpportunityError = nil
	}

	s.state.IsLoadingOpportunity = false
}

// ClearCompanyPosts drops the accumulated posts without touching analytics
// or opportunity. Any posts fetch still in flight is superseded; since a
// discarded settlement never touches the flag, the clear itself takes posts
// out of the loading state.
func (s *Service) ClearCompanyPosts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postsSeq++
	s.state.CompanyPosts = nil
	s.state.IsLoading = false
}

// ResetAll clears all three slices and error slots. Posts-loading is set to
// true because the caller is expected to issue a fresh capture immediately,
// so consumers see a loading state with no stale data in the interim.
// In-flight fetches of any resource are superseded and their results dropped.
func (s *Service) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postsSeq++
	s.analyticsSeq++
	s.opportunitySeq++

	s.state = State{IsLoading: true}
}

// Wait blocks until all triggered analytics/opportunity fetches settle.
// Mostly useful to tests and batch callers; the UI path never waits.
func (s *Service) Wait() {
	s.sideEffects.Wait()
}

// ConfirmCompany records the user's company confirmation and returns the
// dashboard URL carrying the encoded payload. Persistence is best-effort:
// a logging failure is reported and navigation proceeds regardless.
func (s *Service) ConfirmCompany(ctx context.Context, payload models.ConfirmationPayload) string {
	if err := s.fetcher.RecordUserAction(ctx, "company_confirmation", payload); err != nil {
		logrus.Errorf("Failed to save user action: %v", err)
	}

	return navigation.DashboardURL(payload)
}
