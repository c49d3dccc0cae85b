package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pulso-app/pulso/internal/auth"
	"github.com/pulso-app/pulso/internal/models"
	"github.com/sirupsen/logrus"
)

// Request defaults, enumerated once at the request boundary rather than
// re-derived at call sites.
const (
	DefaultMaxItems         = 30
	DefaultCountryCode      = "PE"
	DefaultLanguageCode     = "es"
	DefaultIDCompany        = 1
	DefaultAnalyticsLimit   = 1000
	DefaultOpportunityLimit = 100

	defaultLookupMaxItemsPerQuery = 5
)

// DefaultPlatforms returns the platforms captured when the caller does not
// name any
func DefaultPlatforms() []string {
	return []string{"tiktok"}
}

// Client issues the typed requests the dashboard depends on: the three
// same-origin proxy calls plus the company lookup, which goes straight to
// the upstream lookup service.
type Client struct {
	http          *resty.Client
	baseURL       string
	lookupBaseURL string
}

// NewClient creates a client rooted at the proxy origin
func NewClient(baseURL, lookupBaseURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
		baseURL:       baseURL,
		lookupBaseURL: lookupBaseURL,
	}
}

// SetSessionToken attaches a signed session token to every proxy request,
// so routes that require authentication, user-action recording in
// particular, accept this client. Browsers carry the cookie themselves;
// headless callers set it here.
func (c *Client) SetSessionToken(token string) *Client {
	c.http.SetCookie(&http.Cookie{Name: auth.SessionCookieName(), Value: token})
	return c
}

// PostsParams configures one capture request. Zero values take the
// documented defaults; ProcessPosts is a pointer so an explicit false is
// distinguishable from "use the default".
type PostsParams struct {
	Query        string
	MaxItems     int
	Platforms    []string
	CountryCode  string
	LanguageCode string
	ProcessPosts *bool
}

type postsRequest struct {
	Query        string   `json:"query"`
	MaxItems     int      `json:"max_items"`
	Platforms    []string `json:"platforms"`
	CountryCode  string   `json:"country_code"`
	LanguageCode string   `json:"language_code"`
	ForceRefresh bool     `json:"force_refresh"`
	ProcessPosts bool     `json:"process_posts"`
}

func (p PostsParams) payload() postsRequest {
	req := postsRequest{
		Query:        p.Query,
		MaxItems:     p.MaxItems,
		Platforms:    p.Platforms,
		CountryCode:  p.CountryCode,
		LanguageCode: p.LanguageCode,
		ForceRefresh: true,
		ProcessPosts: true,
	}
	if req.MaxItems == 0 {
		req.MaxItems = DefaultMaxItems
	}
	if len(req.Platforms) == 0 {
		req.Platforms = DefaultPlatforms()
	}
	if req.CountryCode == "" {
		req.CountryCode = DefaultCountryCode
	}
	if req.LanguageCode == "" {
		req.LanguageCode = DefaultLanguageCode
	}
	if p.ProcessPosts != nil {
		req.ProcessPosts = *p.ProcessPosts
	}
	return req
}

// FetchCompanyPosts captures recent social posts mentioning the query
func (c *Client) FetchCompanyPosts(ctx context.Context, params PostsParams) (*models.PostCollection, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params.payload()).
		Post(c.baseURL + "/api/posts")

	if err != nil {
		return nil, &RequestError{Message: transportMessage(err, "Failed to fetch company posts")}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errorFromResponse(resp, "Failed to fetch company posts")
	}

	var collection models.PostCollection
	if err := json.Unmarshal(resp.Body(), &collection); err != nil {
		return nil, fmt.Errorf("failed to decode posts response: %w", err)
	}

	logrus.Debugf("Fetched %d posts for query %q", len(collection.Posts), params.Query)
	return &collection, nil
}

// AnalyticsParams configures one analytics request
type AnalyticsParams struct {
	Keyword   string
	IDCompany int
	Limit     int
}

// FetchAnalytics retrieves the mention/sentiment aggregates for a keyword
func (c *Client) FetchAnalytics(ctx context.Context, params AnalyticsParams) (*models.AnalyticsSummary, error) {
	idCompany := params.IDCompany
	if idCompany == 0 {
		idCompany = DefaultIDCompany
	}
	limit := params.Limit
	if limit == 0 {
		limit = DefaultAnalyticsLimit
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"keyword":    params.Keyword,
			"id_company": fmt.Sprintf("%d", idCompany),
			"limit":      fmt.Sprintf("%d", limit),
		}).
		Get(c.baseURL + "/api/analytics")

	if err != nil {
		return nil, &RequestError{Message: transportMessage(err, "Failed to fetch analytics")}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errorFromResponse(resp, "Failed to fetch analytics")
	}

	var summary models.AnalyticsSummary
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode analytics response: %w", err)
	}

	return &summary, nil
}

// OpportunityParams configures one opportunity request
type OpportunityParams struct {
	Query     string
	IDCompany int
	Limit     int
}

type opportunityRequest struct {
	Query     string `json:"query"`
	IDCompany int    `json:"id_company"`
	Limit     int    `json:"limit"`
}

// FetchOpportunity retrieves the AI-generated opportunity report for a query
func (c *Client) FetchOpportunity(ctx context.Context, params OpportunityParams) (*models.OpportunityReport, error) {
	payload := opportunityRequest{
		Query:     params.Query,
		IDCompany: params.IDCompany,
		Limit:     params.Limit,
	}
	if payload.IDCompany == 0 {
		payload.IDCompany = DefaultIDCompany
	}
	if payload.Limit == 0 {
		payload.Limit = DefaultOpportunityLimit
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.baseURL + "/api/opportunity")

	if err != nil {
		return nil, &RequestError{Message: transportMessage(err, "Failed to fetch opportunity")}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errorFromResponse(resp, "Failed to fetch opportunity")
	}

	var report models.OpportunityReport
	if err := json.Unmarshal(resp.Body(), &report); err != nil {
		return nil, fmt.Errorf("failed to decode opportunity response: %w", err)
	}

	return &report, nil
}

// LookupParams configures a company identity lookup
type LookupParams struct {
	Company          string
	Keywords         []string
	MaxItemsPerQuery int
	CountryCode      string
	LanguageCode     string
	ForceRefresh     bool
}

type lookupRequest struct {
	Company          string   `json:"company"`
	Keywords         []string `json:"keywords"`
	MaxItemsPerQuery int      `json:"max_items_per_query"`
	CountryCode      string   `json:"country_code"`
	LanguageCode     string   `json:"language_code"`
	ForceRefresh     bool     `json:"force_refresh"`
}

// LookupCompany resolves a company name to its profile via the lookup API
func (c *Client) LookupCompany(ctx context.Context, params LookupParams) (*models.CompanyLookupResponse, error) {
	payload := lookupRequest{
		Company:          params.Company,
		Keywords:         params.Keywords,
		MaxItemsPerQuery: params.MaxItemsPerQuery,
		CountryCode:      params.CountryCode,
		LanguageCode:     params.LanguageCode,
		ForceRefresh:     params.ForceRefresh,
	}
	if payload.Keywords == nil {
		payload.Keywords = []string{}
	}
	if payload.MaxItemsPerQuery == 0 {
		payload.MaxItemsPerQuery = defaultLookupMaxItemsPerQuery
	}
	if payload.CountryCode == "" {
		payload.CountryCode = DefaultCountryCode
	}
	if payload.LanguageCode == "" {
		payload.LanguageCode = DefaultLanguageCode
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.lookupBaseURL + "/lookup/company")

	if err != nil {
		return nil, &RequestError{Message: transportMessage(err, "Failed to lookup company")}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, errorFromResponse(resp, "Failed to lookup company")
	}

	var lookup models.CompanyLookupResponse
	if err := json.Unmarshal(resp.Body(), &lookup); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	return &lookup, nil
}

// RecordUserAction persists a user action through the proxy. Callers that
// treat logging as best-effort are expected to log and continue on error.
func (c *Client) RecordUserAction(ctx context.Context, actionType string, payload any) error {
	body := map[string]any{
		"type":    actionType,
		"payload": payload,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.baseURL + "/api/user-actions")

	if err != nil {
		return &RequestError{Message: transportMessage(err, "Failed to save user action")}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return errorFromResponse(resp, "Failed to save user action")
	}

	return nil
}
