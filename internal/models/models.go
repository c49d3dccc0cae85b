package models

// Post represents a single social-media mention captured for a company
type Post struct {
	ID          int     `json:"id"`
	IDCompany   int     `json:"id_company"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Insight1    float64 `json:"insight1"`
	Insight2    float64 `json:"insight2"`
	Insight3    float64 `json:"insight3"`
	Sentiment   float64 `json:"sentiment"` // roughly -1..1
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	Image       string  `json:"image"`
	Video       string  `json:"video"`
	Query       *string `json:"query"`
}

// PostCollection is the capture result for one posts request: the posts plus
// per-platform capture metadata. It is replaced wholesale after every merge,
// never mutated in place.
type PostCollection struct {
	Status           string         `json:"status"` // "success" or "error"
	Message          string         `json:"message"`
	Captured         map[string]int `json:"captured"`
	PostsCreated     int            `json:"posts_created"`
	SkippedPlatforms []string       `json:"skipped_platforms"`
	Posts            []Post         `json:"posts"`
}

// AnalyticsSummary holds per-keyword aggregates. A later fetch fully
// supersedes the former; nothing is merged across fetches.
type AnalyticsSummary struct {
	Keyword                string  `json:"keyword"`
	CountMentions          int     `json:"count_mentions"`
	ApprovalScore          float64 `json:"approval_score"`
	SentimentTotalPosts    int     `json:"sentiment_total_posts"`
	SentimentPositiveCount int     `json:"sentiment_positive_count"`
	SentimentNegativeCount int     `json:"sentiment_negative_count"`
	SentimentNeutralCount  int     `json:"sentiment_neutral_count"`
	Error                  *string `json:"error"`
}

// OpportunityPost is a post cited as evidence for an opportunity insight.
// The upstream returns nullable numeric fields here, unlike the capture feed.
type OpportunityPost struct {
	ID          int      `json:"id"`
	IDCompany   int      `json:"id_company"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Insight1    *float64 `json:"insight1"`
	Insight2    *float64 `json:"insight2"`
	Insight3    *float64 `json:"insight3"`
	Sentiment   *float64 `json:"sentiment"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Image       *string  `json:"image"`
	Video       string   `json:"video"`
	Query       string   `json:"query"`
	Source      *string  `json:"source"`
}

// OpportunityResult is one AI-generated insight with improvement ideas and
// the posts that evidence it
type OpportunityResult struct {
	Insight string            `json:"insight"`
	Ideas   []string          `json:"ideas"`
	Posts   []OpportunityPost `json:"posts"`
}

// OpportunityReport is the full opportunity response for one query
type OpportunityReport struct {
	Query   string              `json:"query"`
	Results []OpportunityResult `json:"results"`
}

// CompanyProfile is the company identity returned by the lookup API
type CompanyProfile struct {
	CompanyName      string         `json:"company_name"`
	ShortDescription string         `json:"short_description"`
	Keywords         []string       `json:"keywords"`
	LogoURL          string         `json:"logo_url"`
	Domain           string         `json:"domain"`
	AdditionalData   map[string]any `json:"additional_data"`
}

// CompanyLookupResponse wraps the lookup result with its status envelope
type CompanyLookupResponse struct {
	Status   string          `json:"status"`
	Company  string          `json:"company"`
	Keywords []string        `json:"keywords"`
	Agent    *CompanyProfile `json:"agent"`
	Message  *string         `json:"message"`
}

// Session is the authenticated user attached to a request. ID is the
// identity provider's stable subject; everything else is optional.
type Session struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UserAction is one row of the append-only user-action log
type UserAction struct {
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Payload   string `json:"payload"` // JSON-serialized
	CreatedAt string `json:"created_at"`
}

// ConfirmationPayload is what the claim screen encodes into the dashboard URL
// when the user confirms a company
type ConfirmationPayload struct {
	CompanyName string   `json:"companyName"`
	Country     string   `json:"country"`
	Categories  []string `json:"categories"`
}
