package model

import "time"

// SentimentCounts holds one integer per recognised sentiment
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Mixed    int `json:"mixed"`
}

// Add increments the bucket for s and reports whether s was recognised
func (c *SentimentCounts) Add(s Sentiment) bool {
	switch s {
	case SentimentPositive:
		c.Positive++
	case SentimentNegative:
		c.Negative++
	case SentimentNeutral:
		c.Neutral++
	case SentimentMixed:
		c.Mixed++
	default:
		return false
	}
	return true
}

// Get returns the bucket for s (0 for unrecognised values)
func (c SentimentCounts) Get(s Sentiment) int {
	switch s {
	case SentimentPositive:
		return c.Positive
	case SentimentNegative:
		return c.Negative
	case SentimentNeutral:
		return c.Neutral
	case SentimentMixed:
		return c.Mixed
	}
	return 0
}

// Total sums all buckets
func (c SentimentCounts) Total() int {
	return c.Positive + c.Negative + c.Neutral + c.Mixed
}

// PanelSummary is the aggregate view over a set of evaluations (one panel or all)
type PanelSummary struct {
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name,omitempty"`

	InterviewCount       int             `json:"interview_count"`
	SentimentBreakdown   SentimentCounts `json:"sentiment_breakdown"`
	SentimentPercentages SentimentCounts `json:"sentiment_percentages"`

	AverageSentimentScore *float64 `json:"average_sentiment_score"` // 2 dp
	AverageQualityScore   *float64 `json:"average_quality_score"`   // 1 dp

	TopTopics     []TopicCount     `json:"top_topics"`
	TopPainPoints []PainPointCount `json:"top_pain_points"`
	TopDesires    []DesireCount    `json:"top_desires"`
	NotableQuotes []NotableQuote   `json:"notable_quotes"`

	FollowUpCandidates int `json:"follow_up_candidates"`
	NeedsReviewCount   int `json:"needs_review_count"`
}

// TopicCount is a ranked topic
type TopicCount struct {
	Topic      string `json:"topic"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// PainPointCount is a ranked pain point
type PainPointCount struct {
	Point        string  `json:"point"`
	Count        int     `json:"count"`
	Percentage   int     `json:"percentage"`
	ExampleQuote *string `json:"example_quote"`
}

// DesireCount is a ranked desire
type DesireCount struct {
	Desire       string  `json:"desire"`
	Count        int     `json:"count"`
	Percentage   int     `json:"percentage"`
	ExampleQuote *string `json:"example_quote"`
}

// NotableQuote is a quote surfaced on a summary, tagged with its record's sentiment
type NotableQuote struct {
	Quote     string    `json:"quote"`
	Theme     string    `json:"theme,omitempty"`
	Context   string    `json:"context,omitempty"`
	Sentiment Sentiment `json:"sentiment"`
}

// PanelRef identifies a panel either by id or by a fuzzy name
type PanelRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// PanelComparison is one column of a cross-panel comparison
type PanelComparison struct {
	PanelID               string           `json:"panel_id"`
	PanelName             string           `json:"panel_name"`
	InterviewCount        int              `json:"interview_count"`
	SentimentBreakdown    SentimentCounts  `json:"sentiment_breakdown"`
	PositivePercentage    int              `json:"positive_percentage"`
	AverageSentimentScore *float64         `json:"average_sentiment_score"`
	AverageQualityScore   *float64         `json:"average_quality_score"`
	TopTopics             []TopicCount     `json:"top_topics"`
	TopPainPoints         []PainPointCount `json:"top_pain_points"`
	FollowUpCandidates    int              `json:"follow_up_candidates"`
}

// SkippedPanel records a panel dropped from a comparison and why
type SkippedPanel struct {
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name,omitempty"`
	Reason    string `json:"reason"`
}

// ComparisonResult is the cross-panel comparison payload
type ComparisonResult struct {
	PanelsRequested int               `json:"panels_requested"`
	PanelsCompared  int               `json:"panels_compared"`
	Panels          []PanelComparison `json:"panels"`
	Insights        []string          `json:"insights"`
	SkippedPanels   []SkippedPanel    `json:"skipped_panels,omitempty"`
}

// QuoteFilter narrows quote retrieval
type QuoteFilter struct {
	Theme     string `json:"theme,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Quote is a single key quote flattened out of an evaluation
type Quote struct {
	Quote       string     `json:"quote"`
	Theme       string     `json:"theme,omitempty"`
	Context     string     `json:"context,omitempty"`
	Participant string     `json:"participant"`
	PanelName   string     `json:"panel_name"`
	PanelID     string     `json:"panel_id"`
	InterviewID string     `json:"interview_id"`
	Sentiment   Sentiment  `json:"sentiment"`
	CompletedAt *time.Time `json:"completed_at"`
}

// QuoteResult carries the truncated quotes and the size of the full match set
type QuoteResult struct {
	TotalFound int     `json:"total_found"`
	Quotes     []Quote `json:"quotes"`
}

// SearchFilter narrows relevance search
type SearchFilter struct {
	PanelName string `json:"panel_name,omitempty"`
	PanelID   string `json:"panel_id"`
	Sentiment string `json:"sentiment,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// ScoredResult is one evaluation ranked by keyword relevance
type ScoredResult struct {
	InterviewID    string      `json:"interview_id"`
	PanelName      string      `json:"panel_name"`
	Participant    string      `json:"participant"`
	CompletedAt    *time.Time  `json:"completed_at"`
	Summary        string      `json:"summary"`
	Sentiment      Sentiment   `json:"sentiment"`
	SentimentScore *float64    `json:"sentiment_score"`
	QualityScore   *float64    `json:"quality_score"`
	Topics         []string    `json:"topics"`
	PainPoints     []PainPoint `json:"pain_points"`
	Desires        []Desire    `json:"desires"`
	KeyQuotes      []KeyQuote  `json:"key_quotes"`
	RelevanceScore int         `json:"relevance_score"`
}

// SearchResult wraps scored results for a query
type SearchResult struct {
	Query        string         `json:"query"`
	ResultsCount int            `json:"results_count"`
	Results      []ScoredResult `json:"results"`
}
