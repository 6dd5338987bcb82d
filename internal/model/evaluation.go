package model

import "time"

// Sentiment is the overall tone assigned to an interview by the evaluator
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Sentiments lists the recognised values in reporting order
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed}

// Valid reports whether s is one of the four recognised sentiments
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

// Level is a severity or priority bucket
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// RawEvaluation is an evaluation record as the store hands it out.
// List fields keep whatever shape the evaluator wrote (bare strings or
// objects); insights.Normalize turns them into an Evaluation.
type RawEvaluation struct {
	InterviewID      string `json:"interview_id" bson:"interview_id"`
	PanelID          string `json:"panel_id" bson:"panel_id"`
	Summary          string `json:"summary,omitempty" bson:"summary,omitempty"`
	ExecutiveSummary string `json:"executive_summary,omitempty" bson:"executive_summary,omitempty"`
	Sentiment        string `json:"sentiment" bson:"sentiment"`

	SentimentScore any `json:"sentiment_score,omitempty" bson:"sentiment_score,omitempty"` // 0-1
	QualityScore   any `json:"quality_score,omitempty" bson:"quality_score,omitempty"`     // 1-10

	Topics     []any `json:"topics,omitempty" bson:"topics,omitempty"`
	PainPoints []any `json:"pain_points,omitempty" bson:"pain_points,omitempty"`
	Desires    []any `json:"desires,omitempty" bson:"desires,omitempty"`
	KeyQuotes  []any `json:"key_quotes,omitempty" bson:"key_quotes,omitempty"`

	FollowUpWorthy *bool     `json:"follow_up_worthy,omitempty" bson:"follow_up_worthy,omitempty"`
	NeedsReview    *bool     `json:"needs_review,omitempty" bson:"needs_review,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`

	// Joined from panels and interviews on read; never written with the record.
	PanelName          string     `json:"panel_name,omitempty" bson:"panel_name,omitempty"`
	ParticipantName    string     `json:"participant_name,omitempty" bson:"participant_name,omitempty"`
	ParticipantCompany string     `json:"participant_company,omitempty" bson:"participant_company,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// PainPoint is a normalized pain point entry
type PainPoint struct {
	Point    string `json:"point"`
	Severity Level  `json:"severity"`
	Quote    string `json:"quote,omitempty"`
}

// Desire is a normalized desire entry
type Desire struct {
	Desire   string `json:"desire"`
	Priority Level  `json:"priority"`
	Quote    string `json:"quote,omitempty"`
}

// KeyQuote is a normalized quote entry
type KeyQuote struct {
	Quote   string `json:"quote"`
	Theme   string `json:"theme,omitempty"`
	Context string `json:"context,omitempty"`
}

// Evaluation is the canonical, normalized evaluation record
type Evaluation struct {
	InterviewID      string
	PanelID          string
	PanelName        string
	Summary          string
	ExecutiveSummary string
	Sentiment        Sentiment

	SentimentScore *float64
	QualityScore   *float64

	Topics     []string
	PainPoints []PainPoint
	Desires    []Desire
	KeyQuotes  []KeyQuote

	FollowUpWorthy bool
	NeedsReview    bool
	CreatedAt      time.Time

	ParticipantName    string
	ParticipantCompany string
	CompletedAt        *time.Time

	// SearchText is the lowercased stored text keyword search runs on
	SearchText string
}

// Participant returns the display name used in quotes and search results
func (e *Evaluation) Participant() string {
	if e.ParticipantName != "" {
		return e.ParticipantName
	}
	if e.ParticipantCompany != "" {
		return e.ParticipantCompany
	}
	return "Anonymous"
}
