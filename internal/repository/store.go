package repository

import (
	"context"

	"voicepanels/internal/model"
)

// EvaluationQuery filters evaluation reads. Empty fields match everything;
// Limit <= 0 means no cap. Results are always newest created_at first.
type EvaluationQuery struct {
	InterviewID string
	PanelID     string
	Sentiment   string
	Limit       int
}

// EvaluationStore persists evaluation records and reads them back joined
// with their interview and panel.
type EvaluationStore interface {
	ListEvaluations(ctx context.Context, q EvaluationQuery) ([]model.RawEvaluation, error)
	// InsertEvaluation stores ev unless one already exists for the interview.
	// It reports whether a new record was written.
	InsertEvaluation(ctx context.Context, ev *model.RawEvaluation) (bool, error)
}

// PanelStore handles panels and the interviews that belong to them.
// Single-record reads return (nil, nil) when nothing matches.
type PanelStore interface {
	CreatePanel(ctx context.Context, panel *model.Panel) error
	GetPanel(ctx context.Context, id string) (*model.Panel, error)
	ListPanels(ctx context.Context) ([]model.Panel, error)
	// FindPanelByName returns the oldest panel whose name contains name,
	// ignoring case.
	FindPanelByName(ctx context.Context, name string) (*model.Panel, error)
	UpsertInterview(ctx context.Context, interview *model.Interview) error
	GetInterview(ctx context.Context, id string) (*model.Interview, error)
}

// storable strips the joined read-side fields before a write
func storable(ev *model.RawEvaluation) model.RawEvaluation {
	doc := *ev
	doc.PanelName = ""
	doc.ParticipantName = ""
	doc.ParticipantCompany = ""
	doc.CompletedAt = nil
	return doc
}
