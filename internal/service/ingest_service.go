package service

import (
	"context"
	"strings"
	"time"

	"voicepanels/internal/cache"
	"voicepanels/internal/insights"
	"voicepanels/internal/metrics"
	"voicepanels/internal/model"
	"voicepanels/internal/repository"

	"github.com/sirupsen/logrus"
)

// IngestRequest carries one finished interview. Exactly one of Evaluation
// and Transcript is expected; Evaluation wins when both are set.
type IngestRequest struct {
	InterviewID        string               `json:"interview_id"`
	PanelID            string               `json:"panel_id"`
	ParticipantName    string               `json:"participant_name,omitempty"`
	ParticipantCompany string               `json:"participant_company,omitempty"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
	Transcript         string               `json:"transcript,omitempty"`
	Evaluation         *model.RawEvaluation `json:"evaluation,omitempty"`
}

// IngestResult reports what happened to an ingested interview
type IngestResult struct {
	InterviewID string `json:"interview_id"`
	PanelID     string `json:"panel_id"`
	Inserted    bool   `json:"inserted"`
	Sentiment   string `json:"sentiment"`
}

// IngestService is the write path: it stores interviews and their one
// evaluation, then refreshes whatever depends on them.
type IngestService struct {
	evals       repository.EvaluationStore
	panels      repository.PanelStore
	evaluator   *EvaluatorService
	summaries   cache.SummaryCache
	insights    *InsightService
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	log         *logrus.Entry
}

func NewIngestService(evals repository.EvaluationStore, panels repository.PanelStore, evaluator *EvaluatorService, summaries cache.SummaryCache, insightSvc *InsightService, m *metrics.Metrics, log *logrus.Entry) *IngestService {
	return &IngestService{
		evals:     evals,
		panels:    panels,
		evaluator: evaluator,
		summaries: summaries,
		insights:  insightSvc,
		metrics:   m,
		log:       log,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *IngestService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Ingest stores an interview and its evaluation. A second evaluation for the
// same interview is ignored and reported with Inserted=false; the stored
// interview is left untouched and no transcript is evaluated.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	req.InterviewID = strings.TrimSpace(req.InterviewID)
	req.PanelID = strings.TrimSpace(req.PanelID)
	if req.InterviewID == "" || req.PanelID == "" {
		return nil, &insights.ValidationError{Msg: "interview_id and panel_id are required"}
	}
	if req.Evaluation == nil && strings.TrimSpace(req.Transcript) == "" {
		return nil, &insights.ValidationError{Msg: "either evaluation or transcript is required"}
	}

	panel, err := s.panels.GetPanel(ctx, req.PanelID)
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "get panel", Err: err}
	}
	if panel == nil {
		return nil, &insights.NotFoundError{Kind: "panel", Ref: req.PanelID}
	}

	log := s.log.WithFields(logrus.Fields{"interview_id": req.InterviewID, "panel_id": req.PanelID})

	existing, err := s.evals.ListEvaluations(ctx, repository.EvaluationQuery{InterviewID: req.InterviewID, Limit: 1})
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "check evaluation", Err: err}
	}
	if len(existing) > 0 {
		s.metrics.EvaluationIngested(false)
		log.Info("evaluation already exists, ignoring")
		return &IngestResult{
			InterviewID: req.InterviewID,
			PanelID:     existing[0].PanelID,
			Inserted:    false,
			Sentiment:   strings.ToLower(strings.TrimSpace(existing[0].Sentiment)),
		}, nil
	}

	now := time.Now().UTC()
	if err := s.panels.UpsertInterview(ctx, &model.Interview{
		ID:                 req.InterviewID,
		PanelID:            req.PanelID,
		ParticipantName:    strings.TrimSpace(req.ParticipantName),
		ParticipantCompany: strings.TrimSpace(req.ParticipantCompany),
		CompletedAt:        req.CompletedAt,
		CreatedAt:          now,
	}); err != nil {
		return nil, &insights.UpstreamFetchError{Op: "upsert interview", Err: err}
	}

	ev := req.Evaluation
	if ev == nil {
		participant := req.ParticipantName
		if participant == "" {
			participant = req.ParticipantCompany
		}
		ev, err = s.evaluator.EvaluateTranscript(ctx, TranscriptInput{
			PanelName:   panel.Name,
			Participant: participant,
			Transcript:  req.Transcript,
		})
		if err != nil {
			return nil, &insights.UpstreamFetchError{Op: "evaluate transcript", Err: err}
		}
	}

	ev.InterviewID = req.InterviewID
	ev.PanelID = req.PanelID
	ev.Sentiment = strings.ToLower(strings.TrimSpace(ev.Sentiment))
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}

	inserted, err := s.evals.InsertEvaluation(ctx, ev)
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "insert evaluation", Err: err}
	}
	s.metrics.EvaluationIngested(inserted)

	if inserted {
		log.Info("evaluation stored")
		s.refresh(ctx, log, req.PanelID)
	} else {
		log.Info("evaluation stored concurrently, ignoring")
	}

	return &IngestResult{
		InterviewID: req.InterviewID,
		PanelID:     req.PanelID,
		Inserted:    inserted,
		Sentiment:   ev.Sentiment,
	}, nil
}

// refresh drops stale summaries and pushes the new one to dashboards
func (s *IngestService) refresh(ctx context.Context, log *logrus.Entry, panelID string) {
	if s.summaries != nil {
		if err := s.summaries.Invalidate(ctx, panelID); err != nil {
			log.WithError(err).Warn("summary cache invalidation failed")
		}
	}
	if s.broadcaster == nil || s.insights == nil {
		return
	}
	summary, err := s.insights.PanelSummary(ctx, panelID)
	if err != nil {
		log.WithError(err).Warn("could not build summary for broadcast")
		return
	}
	s.broadcaster.BroadcastToPanel(panelID, EventEvaluationAdded, summary)
}
