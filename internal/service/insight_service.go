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
	"golang.org/x/sync/errgroup"
)

// InsightService fetches evaluations and runs them through the insights
// package. It never writes evaluation data.
type InsightService struct {
	evals       repository.EvaluationStore
	panels      repository.PanelStore
	summaries   cache.SummaryCache
	metrics     *metrics.Metrics
	log         *logrus.Entry
	concurrency int
}

// NewInsightService wires the read side. summaries and m may be nil.
func NewInsightService(evals repository.EvaluationStore, panels repository.PanelStore, summaries cache.SummaryCache, m *metrics.Metrics, log *logrus.Entry, concurrency int) *InsightService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &InsightService{
		evals:       evals,
		panels:      panels,
		summaries:   summaries,
		metrics:     m,
		log:         log,
		concurrency: concurrency,
	}
}

func (s *InsightService) ListPanels(ctx context.Context) ([]model.Panel, error) {
	panels, err := s.panels.ListPanels(ctx)
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "list panels", Err: err}
	}
	return panels, nil
}

// ResolvePanel looks a panel up by id, or by name when no id is given
func (s *InsightService) ResolvePanel(ctx context.Context, ref model.PanelRef) (*model.Panel, error) {
	var (
		panel *model.Panel
		err   error
	)
	switch {
	case strings.TrimSpace(ref.ID) != "":
		panel, err = s.panels.GetPanel(ctx, strings.TrimSpace(ref.ID))
	case strings.TrimSpace(ref.Name) != "":
		panel, err = s.panels.FindPanelByName(ctx, strings.TrimSpace(ref.Name))
	default:
		return nil, &insights.ValidationError{Msg: "panel id or panel name is required"}
	}
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "resolve panel", Err: err}
	}
	if panel == nil {
		return nil, &insights.NotFoundError{Kind: "panel", Ref: ref.ID + ref.Name}
	}
	return panel, nil
}

// PanelSummary aggregates every evaluation of one panel
func (s *InsightService) PanelSummary(ctx context.Context, panelID string) (*model.PanelSummary, error) {
	panel, err := s.ResolvePanel(ctx, model.PanelRef{ID: panelID})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, panel.ID, panel.Name)
}

// OverallSummary aggregates the whole corpus
func (s *InsightService) OverallSummary(ctx context.Context) (*model.PanelSummary, error) {
	return s.summary(ctx, cache.ScopeAll, "")
}

func (s *InsightService) summary(ctx context.Context, panelID, panelName string) (*model.PanelSummary, error) {
	defer s.metrics.ObserveOperation("summary", time.Now())
	log := s.log.WithField("panel_id", panelID)

	var (
		gen      uint64
		writable bool
	)
	if s.summaries != nil {
		cached, g, err := s.summaries.Get(ctx, panelID)
		if err != nil {
			log.WithError(err).Warn("summary cache read failed")
		} else {
			gen, writable = g, true
		}
		if cached != nil {
			s.metrics.CacheHit()
			return cached, nil
		}
		s.metrics.CacheMiss()
	}

	raws, err := s.evals.ListEvaluations(ctx, repository.EvaluationQuery{PanelID: panelID})
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "fetch evaluations", Err: err}
	}

	summary := insights.Aggregate(insights.NormalizeAll(raws))
	summary.PanelID = panelID
	summary.PanelName = panelName

	if writable {
		if err := s.summaries.Set(ctx, panelID, gen, &summary); err != nil {
			log.WithError(err).Warn("summary cache write failed")
		}
	}
	return &summary, nil
}

// ResolvePanels maps refs to distinct panels in the given order. Refs that
// match nothing are dropped; refs whose lookup fails are returned as skipped.
func (s *InsightService) ResolvePanels(ctx context.Context, refs []model.PanelRef) ([]model.Panel, []model.SkippedPanel, error) {
	seen := make(map[string]bool, len(refs))
	var (
		out     []model.Panel
		skipped []model.SkippedPanel
		lastErr error
	)
	for _, ref := range refs {
		panel, err := s.ResolvePanel(ctx, ref)
		if insights.IsNotFound(err) || insights.IsValidation(err) {
			s.log.WithField("ref", ref).Debug("panel reference did not resolve")
			continue
		}
		if err != nil {
			lastErr = err
			s.log.WithError(err).WithField("ref", ref).Warn("panel lookup failed, skipping")
			s.metrics.PanelSkipped()
			skipped = append(skipped, model.SkippedPanel{PanelID: ref.ID, PanelName: ref.Name, Reason: err.Error()})
			continue
		}
		if seen[panel.ID] {
			continue
		}
		seen[panel.ID] = true
		out = append(out, *panel)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, skipped, lastErr
	}
	return out, skipped, nil
}

// ComparePanels resolves refs and compares the panels side by side. A panel
// whose lookup or fetch fails is reported in skipped_panels instead of
// failing the request; if every lookup or every fetch fails the store is
// treated as down.
func (s *InsightService) ComparePanels(ctx context.Context, refs []model.PanelRef) (*model.ComparisonResult, error) {
	defer s.metrics.ObserveOperation("compare", time.Now())

	if len(refs) < insights.MinComparePanels {
		return nil, &insights.InsufficientPanelsError{Requested: len(refs)}
	}
	panels, skipped, err := s.ResolvePanels(ctx, refs)
	if err != nil {
		return nil, err
	}
	if len(panels) < insights.MinComparePanels {
		return nil, &insights.InsufficientPanelsError{Requested: len(refs), Resolved: len(panels)}
	}

	fetched := make([][]model.RawEvaluation, len(panels))
	fetchErrs := make([]error, len(panels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range panels {
		g.Go(func() error {
			fetched[i], fetchErrs[i] = s.evals.ListEvaluations(gctx, repository.EvaluationQuery{PanelID: p.ID})
			return nil
		})
	}
	_ = g.Wait()

	var data []insights.PanelData
	var lastErr error
	for i, p := range panels {
		if fetchErrs[i] != nil {
			lastErr = fetchErrs[i]
			s.log.WithError(fetchErrs[i]).WithField("panel_id", p.ID).Warn("dropping panel from comparison")
			s.metrics.PanelSkipped()
			skipped = append(skipped, model.SkippedPanel{PanelID: p.ID, Reason: fetchErrs[i].Error()})
			continue
		}
		data = append(data, insights.PanelData{
			ID:          p.ID,
			Name:        p.Name,
			Evaluations: insights.NormalizeAll(fetched[i]),
		})
	}
	if len(data) == 0 {
		return nil, &insights.UpstreamFetchError{Op: "fetch panel evaluations", Err: lastErr}
	}

	result := insights.Compare(data)
	result.PanelsRequested = len(refs)
	result.SkippedPanels = skipped
	return &result, nil
}

// FindQuotes returns key quotes matching filter, newest first
func (s *InsightService) FindQuotes(ctx context.Context, filter model.QuoteFilter) (*model.QuoteResult, error) {
	defer s.metrics.ObserveOperation("quotes", time.Now())

	if err := validateSentiment(filter.Sentiment); err != nil {
		return nil, err
	}
	filter.Limit = insights.ClampLimit(filter.Limit)
	raws, err := s.evals.ListEvaluations(ctx, repository.EvaluationQuery{
		PanelID:   filter.PanelID,
		Sentiment: filter.Sentiment,
	})
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "fetch evaluations", Err: err}
	}

	result := insights.FindQuotes(insights.NormalizeAll(raws), filter)
	return &result, nil
}

// Search scores the most recent matching evaluations against query
func (s *InsightService) Search(ctx context.Context, query string, filter model.SearchFilter) (*model.SearchResult, error) {
	defer s.metrics.ObserveOperation("search", time.Now())

	if strings.TrimSpace(query) == "" {
		return nil, &insights.ValidationError{Msg: "search query is required"}
	}
	if err := validateSentiment(filter.Sentiment); err != nil {
		return nil, err
	}
	filter.Limit = insights.ClampLimit(filter.Limit)

	raws, err := s.evals.ListEvaluations(ctx, repository.EvaluationQuery{
		PanelID:   filter.PanelID,
		Sentiment: filter.Sentiment,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, &insights.UpstreamFetchError{Op: "fetch evaluations", Err: err}
	}

	results, err := insights.Search(query, insights.NormalizeAll(raws), filter)
	if err != nil {
		return nil, err
	}
	return &model.SearchResult{Query: query, ResultsCount: len(results), Results: results}, nil
}

func validateSentiment(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || model.Sentiment(s).Valid() {
		return nil
	}
	return &insights.ValidationError{Msg: "sentiment must be one of positive, negative, neutral, mixed"}
}
