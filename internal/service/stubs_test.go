package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"voicepanels/internal/cache"
	"voicepanels/internal/insights"
	"voicepanels/internal/logger"
	"voicepanels/internal/model"
	"voicepanels/internal/repository"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	return logger.Discard().Entry
}

type stubEvals struct {
	mu        sync.Mutex
	records   []model.RawEvaluation
	failFor   map[string]error // by panel id; "" fails every read
	queries   []repository.EvaluationQuery
	afterList func() // runs once a read has been served
}

func (s *stubEvals) ListEvaluations(_ context.Context, q repository.EvaluationQuery) ([]model.RawEvaluation, error) {
	out, err := s.list(q)
	if s.afterList != nil {
		s.afterList()
	}
	return out, err
}

func (s *stubEvals) list(q repository.EvaluationQuery) ([]model.RawEvaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if err := s.failFor[""]; err != nil {
		return nil, err
	}
	if err := s.failFor[q.PanelID]; err != nil {
		return nil, err
	}
	var out []model.RawEvaluation
	for _, r := range s.records {
		if q.InterviewID != "" && r.InterviewID != q.InterviewID {
			continue
		}
		if q.PanelID != "" && r.PanelID != q.PanelID {
			continue
		}
		if q.Sentiment != "" && r.Sentiment != q.Sentiment {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *stubEvals) InsertEvaluation(_ context.Context, ev *model.RawEvaluation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.InterviewID == ev.InterviewID {
			return false, nil
		}
	}
	s.records = append([]model.RawEvaluation{*ev}, s.records...)
	return true, nil
}

type stubPanels struct {
	panels     []model.Panel
	interviews map[string]model.Interview
	err        error
	failIDs    map[string]error // GetPanel errors by id
}

func (s *stubPanels) CreatePanel(_ context.Context, p *model.Panel) error {
	if s.err != nil {
		return s.err
	}
	s.panels = append(s.panels, *p)
	return nil
}

func (s *stubPanels) GetPanel(_ context.Context, id string) (*model.Panel, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := s.failIDs[id]; err != nil {
		return nil, err
	}
	for _, p := range s.panels {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (s *stubPanels) ListPanels(_ context.Context) ([]model.Panel, error) {
	return s.panels, s.err
}

func (s *stubPanels) FindPanelByName(_ context.Context, name string) (*model.Panel, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.panels {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (s *stubPanels) UpsertInterview(_ context.Context, iv *model.Interview) error {
	if s.interviews == nil {
		s.interviews = map[string]model.Interview{}
	}
	s.interviews[iv.ID] = *iv
	return nil
}

func (s *stubPanels) GetInterview(_ context.Context, id string) (*model.Interview, error) {
	iv, ok := s.interviews[id]
	if !ok {
		return nil, nil
	}
	return &iv, nil
}

// stubCache keeps summaries per scope and generation the way the Redis
// cache lays out its keys.
type stubCache struct {
	entries     map[string]*model.PanelSummary
	gens        map[string]uint64
	invalidated [][]string
	getErr      error
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]*model.PanelSummary{}, gens: map[string]uint64{}}
}

// put stores summary under the scope's current generation
func (c *stubCache) put(panelID string, summary *model.PanelSummary) {
	c.entries[cache.SummaryKey(panelID, c.gens[panelID])] = summary
}

func (c *stubCache) Get(_ context.Context, panelID string) (*model.PanelSummary, uint64, error) {
	if c.getErr != nil {
		return nil, 0, c.getErr
	}
	gen := c.gens[panelID]
	return c.entries[cache.SummaryKey(panelID, gen)], gen, nil
}

func (c *stubCache) Set(_ context.Context, panelID string, gen uint64, s *model.PanelSummary) error {
	c.entries[cache.SummaryKey(panelID, gen)] = s
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, panelIDs ...string) error {
	c.invalidated = append(c.invalidated, panelIDs)
	c.gens[cache.ScopeAll]++
	for _, id := range panelIDs {
		if id != cache.ScopeAll {
			c.gens[id]++
		}
	}
	return nil
}

type broadcast struct {
	panelID string
	msgType string
	payload interface{}
}

type stubBroadcaster struct {
	sent []broadcast
}

func (b *stubBroadcaster) BroadcastToPanel(panelID, msgType string, payload interface{}) {
	b.sent = append(b.sent, broadcast{panelID, msgType, payload})
}

var errStoreDown = errors.New("store unreachable")

func yes() *bool { v := true; return &v }

func fixturePanels() *stubPanels {
	return &stubPanels{panels: []model.Panel{
		{ID: "p1", Name: "Founders Q1"},
		{ID: "p2", Name: "Enterprise Buyers"},
		{ID: "p3", Name: "Founders Q2"},
	}}
}

func fixtureEvals() *stubEvals {
	return &stubEvals{records: []model.RawEvaluation{
		{InterviewID: "i1", PanelID: "p1", PanelName: "Founders Q1", Sentiment: "positive", SentimentScore: 0.9,
			Summary: "Loved the onboarding", Topics: []any{"onboarding", "pricing"},
			KeyQuotes: []any{map[string]any{"quote": "Setup took five minutes", "theme": "onboarding"}}},
		{InterviewID: "i2", PanelID: "p1", PanelName: "Founders Q1", Sentiment: "negative", SentimentScore: 0.2,
			Summary: "Pricing is a blocker", Topics: []any{"pricing"}, PainPoints: []any{"too expensive"},
			FollowUpWorthy: yes()},
		{InterviewID: "i3", PanelID: "p2", PanelName: "Enterprise Buyers", Sentiment: "positive",
			Summary: "Security review went smoothly", Topics: []any{"security", "pricing"}},
	}}
}

func asInsufficient(err error, target **insights.InsufficientPanelsError) bool {
	return errors.As(err, target)
}
