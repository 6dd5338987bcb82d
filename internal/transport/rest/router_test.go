package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"voicepanels/internal/config"
	"voicepanels/internal/insights"
	"voicepanels/internal/logger"
	"voicepanels/internal/metrics"
	"voicepanels/internal/model"
	"voicepanels/internal/repository"
	"voicepanels/internal/service"
	"voicepanels/internal/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/xuri/excelize/v2"
)

// memStore keeps panels, interviews and evaluations in memory
type memStore struct {
	mu         sync.Mutex
	panels     []model.Panel
	interviews map[string]model.Interview
	evals      []model.RawEvaluation
	queries    []repository.EvaluationQuery
	err        error
}

func (m *memStore) ListEvaluations(_ context.Context, q repository.EvaluationQuery) ([]model.RawEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	var out []model.RawEvaluation
	for _, ev := range m.evals {
		if q.InterviewID != "" && ev.InterviewID != q.InterviewID {
			continue
		}
		if q.PanelID != "" && ev.PanelID != q.PanelID {
			continue
		}
		if q.Sentiment != "" && ev.Sentiment != q.Sentiment {
			continue
		}
		for _, p := range m.panels {
			if p.ID == ev.PanelID {
				ev.PanelName = p.Name
			}
		}
		if iv, ok := m.interviews[ev.InterviewID]; ok {
			ev.ParticipantName = iv.ParticipantName
			ev.CompletedAt = iv.CompletedAt
		}
		out = append(out, ev)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) InsertEvaluation(_ context.Context, ev *model.RawEvaluation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.evals {
		if existing.InterviewID == ev.InterviewID {
			return false, nil
		}
	}
	m.evals = append([]model.RawEvaluation{*ev}, m.evals...)
	return true, nil
}

func (m *memStore) CreatePanel(_ context.Context, p *model.Panel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels = append(m.panels, *p)
	return nil
}

func (m *memStore) GetPanel(_ context.Context, id string) (*model.Panel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.panels {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListPanels(_ context.Context) ([]model.Panel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Panel(nil), m.panels...), m.err
}

func (m *memStore) FindPanelByName(_ context.Context, name string) (*model.Panel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.panels {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpsertInterview(_ context.Context, iv *model.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interviews == nil {
		m.interviews = map[string]model.Interview{}
	}
	m.interviews[iv.ID] = *iv
	return nil
}

func (m *memStore) GetInterview(_ context.Context, id string) (*model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if iv, ok := m.interviews[id]; ok {
		return &iv, nil
	}
	return nil, nil
}

type testServer struct {
	handler http.Handler
	store   *memStore
	auth    *service.AuthService
	hub     *ws.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Discard()
	store := &memStore{panels: []model.Panel{
		{ID: "p1", Name: "Founders Q1", CreatedAt: time.Now()},
		{ID: "p2", Name: "Enterprise Buyers", CreatedAt: time.Now()},
	}}
	m := metrics.New()
	auth := service.NewAuthService(&config.Config{JWTSecret: "test-secret", HostUsername: "host", HostPassword: "pw"})
	insightSvc := service.NewInsightService(store, store, nil, m, log.Entry, 2)
	evaluator := service.NewEvaluatorService(&config.AIConfig{}, log.Entry)
	ingestSvc := service.NewIngestService(store, store, evaluator, nil, insightSvc, m, log.Entry)
	hub := ws.NewHub(log.Entry)
	t.Cleanup(hub.Stop)
	ingestSvc.SetBroadcaster(hub)

	h := NewRouter(&Container{
		AuthService:    auth,
		InsightService: insightSvc,
		IngestService:  ingestSvc,
		PanelService:   service.NewPanelService(store),
		AgentTools:     service.NewAgentTools(insightSvc, log.Entry),
		Metrics:        m,
		Logger:         log,
		WSHub:          hub,
	})
	return &testServer{handler: h, store: store, auth: auth, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	resp, err := s.auth.Login("host", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics: unexpected response %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "host", Password: "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp model.LoginResponse
	decode(t, rec, &resp)
	if resp.Token == "" || resp.HostID == "" {
		t.Fatalf("incomplete login response: %+v", resp)
	}

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "host", Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWriteRoutesRequireHostToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/panels", "/v1/evaluations"} {
		if rec := s.do(t, http.MethodPost, path, "", map[string]string{}); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		if rec := s.do(t, http.MethodPost, path, "garbage", map[string]string{}); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for bad token, got %d", path, rec.Code)
		}
	}
}

func TestCreateAndListPanels(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)

	if rec := s.do(t, http.MethodPost, "/v1/panels", token, map[string]string{"name": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/v1/panels", token, map[string]string{"name": "Churned Users"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/v1/panels", "", nil)
	var body struct {
		Panels []model.Panel `json:"panels"`
		Count  int           `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 3 {
		t.Fatalf("expected 3 panels, got %d", body.Count)
	}
}

func TestIngestThenSummarise(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)

	req := map[string]any{
		"interview_id":     "i1",
		"panel_id":         "p1",
		"participant_name": "Ana",
		"evaluation": map[string]any{
			"sentiment":       "Positive",
			"sentiment_score": 0.9,
			"topics":          []string{"pricing"},
			"key_quotes":      []any{map[string]string{"quote": "Fair price", "theme": "pricing"}},
		},
	}
	rec := s.do(t, http.MethodPost, "/v1/evaluations", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result service.IngestResult
	decode(t, rec, &result)
	if !result.Inserted || result.Sentiment != "positive" {
		t.Fatalf("unexpected ingest result: %+v", result)
	}

	if rec := s.do(t, http.MethodPost, "/v1/evaluations", token, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/v1/insights/panels/p1/summary", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary model.PanelSummary
	decode(t, rec, &summary)
	if summary.InterviewCount != 1 || summary.SentimentBreakdown.Positive != 1 || summary.PanelName != "Founders Q1" {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec = s.do(t, http.MethodGet, "/v1/insights/quotes?theme=pricing", "", nil)
	var quotes model.QuoteResult
	decode(t, rec, &quotes)
	if quotes.TotalFound != 1 || quotes.Quotes[0].Participant != "Ana" {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
}

func TestIngestUnknownPanel(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/evaluations", s.token(t), map[string]any{
		"interview_id": "i9", "panel_id": "nope", "transcript": "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInsightValidationErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/v1/insights/compare", map[string]any{"panel_ids": []string{"p1"}}},
		{http.MethodPost, "/v1/insights/compare", map[string]any{"panel_ids": []string{"p1"}, "panel_names": []string{"founders"}}},
		{http.MethodGet, "/v1/insights/search?q=", nil},
		{http.MethodGet, "/v1/insights/search?q=price&sentiment=angry", nil},
		{http.MethodGet, "/v1/insights/quotes?limit=abc", nil},
	}
	for _, tc := range cases {
		rec := s.do(t, tc.method, tc.path, "", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d: %s", tc.method, tc.path, rec.Code, rec.Body.String())
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] == "" {
			t.Fatalf("%s %s: expected error message", tc.method, tc.path)
		}
	}
}

func TestSearchLimitIsCapped(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/insights/search?q=pricing&limit=1000000000", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	last := s.store.queries[len(s.store.queries)-1]
	if last.Limit != insights.MaxLimit {
		t.Fatalf("expected store limit %d, got %d", insights.MaxLimit, last.Limit)
	}
}

func TestCompareByNameAndId(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/v1/insights/compare", "", map[string]any{
		"panel_ids":   []string{"p1"},
		"panel_names": []string{"enterprise"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res model.ComparisonResult
	decode(t, rec, &res)
	if res.PanelsCompared != 2 || res.Panels[1].PanelName != "Enterprise Buyers" {
		t.Fatalf("unexpected comparison: %+v", res)
	}
}

func TestPanelSummaryNotFound(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/v1/insights/panels/missing/summary", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.store.err = errors.New("connection refused")

	rec := s.do(t, http.MethodGet, "/v1/insights/summary", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("store error leaked to client: %s", rec.Body.String())
	}
}

func TestExportPanelWorkbook(t *testing.T) {
	s := newTestServer(t)
	s.store.evals = []model.RawEvaluation{{InterviewID: "i1", PanelID: "p1", Sentiment: "neutral"}}

	rec := s.do(t, http.MethodGet, "/v1/insights/panels/p1/export.xlsx", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "founders-q1-insights.xlsx") {
		t.Fatalf("unexpected disposition %q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) < 2 {
		t.Fatalf("expected several sheets, got %v", f.GetSheetList())
	}
}

func TestAgentTools(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/agent/tools", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "search_interviews") {
		t.Fatalf("unexpected definitions: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/v1/agent/tools", "", map[string]any{
		"tool_calls": []map[string]any{
			{"id": "c1", "name": "list_panels"},
			{"id": "c2", "name": "search_interviews", "arguments": `{"query":""}`},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Results []struct {
			ToolCallID string          `json:"tool_call_id"`
			Result     json.RawMessage `json:"result"`
			Error      string          `json:"error"`
		} `json:"results"`
	}
	decode(t, rec, &body)
	if len(body.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(body.Results))
	}
	if body.Results[0].Error != "" || len(body.Results[0].Result) == 0 {
		t.Fatalf("list_panels failed: %+v", body.Results[0])
	}
	if body.Results[1].Error == "" {
		t.Fatalf("expected empty query to fail")
	}

	if rec := s.do(t, http.MethodPost, "/v1/agent/tools", "", map[string]any{"tool_calls": []any{}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestDashboardReceivesIngestedSummary(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/panels/"
	if _, resp, err := websocket.DefaultDialer.Dial(base+"p1", nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
	if _, resp, err := websocket.DefaultDialer.Dial(base+"missing?token="+token, nil); err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown panel, got %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"p1?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for s.hub.Subscribers("p1") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("dashboard never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := s.do(t, http.MethodPost, "/v1/evaluations", token, map[string]any{
		"interview_id": "i1",
		"panel_id":     "p1",
		"transcript":   "I love how easy the onboarding was, great work.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != service.EventEvaluationAdded {
		t.Fatalf("unexpected event type %q", msg.Type)
	}
	var summary model.PanelSummary
	if err := json.Unmarshal(msg.Payload, &summary); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if summary.PanelID != "p1" || summary.InterviewCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
