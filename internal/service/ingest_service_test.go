package service

import (
	"context"
	"testing"
	"time"

	"voicepanels/internal/config"
	"voicepanels/internal/insights"
	"voicepanels/internal/metrics"
	"voicepanels/internal/model"
)

func newTestIngest(evals *stubEvals, panels *stubPanels, c *stubCache, b *stubBroadcaster) *IngestService {
	m := metrics.New()
	insightSvc := NewInsightService(evals, panels, c, m, testLog(), 2)
	evaluator := NewEvaluatorService(&config.AIConfig{}, testLog())
	svc := NewIngestService(evals, panels, evaluator, c, insightSvc, m, testLog())
	svc.SetBroadcaster(b)
	return svc
}

func TestIngestStoresOnceAndRefreshes(t *testing.T) {
	evals := &stubEvals{}
	panels := fixturePanels()
	c := newStubCache()
	c.put("p1", &model.PanelSummary{InterviewCount: 99})
	b := &stubBroadcaster{}
	svc := newTestIngest(evals, panels, c, b)

	done := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	req := IngestRequest{
		InterviewID:     "i9",
		PanelID:         "p1",
		ParticipantName: "Dana",
		CompletedAt:     &done,
		Evaluation: &model.RawEvaluation{
			Sentiment: " Positive ",
			Summary:   "Great call",
			Topics:    []any{"pricing"},
		},
	}

	res, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Inserted || res.Sentiment != "positive" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(c.invalidated) != 1 || c.invalidated[0][0] != "p1" {
		t.Fatalf("expected p1 invalidated, got %v", c.invalidated)
	}
	if len(b.sent) != 1 || b.sent[0].msgType != EventEvaluationAdded {
		t.Fatalf("expected one broadcast, got %+v", b.sent)
	}
	summary, ok := b.sent[0].payload.(*model.PanelSummary)
	if !ok || summary.InterviewCount != 1 {
		t.Fatalf("expected fresh summary in broadcast, got %#v", b.sent[0].payload)
	}
	if iv := panels.interviews["i9"]; iv.ParticipantName != "Dana" || iv.CompletedAt == nil {
		t.Fatalf("interview not upserted: %+v", iv)
	}

	again, err := svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on duplicate: %v", err)
	}
	if again.Inserted {
		t.Fatalf("duplicate evaluation must not be inserted")
	}
	if len(evals.records) != 1 || len(b.sent) != 1 {
		t.Fatalf("duplicate changed state: %d records, %d broadcasts", len(evals.records), len(b.sent))
	}
}

func TestIngestDuplicateLeavesInterviewAndSkipsModel(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	evals := &stubEvals{records: []model.RawEvaluation{{InterviewID: "i5", PanelID: "p1", Sentiment: "negative"}}}
	panels := fixturePanels()
	panels.interviews = map[string]model.Interview{
		"i5": {ID: "i5", PanelID: "p1", ParticipantName: "Ari", CreatedAt: created},
	}
	chat := &stubChat{content: `{"sentiment":"positive"}`}
	svc := newTestIngest(evals, panels, newStubCache(), &stubBroadcaster{})
	svc.evaluator = newStubbedEvaluator(chat, 0)

	res, err := svc.Ingest(context.Background(), IngestRequest{
		InterviewID:     "i5",
		PanelID:         "p1",
		ParticipantName: "Someone Else",
		Transcript:      "Completely different transcript text.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted || res.Sentiment != "negative" {
		t.Fatalf("expected stored record reported unchanged, got %+v", res)
	}
	if chat.calls != 0 {
		t.Fatalf("duplicate spent %d model calls", chat.calls)
	}
	iv := panels.interviews["i5"]
	if iv.ParticipantName != "Ari" || !iv.CreatedAt.Equal(created) {
		t.Fatalf("duplicate rewrote interview: %+v", iv)
	}
	if len(evals.records) != 1 {
		t.Fatalf("expected one record, got %d", len(evals.records))
	}
}

func TestIngestDuplicateCheckFailure(t *testing.T) {
	evals := &stubEvals{failFor: map[string]error{"": errStoreDown}}
	svc := newTestIngest(evals, fixturePanels(), newStubCache(), &stubBroadcaster{})

	_, err := svc.Ingest(context.Background(), IngestRequest{InterviewID: "i1", PanelID: "p1", Transcript: "hello there"})
	if !insights.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestIngestTranscriptUsesEvaluator(t *testing.T) {
	evals := &stubEvals{}
	svc := newTestIngest(evals, fixturePanels(), newStubCache(), &stubBroadcaster{})

	res, err := svc.Ingest(context.Background(), IngestRequest{
		InterviewID: "i10",
		PanelID:     "p2",
		Transcript:  "I love how easy the setup was. The pricing is a bit expensive for a small team though, honestly.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Inserted || len(evals.records) != 1 {
		t.Fatalf("expected stored evaluation, got %+v", res)
	}
	if evals.records[0].InterviewID != "i10" || evals.records[0].PanelID != "p2" {
		t.Fatalf("ids not stamped: %+v", evals.records[0])
	}
}

func TestIngestValidation(t *testing.T) {
	svc := newTestIngest(&stubEvals{}, fixturePanels(), newStubCache(), &stubBroadcaster{})

	cases := []IngestRequest{
		{PanelID: "p1", Transcript: "x"},
		{InterviewID: "i1", Transcript: "x"},
		{InterviewID: "i1", PanelID: "p1"},
	}
	for _, req := range cases {
		if _, err := svc.Ingest(context.Background(), req); !insights.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}

	_, err := svc.Ingest(context.Background(), IngestRequest{InterviewID: "i1", PanelID: "missing", Transcript: "x"})
	if !insights.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
