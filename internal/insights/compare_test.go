package insights

import (
	"strings"
	"testing"

	"voicepanels/internal/model"
)

func panelWith(id, name string, positive, total int, topics ...string) PanelData {
	p := PanelData{ID: id, Name: name}
	for i := 0; i < total; i++ {
		s := model.SentimentNegative
		if i < positive {
			s = model.SentimentPositive
		}
		p.Evaluations = append(p.Evaluations, model.Evaluation{PanelID: id, Sentiment: s, Topics: topics})
	}
	return p
}

func TestCompareEmitsSpreadAboveThreshold(t *testing.T) {
	a := panelWith("a", "Alpha", 8, 10)
	b := panelWith("b", "Beta", 6, 10)

	res := Compare([]PanelData{a, b})

	if res.Panels[0].PositivePercentage != 80 || res.Panels[1].PositivePercentage != 60 {
		t.Fatalf("unexpected positive percentages: %+v", res.Panels)
	}
	if len(res.Insights) == 0 || !strings.Contains(res.Insights[0], "20 points ahead of Beta") {
		t.Fatalf("expected spread insight, got %v", res.Insights)
	}
}

func TestCompareSkipsSpreadAtOrBelowThreshold(t *testing.T) {
	a := panelWith("a", "Alpha", 13, 20)
	b := panelWith("b", "Beta", 12, 20)

	res := Compare([]PanelData{a, b})

	for _, s := range res.Insights {
		if strings.Contains(s, "points ahead") {
			t.Fatalf("unexpected spread insight for a 5 point gap: %q", s)
		}
	}
	if len(res.Insights) != 1 || !strings.Contains(res.Insights[0], "most interviews") {
		t.Fatalf("expected only the volume insight, got %v", res.Insights)
	}
}

func TestCompareVolumeLeaderAndSharedTopics(t *testing.T) {
	a := panelWith("a", "Alpha", 1, 2, "pricing", "support", "docs", "api")
	b := panelWith("b", "Beta", 2, 4, "api", "pricing", "docs", "support")

	res := Compare([]PanelData{a, b})

	if !containsLine(res.Insights, "Beta has the most interviews (4).") {
		t.Fatalf("expected Beta as volume leader, got %v", res.Insights)
	}
	if !containsLine(res.Insights, "Topics shared across all panels: pricing, support, docs.") {
		t.Fatalf("expected first three shared topics in first panel order, got %v", res.Insights)
	}
}

func TestComparePreservesCallerOrderAndTruncatesTopFive(t *testing.T) {
	topics := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	a := panelWith("z", "Zulu", 1, 1, topics...)
	b := panelWith("a", "Alpha", 1, 1, topics...)

	res := Compare([]PanelData{a, b})

	if res.Panels[0].PanelID != "z" || res.Panels[1].PanelID != "a" {
		t.Fatalf("panel order not preserved: %+v", res.Panels)
	}
	if len(res.Panels[0].TopTopics) != CompareTopN {
		t.Fatalf("expected %d topics per column, got %d", CompareTopN, len(res.Panels[0].TopTopics))
	}
	if res.PanelsRequested != 2 || res.PanelsCompared != 2 {
		t.Fatalf("unexpected counts: %d/%d", res.PanelsRequested, res.PanelsCompared)
	}
}

func TestCompareSinglePanelHasNoInsights(t *testing.T) {
	res := Compare([]PanelData{panelWith("a", "Alpha", 1, 1)})
	if len(res.Insights) != 0 {
		t.Fatalf("expected no insights, got %v", res.Insights)
	}
}

func TestComparePanelEmpty(t *testing.T) {
	col := ComparePanel(PanelData{ID: "a", Name: "Empty"})
	if col.PositivePercentage != 0 || col.InterviewCount != 0 {
		t.Fatalf("expected zeroed column, got %+v", col)
	}
}

func TestInsufficientPanelsMessages(t *testing.T) {
	given := (&InsufficientPanelsError{Requested: 1}).Error()
	resolved := (&InsufficientPanelsError{Requested: 3, Resolved: 1}).Error()
	if given == resolved {
		t.Fatalf("expected distinct messages, both were %q", given)
	}
	if !IsValidation(&InsufficientPanelsError{}) {
		t.Fatalf("insufficient panels should classify as validation")
	}
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}
