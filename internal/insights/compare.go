package insights

import (
	"fmt"
	"strings"

	"voicepanels/internal/model"
)

const (
	// MinComparePanels is the smallest comparison that makes sense
	MinComparePanels = 2
	// CompareTopN is the narrower ranking used per comparison column
	CompareTopN = 5
	// PositiveSpreadThreshold is the gap in percentage points above which the
	// sentiment leader is called out
	PositiveSpreadThreshold = 10
	sharedTopicLimit        = 3
)

// PanelData is a resolved panel together with its evaluations
type PanelData struct {
	ID          string
	Name        string
	Evaluations []model.Evaluation
}

// ComparePanel builds one comparison column
func ComparePanel(p PanelData) model.PanelComparison {
	s := Aggregate(p.Evaluations)

	topics := s.TopTopics
	if len(topics) > CompareTopN {
		topics = topics[:CompareTopN]
	}
	painPoints := s.TopPainPoints
	if len(painPoints) > CompareTopN {
		painPoints = painPoints[:CompareTopN]
	}

	return model.PanelComparison{
		PanelID:               p.ID,
		PanelName:             p.Name,
		InterviewCount:        s.InterviewCount,
		SentimentBreakdown:    s.SentimentBreakdown,
		PositivePercentage:    percent(s.SentimentBreakdown.Positive, s.InterviewCount),
		AverageSentimentScore: s.AverageSentimentScore,
		AverageQualityScore:   s.AverageQualityScore,
		TopTopics:             topics,
		TopPainPoints:         painPoints,
		FollowUpCandidates:    s.FollowUpCandidates,
	}
}

// Compare builds the comparison columns in the given order and, when there
// are at least two of them, the cross-panel insights.
func Compare(panels []PanelData) model.ComparisonResult {
	result := model.ComparisonResult{
		PanelsRequested: len(panels),
		PanelsCompared:  len(panels),
		Panels:          make([]model.PanelComparison, 0, len(panels)),
		Insights:        []string{},
	}
	for _, p := range panels {
		result.Panels = append(result.Panels, ComparePanel(p))
	}
	if len(result.Panels) >= MinComparePanels {
		result.Insights = CrossPanelInsights(result.Panels)
	}
	return result
}

// CrossPanelInsights derives, in order: the positive-sentiment spread (only
// above the threshold), the volume leader, and the topics shared by every
// panel's top five.
func CrossPanelInsights(cols []model.PanelComparison) []string {
	out := []string{}
	if len(cols) < MinComparePanels {
		return out
	}

	leader, trailer := cols[0], cols[0]
	busiest := cols[0]
	for _, c := range cols[1:] {
		if c.PositivePercentage > leader.PositivePercentage {
			leader = c
		}
		if c.PositivePercentage < trailer.PositivePercentage {
			trailer = c
		}
		if c.InterviewCount > busiest.InterviewCount {
			busiest = c
		}
	}

	if gap := leader.PositivePercentage - trailer.PositivePercentage; gap > PositiveSpreadThreshold {
		out = append(out, fmt.Sprintf("%s has the most positive sentiment (%d%% positive), %d points ahead of %s (%d%% positive).",
			leader.PanelName, leader.PositivePercentage, gap, trailer.PanelName, trailer.PositivePercentage))
	}

	out = append(out, fmt.Sprintf("%s has the most interviews (%d).", busiest.PanelName, busiest.InterviewCount))

	if shared := sharedTopics(cols); len(shared) > 0 {
		if len(shared) > sharedTopicLimit {
			shared = shared[:sharedTopicLimit]
		}
		out = append(out, fmt.Sprintf("Topics shared across all panels: %s.", strings.Join(shared, ", ")))
	}

	return out
}

// sharedTopics intersects every column's top topics, in the first column's order
func sharedTopics(cols []model.PanelComparison) []string {
	sets := make([]map[string]struct{}, len(cols))
	for i, c := range cols {
		sets[i] = make(map[string]struct{}, len(c.TopTopics))
		for _, t := range c.TopTopics {
			sets[i][t.Topic] = struct{}{}
		}
	}

	var shared []string
	for _, t := range cols[0].TopTopics {
		inAll := true
		for _, set := range sets[1:] {
			if _, ok := set[t.Topic]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, t.Topic)
		}
	}
	return shared
}
