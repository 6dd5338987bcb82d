// Package insights turns evaluation records into panel-level summaries,
// cross-panel comparisons, quote lists and keyword search results. Everything
// here is a pure function of its input.
package insights

import (
	"math"

	"voicepanels/internal/model"
)

const (
	// TopN is how many topics, pain points and desires a summary ranks
	TopN = 10
	// NotableQuoteLimit caps the quotes carried on a summary
	NotableQuoteLimit = 10
)

// Aggregate rolls evaluations up into a PanelSummary. Input order only
// matters for tie-breaking and for which quotes are picked.
func Aggregate(evals []model.Evaluation) model.PanelSummary {
	summary := model.PanelSummary{
		InterviewCount: len(evals),
		TopTopics:      []model.TopicCount{},
		TopPainPoints:  []model.PainPointCount{},
		TopDesires:     []model.DesireCount{},
		NotableQuotes:  []model.NotableQuote{},
	}

	topics := newCounter()
	painPoints := newCounter()
	desires := newCounter()

	var sentimentSum, qualitySum float64
	var sentimentN, qualityN int

	for i := range evals {
		ev := &evals[i]

		summary.SentimentBreakdown.Add(ev.Sentiment)

		if ev.SentimentScore != nil {
			sentimentSum += *ev.SentimentScore
			sentimentN++
		}
		if ev.QualityScore != nil {
			qualitySum += *ev.QualityScore
			qualityN++
		}

		for _, t := range ev.Topics {
			topics.add(t, "")
		}
		for _, p := range ev.PainPoints {
			painPoints.add(p.Point, p.Quote)
		}
		for _, d := range ev.Desires {
			desires.add(d.Desire, d.Quote)
		}
		for _, q := range ev.KeyQuotes {
			if len(summary.NotableQuotes) >= NotableQuoteLimit {
				break
			}
			summary.NotableQuotes = append(summary.NotableQuotes, model.NotableQuote{
				Quote:     q.Quote,
				Theme:     q.Theme,
				Context:   q.Context,
				Sentiment: ev.Sentiment,
			})
		}

		if ev.FollowUpWorthy {
			summary.FollowUpCandidates++
		}
		if ev.NeedsReview {
			summary.NeedsReviewCount++
		}
	}

	n := summary.InterviewCount
	b := summary.SentimentBreakdown
	summary.SentimentPercentages = model.SentimentCounts{
		Positive: percent(b.Positive, n),
		Negative: percent(b.Negative, n),
		Neutral:  percent(b.Neutral, n),
		Mixed:    percent(b.Mixed, n),
	}

	if sentimentN > 0 {
		avg := round(sentimentSum/float64(sentimentN), 2)
		summary.AverageSentimentScore = &avg
	}
	if qualityN > 0 {
		avg := round(qualitySum/float64(qualityN), 1)
		summary.AverageQualityScore = &avg
	}

	for _, e := range topics.top(TopN) {
		summary.TopTopics = append(summary.TopTopics, model.TopicCount{
			Topic:      e.key,
			Count:      e.count,
			Percentage: percent(e.count, n),
		})
	}
	for _, e := range painPoints.top(TopN) {
		summary.TopPainPoints = append(summary.TopPainPoints, model.PainPointCount{
			Point:        e.key,
			Count:        e.count,
			Percentage:   percent(e.count, n),
			ExampleQuote: optional(e.quote),
		})
	}
	for _, e := range desires.top(TopN) {
		summary.TopDesires = append(summary.TopDesires, model.DesireCount{
			Desire:       e.key,
			Count:        e.count,
			Percentage:   percent(e.count, n),
			ExampleQuote: optional(e.quote),
		})
	}

	return summary
}

// percent returns part/whole as a rounded integer percentage, 0 for an empty whole
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
