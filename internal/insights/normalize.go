package insights

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"voicepanels/internal/model"
)

// Normalize converts a stored evaluation into its canonical shape. Entries of
// pain_points, desires and key_quotes may be bare strings or objects; anything
// else is dropped. Scores that are absent or non-numeric become nil.
func Normalize(raw model.RawEvaluation) model.Evaluation {
	return model.Evaluation{
		SearchText:         StoredHaystack(&raw),
		InterviewID:        raw.InterviewID,
		PanelID:            raw.PanelID,
		PanelName:          raw.PanelName,
		Summary:            raw.Summary,
		ExecutiveSummary:   raw.ExecutiveSummary,
		Sentiment:          model.Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment))),
		SentimentScore:     toFloat(raw.SentimentScore),
		QualityScore:       toFloat(raw.QualityScore),
		Topics:             normalizeTopics(raw.Topics),
		PainPoints:         normalizePainPoints(raw.PainPoints),
		Desires:            normalizeDesires(raw.Desires),
		KeyQuotes:          normalizeKeyQuotes(raw.KeyQuotes),
		FollowUpWorthy:     raw.FollowUpWorthy != nil && *raw.FollowUpWorthy,
		NeedsReview:        raw.NeedsReview != nil && *raw.NeedsReview,
		CreatedAt:          raw.CreatedAt,
		ParticipantName:    strings.TrimSpace(raw.ParticipantName),
		ParticipantCompany: strings.TrimSpace(raw.ParticipantCompany),
		CompletedAt:        raw.CompletedAt,
	}
}

// NormalizeAll normalizes a batch, preserving order
func NormalizeAll(raws []model.RawEvaluation) []model.Evaluation {
	out := make([]model.Evaluation, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

func toFloat(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func normalizeTopics(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizePainPoints(items []any) []model.PainPoint {
	out := make([]model.PainPoint, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				out = append(out, model.PainPoint{Point: text, Severity: model.LevelMedium})
			}
		case map[string]any:
			text := stringField(v, "point")
			if text == "" {
				continue
			}
			out = append(out, model.PainPoint{
				Point:    text,
				Severity: levelField(v, "severity"),
				Quote:    stringField(v, "quote"),
			})
		}
	}
	return out
}

func normalizeDesires(items []any) []model.Desire {
	out := make([]model.Desire, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				out = append(out, model.Desire{Desire: text, Priority: model.LevelMedium})
			}
		case map[string]any:
			text := stringField(v, "desire")
			if text == "" {
				continue
			}
			out = append(out, model.Desire{
				Desire:   text,
				Priority: levelField(v, "priority"),
				Quote:    stringField(v, "quote"),
			})
		}
	}
	return out
}

func normalizeKeyQuotes(items []any) []model.KeyQuote {
	out := make([]model.KeyQuote, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				out = append(out, model.KeyQuote{Quote: text})
			}
		case map[string]any:
			text := stringField(v, "quote")
			if text == "" {
				continue
			}
			out = append(out, model.KeyQuote{
				Quote:   text,
				Theme:   stringField(v, "theme"),
				Context: stringField(v, "context"),
			})
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func levelField(m map[string]any, key string) model.Level {
	switch l := model.Level(strings.ToLower(stringField(m, key))); l {
	case model.LevelHigh, model.LevelMedium, model.LevelLow:
		return l
	}
	return model.LevelMedium
}
