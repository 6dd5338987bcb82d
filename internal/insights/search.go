package insights

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"voicepanels/internal/model"
)

const (
	// PhraseBonus is added when the whole query appears verbatim
	PhraseBonus = 5
	// minTokenLen is the shortest token that counts; anything shorter is noise
	minTokenLen        = 3
	searchQuoteLimit   = 3
	errEmptySearchTerm = "search query is required"
)

// Tokenize splits a query on whitespace and keeps tokens of three or more
// characters, lowercased.
func Tokenize(query string) []string {
	var tokens []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Haystack is the lowercased text a record is matched against. Records
// built by Normalize carry it precomputed from their stored fields.
func Haystack(ev *model.Evaluation) string {
	if ev.SearchText != "" {
		return ev.SearchText
	}
	return haystack(ev.Summary, ev.ExecutiveSummary, ev.Topics, ev.PainPoints, ev.Desires, ev.KeyQuotes)
}

// StoredHaystack builds the haystack from the lists exactly as stored, so
// bare strings and entries normalization would drop stay searchable as-is.
func StoredHaystack(raw *model.RawEvaluation) string {
	return haystack(raw.Summary, raw.ExecutiveSummary, raw.Topics, raw.PainPoints, raw.Desires, raw.KeyQuotes)
}

func haystack(summary, executive string, lists ...any) string {
	var b strings.Builder
	b.WriteString(summary)
	b.WriteByte(' ')
	b.WriteString(executive)
	for _, list := range lists {
		b.WriteByte(' ')
		b.WriteString(serialize(list))
	}
	return strings.ToLower(b.String())
}

// serialize renders a list as JSON without HTML escaping, so "&", "<" and
// ">" stay literal.
func serialize(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.Len() == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Score counts the tokens found in the record text plus the phrase bonus
func Score(query string, ev *model.Evaluation) int {
	hay := Haystack(ev)
	score := 0
	for _, tok := range Tokenize(query) {
		if strings.Contains(hay, tok) {
			score++
		}
	}
	if phrase := strings.ToLower(strings.TrimSpace(query)); phrase != "" && strings.Contains(hay, phrase) {
		score += PhraseBonus
	}
	return score
}

// Search ranks candidates by keyword relevance. Candidates are expected to be
// the most recent records matching the filter, already capped at the limit.
// Records scoring zero are dropped.
func Search(query string, candidates []model.Evaluation, filter model.SearchFilter) ([]model.ScoredResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Msg: errEmptySearchTerm}
	}
	limit := ClampLimit(filter.Limit)

	results := []model.ScoredResult{}
	for i := range candidates {
		ev := &candidates[i]
		if !matchesRecord(ev, filter.PanelID, filter.PanelName, filter.Sentiment) {
			continue
		}
		score := Score(query, ev)
		if score <= 0 {
			continue
		}
		quotes := ev.KeyQuotes
		if len(quotes) > searchQuoteLimit {
			quotes = quotes[:searchQuoteLimit]
		}
		results = append(results, model.ScoredResult{
			InterviewID:    ev.InterviewID,
			PanelName:      ev.PanelName,
			Participant:    ev.Participant(),
			CompletedAt:    ev.CompletedAt,
			Summary:        ev.Summary,
			Sentiment:      ev.Sentiment,
			SentimentScore: ev.SentimentScore,
			QualityScore:   ev.QualityScore,
			Topics:         nonNil(ev.Topics),
			PainPoints:     nonNil(ev.PainPoints),
			Desires:        nonNil(ev.Desires),
			KeyQuotes:      nonNil(quotes),
			RelevanceScore: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
