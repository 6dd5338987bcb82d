package insights

import (
	"sort"
	"strings"

	"voicepanels/internal/model"
)

const (
	// DefaultLimit applies to quote retrieval and search when the caller gives none
	DefaultLimit = 10
	// MaxLimit caps any caller-supplied limit
	MaxLimit = 100
)

// ClampLimit maps a requested limit into [1, MaxLimit], using DefaultLimit
// when none is given.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

// FindQuotes flattens the key quotes of evals into one list, newest interview
// first. The store is expected to have applied the panel id and sentiment
// filters already; they are re-checked here so the function is safe on any
// input.
func FindQuotes(evals []model.Evaluation, filter model.QuoteFilter) model.QuoteResult {
	limit := ClampLimit(filter.Limit)
	theme := strings.ToLower(strings.TrimSpace(filter.Theme))

	quotes := []model.Quote{}
	for i := range evals {
		ev := &evals[i]
		if !matchesRecord(ev, filter.PanelID, filter.PanelName, filter.Sentiment) {
			continue
		}
		for _, kq := range ev.KeyQuotes {
			if theme != "" && !containsFold(theme, kq.Theme, kq.Quote, kq.Context) {
				continue
			}
			quotes = append(quotes, model.Quote{
				Quote:       kq.Quote,
				Theme:       kq.Theme,
				Context:     kq.Context,
				Participant: ev.Participant(),
				PanelName:   ev.PanelName,
				PanelID:     ev.PanelID,
				InterviewID: ev.InterviewID,
				Sentiment:   ev.Sentiment,
				CompletedAt: ev.CompletedAt,
			})
		}
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i].CompletedAt, quotes[j].CompletedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	total := len(quotes)
	if len(quotes) > limit {
		quotes = quotes[:limit]
	}
	return model.QuoteResult{TotalFound: total, Quotes: quotes}
}

// matchesRecord applies the exact panel id and sentiment filters, and the
// panel name substring filter when no id was given.
func matchesRecord(ev *model.Evaluation, panelID, panelName, sentiment string) bool {
	if panelID != "" && ev.PanelID != panelID {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(sentiment)); s != "" && string(ev.Sentiment) != s {
		return false
	}
	if panelID == "" && panelName != "" &&
		!strings.Contains(strings.ToLower(ev.PanelName), strings.ToLower(strings.TrimSpace(panelName))) {
		return false
	}
	return true
}

// containsFold reports whether any field contains the lowercased needle
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
