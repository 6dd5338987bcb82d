// Package export renders insight payloads as spreadsheets for download.
package export

import (
	"fmt"

	"voicepanels/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetOverview   = "Overview"
	SheetTopics     = "Topics"
	SheetPainPoints = "Pain Points"
	SheetDesires    = "Desires"
	SheetQuotes     = "Quotes"
)

// PanelWorkbook lays a PanelSummary out over five sheets. The caller owns
// the returned file and must Close it.
func PanelWorkbook(s *model.PanelSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTopics, SheetPainPoints, SheetDesires, SheetQuotes} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, header: header}
	w.table(SheetOverview, []any{"Metric", "Value"}, overviewRows(s))

	topics := make([][]any, 0, len(s.TopTopics))
	for _, t := range s.TopTopics {
		topics = append(topics, []any{t.Topic, t.Count, t.Percentage})
	}
	w.table(SheetTopics, []any{"Topic", "Count", "% of interviews"}, topics)

	pains := make([][]any, 0, len(s.TopPainPoints))
	for _, p := range s.TopPainPoints {
		pains = append(pains, []any{p.Point, p.Count, p.Percentage, deref(p.ExampleQuote)})
	}
	w.table(SheetPainPoints, []any{"Pain point", "Count", "% of interviews", "Example quote"}, pains)

	desires := make([][]any, 0, len(s.TopDesires))
	for _, d := range s.TopDesires {
		desires = append(desires, []any{d.Desire, d.Count, d.Percentage, deref(d.ExampleQuote)})
	}
	w.table(SheetDesires, []any{"Desire", "Count", "% of interviews", "Example quote"}, desires)

	quotes := make([][]any, 0, len(s.NotableQuotes))
	for _, q := range s.NotableQuotes {
		quotes = append(quotes, []any{q.Quote, q.Theme, q.Context, string(q.Sentiment)})
	}
	w.table(SheetQuotes, []any{"Quote", "Theme", "Context", "Sentiment"}, quotes)

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func overviewRows(s *model.PanelSummary) [][]any {
	name := s.PanelName
	if name == "" {
		name = "All panels"
	}
	rows := [][]any{
		{"Panel", name},
		{"Interviews", s.InterviewCount},
	}
	for _, sent := range model.Sentiments {
		rows = append(rows, []any{
			fmt.Sprintf("%s interviews", sent),
			fmt.Sprintf("%d (%d%%)", s.SentimentBreakdown.Get(sent), s.SentimentPercentages.Get(sent)),
		})
	}
	return append(rows,
		[]any{"Average sentiment score", optionalFloat(s.AverageSentimentScore)},
		[]any{"Average quality score", optionalFloat(s.AverageQualityScore)},
		[]any{"Follow-up candidates", s.FollowUpCandidates},
		[]any{"Needs review", s.NeedsReviewCount},
	)
}

// sheetWriter keeps the first error so the layout code stays linear
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) table(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetSheetRow(sheet, "A1", &header); w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		w.err = err
		return
	}
	if w.err = w.f.SetCellStyle(sheet, "A1", last, w.header); w.err != nil {
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if w.err = w.f.SetSheetRow(sheet, cell, &row); w.err != nil {
			return
		}
	}
	w.err = w.f.SetColWidth(sheet, "A", "A", 48)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalFloat(v *float64) any {
	if v == nil {
		return "n/a"
	}
	return *v
}
