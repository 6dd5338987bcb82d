// Package dataset imports interview spreadsheets for seeding.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one interview read from a spreadsheet. When Sentiment is set the
// row already carries an evaluation; otherwise Transcript is evaluated.
type Row struct {
	PanelName          string
	InterviewID        string
	ParticipantName    string
	ParticipantCompany string
	CompletedAt        *time.Time
	Transcript         string

	Summary        string
	Sentiment      string
	SentimentScore *float64
	QualityScore   *float64
	Topics         []string
	PainPoints     []string
	Desires        []string
	KeyQuotes      []string
}

type columns struct {
	panel, interview, participant, company, completed, transcript int
	summary, sentiment, sentimentScore, quality                    int
	topics, painPoints, desires, quotes                            int
}

// detectColumns maps header cells to fields by keyword, first match wins
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	set := func(idx *int, i int) {
		if *idx == -1 {
			*idx = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "panel"):
			set(&c.panel, i)
		case strings.Contains(l, "interview") || l == "id":
			set(&c.interview, i)
		case strings.Contains(l, "company") || strings.Contains(l, "organisation") || strings.Contains(l, "organization"):
			set(&c.company, i)
		case strings.Contains(l, "participant") || l == "name":
			set(&c.participant, i)
		case strings.Contains(l, "completed") || strings.Contains(l, "date"):
			set(&c.completed, i)
		case strings.Contains(l, "transcript"):
			set(&c.transcript, i)
		case strings.Contains(l, "sentiment") && strings.Contains(l, "score"):
			set(&c.sentimentScore, i)
		case strings.Contains(l, "sentiment"):
			set(&c.sentiment, i)
		case strings.Contains(l, "quality"):
			set(&c.quality, i)
		case strings.Contains(l, "summary"):
			set(&c.summary, i)
		case strings.Contains(l, "topic"):
			set(&c.topics, i)
		case strings.Contains(l, "pain"):
			set(&c.painPoints, i)
		case strings.Contains(l, "desire") || strings.Contains(l, "wish"):
			set(&c.desires, i)
		case strings.Contains(l, "quote"):
			set(&c.quotes, i)
		}
	}
	return c
}

// Load reads the first sheet of an .xlsx file. Rows without a panel name or
// without either a transcript or a sentiment are skipped.
func Load(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Row, error) {
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	c := detectColumns(rows[0])
	if c.panel == -1 {
		return nil, fmt.Errorf("no panel column in header")
	}

	var out []Row
	for i, r := range rows[1:] {
		cell := func(idx int) string {
			if idx >= 0 && idx < len(r) {
				return strings.TrimSpace(r[idx])
			}
			return ""
		}
		row := Row{
			PanelName:          cell(c.panel),
			InterviewID:        cell(c.interview),
			ParticipantName:    cell(c.participant),
			ParticipantCompany: cell(c.company),
			CompletedAt:        parseTime(cell(c.completed)),
			Transcript:         cell(c.transcript),
			Summary:            cell(c.summary),
			Sentiment:          strings.ToLower(cell(c.sentiment)),
			SentimentScore:     parseFloat(cell(c.sentimentScore)),
			QualityScore:       parseFloat(cell(c.quality)),
			Topics:             splitList(cell(c.topics)),
			PainPoints:         splitList(cell(c.painPoints)),
			Desires:            splitList(cell(c.desires)),
			KeyQuotes:          splitQuotes(cell(c.quotes)),
		}
		if row.PanelName == "" || (row.Transcript == "" && row.Sentiment == "") {
			continue
		}
		if row.InterviewID == "" {
			row.InterviewID = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, row)
	}
	return out, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02", "01/02/2006", "1/2/06 15:04"}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// splitList splits on commas and semicolons
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitQuotes splits on line breaks and "|" since quotes contain commas
func splitQuotes(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '|' }) {
		if p := strings.Trim(strings.TrimSpace(part), `"`); p != "" {
			out = append(out, p)
		}
	}
	return out
}
