package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"voicepanels/internal/export"
	"voicepanels/internal/logger"
	"voicepanels/internal/model"
	"voicepanels/internal/service"

	"github.com/gorilla/mux"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// InsightHandler serves the read-only insight endpoints
type InsightHandler struct {
	svc *service.InsightService
	log *logger.Logger
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(svc *service.InsightService, log *logger.Logger) *InsightHandler {
	return &InsightHandler{svc: svc, log: log}
}

type compareRequest struct {
	PanelIDs   []string `json:"panel_ids"`
	PanelNames []string `json:"panel_names"`
}

// OverallSummary handles GET /v1/insights/summary
func (h *InsightHandler) OverallSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.OverallSummary(r.Context())
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PanelSummary handles GET /v1/insights/panels/{panelId}/summary
func (h *InsightHandler) PanelSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.PanelSummary(r.Context(), mux.Vars(r)["panelId"])
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ExportPanel handles GET /v1/insights/panels/{panelId}/export.xlsx
func (h *InsightHandler) ExportPanel(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)
	summary, err := h.svc.PanelSummary(r.Context(), mux.Vars(r)["panelId"])
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	book, err := export.PanelWorkbook(summary)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	defer book.Close()

	name := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(summary.PanelName), "-"), "-")
	if name == "" {
		name = "panel"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-insights.xlsx"`, name))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		log.WithError(err).Warn("writing workbook failed")
	}
}

// Compare handles POST /v1/insights/compare
func (h *InsightHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}

	result, err := h.svc.ComparePanels(r.Context(), service.PanelRefs(req.PanelIDs, req.PanelNames))
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Quotes handles GET /v1/insights/quotes
func (h *InsightHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	q := r.URL.Query()
	result, err := h.svc.FindQuotes(r.Context(), model.QuoteFilter{
		Theme:     q.Get("theme"),
		Sentiment: q.Get("sentiment"),
		PanelID:   q.Get("panel_id"),
		PanelName: q.Get("panel_name"),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search handles GET /v1/insights/search
func (h *InsightHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	q := r.URL.Query()
	result, err := h.svc.Search(r.Context(), q.Get("q"), model.SearchFilter{
		PanelName: q.Get("panel_name"),
		PanelID:   q.Get("panel_id"),
		Sentiment: q.Get("sentiment"),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
