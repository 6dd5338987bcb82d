package handler

import (
	"net/http"

	"voicepanels/internal/logger"
	"voicepanels/internal/service"
	"voicepanels/internal/transport/rest/middleware"
)

// EvaluationHandler accepts finished interviews
type EvaluationHandler struct {
	ingestSvc *service.IngestService
	log       *logger.Logger
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(ingestSvc *service.IngestService, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{ingestSvc: ingestSvc, log: log}
}

// Create handles POST /v1/evaluations. Replays of a stored interview
// answer 200 instead of 201.
func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r).WithField("host_id", middleware.GetHostID(r.Context()))

	var req service.IngestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, log, err)
		return
	}

	result, err := h.ingestSvc.Ingest(r.Context(), req)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	status := http.StatusOK
	if result.Inserted {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
