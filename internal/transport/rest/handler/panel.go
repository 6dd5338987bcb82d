package handler

import (
	"net/http"

	"voicepanels/internal/logger"
	"voicepanels/internal/service"
)

// PanelHandler handles panel endpoints
type PanelHandler struct {
	insightSvc *service.InsightService
	panelSvc   *service.PanelService
	log        *logger.Logger
}

// NewPanelHandler creates a new panel handler
func NewPanelHandler(insightSvc *service.InsightService, panelSvc *service.PanelService, log *logger.Logger) *PanelHandler {
	return &PanelHandler{insightSvc: insightSvc, panelSvc: panelSvc, log: log}
}

type createPanelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /v1/panels
func (h *PanelHandler) List(w http.ResponseWriter, r *http.Request) {
	panels, err := h.insightSvc.ListPanels(r.Context())
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"panels": panels, "count": len(panels)})
}

// Create handles POST /v1/panels
func (h *PanelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPanelRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}

	panel, err := h.panelSvc.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, h.log.WithRequest(r), err)
		return
	}
	writeJSON(w, http.StatusCreated, panel)
}
