package handler

import (
	"net/http"

	"voicepanels/internal/insights"
	"voicepanels/internal/logger"
	"voicepanels/internal/service"
)

const maxToolCalls = 16

// AgentHandler exposes the insight tools to a chat agent
type AgentHandler struct {
	tools *service.AgentTools
	log   *logger.Logger
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(tools *service.AgentTools, log *logger.Logger) *AgentHandler {
	return &AgentHandler{tools: tools, log: log}
}

type toolsRequest struct {
	Calls []service.ToolCall `json:"tool_calls"`
}

// Definitions handles GET /v1/agent/tools
func (h *AgentHandler) Definitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.tools.Definitions()})
}

// Run handles POST /v1/agent/tools. Individual tool failures are reported
// per call; the request itself only fails on a malformed body.
func (h *AgentHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequest(r)

	var req toolsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, log, err)
		return
	}
	if len(req.Calls) == 0 || len(req.Calls) > maxToolCalls {
		writeServiceError(w, log, &insights.ValidationError{Msg: "between 1 and 16 tool calls are required"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": h.tools.RunBatch(r.Context(), req.Calls)})
}
