package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"voicepanels/internal/insights"
	"voicepanels/internal/model"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Tool names exposed to the insights agent
const (
	ToolGetPanelInsights = "get_panel_insights"
	ToolGetAllInsights   = "get_all_insights"
	ToolComparePanels    = "compare_panels"
	ToolFindQuotes       = "find_quotes"
	ToolSearchInterviews = "search_interviews"
	ToolListPanels       = "list_panels"
)

// ToolCall is one function call requested by the agent. Arguments may be a
// JSON object or a string holding one, as chat APIs send them.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult answers one ToolCall; exactly one of Result and Error is set
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AgentTools maps agent tool calls onto the insight service
type AgentTools struct {
	insights *InsightService
	log      *logrus.Entry
}

func NewAgentTools(insightSvc *InsightService, log *logrus.Entry) *AgentTools {
	return &AgentTools{insights: insightSvc, log: log}
}

type panelArgs struct {
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name"`
}

type compareArgs struct {
	PanelIDs   []string `json:"panel_ids"`
	PanelNames []string `json:"panel_names"`
}

type quoteArgs struct {
	Theme     string `json:"theme"`
	Sentiment string `json:"sentiment"`
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name"`
	Limit     int    `json:"limit"`
}

type searchArgs struct {
	Query     string `json:"query"`
	PanelID   string `json:"panel_id"`
	PanelName string `json:"panel_name"`
	Sentiment string `json:"sentiment"`
	Limit     int    `json:"limit"`
}

// PanelRefs flattens ids and names into refs, ids first
func PanelRefs(ids, names []string) []model.PanelRef {
	refs := make([]model.PanelRef, 0, len(ids)+len(names))
	for _, id := range ids {
		refs = append(refs, model.PanelRef{ID: id})
	}
	for _, name := range names {
		refs = append(refs, model.PanelRef{Name: name})
	}
	return refs
}

// Dispatch runs a single tool call
func (a *AgentTools) Dispatch(ctx context.Context, call ToolCall) (any, error) {
	switch call.Name {
	case ToolListPanels:
		return a.insights.ListPanels(ctx)

	case ToolGetAllInsights:
		return a.insights.OverallSummary(ctx)

	case ToolGetPanelInsights:
		var args panelArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		panel, err := a.insights.ResolvePanel(ctx, model.PanelRef{ID: args.PanelID, Name: args.PanelName})
		if err != nil {
			return nil, err
		}
		return a.insights.PanelSummary(ctx, panel.ID)

	case ToolComparePanels:
		var args compareArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return a.insights.ComparePanels(ctx, PanelRefs(args.PanelIDs, args.PanelNames))

	case ToolFindQuotes:
		var args quoteArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return a.insights.FindQuotes(ctx, model.QuoteFilter(args))

	case ToolSearchInterviews:
		var args searchArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return a.insights.Search(ctx, args.Query, model.SearchFilter{
			PanelName: args.PanelName,
			PanelID:   args.PanelID,
			Sentiment: args.Sentiment,
			Limit:     args.Limit,
		})
	}
	return nil, &insights.ValidationError{Msg: fmt.Sprintf("unknown tool %q", call.Name)}
}

// RunBatch dispatches every call independently; one failure does not stop
// the others.
func (a *AgentTools) RunBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		res := ToolResult{ToolCallID: call.ID}
		out, err := a.Dispatch(ctx, call)
		if err != nil {
			a.log.WithError(err).WithField("tool", call.Name).Warn("tool call failed")
			res.Error = err.Error()
		} else {
			res.Result = out
		}
		results = append(results, res)
	}
	return results
}

func decodeArgs(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return &insights.ValidationError{Msg: "arguments must be a JSON object"}
		}
		if inner == "" {
			return nil
		}
		raw = json.RawMessage(inner)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &insights.ValidationError{Msg: "invalid tool arguments: " + err.Error()}
	}
	return nil
}

// Definitions describes the tools in the chat-completions function format
func (a *AgentTools) Definitions() []openai.Tool {
	str := map[string]string{"type": "string"}
	sentiment := map[string]any{"type": "string", "enum": []string{"positive", "negative", "neutral", "mixed"}}
	limit := map[string]any{"type": "integer", "minimum": 1}
	object := func(props map[string]any, required ...string) map[string]any {
		schema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}
	fn := func(name, description string, params map[string]any) openai.Tool {
		return openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: description,
				Parameters:  params,
			},
		}
	}

	return []openai.Tool{
		fn(ToolListPanels, "List every interview panel with its id and name.", object(map[string]any{})),
		fn(ToolGetAllInsights, "Aggregate sentiment, topics, pain points, desires and quotes across all interviews.", object(map[string]any{})),
		fn(ToolGetPanelInsights, "Aggregate insights for one panel, by id or by (partial) name.",
			object(map[string]any{"panel_id": str, "panel_name": str})),
		fn(ToolComparePanels, "Compare two or more panels side by side.",
			object(map[string]any{
				"panel_ids":   map[string]any{"type": "array", "items": str},
				"panel_names": map[string]any{"type": "array", "items": str},
			})),
		fn(ToolFindQuotes, "Find verbatim participant quotes, newest first.",
			object(map[string]any{"theme": str, "sentiment": sentiment, "panel_id": str, "panel_name": str, "limit": limit})),
		fn(ToolSearchInterviews, "Keyword search over recent interview evaluations.",
			object(map[string]any{"query": str, "panel_id": str, "panel_name": str, "sentiment": sentiment, "limit": limit}, "query")),
	}
}
