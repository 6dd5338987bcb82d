package service

// Broadcaster pushes dashboard events to live subscribers (avoids import cycle)
type Broadcaster interface {
	BroadcastToPanel(panelID string, msgType string, payload interface{})
}

// Dashboard event types
const (
	EventEvaluationAdded = "evaluation_added"
)
