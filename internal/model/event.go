package model

import "time"

type EventSource struct {
	WorkspaceID    string `json:"workspaceId,omitempty"`
	UserID         string `json:"userId,omitempty"`
	AppSlug        string `json:"appSlug,omitempty"`
	AppInstance    string `json:"appInstanceFullSlug,omitempty"`
	AutomationSlug string `json:"automationSlug,omitempty"`
	CorrelationID  string `json:"correlationId,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
}

type EventError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload,omitempty"`
	Error     *EventError    `json:"error,omitempty"`
	Target    map[string]any `json:"target,omitempty"`
}

// Failed reports whether the backend flagged the event as an error.
func (e Event) Failed() bool {
	return e.Error != nil || e.Type == "error"
}
