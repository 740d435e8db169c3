package events

import "time"

// Conversation event types. Published on subject "context.<type>".
const (
	TypeContextUpdated = "context_updated"
	TypeCapabilityUsed = "capability_used"
	TypeStageAdvanced  = "stage_advanced"
)

// Event defines the contract for all conversation events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "context_updated").
	EventType() string

	// Key identifies the session the event belongs to.
	Key() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the wire form as well as the in-process value.
type BaseEvent struct {
	Type       string                 `json:"type"`
	SessionId  string                 `json:"sessionId"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func New(eventType, sessionId string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		SessionId:  sessionId,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Key() string {
	return e.SessionId
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
