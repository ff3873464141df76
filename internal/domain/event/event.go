package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event published after a mutation has been committed
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	ReportID      int64                  `json:"report_id"`
	UserID        int64                  `json:"user_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates an event with a fresh ID and correlation ID
func NewEvent(eventType Type, reportID int64, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, reportID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to an existing correlation chain,
// typically the request ID.
func NewEventWithCorrelation(eventType Type, reportID int64, payload map[string]interface{}, correlationID string) *Event {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		ReportID:      reportID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// ForUser returns a copy addressed to a single recipient
func (e *Event) ForUser(userID int64) *Event {
	c := *e
	c.UserID = userID
	c.Payload = copyPayload(e.Payload, 0)
	return &c
}

// WithPayload returns a copy with key set; the receiver is not modified
func (e *Event) WithPayload(key string, value interface{}) *Event {
	c := *e
	c.Payload = copyPayload(e.Payload, 1)
	c.Payload[key] = value
	return &c
}

func copyPayload(p map[string]interface{}, extra int) map[string]interface{} {
	out := make(map[string]interface{}, len(p)+extra)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// GetPayloadInt retrieves an integer value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	switch v := e.Payload[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// GetPayloadStrings retrieves a string list from the payload
func (e *Event) GetPayloadStrings(key string) []string {
	switch v := e.Payload[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
