package alert

import (
	"encoding/json"
	"time"
)

// envelope is the JSON structure delivered to webhook endpoints: the alert
// kind and common fields at the top level, the variant-specific payload
// nested under "payload".
type envelope struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Address   Address   `json:"address"`
	Payload   any       `json:"payload"`
}

// Envelope marshals the alert into its wire representation.
func Envelope(a Alert) ([]byte, error) {
	return json.Marshal(envelope{
		Kind:      a.Kind(),
		Timestamp: a.OccurredAt(),
		Address:   a.Watched(),
		Payload:   a,
	})
}
