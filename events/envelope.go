// Package events carries domain events out of the API after a mutation has
// been committed.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated         = "OrderCreated"
	OrderStatusChanged   = "OrderStatusChanged"
	TransporterCreated   = "TransporterCreated"
	TransporterUpdated   = "TransporterUpdated"
	TransporterRemoved   = "TransporterRemoved"
	CargoRequestCreated  = "CargoRequestCreated"
	CargoRequestCallback = "CargoRequestCallback"
)

const envelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // id of the entity the event is about
	Payload       json.RawMessage `json:"payload"`
}

// StatusChangedPayload is the payload of OrderStatusChanged
type StatusChangedPayload struct {
	OrderID     string `json:"order_id"`
	TrackNumber string `json:"track_number"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// NewEnvelope wraps payload with a fresh event id and timestamp
func NewEnvelope(eventType, producer, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}
