package events

import (
	"context"
	"log"
)

// Publisher ships envelopes to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Nop drops every event; used when no broker is configured
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }
func (Nop) Close() error                            { return nil }

// Emitter builds envelopes for one producer name and logs publish failures
// instead of returning them: by the time an event is emitted the mutation it
// describes has already been stored.
type Emitter struct {
	pub      Publisher
	producer string
}

func NewEmitter(pub Publisher, producer string) *Emitter {
	if pub == nil {
		pub = Nop{}
	}
	return &Emitter{pub: pub, producer: producer}
}

func (e *Emitter) Emit(ctx context.Context, eventType, correlationID string, payload any) {
	env, err := NewEnvelope(eventType, e.producer, correlationID, payload)
	if err != nil {
		log.Printf("events: %v", err)
		return
	}
	if err := e.pub.Publish(ctx, env); err != nil {
		log.Printf("events: publish %s for %s: %v", eventType, correlationID, err)
	}
}
