package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

// fakeWriter records the messages written to it
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaPublisherFlushesOnClose(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw, 8)
	p.Start()

	for _, id := range []string{"ORD001", "ORD002"} {
		env, err := NewEnvelope(OrderStatusChanged, "test", id, StatusChangedPayload{OrderID: id, To: "accepted"})
		if err != nil {
			t.Fatalf("envelope: %v", err)
		}
		if err := p.Publish(context.Background(), env); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(fw.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fw.msgs))
	}
	if !fw.closed {
		t.Fatal("writer was not closed")
	}
	if string(fw.msgs[0].Key) != "ORD001" {
		t.Fatalf("expected key ORD001, got %q", fw.msgs[0].Key)
	}

	var env Envelope
	if err := json.Unmarshal(fw.msgs[1].Value, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.EventType != OrderStatusChanged || env.CorrelationID != "ORD002" || env.EventVersion != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.EventID == "" {
		t.Fatal("event id not set")
	}
}

func TestKafkaPublisherRejectsAfterClose(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{}, 1)
	p.Start()
	_ = p.Close()

	err := p.Publish(context.Background(), Envelope{CorrelationID: "x"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	// second close is a no-op
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestKafkaPublisherBufferFull(t *testing.T) {
	// not started: nothing drains the inbox
	p := NewKafkaPublisherWithWriter(&fakeWriter{}, 1)
	if err := p.Publish(context.Background(), Envelope{}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := p.Publish(context.Background(), Envelope{}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Envelope) error {
	f.calls++
	return errors.New("broker down")
}
func (f *failingPublisher) Close() error { return nil }

func TestEmitterSwallowsPublishErrors(t *testing.T) {
	fp := &failingPublisher{}
	e := NewEmitter(fp, "test")
	e.Emit(context.Background(), TransporterRemoved, "TR001", map[string]string{"id": "TR001"})
	if fp.calls != 1 {
		t.Fatalf("expected 1 publish attempt, got %d", fp.calls)
	}
}

func TestEmitterDefaultsToNop(t *testing.T) {
	e := NewEmitter(nil, "test")
	e.Emit(context.Background(), OrderCreated, "ORD001", nil)
}
