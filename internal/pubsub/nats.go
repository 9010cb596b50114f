package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// NATSPubSub implements pub/sub using NATS JetStream
type NATSPubSub struct {
	*fanout
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewNATSPubSub connects to NATS and makes sure the board event stream exists
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL, nats.Name("draft-board-planner"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(DefaultStream); err != nil {
		// Keep events indefinitely for replay
		if err := ensureStream(js, DefaultStream, subject, nats.FileStorage, 0); err != nil {
			nc.Close()
			return nil, err
		}
	}

	return &NATSPubSub{
		fanout:  newFanout("nats", 100),
		nc:      nc,
		js:      js,
		subject: subject,
	}, nil
}

func ensureStream(js nats.JetStreamContext, name, subject string, storage nats.StorageType, maxAge time.Duration) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subject},
		Storage:  storage,
		MaxAge:   maxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	logger.Info("JetStream stream created", "stream", name, "subject", subject)
	return nil
}

func encodeEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func decodeEvent(data []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return event, err
}

// Publish publishes an event to NATS JetStream and to local subscribers
func (p *NATSPubSub) Publish(event Event) {
	data, err := encodeEvent(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := p.js.Publish(p.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", p.subject, "event_type", event.Type)
		return
	}

	p.broadcast(event)
}

// SubscribeJetStream creates a durable JetStream subscription so that
// several instances can share the processing of board events
func (p *NATSPubSub) SubscribeJetStream(consumerName string, handler func(Event)) error {
	_, err := p.js.Subscribe(p.subject, func(msg *nats.Msg) {
		event, err := decodeEvent(msg.Data)
		if err != nil {
			logger.Error("Failed to unmarshal event", "error", err)
			msg.Nak()
			return
		}

		handler(event)
		msg.Ack()
	}, nats.Durable(consumerName), nats.ManualAck())

	return err
}

// Close closes the NATS connection
func (p *NATSPubSub) Close() {
	p.closeAll()
	if p.nc != nil {
		p.nc.Close()
	}
}
