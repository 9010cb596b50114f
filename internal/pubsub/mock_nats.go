package pubsub

import (
	"slices"
	"sync"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// MockNATSPubSub stands in for NATSPubSub where no server is available. It
// keeps a bounded history of published events, like a JetStream stream.
type MockNATSPubSub struct {
	*fanout
	subject string

	mu          sync.RWMutex
	messages    []Event
	maxMessages int
}

// NewMockNATSPubSub creates a mock NATS pub/sub keeping the last maxMessages
// events (1000 when maxMessages <= 0)
func NewMockNATSPubSub(subject string, maxMessages int) *MockNATSPubSub {
	if maxMessages <= 0 {
		maxMessages = 1000
	}
	logger.Info("Using mock NATS pub/sub", "subject", subject)
	return &MockNATSPubSub{
		fanout:      newFanout("mock-nats", 100),
		subject:     subject,
		maxMessages: maxMessages,
	}
}

// Publish records the event and delivers it to subscribers
func (p *MockNATSPubSub) Publish(event Event) {
	p.mu.Lock()
	p.messages = append(p.messages, event)
	if len(p.messages) > p.maxMessages {
		p.messages = p.messages[len(p.messages)-p.maxMessages:]
	}
	p.mu.Unlock()

	p.broadcast(event)
	logger.Debug("Mock NATS: Published event", "event_type", event.Type, "category", event.Category)
}

// SubscribeJetStream simulates a durable subscription
func (p *MockNATSPubSub) SubscribeJetStream(consumerName string, handler func(Event)) error {
	ch := p.Subscribe()
	go func() {
		for event := range ch {
			handler(event)
		}
		logger.Debug("Mock NATS: Durable subscription closed", "consumer_name", consumerName)
	}()
	return nil
}

// Recent returns up to n of the most recent events, oldest first
func (p *MockNATSPubSub) Recent(n int) []Event {
	if n <= 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	start := max(len(p.messages)-n, 0)
	return slices.Clone(p.messages[start:])
}

// ReplayMessages sends up to count recent events to ch without blocking
func (p *MockNATSPubSub) ReplayMessages(ch chan Event, count int) {
	for _, event := range p.Recent(count) {
		select {
		case ch <- event:
		default:
			logger.Warn("Mock NATS: Channel full during replay, skipping event")
		}
	}
}

// MessageCount returns the number of stored events
func (p *MockNATSPubSub) MessageCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.messages)
}

// Close closes all subscriptions
func (p *MockNATSPubSub) Close() {
	p.closeAll()
}
