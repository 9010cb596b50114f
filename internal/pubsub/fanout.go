package pubsub

import (
	"sync"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// fanout is the subscriber registry shared by every transport. Delivery
// never blocks: a subscriber whose buffer is full misses the event.
type fanout struct {
	name   string
	buffer int

	mu          sync.RWMutex
	subscribers []chan Event
}

func newFanout(name string, buffer int) *fanout {
	return &fanout{name: name, buffer: buffer, subscribers: []chan Event{}}
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (f *fanout) Subscribe() chan Event {
	ch := make(chan Event, f.buffer)

	f.mu.Lock()
	f.subscribers = append(f.subscribers, ch)
	n := len(f.subscribers)
	f.mu.Unlock()

	logger.Debug("PubSub: New subscriber added", "transport", f.name, "total_subscribers", n)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (f *fanout) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, sub := range f.subscribers {
		if sub == ch {
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			close(ch)
			logger.Debug("PubSub: Subscriber removed", "transport", f.name, "remaining_subscribers", len(f.subscribers))
			return
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (f *fanout) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// broadcast holds the read lock while sending so that Unsubscribe cannot
// close a channel mid-delivery
func (f *fanout) broadcast(event Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			logger.Warn("PubSub: Skipping slow subscriber", "transport", f.name, "event_type", event.Type)
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subscribers {
		close(sub)
	}
	f.subscribers = nil
}
