package pubsub

import (
	"time"

	"github.com/Billy-Davies-2/draft-board-planner/internal/logger"
)

// Board event types
const (
	EventBoardUpdate      = "board:update"
	EventCategoryAdd      = "categories:add"
	EventBoardsReset      = "boards:reset"
	EventBoardsClear      = "boards:clear"
	EventBoardsImport     = "boards:import"
	EventBoardsReindex    = "boards:reindex"
	EventWatchlistOrder   = "watchlist:order"
	EventWatchlistRestate = "watchlist:status"
)

// Default subject and JetStream stream for board events
const (
	DefaultSubject = "board.events"
	DefaultStream  = "BOARD_EVENTS"
)

// Event represents a board change notification
type Event struct {
	Type     string         `json:"type"`
	Category string         `json:"category,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	At       time.Time      `json:"at"`
}

// NewEvent stamps an event with the current time
func NewEvent(typ, category string, payload map[string]any) Event {
	return Event{Type: typ, Category: category, Payload: payload, At: time.Now().UTC()}
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub delivers events to in-process subscribers such as SSE streams
type PubSub struct {
	*fanout
	upstream Upstream
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{fanout: newFanout("local", 10)}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher.
// Publish goes to the upstream, which broadcasts to all instances; events
// coming back from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		fanout:   newFanout("local", 10),
		upstream: upstream,
	}

	go func() {
		ch := upstream.Subscribe()
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			ps.broadcast(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Publish sends an event to all subscribers, through the upstream if there is one
func (ps *PubSub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	logger.Debug("PubSub: Publish called", "type", event.Type, "category", event.Category, "hasUpstream", ps.upstream != nil)
	if ps.upstream != nil {
		ps.upstream.Publish(event)
		return
	}
	ps.broadcast(event)
}
