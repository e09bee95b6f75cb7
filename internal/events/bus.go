// Package events provides a small in-process event bus used to fan out
// system events (ingestion progress, assessments, backups) to subscribers
// such as the websocket stream.
package events

import (
	"sync"
	"time"
)

// EventType identifies a category of system event
type EventType string

const (
	// IngestionStarted is emitted when a document batch begins processing
	IngestionStarted EventType = "ingestion_started"
	// IngestionProgress is emitted per chunk during ingestion
	IngestionProgress EventType = "ingestion_progress"
	// IngestionCompleted is emitted when a batch has been persisted
	IngestionCompleted EventType = "ingestion_completed"
	// AssessmentCompleted is emitted when a risk assessment is stored
	AssessmentCompleted EventType = "assessment_completed"
	// TradeExecuted is emitted when a virtual trade is recorded
	TradeExecuted EventType = "trade_executed"
	// BackupCompleted is emitted after a successful cloud backup
	BackupCompleted EventType = "backup_completed"
)

// Event is a single bus message
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Bus is a buffered publish/subscribe bus.
// Publish never blocks: events for slow subscribers are dropped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its ID and channel.
// The channel is buffered; the subscriber must drain it or lose events.
func (b *Bus) Subscribe() (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, 64)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish delivers an event to all subscribers without blocking.
// The timestamp is set if the caller left it zero.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Subscriber buffer full, drop the event
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
