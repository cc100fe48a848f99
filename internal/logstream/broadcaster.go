// Package logstream fans out sync progress lines to live subscribers.
//
// Each sync kind owns one Broadcaster. A Broadcaster keeps a bounded history
// so a dashboard connecting mid-run still sees how the run started, and
// forwards new entries to every subscriber without ever blocking the
// publisher: a slow consumer loses entries, the sync run does not stall.
package logstream

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one progress line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Broadcaster distributes entries to subscribers and retains bounded history.
// Safe for concurrent use.
type Broadcaster struct {
	mu      sync.Mutex
	history []Entry
	limit   int
	subs    map[int]chan Entry
	nextID  int
}

// subscriberBuffer bounds how far a consumer may fall behind before entries
// are dropped for it.
const subscriberBuffer = 64

// New creates a broadcaster retaining at most limit history entries.
func New(limit int) *Broadcaster {
	if limit <= 0 {
		limit = 50
	}
	return &Broadcaster{
		limit: limit,
		subs:  make(map[int]chan Entry),
	}
}

// Publish records an entry and forwards it to all subscribers.
func (b *Broadcaster) Publish(level, message string) {
	entry := Entry{Time: time.Now().UTC(), Level: level, Message: message}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, entry)
	if len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}

	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
			// Subscriber buffer full; drop rather than block the run
		}
	}
}

// Infof publishes a formatted info entry.
func (b *Broadcaster) Infof(format string, args ...interface{}) {
	b.Publish("info", fmt.Sprintf(format, args...))
}

// Warnf publishes a formatted warning entry.
func (b *Broadcaster) Warnf(format string, args ...interface{}) {
	b.Publish("warn", fmt.Sprintf(format, args...))
}

// Errorf publishes a formatted error entry.
func (b *Broadcaster) Errorf(format string, args ...interface{}) {
	b.Publish("error", fmt.Sprintf(format, args...))
}

// Subscribe registers a consumer and snapshots the history in the same
// critical section, so the snapshot plus the channel deliver every entry
// exactly once: the channel carries only entries published after the
// snapshot. cancel removes the subscription and closes the channel.
func (b *Broadcaster) Subscribe() ([]Entry, <-chan Entry, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	history := make([]Entry, len(b.history))
	copy(history, b.history)

	id := b.nextID
	b.nextID++
	ch := make(chan Entry, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return history, ch, cancel
}

// History returns a copy of the retained entries, oldest first.
func (b *Broadcaster) History() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.history))
	copy(out, b.history)
	return out
}
