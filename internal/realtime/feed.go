package realtime

import (
	"context"
	"sync"
)

const subscriptionBuffer = 64

// Publisher is the write side of the feed. The Feed itself publishes
// in-process; Bridge additionally replicates across instances.
type Publisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent)
}

// Subscription is one listener on a table's change stream. Close is mandatory
// on teardown; after Close no further events are delivered.
type Subscription struct {
	c     chan ChangeEvent
	feed  *Feed
	table string
	id    int
	once  sync.Once
}

// Events returns the receive channel. It is closed by Close.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.c
}

// Close unsubscribes and closes the event channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.unsubscribe(s.table, s.id)
		close(s.c)
	})
}

// Feed fans change events out to per-table subscribers inside one process.
// Slow subscribers drop events rather than block publishers; every consumer
// of this feed recomputes from the store, so a dropped event only delays
// convergence until the next poll or event.
type Feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*Subscription
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[int]*Subscription)}
}

// Subscribe registers a listener for one table.
func (f *Feed) Subscribe(table string) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub := &Subscription{
		c:     make(chan ChangeEvent, subscriptionBuffer),
		feed:  f,
		table: table,
		id:    f.nextID,
	}
	if _, ok := f.subs[table]; !ok {
		f.subs[table] = make(map[int]*Subscription)
	}
	f.subs[table][sub.id] = sub
	return sub
}

// Publish delivers an event to all subscribers of its table. Invalid events
// are dropped at this boundary.
func (f *Feed) Publish(ev ChangeEvent) {
	if err := ev.Validate(); err != nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs[ev.Table] {
		select {
		case sub.c <- ev:
		default:
		}
	}
}

// PublishChange implements Publisher.
func (f *Feed) PublishChange(_ context.Context, ev ChangeEvent) {
	f.Publish(ev)
}

func (f *Feed) unsubscribe(table string, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if subs, ok := f.subs[table]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(f.subs, table)
		}
	}
}
