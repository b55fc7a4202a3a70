package event

import (
	"log"
	"sync"
)

// Buffer size for queued events
const busBufferSize = 256

// Subscriber receives events in emission order on the bus goroutine
type Subscriber func(Event)

// Bus delivers published events to every subscriber, in order, on a single
// goroutine. Publishers never run subscriber code themselves.
type Bus struct {
	subsMu sync.RWMutex
	subs   map[int]Subscriber
	nextID int

	// pubMu guards closed and sends on queue; the dispatch loop never takes it
	pubMu     sync.RWMutex
	closed    bool
	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewBus creates a bus and starts its dispatch loop
func NewBus() *Bus {
	b := &Bus{
		subs:  make(map[int]Subscriber),
		queue: make(chan Event, busBufferSize),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

// Subscribe registers fn and returns a func that removes it
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.subsMu.Lock()
		delete(b.subs, id)
		b.subsMu.Unlock()
	}
}

// Publish queues events for delivery. Events published after Close are dropped.
func (b *Bus) Publish(events ...Event) {
	b.pubMu.RLock()
	defer b.pubMu.RUnlock()

	if b.closed {
		return
	}
	for _, ev := range events {
		b.queue <- ev
	}
}

// Close stops accepting events and waits until every queued event is delivered.
// It must not be called from a subscriber.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.pubMu.Lock()
		b.closed = true
		close(b.queue)
		b.pubMu.Unlock()
	})
	<-b.done
}

// run is the bus's dispatch loop
func (b *Bus) run() {
	defer close(b.done)

	for ev := range b.queue {
		b.subsMu.RLock()
		subs := make([]Subscriber, 0, len(b.subs))
		for id := 0; id < b.nextID; id++ {
			if fn, ok := b.subs[id]; ok {
				subs = append(subs, fn)
			}
		}
		b.subsMu.RUnlock()

		for _, fn := range subs {
			b.deliver(fn, ev)
		}
	}
}

// deliver isolates the loop from a panicking subscriber
func (b *Bus) deliver(fn Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Event subscriber panicked on %s for session %s: %v", ev.Type, ev.SessionID, r)
		}
	}()
	fn(ev)
}
