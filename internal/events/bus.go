// KaungMyatLinn | 2026
// bus.go

package events

import (
	"context"
	"sync"
)

// Bus fans events out to all active subscribers. It is owned by the server
// lifetime: main constructs it, hands it to publishers and subscribers, and
// closes it on shutdown. There is no package-level instance.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[int]chan T
	next   int
	closed bool
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		subs: make(map[int]chan T),
	}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends or the bus is
// closed.
func (b *Bus[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 16)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers the event to every subscriber. Slow subscribers are
// skipped rather than blocking the publisher.
func (b *Bus[T]) Publish(evt T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close tears down all subscriptions. Further publishes are no-ops.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
