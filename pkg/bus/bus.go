package bus

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is the recommended minimum ring size per subscriber
// (spec: "A bounded ring of >=256 in-flight events per subscriber").
const subscriberBuffer = 256

// Bus is a process-wide multi-producer, multi-subscriber broadcaster of
// Event. Publish never blocks: a subscriber that falls behind has its
// oldest buffered event dropped to make room, so it may miss
// intermediate events but is always guaranteed to observe ShuttingDown,
// since that publish happens only after every other producer has been
// asked to stop.
type Bus struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]chan Event
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[uuid.UUID]chan Event)}
}

// Subscription is a live subscriber handle. Events arrive on C in
// publish order relative to any single publisher. Close releases the
// subscription; it is also released automatically once the Bus is
// dropped, but callers should Close explicitly on their own exit path.
type Subscription struct {
	id   uuid.UUID
	C    <-chan Event
	bus  *Bus
	once sync.Once
}

// Close unsubscribes and closes the underlying channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.id)
	})
}

// Subscribe registers a new subscriber and returns its handle.
// Unsubscription happens via Subscription.Close; there is no implicit
// unsubscribe-on-drop in Go, so callers must defer Close().
func (b *Bus) Subscribe() *Subscription {
	id := uuid.New()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	return &Subscription{id: id, C: ch, bus: b}
}

func (b *Bus) unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish broadcasts ev to every current subscriber. It never blocks:
// if a subscriber's buffer is full, the oldest queued event for that
// subscriber is dropped to make room for ev, so a burst never stalls
// the publisher at the cost of that one subscriber's history.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop its oldest event and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				log.Warn().Str("subscriber", id.String()).Str("kind", string(ev.Kind)).
					Msg("bus: subscriber buffer saturated, event dropped")
			}
		}
	}
}

// SubscriberCount returns the current number of live subscriptions.
// Intended for diagnostics/health reporting only.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
