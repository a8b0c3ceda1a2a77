// Package events is the fan-out bus between the trading core and its
// subscribers (API stream, persistence hooks, tests). Event kinds are a
// closed enum; subscription is by named topic family. Each subscriber
// owns a bounded queue and is dropped once the queue fills, so a slow
// consumer can never stall the engine.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/observability"
)

// Kind identifies one event type emitted by the core.
type Kind string

// All event kinds the core emits.
const (
	KindTokenDiscovered  Kind = "token:discovered"
	KindSignalGenerated  Kind = "signal:generated"
	KindTradeOpened      Kind = "trade:opened"
	KindTradeClosed      Kind = "trade:closed"
	KindPositionUpdated  Kind = "position:updated"
	KindEngineStarted    Kind = "engine:started"
	KindEngineStopped    Kind = "engine:stopped"
	KindError            Kind = "error"
	KindTreasuryUpdated  Kind = "treasury:updated"
	KindStrategiesLoaded Kind = "strategies:loaded"

	KindEvolutionStarted   Kind = "evolution:started"
	KindEvolutionBirths    Kind = "evolution:births"
	KindEvolutionDeaths    Kind = "evolution:deaths"
	KindEvolutionCompleted Kind = "evolution:completed"
	KindEvolutionError     Kind = "evolution:error"

	KindSimulatorStarted Kind = "simulator:started"
	KindSimulatorStopped Kind = "simulator:stopped"
)

// Topic is a named family of event kinds a subscriber can select.
type Topic string

// Topic families.
const (
	TopicTrades     Topic = "trades"
	TopicEvolution  Topic = "evolution"
	TopicStrategies Topic = "strategies"
	TopicPrices     Topic = "prices"
	TopicPositions  Topic = "positions"
	TopicTreasury   Topic = "treasury"
	TopicAll        Topic = "all"
)

// Topic returns the family an event kind belongs to. Lifecycle and error
// kinds belong to the catch-all family only.
func (k Kind) Topic() Topic {
	switch k {
	case KindTokenDiscovered:
		return TopicPrices
	case KindSignalGenerated, KindTradeOpened, KindTradeClosed:
		return TopicTrades
	case KindPositionUpdated:
		return TopicPositions
	case KindTreasuryUpdated:
		return TopicTreasury
	case KindStrategiesLoaded:
		return TopicStrategies
	case KindEvolutionStarted, KindEvolutionBirths, KindEvolutionDeaths,
		KindEvolutionCompleted, KindEvolutionError:
		return TopicEvolution
	default:
		return TopicAll
	}
}

// Event is one published record. Payloads are domain entities.
type Event struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Subscription is one subscriber's bounded queue.
type Subscription struct {
	bus    *Bus
	topics map[Topic]struct{}
	ch     chan Event
	once   sync.Once
}

// Events returns the subscriber's receive channel. It is closed when the
// subscription is cancelled or the subscriber is dropped for falling
// behind.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close cancels the subscription.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

func (s *Subscription) wants(k Kind) bool {
	if _, ok := s.topics[TopicAll]; ok {
		return true
	}
	_, ok := s.topics[k.Topic()]
	return ok
}

// Bus is the multi-subscriber fan-out.
type Bus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
	log  zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
		log:  logger.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a subscriber for the given topic families with a
// queue of the given size. No topics means everything.
func (b *Bus) Subscribe(buffer int, topics ...Topic) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	s := &Subscription{
		bus:    b,
		topics: make(map[Topic]struct{}, len(topics)),
		ch:     make(chan Event, buffer),
	}
	if len(topics) == 0 {
		s.topics[TopicAll] = struct{}{}
	}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish delivers an event to every matching subscriber in publish
// order. A subscriber whose queue is full is dropped and its channel
// closed; delivery to the rest is unaffected.
func (b *Bus) Publish(kind Kind, payload any) {
	evt := Event{Kind: kind, Timestamp: time.Now().UTC(), Payload: payload}
	observability.RecordEventPublished(string(kind))

	var dropped []*Subscription
	b.mu.RLock()
	for s := range b.subs {
		if !s.wants(kind) {
			continue
		}
		select {
		case s.ch <- evt:
		default:
			dropped = append(dropped, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range dropped {
		b.log.Warn().Str("kind", string(kind)).Msg("subscriber queue full, dropping subscriber")
		observability.RecordDroppedSubscriber()
		b.remove(s)
	}
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
	}
	b.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// SubscriberCount reports the current number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
