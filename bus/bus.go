// Package bus implements the in-process topic bus: URL-pattern topic
// matching, once-subscriptions, handler-error isolation, and an
// in-flight counter (spec §4.3, C3).
package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Event is what a handler receives: the concrete topic that matched,
// the named parameters bound by the pattern, and the publisher's payload.
type Event struct {
	Topic   string
	Params  map[string]string
	Payload map[string]any
}

// Handler processes a matched Event. A returned error is caught at the
// bus boundary, logged, and never propagated to the publisher or to
// other handlers.
type Handler func(ctx context.Context, evt Event) error

// Logger is the minimal structured-logging surface the bus needs to
// report handler failures without aborting dispatch.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Errorw(string, ...any) {}

// Subscription is a (topic pattern, handler) pair owned by the Bus.
type Subscription struct {
	id      string
	topic   string
	pattern *pattern
	handler Handler
	once    bool

	mu    sync.Mutex
	cache map[string]map[string]string // concrete topic -> bound params
}

// Topic returns the pattern this subscription was registered with.
func (s *Subscription) Topic() string { return s.topic }

// Bus is the process-wide publish/subscribe hub.
type Bus struct {
	log Logger

	mu   sync.RWMutex
	subs []*Subscription

	inFlight int64
}

// New creates an empty Bus. If log is nil, handler errors are swallowed
// (the bus still never lets them escape to the publisher).
func New(log Logger) *Bus {
	if log == nil {
		log = noopLogger{}
	}
	return &Bus{log: log}
}

// Subscribe registers handler against topicPattern. once=true makes the
// subscription remove itself after its first successful match.
func (b *Bus) Subscribe(topicPattern string, handler Handler, once bool) (*Subscription, error) {
	p, err := compilePattern(topicPattern)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		topic:   topicPattern,
		pattern: p,
		handler: handler,
		once:    once,
		cache:   make(map[string]map[string]string),
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// Once is sugar over Subscribe(topic, ..., once=true) that resolves the
// returned channel with the next matching Event. The channel is closed
// after delivering (or immediately, if the context is cancelled first).
func (b *Bus) Once(ctx context.Context, topic string) (<-chan Event, error) {
	out := make(chan Event, 1)
	var closeOnce sync.Once

	var sub *Subscription
	var err error
	sub, err = b.Subscribe(topic, func(_ context.Context, evt Event) error {
		closeOnce.Do(func() {
			out <- evt
			close(out)
		})
		return nil
	}, true)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		b.UnsubscribeHandle(sub)
		closeOnce.Do(func() { close(out) })
	}()

	return out, nil
}

// UnsubscribeHandle removes a specific subscription.
func (b *Bus) UnsubscribeHandle(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeTopic removes every subscription whose pattern matches the
// given concrete topic.
func (b *Bus) UnsubscribeTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	for _, s := range b.subs {
		if _, ok := s.pattern.match(topic); ok {
			continue
		}
		kept = append(kept, s)
	}
	b.subs = kept
}

type matched struct {
	sub    *Subscription
	params map[string]string
}

// Publish computes the match set synchronously (so subscriptions made
// earlier in the same call chain are observed — the bus's single
// concession to the spec's "yield point at the top of publish"), then
// runs every matched handler concurrently and blocks until all of them
// have returned. Handler panics and errors are caught and logged; they
// never reach the publisher. Once-subscriptions that match are removed
// before any handler runs, so a recursive publish on the same topic
// cannot see them twice.
func (b *Bus) Publish(ctx context.Context, topic string, payload map[string]any) {
	matches := b.matchAndConsumeOnce(topic)
	if len(matches) == 0 {
		return
	}

	atomic.AddInt64(&b.inFlight, 1)
	defer atomic.AddInt64(&b.inFlight, -1)

	var wg sync.WaitGroup
	for _, m := range matches {
		wg.Add(1)
		go func(m matched) {
			defer wg.Done()
			b.invoke(ctx, m, topic, payload)
		}(m)
	}
	wg.Wait()
}

func (b *Bus) matchAndConsumeOnce(topic string) []matched {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []matched
	kept := b.subs[:0]
	for _, s := range b.subs {
		params, ok := s.cachedMatch(topic)
		if !ok {
			kept = append(kept, s)
			continue
		}
		out = append(out, matched{sub: s, params: params})
		if !s.once {
			kept = append(kept, s)
		}
	}
	b.subs = kept
	return out
}

func (s *Subscription) cachedMatch(topic string) (map[string]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[topic]; ok {
		return cached, true
	}
	params, ok := s.pattern.match(topic)
	if ok {
		s.cache[topic] = params
	}
	return params, ok
}

func (b *Bus) invoke(ctx context.Context, m matched, topic string, payload map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorw("bus handler panicked", "topic", topic, "panic", fmt.Sprintf("%v", r))
		}
	}()

	evt := Event{Topic: topic, Params: m.params, Payload: payload}
	if err := m.sub.handler(ctx, evt); err != nil {
		b.log.Errorw("bus handler returned error", "topic", topic, "error", err)
	}
}

// InFlight returns the number of publishes currently dispatching.
func (b *Bus) InFlight() int64 {
	return atomic.LoadInt64(&b.inFlight)
}
