package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// subscriberBuffer holds every event of a full game so slow readers do not lose any.
const subscriberBuffer = 64

// Broker fans events out to in-process subscribers.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan Event]chan struct{}
	closed bool
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]chan struct{})}
}

// Subscribe registers a subscriber. The channel is closed by the returned
// unsubscribe function, by ctx cancellation or by Close.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	quit := make(chan struct{})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = quit
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.removeLocked(ch)
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-quit:
		}
	}()
	return ch, unsubscribe
}

func (b *Broker) removeLocked(ch chan Event) {
	quit, ok := b.subs[ch]
	if !ok {
		return
	}
	delete(b.subs, ch)
	close(quit)
	close(ch)
}

// Notify delivers ev to every subscriber. A subscriber whose buffer is full misses the event.
func (b *Broker) Notify(ctx context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.WarnContext(ctx, "Dropping event for slow subscriber", "session.id", ev.SessionID, "event", ev.Type)
		}
	}
}

// Close closes all subscriber channels. Later subscriptions receive a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ch := range b.subs {
		b.removeLocked(ch)
	}
}

// RedisPublisher publishes events on the session's Pub/Sub channel so that views
// running in another process can follow a game.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Notify publishes ev. Failures are logged, never returned to the session.
func (p *RedisPublisher) Notify(ctx context.Context, ev Event) {
	ctx, span := tracer.Start(ctx, "events.RedisPublisher.Notify", trace.WithAttributes(
		attribute.String("session.id", ev.SessionID),
		attribute.String("event.type", string(ev.Type)),
	))
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling event", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling event")
		return
	}

	if err := p.rdb.Publish(ctx, SessionChannel(ev.SessionID), data).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "session.id", ev.SessionID, "event", ev.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to publish event")
	}
}

// Follow subscribes to a session's channel and decodes its events until ctx is done.
func Follow(ctx context.Context, rdb *redis.Client, sessionID string) (<-chan Event, error) {
	pubsub := rdb.Subscribe(ctx, SessionChannel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.WarnContext(ctx, "ignoring malformed event", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
