package mvvm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultBridgeChannel is the Redis channel used when none is given.
const DefaultBridgeChannel = "enkoni:messages"

// ErrNotBound is returned by Publish for message types that were not bound.
var ErrNotBound = errors.New("message type is not bound to the bridge")

// envelope is the wire format of a bridged message.
type envelope struct {
	Origin  string          `json:"origin"`
	Type    string          `json:"type"`
	Token   string          `json:"token,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

type binding struct {
	name    string
	deliver func(payload json.RawMessage, token string) (int, error)
}

// RedisBridge carries messages between the messengers of several processes
// over a Redis Pub/Sub channel. Only message types bound with Bind cross the
// bridge; delivery is at most once, as with any Redis Pub/Sub subscriber.
type RedisBridge struct {
	client    redis.UniversalClient
	channel   string
	origin    string
	messenger *Messenger
	logger    *zap.Logger

	mu     sync.RWMutex
	byName map[string]*binding
	byType map[reflect.Type]*binding

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRedisBridge creates a bridge publishing on channel. A nil messenger
// means Default(), an empty channel DefaultBridgeChannel.
func NewRedisBridge(client redis.UniversalClient, channel string, messenger *Messenger, logger *zap.Logger) (*RedisBridge, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if channel == "" {
		channel = DefaultBridgeChannel
	}
	if messenger == nil {
		messenger = Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	origin := uuid.NewString()
	return &RedisBridge{
		client:    client,
		channel:   channel,
		origin:    origin,
		messenger: messenger,
		logger:    logger.With(zap.String("channel", channel), zap.String("origin", origin)),
		byName:    make(map[string]*binding),
		byType:    make(map[reflect.Type]*binding),
		ready:     make(chan struct{}),
	}, nil
}

// Origin identifies this bridge in published envelopes.
func (b *RedisBridge) Origin() string {
	return b.origin
}

// Ready is closed once Run has subscribed to the channel.
func (b *RedisBridge) Ready() <-chan struct{} {
	return b.ready
}

// Bind lets messages of type M cross the bridge under name. M must survive a
// JSON round trip. Every process must bind the type under the same name.
func Bind[M any](b *RedisBridge, name string) error {
	if name == "" {
		return fmt.Errorf("binding name cannot be empty")
	}
	t := reflect.TypeFor[M]()
	bd := &binding{
		name: name,
		deliver: func(payload json.RawMessage, token string) (int, error) {
			var msg M
			if err := json.Unmarshal(payload, &msg); err != nil {
				return 0, fmt.Errorf("decode %s: %w", name, err)
			}
			if token != "" {
				return SendToken(b.messenger, msg, any(token)), nil
			}
			return Send(b.messenger, msg), nil
		},
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.byName[name]; ok && b.byType[t] != prev {
		return fmt.Errorf("name %q is already bound to another type", name)
	}
	b.byName[name] = bd
	b.byType[t] = bd
	return nil
}

// Publish sends msg on the local messenger and publishes it for the other
// processes.
func Publish[M any](ctx context.Context, b *RedisBridge, msg M) error {
	return publish(ctx, b, msg, "")
}

// PublishToken works like Publish for recipients registered with a string
// token.
func PublishToken[M any](ctx context.Context, b *RedisBridge, msg M, token string) error {
	return publish(ctx, b, msg, token)
}

func publish[M any](ctx context.Context, b *RedisBridge, msg M, token string) error {
	b.mu.RLock()
	bd, ok := b.byType[reflect.TypeFor[M]()]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotBound, reflect.TypeFor[M]())
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bd.name, err)
	}
	data, err := json.Marshal(envelope{
		Origin:  b.origin,
		Type:    bd.name,
		Token:   token,
		SentAt:  time.Now().UTC(),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if token != "" {
		SendToken(b.messenger, msg, any(token))
	} else {
		Send(b.messenger, msg)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", bd.name, err)
	}
	return nil
}

// Run receives envelopes from other processes and sends them on the local
// messenger until ctx is done. Envelopes this bridge published itself are
// skipped.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	// Wait for the subscription to be confirmed before reporting readiness.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })
	b.logger.Debug("bridge subscribed")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", b.channel)
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("dropping malformed envelope", zap.Error(err))
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.mu.RLock()
	bd, ok := b.byName[env.Type]
	b.mu.RUnlock()
	if !ok {
		b.logger.Debug("ignoring unbound message type", zap.String("type", env.Type))
		return
	}
	n, err := bd.deliver(env.Payload, env.Token)
	if err != nil {
		b.logger.Warn("dropping undecodable message", zap.String("type", env.Type), zap.Error(err))
		return
	}
	b.logger.Debug("bridged message delivered",
		zap.String("type", env.Type),
		zap.String("from", env.Origin),
		zap.Int("recipients", n))
}
