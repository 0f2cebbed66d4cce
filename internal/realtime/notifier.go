package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"github.com/OdenEater/wedding-sns/internal/observability"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel shared by all instances.
const Channel = "realtime:" + Schema

// Publisher announces that a table changed.
type Publisher interface {
	Publish(ctx context.Context, table Table, typ EventType)
}

// Notifier publishes change events through Redis so every instance's hub
// sees them. Without Redis it dispatches straight to the local hub.
type Notifier struct {
	rdb *redis.Client
	hub *Hub
}

func NewNotifier(rdb *redis.Client, hub *Hub) *Notifier {
	return &Notifier{rdb: rdb, hub: hub}
}

// Publish is best effort; errors are logged and counted only.
func (n *Notifier) Publish(ctx context.Context, table Table, typ EventType) {
	ev := NewEvent(table, typ)
	observability.RealtimeEvents.WithLabelValues(string(table), string(typ)).Inc()

	if n.rdb == nil {
		n.hub.Dispatch(ev)
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
		observability.FromContext(ctx).WarnContext(ctx, "realtime publish failed", slog.Any("error", err))
		// 少なくともこのインスタンスの購読者には届ける
		n.hub.Dispatch(ev)
	}
}

// Start subscribes to the shared channel and forwards events to the hub
// until ctx is cancelled. It is a no-op without Redis.
func (n *Notifier) Start(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}

	sub := n.rdb.Subscribe(ctx, Channel)
	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.forward(msg.Payload)
			}
		}
	}()

	return nil
}

func (n *Notifier) forward(payload string) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in realtime subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		observability.GlobalLogger.Warn("invalid realtime payload", slog.Any("error", err))
		return
	}
	n.hub.Dispatch(ev)
}
