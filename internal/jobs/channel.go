// Push channel. Redis Pub/Sub for live fan-out plus a bounded, TTL'd Redis
// list as the per-(channel,id) backlog buffer, using the same pipelined
// Set+SAdd+Expire idiom as matching.Store.RecordDispatch
// (internal/modules/matching/store.go).
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"platefinder/internal/types"
)

// Channel is the C7 push-channel contract: publish delivers FIFO to live
// subscribers or buffers into a bounded backlog; subscribe drains the
// backlog before live messages.
type Channel interface {
	Publish(ctx context.Context, channel string, id types.ID, msg ServerMessage) error
	Subscribe(ctx context.Context, channel string, id types.ID) (<-chan ServerMessage, func(), error)
}

// RedisChannel is the cross-process implementation.
type RedisChannel struct {
	redis       *redis.Client
	backlogSize int64
	backlogTTL  time.Duration
}

func NewRedisChannel(client *redis.Client, backlogSize int64, backlogTTL time.Duration) *RedisChannel {
	if backlogSize <= 0 {
		backlogSize = DefaultBacklogSize
	}
	if backlogTTL <= 0 {
		backlogTTL = DefaultBacklogTTL
	}
	return &RedisChannel{redis: client, backlogSize: backlogSize, backlogTTL: backlogTTL}
}

func topicKey(channel string, id types.ID) string {
	return fmt.Sprintf("push:%s:%s", channel, id)
}

func backlogKey(channel string, id types.ID) string {
	return fmt.Sprintf("push:backlog:%s:%s", channel, id)
}

// Publish delivers to live subscribers via Redis Pub/Sub and always appends
// to the bounded backlog too, so a subscriber that connects after publish
// still drains the message: delivery is at-least-once.
func (c *RedisChannel) Publish(ctx context.Context, channel string, id types.ID, msg ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := c.redis.Pipeline()
	pipe.Publish(ctx, topicKey(channel, id), payload)
	pipe.LPush(ctx, backlogKey(channel, id), payload)
	pipe.LTrim(ctx, backlogKey(channel, id), 0, c.backlogSize-1)
	pipe.Expire(ctx, backlogKey(channel, id), c.backlogTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe drains the backlog (oldest first) then streams live messages
// until ctx is canceled or the caller invokes the returned unsubscribe func.
func (c *RedisChannel) Subscribe(ctx context.Context, channel string, id types.ID) (<-chan ServerMessage, func(), error) {
	raw, err := c.redis.LRange(ctx, backlogKey(channel, id), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, nil, err
	}

	sub := c.redis.Subscribe(ctx, topicKey(channel, id))
	out := make(chan ServerMessage, len(raw)+8)

	// LRange returns newest-first (LPush order); replay oldest-first.
	for i := len(raw) - 1; i >= 0; i-- {
		var msg ServerMessage
		if json.Unmarshal([]byte(raw[i]), &msg) == nil {
			out <- msg
		}
	}

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg ServerMessage
				if json.Unmarshal([]byte(m.Payload), &msg) == nil {
					select {
					case out <- msg:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}

// MemoryChannel is an in-process fallback implementing the same bounded
// backlog + FIFO live delivery semantics, used in dev/test mode.
type MemoryChannel struct {
	mu          sync.Mutex
	backlogSize int
	backlogTTL  time.Duration
	backlogs    map[string][]backlogEntry
	subscribers map[string][]chan ServerMessage
}

type backlogEntry struct {
	msg       ServerMessage
	expiresAt time.Time
}

func NewMemoryChannel(backlogSize int, backlogTTL time.Duration) *MemoryChannel {
	if backlogSize <= 0 {
		backlogSize = DefaultBacklogSize
	}
	if backlogTTL <= 0 {
		backlogTTL = DefaultBacklogTTL
	}
	return &MemoryChannel{
		backlogSize: backlogSize,
		backlogTTL:  backlogTTL,
		backlogs:    make(map[string][]backlogEntry),
		subscribers: make(map[string][]chan ServerMessage),
	}
}

func (c *MemoryChannel) Publish(ctx context.Context, channel string, id types.ID, msg ServerMessage) error {
	key := topicKey(channel, id)
	c.mu.Lock()
	defer c.mu.Unlock()

	if subs := c.subscribers[key]; len(subs) > 0 {
		for _, s := range subs {
			select {
			case s <- msg:
			default:
			}
		}
		return nil
	}

	entries := append(c.backlogs[key], backlogEntry{msg: msg, expiresAt: time.Now().Add(c.backlogTTL)})
	if len(entries) > c.backlogSize {
		entries = entries[len(entries)-c.backlogSize:]
	}
	c.backlogs[key] = entries
	return nil
}

func (c *MemoryChannel) Subscribe(ctx context.Context, channel string, id types.ID) (<-chan ServerMessage, func(), error) {
	key := topicKey(channel, id)
	out := make(chan ServerMessage, DefaultBacklogSize)

	c.mu.Lock()
	now := time.Now()
	for _, e := range c.backlogs[key] {
		if e.expiresAt.After(now) {
			out <- e.msg
		}
	}
	delete(c.backlogs, key)
	c.subscribers[key] = append(c.subscribers[key], out)
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subscribers[key]
		for i, s := range subs {
			if s == out {
				c.subscribers[key] = append(subs[:i], subs[i+1:]...)
				close(out)
				break
			}
		}
	}
	return out, unsubscribe, nil
}

// RunBacklogSweeper expires backlog entries older than their TTL, grounded on
// the same ticker idiom as MemoryStore.RunTTLSweeper.
func (c *MemoryChannel) RunBacklogSweeper(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

// sweepExpired drops every backlog entry whose TTL has passed, and any
// backlog left empty.
func (c *MemoryChannel) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, entries := range c.backlogs {
		kept := entries[:0]
		for _, e := range entries {
			if e.expiresAt.After(now) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.backlogs, key)
		} else {
			c.backlogs[key] = kept
		}
	}
}
