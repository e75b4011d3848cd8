package jobs

import (
	"context"
	"testing"
	"time"

	"platefinder/internal/types"
)

func TestMemoryChannel_PublishBeforeSubscribe_DrainsBacklog(t *testing.T) {
	c := NewMemoryChannel(DefaultBacklogSize, DefaultBacklogTTL)
	ctx := context.Background()
	id := types.ID("req-1")

	msg := ServerMessage{Channel: "search", RequestID: id, Type: ServerEventResults}
	if err := c.Publish(ctx, "search", id, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, unsubscribe, err := c.Subscribe(ctx, "search", id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	select {
	case got := <-out:
		if got.Type != ServerEventResults {
			t.Errorf("expected backlogged message replayed, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for backlogged message")
	}
}

func TestMemoryChannel_LiveDeliveryAfterSubscribe(t *testing.T) {
	c := NewMemoryChannel(DefaultBacklogSize, DefaultBacklogTTL)
	ctx := context.Background()
	id := types.ID("req-2")

	out, unsubscribe, err := c.Subscribe(ctx, "search", id)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer unsubscribe()

	msg := ServerMessage{Channel: "search", RequestID: id, Type: ServerEventProgress}
	if err := c.Publish(ctx, "search", id, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-out:
		if got.Type != ServerEventProgress {
			t.Errorf("expected live message, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live message")
	}
}

func TestMemoryChannel_BoundedBacklog(t *testing.T) {
	c := NewMemoryChannel(2, DefaultBacklogTTL)
	ctx := context.Background()
	id := types.ID("req-3")

	for i := 0; i < 5; i++ {
		_ = c.Publish(ctx, "search", id, ServerMessage{RequestID: id, Type: ServerEventProgress})
	}

	out, unsubscribe, _ := c.Subscribe(ctx, "search", id)
	defer unsubscribe()

	count := 0
drain:
	for {
		select {
		case <-out:
			count++
		case <-time.After(100 * time.Millisecond):
			break drain
		}
	}
	if count != 2 {
		t.Errorf("expected backlog bounded to 2 entries, got %d", count)
	}
}

func TestMemoryChannel_UnsubscribeClosesChannel(t *testing.T) {
	c := NewMemoryChannel(DefaultBacklogSize, DefaultBacklogTTL)
	ctx := context.Background()
	id := types.ID("req-4")

	out, unsubscribe, _ := c.Subscribe(ctx, "search", id)
	unsubscribe()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel closed after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestMemoryChannel_SweepExpiresBacklog(t *testing.T) {
	c := NewMemoryChannel(DefaultBacklogSize, time.Millisecond)
	ctx := context.Background()
	id := types.ID("req-5")

	_ = c.Publish(ctx, "search", id, ServerMessage{RequestID: id})
	time.Sleep(5 * time.Millisecond)

	c.sweepExpired()

	out, unsubscribe, _ := c.Subscribe(ctx, "search", id)
	defer unsubscribe()

	select {
	case <-out:
		t.Error("expected expired backlog entry not replayed")
	case <-time.After(50 * time.Millisecond):
	}
}
