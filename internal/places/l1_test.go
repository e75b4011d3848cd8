package places

import (
	"testing"
	"time"
)

func TestL1Cache_SetGet(t *testing.T) {
	c := newL1Cache(10, time.Minute)
	c.set("a", []byte("value-a"))

	got, ok := c.get("a")
	if !ok || string(got) != "value-a" {
		t.Errorf("get(a) = %q, %v", got, ok)
	}
}

func TestL1Cache_MissingKey(t *testing.T) {
	c := newL1Cache(10, time.Minute)
	if _, ok := c.get("missing"); ok {
		t.Error("expected miss for unseen key")
	}
}

func TestL1Cache_Expiry(t *testing.T) {
	c := newL1Cache(10, time.Millisecond)
	c.set("a", []byte("v"))
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.get("a"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestL1Cache_FIFOEviction(t *testing.T) {
	c := newL1Cache(2, time.Minute)
	c.set("a", []byte("1"))
	c.set("b", []byte("2"))
	c.set("c", []byte("3")) // evicts "a"

	if _, ok := c.get("a"); ok {
		t.Error("expected 'a' to be evicted as oldest")
	}
	if _, ok := c.get("b"); !ok {
		t.Error("expected 'b' to remain")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("expected 'c' to remain")
	}
}

func TestL1Cache_DefaultsAppliedForInvalidConfig(t *testing.T) {
	c := newL1Cache(0, 0)
	if c.capacity != 500 {
		t.Errorf("expected default capacity 500, got %d", c.capacity)
	}
	if c.ttl != 60*time.Second {
		t.Errorf("expected default ttl 60s, got %v", c.ttl)
	}
}

func TestL1Cache_ConcurrentAccess(t *testing.T) {
	c := newL1Cache(100, time.Minute)
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(n int) {
			c.set("k", []byte("v"))
			c.get("k")
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
