package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Minute, WithEvictHook(func(k string, _ int) { evicted = append(evicted, k) }))

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if diff := cmp.Diff([]string{"b"}, evicted); diff != "" {
		t.Fatalf("evicted (-want +got):\n%s", diff)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRU_FixedTTL(t *testing.T) {
	clk := newClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clk.Now))

	c.Set("k", "v")
	clk.Advance(40 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired early")
	}
	clk.Advance(40 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry outlived fixed ttl")
	}
}

func TestLRU_SlidingTTL(t *testing.T) {
	clk := newClock()
	c := NewLRUCache[string](10, time.Minute, WithClock[string](clk.Now), WithSlidingExpiry[string]())

	c.Set("k", "v")
	for i := 0; i < 5; i++ {
		clk.Advance(40 * time.Second)
		if _, ok := c.Get("k"); !ok {
			t.Fatalf("entry expired despite access at step %d", i)
		}
	}
	clk.Advance(61 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("idle entry did not expire")
	}
}

func TestLRU_DeleteSkipsHook(t *testing.T) {
	called := false
	c := NewLRUCache[int](2, time.Minute, WithEvictHook(func(string, int) { called = true }))
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("missing")
	if called {
		t.Fatal("evict hook ran on Delete")
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestManager_SweepAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := newClock()
	c := NewLRUCache[int](10, time.Second, WithClock[int](clk.Now))
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(nil)
	m.Register(c)
	m.StartCleanup(time.Hour)

	clk.Advance(2 * time.Second)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	m.Stop()
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	NewManager(nil).Stop()
}
