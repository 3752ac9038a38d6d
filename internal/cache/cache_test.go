package cache

import (
	"sync"
	"testing"
	"time"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type evictLog[K comparable, V any] struct {
	mu   sync.Mutex
	keys []K
	vals []V
}

func (l *evictLog[K, V]) hook(k K, v V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, k)
	l.vals = append(l.vals, v)
}

func (l *evictLog[K, V]) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

func TestCache_PutGet(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()

	c.Put("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) reported a hit")
	}
}

func TestCache_GetRefreshesIdleTimer(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	c := New(time.Minute, withClock[string, int](clock))
	defer c.Close()

	c.Put("a", 1)

	// Touch just before the deadline; the entry should survive a sweep
	// that runs after the original deadline has passed.
	clock.Advance(40 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired early")
	}
	clock.Advance(40 * time.Second)
	c.sweep()
	if _, ok := c.Get("a"); !ok {
		t.Error("touch did not reset the idle timer")
	}

	clock.Advance(61 * time.Second)
	c.sweep()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after idle expiry, want 0", c.Len())
	}
}

func TestCache_SweepEvictsIdle(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	log := &evictLog[string, int]{}
	c := New(time.Minute, withClock[string, int](clock), WithOnEvict[string, int](log.hook))
	defer c.Close()

	c.Put("stale", 1)
	clock.Advance(30 * time.Second)
	c.Put("fresh", 2)
	clock.Advance(31 * time.Second)
	c.sweep()

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry was swept")
	}
	if log.count() != 1 || log.keys[0] != "stale" || log.vals[0] != 1 {
		t.Errorf("evictions = %v/%v, want [stale]/[1]", log.keys, log.vals)
	}
}

func TestCache_ExpiredGetIsMiss(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	log := &evictLog[string, int]{}
	c := New(time.Minute, withClock[string, int](clock), WithOnEvict[string, int](log.hook))
	defer c.Close()

	c.Put("a", 1)
	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry reported as a hit")
	}
	if log.count() != 1 {
		t.Errorf("evictions = %d, want 1 (lazy expiry)", log.count())
	}
}

func TestCache_MaxSizeEvictsIdlest(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	log := &evictLog[string, int]{}
	c := New(time.Hour,
		withClock[string, int](clock),
		WithMaxSize[string, int](2),
		WithOnEvict[string, int](log.hook))
	defer c.Close()

	c.Put("a", 1)
	clock.Advance(time.Second)
	c.Put("b", 2)
	clock.Advance(time.Second)

	// Touching a makes b the idlest candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}
	c.Put("c", 3)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if log.count() != 1 || log.keys[0] != "b" {
		t.Errorf("evicted %v, want [b]", log.keys)
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently touched entry was evicted")
	}
}

func TestCache_GetOrNew(t *testing.T) {
	c := New[string, int](time.Minute)
	defer c.Close()

	calls := 0
	make3 := func() int { calls++; return 3 }

	if v := c.GetOrNew("k", make3); v != 3 {
		t.Errorf("GetOrNew = %d, want 3", v)
	}
	if v := c.GetOrNew("k", make3); v != 3 {
		t.Errorf("GetOrNew = %d, want 3", v)
	}
	if calls != 1 {
		t.Errorf("constructor ran %d times, want 1", calls)
	}
}

func TestCache_Delete(t *testing.T) {
	log := &evictLog[string, int]{}
	c := New(time.Minute, WithOnEvict[string, int](log.hook))
	defer c.Close()

	c.Put("a", 1)
	if !c.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if log.count() != 1 {
		t.Errorf("evictions = %d, want 1", log.count())
	}
}

func TestCache_FlushEvictsAll(t *testing.T) {
	log := &evictLog[string, int]{}
	c := New(time.Minute, WithOnEvict[string, int](log.hook))
	defer c.Close()

	c.Put("a", 1)
	c.Put("b", 2)
	c.Flush()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Flush, want 0", c.Len())
	}
	if log.count() != 2 {
		t.Errorf("evictions = %d, want 2", log.count())
	}
}

func TestCache_BackgroundSweep(t *testing.T) {
	evicted := make(chan string, 1)
	c := New(20*time.Millisecond, WithOnEvict[string, int](func(k string, _ int) {
		evicted <- k
	}))
	defer c.Close()

	c.Put("a", 1)

	select {
	case k := <-evicted:
		if k != "a" {
			t.Errorf("evicted %q, want a", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background sweep never evicted the idle entry")
	}
}
