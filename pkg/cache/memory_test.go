package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	if err := mc.Set(ctx, "k1", payload{Name: "pt", Value: 0.95}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := mc.Get(ctx, "k1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "pt" || got.Value != 0.95 {
		t.Errorf("got %+v", got)
	}

	var s string
	if err := mc.Set(ctx, "k2", "raw", time.Minute); err != nil {
		t.Fatalf("Set string: %v", err)
	}
	if err := mc.Get(ctx, "k2", &s); err != nil || s != "raw" {
		t.Errorf("Get string = %q, %v", s, err)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var s string
	if err := mc.Get(ctx, "absent", &s); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	type payload struct {
		N int `json:"n"`
	}
	got, ok, err := GetTyped[payload](ctx, Service(mc), "absent")
	if err != nil {
		t.Fatalf("GetTyped: %v", err)
	}
	if ok {
		t.Errorf("expected miss, got %+v", got)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:refresh", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}

	ok, err = mc.TryLock(ctx, "lock:refresh", time.Minute)
	if err != nil {
		t.Fatalf("second TryLock: %v", err)
	}
	if ok {
		t.Error("second TryLock should not acquire")
	}

	if err := mc.Unlock(ctx, "lock:refresh"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, _ = mc.TryLock(ctx, "lock:refresh", time.Minute)
	if !ok {
		t.Error("TryLock after Unlock should acquire")
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", "3", time.Minute) // evicts a

	var s string
	if err := mc.Get(ctx, "a", &s); err != ErrCacheMiss {
		t.Errorf("oldest key should be evicted, got %v", err)
	}
	if err := mc.Get(ctx, "c", &s); err != nil || s != "3" {
		t.Errorf("Get c = %q, %v", s, err)
	}
}
