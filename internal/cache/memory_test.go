package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/cache"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()

	if _, ok, err := store.Get(ctx, "season:2024"); ok || err != nil {
		t.Fatalf("expected miss on empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "season:2024", []byte("table")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok, err := store.Get(ctx, "season:2024")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(data) != "table" {
		t.Errorf("expected 'table', got %q", data)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("season:%d", 1950+i%10)
			_ = store.Set(ctx, key, []byte(key))
			_, _, _ = store.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("expected 10 entries, got %d", store.Len())
	}
}
