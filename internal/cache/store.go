package cache

import "context"

// Store is the memo store owned by the pipeline driver. Entries live until
// the process exits; nothing is evicted or invalidated.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}
