package export

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
)

// Key identifies one encoded download
type Key struct {
	Season    int
	Teams     []string // sorted
	Positions []string // sorted
	Format    Format
}

// String renders the memo key. Selection values are query-escaped so a
// code containing a separator cannot collide with two separate codes.
func (k Key) String() string {
	q := url.Values{"team": k.Teams, "pos": k.Positions}
	return fmt.Sprintf("export:%d:%s:%s", k.Season, k.Format, q.Encode())
}

// Encoder memoizes encoded downloads so identical requests reuse the bytes
type Encoder struct {
	store cache.Store
}

// NewEncoder creates an encoder backed by the given memo store
func NewEncoder(store cache.Store) *Encoder {
	return &Encoder{store: store}
}

// Encode returns the table in the requested format, reusing a previous
// result for the same key.
func (e *Encoder) Encode(ctx context.Context, key Key, t *stats.Table) ([]byte, bool, error) {
	k := key.String()

	data, ok, err := e.store.Get(ctx, k)
	if err != nil {
		log.Printf("[export] memo read failed for %s: %v", k, err)
	} else if ok {
		return data, true, nil
	}

	switch key.Format {
	case FormatXLSX:
		data, err = EncodeXLSX(t)
		if err != nil {
			return nil, false, err
		}
	default:
		data = EncodeCSV(t)
	}

	if err := e.store.Set(ctx, k, data); err != nil {
		log.Printf("[export] memo write failed for %s: %v", k, err)
	}

	return data, false, nil
}
