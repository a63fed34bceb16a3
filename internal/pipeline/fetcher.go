package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
	"golang.org/x/sync/singleflight"
)

// SeasonSource retrieves the raw per-game table for a season
type SeasonSource interface {
	FetchSeason(ctx context.Context, season int) (*stats.RawTable, error)
}

// Fetcher memoizes season tables in the memo store it is given.
// A season is fetched from the source at most once per run; concurrent
// requests for an unfetched season share one call. Failures are not stored.
type Fetcher struct {
	source SeasonSource
	store  cache.Store
	events *Notifiers
	group  singleflight.Group

	// seasons the store refused to keep
	fallbackMu sync.RWMutex
	fallback   map[string]*stats.RawTable
}

// NewFetcher creates a memoizing fetcher
func NewFetcher(source SeasonSource, store cache.Store, events *Notifiers) *Fetcher {
	return &Fetcher{
		source:   source,
		store:    store,
		events:   events,
		fallback: make(map[string]*stats.RawTable),
	}
}

// Fetch returns the raw table for a season. A caller whose context ends
// stops waiting, but the shared fetch keeps running for the others.
func (f *Fetcher) Fetch(ctx context.Context, season int) (*stats.RawTable, error) {
	key := seasonKey(season)

	if raw, ok := f.lookup(ctx, key); ok {
		return raw, nil
	}

	// detached so one caller going away does not fail the whole flight
	flightCtx := context.WithoutCancel(ctx)

	ch := f.group.DoChan(key, func() (interface{}, error) {
		// another caller may have filled the store while we waited
		if raw, ok := f.lookup(flightCtx, key); ok {
			return raw, nil
		}

		f.events.Notify(flightCtx, models.PipelineEvent{Type: models.EventSeasonLoading, Season: season})
		log.Printf("[fetcher] Fetching season %d", season)

		raw, err := f.source.FetchSeason(flightCtx, season)
		if err != nil {
			f.events.Notify(flightCtx, models.PipelineEvent{Type: models.EventSeasonFailed, Season: season, Error: err.Error()})
			return nil, err
		}

		f.remember(flightCtx, key, raw)

		log.Printf("[fetcher] Season %d fetched (%d raw rows)", season, len(raw.Rows))
		f.events.Notify(flightCtx, models.PipelineEvent{Type: models.EventSeasonLoaded, Season: season, Rows: len(raw.Rows)})

		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*stats.RawTable), nil
	}
}

// remember writes a fetched season to the store, keeping it in process
// when the store cannot take it.
func (f *Fetcher) remember(ctx context.Context, key string, raw *stats.RawTable) {
	data, err := json.Marshal(raw)
	if err == nil {
		err = f.store.Set(ctx, key, data)
	}
	if err == nil {
		return
	}

	log.Printf("[fetcher] Error storing %s, keeping it in process: %v", key, err)
	f.fallbackMu.Lock()
	f.fallback[key] = raw
	f.fallbackMu.Unlock()
}

func (f *Fetcher) lookup(ctx context.Context, key string) (*stats.RawTable, bool) {
	f.fallbackMu.RLock()
	raw, ok := f.fallback[key]
	f.fallbackMu.RUnlock()
	if ok {
		return raw, true
	}

	data, ok, err := f.store.Get(ctx, key)
	if err != nil {
		log.Printf("[fetcher] Error reading %s: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var decoded stats.RawTable
	if err := json.Unmarshal(data, &decoded); err != nil {
		log.Printf("[fetcher] Error decoding %s: %v", key, err)
		return nil, false
	}
	return &decoded, true
}

func seasonKey(season int) string {
	return "season:" + strconv.Itoa(season)
}
