package pipeline_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/export"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
)

// MockSource implements pipeline.SeasonSource for testing
type MockSource struct {
	calls   map[int]*int64
	mu      sync.Mutex
	delay   time.Duration
	failFor map[int]error
}

func NewMockSource() *MockSource {
	return &MockSource{calls: make(map[int]*int64), failFor: make(map[int]error)}
}

func (m *MockSource) FetchSeason(ctx context.Context, season int) (*stats.RawTable, error) {
	m.mu.Lock()
	c, ok := m.calls[season]
	if !ok {
		c = new(int64)
		m.calls[season] = c
	}
	failErr := m.failFor[season]
	m.mu.Unlock()

	atomic.AddInt64(c, 1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if failErr != nil {
		return nil, failErr
	}
	return mockRaw(), nil
}

func (m *MockSource) Calls(season int) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.calls[season]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

func mockRaw() *stats.RawTable {
	row := func(rk, player, age, team, pos, g, pts string) []stats.Cell {
		cells := []stats.Cell{}
		for _, v := range []string{rk, player, age, team, pos, g, pts} {
			if v == "" {
				cells = append(cells, stats.Missing())
			} else {
				cells = append(cells, stats.Text(v))
			}
		}
		return cells
	}
	return &stats.RawTable{
		Header: []string{"Rk", "Player", "Age", "Team", "Pos", "G", "PTS"},
		Rows: [][]stats.Cell{
			row("1", "A", "24", "BOS", "PG", "70", "20.1"),
			row("2", "B", "30", "LAL", "C", "60", "11.0"),
			row("Rk", "Player", "Age", "Team", "Pos", "G", "PTS"),
			row("3", "C", "22", "BOS", "C", "81", ""),
			row("4", "D", "27", "MIA", "SF", "45", "9.9"),
		},
	}
}

// recordingNotifier collects events
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.PipelineEvent
}

func (r *recordingNotifier) Notify(_ context.Context, e models.PipelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) count(t models.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func newPipeline(src pipeline.SeasonSource) (*pipeline.Pipeline, *recordingNotifier) {
	rec := &recordingNotifier{}
	events := pipeline.NewNotifiers(rec)
	store := cache.NewMemoryStore()
	p := pipeline.New(
		pipeline.NewFetcher(src, store, events),
		export.NewEncoder(store),
		events,
		stats.FirstNBASeason,
	)
	p.SetClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })
	return p, rec
}

func TestLoad_MemoizesPerSeason(t *testing.T) {
	src := NewMockSource()
	p, rec := newPipeline(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := p.Load(ctx, 2024); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := p.Load(ctx, 2023); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if src.Calls(2024) != 1 || src.Calls(2023) != 1 {
		t.Errorf("expected one fetch per season, got 2024=%d 2023=%d", src.Calls(2024), src.Calls(2023))
	}
	if rec.count(models.EventSeasonLoaded) != 2 {
		t.Errorf("expected 2 loaded events, got %d", rec.count(models.EventSeasonLoaded))
	}
}

func TestLoad_ConcurrentRequestsShareFetch(t *testing.T) {
	src := NewMockSource()
	src.delay = 50 * time.Millisecond
	p, _ := newPipeline(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Load(context.Background(), 2024); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if src.Calls(2024) != 1 {
		t.Errorf("expected 1 fetch, got %d", src.Calls(2024))
	}
}

func TestLoad_FailuresAreNotCached(t *testing.T) {
	src := NewMockSource()
	src.failFor[2024] = fmt.Errorf("%w: status=503", stats.ErrSourceUnavailable)
	p, rec := newPipeline(src)
	ctx := context.Background()

	_, err := p.Load(ctx, 2024)
	if !errors.Is(err, stats.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if rec.count(models.EventSeasonFailed) != 1 {
		t.Errorf("expected a failed event")
	}

	src.mu.Lock()
	delete(src.failFor, 2024)
	src.mu.Unlock()

	if _, err := p.Load(ctx, 2024); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if src.Calls(2024) != 2 {
		t.Errorf("expected retry to reach the source, got %d calls", src.Calls(2024))
	}
}

// gatedSource blocks every fetch until released, honoring its context
type gatedSource struct {
	started chan struct{}
	release chan struct{}
	calls   int64
}

func (g *gatedSource) FetchSeason(ctx context.Context, season int) (*stats.RawTable, error) {
	if atomic.AddInt64(&g.calls, 1) == 1 {
		close(g.started)
	}
	select {
	case <-g.release:
		return mockRaw(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", stats.ErrSourceUnavailable, ctx.Err())
	}
}

func TestLoad_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	p, _ := newPipeline(src)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := p.Load(firstCtx, 2024)
		firstErr <- err
	}()
	<-src.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := p.Load(context.Background(), 2024)
		secondErr <- err
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected the cancelled caller to see context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(src.release)
	select {
	case err := <-secondErr:
		if err != nil {
			t.Errorf("expected the other caller to succeed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second caller never finished")
	}

	if _, err := p.Load(context.Background(), 2024); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt64(&src.calls); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

// unwritableStore accepts reads but rejects every write
type unwritableStore struct {
	*cache.MemoryStore
}

func (unwritableStore) Set(context.Context, string, []byte) error {
	return errors.New("redis: connection refused")
}

func TestLoad_MemoizesWhenStoreWriteFails(t *testing.T) {
	src := NewMockSource()
	store := unwritableStore{MemoryStore: cache.NewMemoryStore()}
	events := pipeline.NewNotifiers()
	p := pipeline.New(pipeline.NewFetcher(src, store, events), export.NewEncoder(store), events, stats.FirstNBASeason)
	p.SetClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })

	for i := 0; i < 3; i++ {
		if _, err := p.Load(context.Background(), 2024); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.Calls(2024) != 1 {
		t.Errorf("expected 1 fetch despite store errors, got %d", src.Calls(2024))
	}
}

func TestLoad_InvalidSeason(t *testing.T) {
	src := NewMockSource()
	p, _ := newPipeline(src)

	for _, season := range []int{1949, 2027} {
		_, err := p.Load(context.Background(), season)
		if !errors.Is(err, pipeline.ErrInvalidSeason) {
			t.Errorf("season %d: expected ErrInvalidSeason, got %v", season, err)
		}
	}
	if src.Calls(1949)+src.Calls(2027) != 0 {
		t.Error("expected no fetch for invalid seasons")
	}
}

func TestView_DefaultsToAllValues(t *testing.T) {
	p, _ := newPipeline(NewMockSource())

	view, err := p.View(context.Background(), 2024, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Dimension.Rows != 4 || view.Dimension.Columns != 6 {
		t.Errorf("expected 4 x 6, got %d x %d", view.Dimension.Rows, view.Dimension.Columns)
	}
	if fmt.Sprint(view.Teams) != "[BOS LAL MIA]" {
		t.Errorf("unexpected teams %v", view.Teams)
	}
	if fmt.Sprint(view.SelectedPos) != "[C PG SF]" {
		t.Errorf("unexpected selected positions %v", view.SelectedPos)
	}
	if !view.IsTeamSelected("MIA") {
		t.Error("expected MIA selected by default")
	}
}

// staticSource always returns the same raw table
type staticSource struct {
	raw *stats.RawTable
}

func (s staticSource) FetchSeason(ctx context.Context, season int) (*stats.RawTable, error) {
	return s.raw, nil
}

func TestView_DefaultsKeepRowsWithMissingTeam(t *testing.T) {
	raw := &stats.RawTable{
		Header: []string{"Rk", "Player", "Age", "Team", "Pos", "G", "PTS"},
		Rows: [][]stats.Cell{
			{stats.Text("1"), stats.Text("A"), stats.Text("24"), stats.Missing(), stats.Text("PG"), stats.Text("70"), stats.Text("20.1")},
			{stats.Text("2"), stats.Text("B"), stats.Text("30"), stats.Text("LAL"), stats.Text("C"), stats.Text("60"), stats.Text("11.0")},
		},
	}
	p, _ := newPipeline(staticSource{raw: raw})

	view, err := p.View(context.Background(), 2024, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Dimension.Rows != 2 {
		t.Errorf("expected the default view to keep both rows, got %d", view.Dimension.Rows)
	}
	if !view.IsTeamSelected(stats.MissingLabel) {
		t.Errorf("expected %q among the default teams %v", stats.MissingLabel, view.SelectedTeams)
	}

	lakers, err := p.View(context.Background(), 2024, stats.NewSelection("LAL"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lakers.Dimension.Rows != 1 {
		t.Errorf("expected 1 LAL row, got %d", lakers.Dimension.Rows)
	}
}

func TestView_Selections(t *testing.T) {
	p, _ := newPipeline(NewMockSource())
	ctx := context.Background()

	view, err := p.View(ctx, 2024, stats.NewSelection("BOS"), stats.NewSelection("PG", "C"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Dimension.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", view.Dimension.Rows)
	}
	if fmt.Sprint(view.Table.SourceRows) != "[0 2]" {
		t.Errorf("expected source rows [0 2], got %v", view.Table.SourceRows)
	}

	empty, err := p.View(ctx, 2024, stats.NewSelection(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.Dimension.Rows != 0 || empty.Dimension.Columns != 6 {
		t.Errorf("expected 0 x 6, got %d x %d", empty.Dimension.Rows, empty.Dimension.Columns)
	}
}

func TestExport_CSVAndMemo(t *testing.T) {
	p, rec := newPipeline(NewMockSource())
	ctx := context.Background()
	teams := stats.NewSelection("BOS")

	first, err := p.Export(ctx, 2024, teams, nil, export.FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Export(ctx, 2024, teams, nil, export.FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first.Data, second.Data) {
		t.Error("expected identical export bytes")
	}
	if rec.count(models.EventExportEncoded) != 1 {
		t.Errorf("expected 1 encode event, got %d", rec.count(models.EventExportEncoded))
	}

	records, err := csv.NewReader(bytes.NewReader(first.Data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to decode csv: %v", err)
	}
	// header + two BOS rows; forward-filled PTS for player C
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[2][1] != "C" || records[2][6] != "11.0" {
		t.Errorf("unexpected row %v", records[2])
	}
}

func TestExport_SelectionsWithSeparatorsAreDistinct(t *testing.T) {
	p, _ := newPipeline(NewMockSource())
	ctx := context.Background()

	joined, err := p.Export(ctx, 2024, stats.NewSelection("BOS,LAL"), nil, export.FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joined.View.Dimension.Rows != 0 {
		t.Fatalf("expected no rows for an unknown code, got %d", joined.View.Dimension.Rows)
	}

	split, err := p.Export(ctx, 2024, stats.NewSelection("BOS", "LAL"), nil, export.FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(split.Data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to decode csv: %v", err)
	}
	if len(records)-1 != split.View.Dimension.Rows || split.View.Dimension.Rows != 3 {
		t.Errorf("expected 3 data rows matching the view, got %d records for %d rows",
			len(records)-1, split.View.Dimension.Rows)
	}
}

func TestCorrelation(t *testing.T) {
	p, _ := newPipeline(NewMockSource())

	m, err := p.Correlation(context.Background(), 2024, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(m.Columns) != "[Age G PTS]" {
		t.Errorf("unexpected columns %v", m.Columns)
	}
	for i := range m.Values {
		if m.Values[i][i] != 1 {
			t.Errorf("expected unit diagonal, got %v", m.Values[i][i])
		}
	}
}
