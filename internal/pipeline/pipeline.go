package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/export"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
)

// ErrInvalidSeason is returned for seasons outside the selectable range
var ErrInvalidSeason = errors.New("invalid season")

// View is one render of the filtered table plus the selector state
type View struct {
	Season        int                  `json:"season"`
	Teams         []string             `json:"teams"`
	Positions     []string             `json:"positions"`
	SelectedTeams []string             `json:"selected_teams"`
	SelectedPos   []string             `json:"selected_positions"`
	Table         *stats.FilteredTable `json:"table"`
	Dimension     models.Dimension     `json:"dimension"`
	teamSelection stats.Selection
	posSelection  stats.Selection
}

// Pipeline runs fetch, normalize and filter for each request. It owns
// the fetch memo and the export encoder.
type Pipeline struct {
	fetcher     *Fetcher
	encoder     *export.Encoder
	events      *Notifiers
	firstSeason int
	now         func() time.Time
}

// New creates a pipeline
func New(fetcher *Fetcher, encoder *export.Encoder, events *Notifiers, firstSeason int) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		encoder:     encoder,
		events:      events,
		firstSeason: firstSeason,
		now:         time.Now,
	}
}

// SetClock overrides the clock used for the current season
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Seasons returns selectable seasons, newest first
func (p *Pipeline) Seasons() []int {
	return stats.Seasons(p.firstSeason, p.CurrentSeason())
}

// CurrentSeason is the current calendar year
func (p *Pipeline) CurrentSeason() int {
	return p.now().Year()
}

// Load returns the normalized table for a season
func (p *Pipeline) Load(ctx context.Context, season int) (*stats.Table, error) {
	if err := stats.ValidateSeason(season, p.firstSeason, p.CurrentSeason()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeason, err)
	}

	raw, err := p.fetcher.Fetch(ctx, season)
	if err != nil {
		return nil, err
	}

	table, err := stats.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("season %d: %w", season, err)
	}

	return table, nil
}

// View loads a season and filters it. A nil selection selects every
// distinct value in the table.
func (p *Pipeline) View(ctx context.Context, season int, teams, positions stats.Selection) (*View, error) {
	table, err := p.Load(ctx, season)
	if err != nil {
		return nil, err
	}

	allTeams := stats.DistinctValues(table, stats.ColumnTeam)
	allPositions := stats.DistinctValues(table, stats.ColumnPosition)

	if teams == nil {
		teams = stats.NewSelection(allTeams...)
	}
	if positions == nil {
		positions = stats.NewSelection(allPositions...)
	}

	filtered := stats.Filter(table, teams, positions)
	rows, cols := filtered.Dimension()

	return &View{
		Season:        season,
		Teams:         allTeams,
		Positions:     allPositions,
		SelectedTeams: teams.Sorted(),
		SelectedPos:   positions.Sorted(),
		Table:         filtered,
		Dimension:     models.Dimension{Rows: rows, Columns: cols},
		teamSelection: teams,
		posSelection:  positions,
	}, nil
}

// Download is an encoded filtered table
type Download struct {
	Data   []byte
	Format export.Format
	View   *View
}

// Export encodes the filtered table for download
func (p *Pipeline) Export(ctx context.Context, season int, teams, positions stats.Selection, format export.Format) (*Download, error) {
	view, err := p.View(ctx, season, teams, positions)
	if err != nil {
		return nil, err
	}

	key := export.Key{
		Season:    season,
		Teams:     view.SelectedTeams,
		Positions: view.SelectedPos,
		Format:    format,
	}

	data, cached, err := p.encoder.Encode(ctx, key, &view.Table.Table)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	if !cached {
		log.Printf("[pipeline] Encoded season %d as %s (%d rows, %d bytes)", season, format, view.Dimension.Rows, len(data))
		p.events.Notify(ctx, models.PipelineEvent{
			Type:   models.EventExportEncoded,
			Season: season,
			Rows:   view.Dimension.Rows,
			Format: string(format),
			Bytes:  len(data),
		})
	}

	return &Download{Data: data, Format: format, View: view}, nil
}

// Correlation computes the heatmap matrix for the filtered table.
// It is recomputed on every call.
func (p *Pipeline) Correlation(ctx context.Context, season int, teams, positions stats.Selection) (*stats.CorrelationMatrix, error) {
	view, err := p.View(ctx, season, teams, positions)
	if err != nil {
		return nil, err
	}
	return stats.Correlate(&view.Table.Table), nil
}

// IsTeamSelected reports whether a team is in the view's selection
func (v *View) IsTeamSelected(team string) bool {
	return v.teamSelection.Contains(team)
}

// IsPositionSelected reports whether a position is in the view's selection
func (v *View) IsPositionSelected(pos string) bool {
	return v.posSelection.Contains(pos)
}
