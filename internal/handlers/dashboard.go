package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/sports/basketball_nba"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"teamName":      basketball_nba.GetTeamName,
	"aggregateTeam": basketball_nba.IsAggregateTeam,
}).ParseFS(templateFS, "templates/dashboard.html"))

// dashboardPage is the template model for the dashboard
type dashboardPage struct {
	Seasons     []int
	Season      int
	View        *pipeline.View
	Error       string
	CSVHref     template.URL
	XLSXHref    template.URL
	HeatmapHref template.URL
	Heatmap     *heatmap
}

type heatmap struct {
	Columns []string
	Rows    []heatmapRow
}

type heatmapRow struct {
	Label string
	Cells []heatmapCell
}

type heatmapCell struct {
	Text       string
	Background string
	Foreground string
}

// Dashboard renders the interactive stats page
// GET /?season=2024&team=BOS&pos=PG&heatmap=1
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Seasons: h.service.Seasons(),
		Season:  h.service.CurrentSeason(),
	}

	status := http.StatusOK
	if raw := r.URL.Query().Get("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			status = http.StatusBadRequest
			page.Error = fmt.Sprintf("invalid season: %q", raw)
		} else {
			page.Season = season
		}
	}

	teams := selectionParam(r, "team")
	positions := selectionParam(r, "pos")

	if page.Error == "" {
		view, err := h.service.View(r.Context(), page.Season, teams, positions)
		if err != nil {
			var message string
			status, message = statusFor(err)
			page.Error = fmt.Sprintf("%s: %v", message, err)
			log.Printf("[dashboard] season %d: %v", page.Season, err)
		} else {
			page.View = view
			// query values are already escaped by url.Values
			query := selectionQuery(page.Season, teams, positions)
			page.CSVHref = template.URL(fmt.Sprintf("/api/v1/seasons/%d/players.csv?%s", page.Season, query))
			page.XLSXHref = template.URL(fmt.Sprintf("/api/v1/seasons/%d/players.xlsx?%s", page.Season, query))
			page.HeatmapHref = template.URL("/?" + query + "&heatmap=1")
		}
	}

	if page.View != nil && r.URL.Query().Get("heatmap") == "1" {
		matrix, err := h.service.Correlation(r.Context(), page.Season, teams, positions)
		if err != nil {
			status, _ = statusFor(err)
			page.Error = err.Error()
		} else {
			page.Heatmap = buildHeatmap(matrix)
		}
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, page); err != nil {
		log.Printf("[dashboard] template error: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// selectionQuery rebuilds the query for download and heatmap links. Nil
// selections are left out so they keep meaning "everything".
func selectionQuery(season int, teams, positions stats.Selection) string {
	q := url.Values{}
	q.Set("season", strconv.Itoa(season))
	addSelection(q, "team", teams)
	addSelection(q, "pos", positions)
	return q.Encode()
}

func addSelection(q url.Values, name string, sel stats.Selection) {
	if sel == nil {
		return
	}
	if len(sel) == 0 {
		q.Add(name, "")
		return
	}
	for _, v := range sel.Sorted() {
		q.Add(name, v)
	}
}

func buildHeatmap(m *stats.CorrelationMatrix) *heatmap {
	hm := &heatmap{Columns: m.Columns}
	for i, label := range m.Columns {
		row := heatmapRow{Label: label}
		for _, v := range m.Values[i] {
			row.Cells = append(row.Cells, heatCell(v))
		}
		hm.Rows = append(hm.Rows, row)
	}
	return hm
}

// ylGnBu is the yellow-green-blue sequential palette
var ylGnBu = [][3]float64{
	{255, 255, 217},
	{237, 248, 177},
	{199, 233, 180},
	{127, 205, 187},
	{65, 182, 196},
	{29, 145, 192},
	{34, 94, 168},
	{37, 52, 148},
	{8, 29, 88},
}

// heatCell shades a coefficient in [-1, 1] on the YlGnBu scale
func heatCell(v float64) heatmapCell {
	if math.IsNaN(v) {
		return heatmapCell{Text: "", Background: "#ffffff", Foreground: "#000000"}
	}

	pos := (math.Max(-1, math.Min(1, v)) + 1) / 2 * float64(len(ylGnBu)-1)
	lo := int(math.Floor(pos))
	if lo >= len(ylGnBu)-1 {
		lo = len(ylGnBu) - 2
	}
	frac := pos - float64(lo)

	var rgb [3]int
	for c := 0; c < 3; c++ {
		rgb[c] = int(math.Round(ylGnBu[lo][c] + (ylGnBu[lo+1][c]-ylGnBu[lo][c])*frac))
	}

	fg := "#000000"
	if pos > float64(len(ylGnBu)-1)/2 {
		fg = "#ffffff"
	}

	return heatmapCell{
		Text:       strconv.FormatFloat(v, 'f', 2, 64),
		Background: fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]),
		Foreground: fg,
	}
}
