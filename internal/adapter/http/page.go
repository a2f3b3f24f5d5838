package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"pct": formatPercent,
}).ParseFS(templateFS, "templates/dashboard.html"))

// bar is one column of a server-rendered bar chart.
type bar struct {
	Label   string
	Count   int
	Percent float64
}

type pageData struct {
	Cities  []string
	City    string
	Start   string
	End     string
	Hour    string
	Error   string
	Out     *domain.Outputs
	ByDate  []bar
	ByHour  []bar
	HasData bool
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	status := http.StatusOK

	cities, err := s.dashboard.Cities(r.Context())
	if err != nil {
		s.logger.Error("list cities failed", "error", err)
		data.Error = "The city list is unavailable."
		s.renderPage(w, http.StatusInternalServerError, data)
		return
	}
	data.Cities = cities

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" && len(cities) > 0 {
		city = cities[0]
	}
	if city == "" {
		data.Error = "No cities are configured."
		s.renderPage(w, status, data)
		return
	}
	if !slices.Contains(cities, city) {
		data.Cities = append(slices.Clone(cities), city)
	}

	q, err := parseQuery(r, s.dashboard.DefaultQuery(city))
	fillSelection(&data, s.dashboard.DefaultQuery(city))
	if err != nil {
		data.City = city
		data.Error = err.Error()
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}
	fillSelection(&data, q)

	out, err := s.dashboard.Compute(r.Context(), q)
	if err != nil {
		status, _ = classify(err)
		data.Error = err.Error()
		if status >= http.StatusInternalServerError {
			s.logger.Error("compute dashboard failed", "error", err, "city", city)
			data.Error = "The dashboard could not be computed."
		}
		s.renderPage(w, status, data)
		return
	}

	data.Out = &out
	data.HasData = out.AlertCount > 0
	data.ByDate = dateBars(out.ByDate)
	data.ByHour = hourBars(domain.BackfillHours(out.ByHour))
	s.renderPage(w, status, data)
}

func fillSelection(data *pageData, q domain.Query) {
	data.City = q.City
	data.Start = q.Range.Start.Format(config.DateLayout)
	data.End = q.Range.End.Format(config.DateLayout)
	data.Hour = formatHour(q.TargetHour)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func dateBars(series []domain.DateCount) []bar {
	bars := make([]bar, len(series))
	peak := 0
	for _, dc := range series {
		peak = max(peak, dc.Count)
	}
	for i, dc := range series {
		bars[i] = bar{Label: dc.Date.Format(config.DateLayout), Count: dc.Count, Percent: share(dc.Count, peak)}
	}
	return bars
}

func hourBars(series []domain.HourCount) []bar {
	bars := make([]bar, len(series))
	peak := 0
	for _, hc := range series {
		peak = max(peak, hc.Count)
	}
	for i, hc := range series {
		bars[i] = bar{Label: formatHourTick(hc.Hour), Count: hc.Count, Percent: share(hc.Count, peak)}
	}
	return bars
}

func share(n, peak int) float64 {
	if peak == 0 {
		return 0
	}
	return float64(n) * 100 / float64(peak)
}

// formatPercent renders a percentage with up to four decimals.
func formatPercent(v float64) string {
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 4, 64), "0"), ".")
}

func formatHour(h int) string { return fmt.Sprintf("%02d:00", h) }

func formatHourTick(h int) string { return strconv.Itoa(h) }
