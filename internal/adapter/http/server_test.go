package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/alert-risk-dashboard/internal/adapter/http"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// --- mock dashboard ---

type mockDashboard struct {
	cities    []string
	citiesErr error
	readyErr  error
	out       domain.Outputs
	err       error
	got       *domain.Query
}

func (m *mockDashboard) Cities(_ context.Context) ([]string, error) { return m.cities, m.citiesErr }

func (m *mockDashboard) DefaultQuery(city string) domain.Query {
	return domain.Query{
		City:       city,
		Range:      domain.NewDateRange(day(1, time.October), day(24, time.November)),
		TargetHour: 8,
	}
}

func (m *mockDashboard) Compute(_ context.Context, q domain.Query) (domain.Outputs, error) {
	m.got = &q
	if m.err != nil {
		return domain.Outputs{}, m.err
	}
	out := m.out
	out.Query = q
	return out, nil
}

func (m *mockDashboard) CheckReadiness(_ context.Context) error { return m.readyErr }

func day(d int, mo time.Month) time.Time {
	return time.Date(2024, mo, d, 0, 0, 0, 0, time.UTC)
}

func telAvivOutputs() domain.Outputs {
	return domain.Outputs{
		AlertCount: 3,
		ByDate: []domain.DateCount{
			{Date: day(5, time.October), Count: 1},
			{Date: day(6, time.October), Count: 2},
		},
		ByHour:             []domain.HourCount{{Hour: 9, Count: 1}, {Hour: 14, Count: 2}},
		Days:               6,
		Probability:        2.0 / 864.0,
		ProbabilityPercent: 200.0 / 864.0,
	}
}

func newTestServer(dash *mockDashboard) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", dash, logger, metrics), metrics
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// --- health checks ---

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{})

	rec := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{})

	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{readyErr: fmt.Errorf("not ready yet")})

	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{})

	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- API ---

func TestCities(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{cities: []string{"TelAviv", "Haifa"}})

	rec := get(t, srv, "/api/v1/cities")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Cities []string `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"TelAviv", "Haifa"}, body.Cities)
}

func TestCities_Empty(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{})

	rec := get(t, srv, "/api/v1/cities")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cities":[]}`, rec.Body.String())
}

func TestCities_Error(t *testing.T) {
	srv, _ := newTestServer(&mockDashboard{citiesErr: errors.New("open cities.txt: no such file")})

	rec := get(t, srv, "/api/v1/cities")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cities.txt")
}

func TestDashboard(t *testing.T) {
	dash := &mockDashboard{out: telAvivOutputs()}
	srv, metrics := newTestServer(dash)

	rec := get(t, srv, "/api/v1/dashboard?city=TelAviv&start=2024-10-01&end=2024-10-07&hour=14:30")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, dash.got)
	assert.Equal(t, "TelAviv", dash.got.City)
	assert.Equal(t, day(1, time.October), dash.got.Range.Start)
	assert.Equal(t, day(7, time.October), dash.got.Range.End)
	assert.Equal(t, 14, dash.got.TargetHour)

	var body domain.Outputs
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.AlertCount)
	assert.Equal(t, 6, body.Days)
	assert.Len(t, body.ByHour, 2, "api groupings stay sparse")
	assert.InDelta(t, 2.0/864.0, body.Probability, 1e-12)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/dashboard", "200")))
}

func TestDashboard_Defaults(t *testing.T) {
	dash := &mockDashboard{out: telAvivOutputs()}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/api/v1/dashboard?city=TelAviv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, day(1, time.October), dash.got.Range.Start)
	assert.Equal(t, day(24, time.November), dash.got.Range.End)
	assert.Equal(t, 8, dash.got.TargetHour)
}

func TestDashboard_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing city", "/api/v1/dashboard"},
		{"bad start", "/api/v1/dashboard?city=TelAviv&start=01/10/2024"},
		{"bad end", "/api/v1/dashboard?city=TelAviv&end=yesterday"},
		{"hour too large", "/api/v1/dashboard?city=TelAviv&hour=24"},
		{"negative hour", "/api/v1/dashboard?city=TelAviv&hour=-1"},
		{"bad minutes", "/api/v1/dashboard?city=TelAviv&hour=14:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash := &mockDashboard{}
			srv, _ := newTestServer(dash)

			rec := get(t, srv, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, dash.got, "compute must not run")
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "BAD_REQUEST", body.Error.Code)
		})
	}
}

func TestDashboard_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("load city %q: %w", "Atlantis", domain.ErrCityNotFound), http.StatusNotFound},
		{"invalid city", domain.ErrInvalidCity, http.StatusBadRequest},
		{"invalid query", domain.ErrInvalidQuery, http.StatusBadRequest},
		{"malformed", fmt.Errorf("line 3: %w", domain.ErrMalformedRecord), http.StatusUnprocessableEntity},
		{"missing column", domain.ErrMissingColumn, http.StatusUnprocessableEntity},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&mockDashboard{err: tt.err})

			rec := get(t, srv, "/api/v1/dashboard?city=Atlantis")

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"0", 0, true},
		{"07", 7, true},
		{"23", 23, true},
		{"14:00", 14, true},
		{"14:59", 14, true},
		{"24", 0, false},
		{"14:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := httpadapter.ParseHour(tt.input)
			if !tt.ok {
				assert.ErrorIs(t, err, domain.ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- HTML page ---

func TestPage_RendersCharts(t *testing.T) {
	dash := &mockDashboard{cities: []string{"TelAviv", "Haifa"}, out: telAvivOutputs()}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/?city=TelAviv&hour=14")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Alerts Over Time")
	assert.Contains(t, body, "Alerts by Hour of the Day")
	assert.Contains(t, body, "2024-10-06")
	assert.Contains(t, body, "14:00")
	assert.Contains(t, body, "0.2315%")
	assert.Contains(t, body, "<span>23</span>", "hour axis shows every hour")
	assert.NotContains(t, body, "No alerts found")
}

func TestPage_DefaultsToFirstCity(t *testing.T) {
	dash := &mockDashboard{cities: []string{"Haifa", "TelAviv"}, out: telAvivOutputs()}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, dash.got)
	assert.Equal(t, "Haifa", dash.got.City)
	assert.Equal(t, 8, dash.got.TargetHour)
}

func TestPage_NoAlerts(t *testing.T) {
	dash := &mockDashboard{cities: []string{"TelAviv"}}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/?city=TelAviv")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No alerts found for the selected filters.")
	assert.Contains(t, body, "No hourly data found for the selected filters.")
	assert.Contains(t, body, "<div class=\"metric\">0</div>")
}

func TestPage_UnknownCity(t *testing.T) {
	dash := &mockDashboard{cities: []string{"TelAviv"}, err: domain.ErrCityNotFound}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/?city=Atlantis")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "city not found")
}

func TestPage_BadHour(t *testing.T) {
	dash := &mockDashboard{cities: []string{"TelAviv"}}
	srv, _ := newTestServer(dash)

	rec := get(t, srv, "/?city=TelAviv&hour=25")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, dash.got)
}
