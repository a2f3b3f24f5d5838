package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type citiesResponse struct {
	Cities []string `json:"cities"`
}

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeNotFound      = "NOT_FOUND"
	errCodeUnprocessable = "UNPROCESSABLE_DATA"
	errCodeInternalError = "INTERNAL_ERROR"
)

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.dashboard.Cities(r.Context())
	if err != nil {
		s.logger.Error("list cities failed", "error", err)
		writeError(w, http.StatusInternalServerError, errCodeInternalError, "city list unavailable")
		return
	}
	if cities == nil {
		cities = []string{}
	}
	writeJSON(w, http.StatusOK, citiesResponse{Cities: cities})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "city is required")
		return
	}

	q, err := parseQuery(r, s.dashboard.DefaultQuery(city))
	if err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}

	out, err := s.dashboard.Compute(r.Context(), q)
	if err != nil {
		status, code := classify(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			s.logger.Error("compute dashboard failed", "error", err, "city", city)
			message = "internal error"
		}
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// parseQuery overlays the start, end, and hour request parameters on def.
// Dates use YYYY-MM-DD; the hour accepts "HH" or "HH:MM" and keeps only the
// hour.
func parseQuery(r *http.Request, def domain.Query) (domain.Query, error) {
	params := r.URL.Query()
	q := def

	if v := params.Get("start"); v != "" {
		t, err := time.Parse(config.DateLayout, v)
		if err != nil {
			return q, fmt.Errorf("%w: start %q is not YYYY-MM-DD", domain.ErrInvalidQuery, v)
		}
		q.Range.Start = domain.CalendarDate(t)
	}
	if v := params.Get("end"); v != "" {
		t, err := time.Parse(config.DateLayout, v)
		if err != nil {
			return q, fmt.Errorf("%w: end %q is not YYYY-MM-DD", domain.ErrInvalidQuery, v)
		}
		q.Range.End = domain.CalendarDate(t)
	}
	if v := params.Get("hour"); v != "" {
		h, err := ParseHour(v)
		if err != nil {
			return q, err
		}
		q.TargetHour = h
	}
	return q, nil
}

// ParseHour reads an hour of day from "HH" or "HH:MM". Minutes are validated
// and then dropped.
func ParseHour(v string) (int, error) {
	hh, mm, hasMinutes := strings.Cut(strings.TrimSpace(v), ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h >= domain.HoursPerDay {
		return 0, fmt.Errorf("%w: hour %q is not HH or HH:MM", domain.ErrInvalidQuery, v)
	}
	if hasMinutes {
		m, err := strconv.Atoi(mm)
		if err != nil || m < 0 || m > 59 || len(mm) != 2 {
			return 0, fmt.Errorf("%w: hour %q is not HH or HH:MM", domain.ErrInvalidQuery, v)
		}
	}
	return h, nil
}

// classify maps a dashboard error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidCity):
		return http.StatusBadRequest, errCodeBadRequest
	case errors.Is(err, domain.ErrCityNotFound):
		return http.StatusNotFound, errCodeNotFound
	case errors.Is(err, domain.ErrMalformedRecord), errors.Is(err, domain.ErrMissingColumn):
		return http.StatusUnprocessableEntity, errCodeUnprocessable
	default:
		return http.StatusInternalServerError, errCodeInternalError
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
