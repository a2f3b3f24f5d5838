// Package dashboard answers dashboard queries by combining a city table
// source with the pure computations in the domain package.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// TableLoader returns the event table for one city.
type TableLoader interface {
	Load(ctx context.Context, city string) (*domain.EventTable, error)
}

// CityLister returns the cities a user may select.
type CityLister interface {
	ListCities(ctx context.Context) ([]string, error)
}

// SnapshotPublisher records a computed result somewhere outside the process.
type SnapshotPublisher interface {
	Publish(ctx context.Context, out domain.Outputs) error
}

// Defaults fill in selections the caller leaves out.
type Defaults struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// Service computes dashboard outputs.
type Service struct {
	tables    TableLoader
	cities    CityLister
	publisher SnapshotPublisher
	estimator domain.Estimator
	defaults  Defaults
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes every computed result. Publish failures are logged
// and never fail the computation.
func WithPublisher(p SnapshotPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New creates a Service over the given table source and city list.
func New(tables TableLoader, cities CityLister, est domain.Estimator, defaults Defaults, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		tables:    tables,
		cities:    cities,
		estimator: est,
		defaults:  defaults,
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness returns nil once the city list has been read successfully.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("city list has not been loaded yet")
	}
	return nil
}

// Cities returns the selectable cities in list order.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	cities, err := s.cities.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	s.metrics.CitiesAvailable.Set(float64(len(cities)))
	s.ready.Store(true)
	return cities, nil
}

// DefaultQuery returns the selection shown before the user changes anything:
// the configured date range and the current hour.
func (s *Service) DefaultQuery(city string) domain.Query {
	return domain.Query{
		City:       city,
		Range:      domain.NewDateRange(s.defaults.Start, s.defaults.End),
		TargetHour: domain.CurrentHour(s.defaults.Location),
	}
}

// Estimator returns the probability estimator in use.
func (s *Service) Estimator() domain.Estimator { return s.estimator }

// Compute loads the table for q.City and evaluates the dashboard outputs.
func (s *Service) Compute(ctx context.Context, q domain.Query) (domain.Outputs, error) {
	if err := q.Validate(); err != nil {
		return domain.Outputs{}, err
	}
	start := time.Now()

	table, err := s.tables.Load(ctx, q.City)
	if err != nil {
		return domain.Outputs{}, err
	}

	out := domain.ComputeOutputs(table, q, s.estimator)

	s.metrics.Computations.Inc()
	s.metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	s.logger.Debug("dashboard computed",
		"city", q.City,
		"alerts", out.AlertCount,
		"days", out.Days,
		"target_hour", q.TargetHour,
		"probability", out.Probability,
	)

	s.publish(ctx, out)
	return out, nil
}

func (s *Service) publish(ctx context.Context, out domain.Outputs) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, out); err != nil {
		s.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish snapshot failed", "error", err, "city", out.Query.City)
		return
	}
	s.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
}
