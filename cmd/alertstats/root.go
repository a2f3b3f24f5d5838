package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/alert-risk-dashboard/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/alert-risk-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/alert-risk-dashboard/internal/adapter/tablecache"
	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/dashboard"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "alertstats",
	Short: "City alert history and hourly alert risk",
	Long: `alertstats reads per-city alert logs and reports how many alerts a city had
over a date range, how they spread over days and hours, and the empirical
probability of an alert in a chosen hour of the day.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file; environment variables override it")
}

// app bundles the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	loader  *csvfile.Loader
	cache   *tablecache.Cache
	service *dashboard.Service
	writer  *kafkaadapter.SnapshotWriter
}

// newApp loads configuration and builds the dashboard service. Only serve
// registers metrics with the default registry and publishes snapshots.
func newApp(serving bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewUnregisteredMetrics()
	if serving {
		metrics = observability.NewMetrics()
	}

	loader := csvfile.NewLoader(cfg.CitiesDir, cfg.Schema, logger, metrics)
	cache := tablecache.New(loader, cfg.CacheSize, logger, metrics, tablecache.WithTTL(cfg.CacheTTL))
	est := domain.Estimator{SlotsPerHour: cfg.SlotsPerHour}
	defaults := dashboard.Defaults{Start: cfg.DefaultStart, End: cfg.DefaultEnd, Location: cfg.Location}

	var opts []dashboard.Option
	var writer *kafkaadapter.SnapshotWriter
	if serving && cfg.SnapshotsEnabled {
		writer = kafkaadapter.NewSnapshotWriter(cfg, logger)
		opts = append(opts, dashboard.WithPublisher(writer))
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	}

	svc := dashboard.New(cache, csvfile.NewCityList(cfg.CitiesFile), est, defaults, logger, metrics, opts...)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		loader:  loader,
		cache:   cache,
		service: svc,
		writer:  writer,
	}, nil
}
