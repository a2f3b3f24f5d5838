package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/viper"

	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
)

// DateLayout is the format of date settings and request parameters.
const DateLayout = "2006-01-02"

// Config holds all service settings. Values come from environment variables,
// optionally layered over a YAML file.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data files.
	CitiesDir  string
	CitiesFile string
	Schema     domain.Schema

	// Dashboard defaults.
	SlotsPerHour int
	DefaultStart time.Time
	DefaultEnd   time.Time
	Location     *time.Location

	// City table cache.
	CacheSize  int
	CacheTTL   time.Duration
	CacheWatch bool

	// Snapshot publishing.
	SnapshotsEnabled   bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from the environment and, when path is not empty,
// from a YAML file. Environment variables win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	slots, err := parsePositiveInt(v, "slots_per_hour")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt(v, "cache_size")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(v.GetString("cache_ttl"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	start, err := time.Parse(DateLayout, v.GetString("default_start"))
	if err != nil {
		return nil, errors.New("invalid DEFAULT_START")
	}
	end, err := time.Parse(DateLayout, v.GetString("default_end"))
	if err != nil {
		return nil, errors.New("invalid DEFAULT_END")
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	var brokers []string
	if raw := strings.TrimSpace(v.GetString("kafka_brokers")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	snapshotsEnabled := len(brokers) > 0
	if v.IsSet("snapshots_enabled") {
		snapshotsEnabled = v.GetBool("snapshots_enabled")
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		LogFormat:       strings.ToLower(v.GetString("log_format")),
		ShutdownTimeout: shutdownTimeout,

		CitiesDir:  v.GetString("cities_dir"),
		CitiesFile: v.GetString("cities_file"),
		Schema: domain.Schema{
			CityField:     v.GetString("city_field"),
			DateField:     v.GetString("date_field"),
			DateTimeField: v.GetString("datetime_field"),
		},

		SlotsPerHour: slots,
		DefaultStart: start,
		DefaultEnd:   end,
		Location:     loc,

		CacheSize:  cacheSize,
		CacheTTL:   cacheTTL,
		CacheWatch: v.GetBool("cache_watch"),

		SnapshotsEnabled:   snapshotsEnabled,
		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: v.GetString("kafka_snapshot_topic"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("cities_dir", "cities")
	v.SetDefault("cities_file", "cities.txt")
	schema := domain.DefaultSchema()
	v.SetDefault("city_field", schema.CityField)
	v.SetDefault("date_field", schema.DateField)
	v.SetDefault("datetime_field", schema.DateTimeField)

	v.SetDefault("slots_per_hour", domain.DefaultSlotsPerHour)
	v.SetDefault("default_start", "2024-10-01")
	v.SetDefault("default_end", "2024-11-24")
	v.SetDefault("timezone", "Local")

	v.SetDefault("cache_size", 32)
	v.SetDefault("cache_ttl", "0s")
	v.SetDefault("cache_watch", true)

	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_snapshot_topic", "alert-dashboard-snapshots")
}

func (c *Config) validate() error {
	if c.CitiesDir == "" {
		return errors.New("CITIES_DIR is required")
	}
	if c.CitiesFile == "" {
		return errors.New("CITIES_FILE is required")
	}
	if c.Schema.CityField == "" || c.Schema.DateField == "" || c.Schema.DateTimeField == "" {
		return errors.New("CITY_FIELD, DATE_FIELD and DATETIME_FIELD must not be empty")
	}
	if c.SlotsPerHour > 60 {
		return errors.New("SLOTS_PER_HOUR must be between 1 and 60")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.SnapshotsEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("SNAPSHOTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.SnapshotsEnabled && c.KafkaSnapshotTopic == "" {
		return errors.New("KAFKA_SNAPSHOT_TOPIC is required when snapshots are enabled")
	}
	return nil
}

// parsePositiveInt reads key as a strictly positive integer, reporting the
// upper-case env name on failure.
func parsePositiveInt(v *viper.Viper, key string) (int, error) {
	name := strings.ToUpper(key)
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
