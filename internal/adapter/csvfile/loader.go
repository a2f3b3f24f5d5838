package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// Ext is the file extension of per-city data files.
const Ext = ".csv"

const bom = "\ufeff"

// Loader reads per-city alert tables from a directory of CSV files.
// It implements dashboard.TableLoader.
type Loader struct {
	dir     string
	schema  domain.Schema
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader for files named "<city>.csv" under dir.
func NewLoader(dir string, schema domain.Schema, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		dir:     dir,
		schema:  schema,
		logger:  logger,
		metrics: metrics,
	}
}

// Dir returns the directory the loader reads from.
func (l *Loader) Dir() string { return l.dir }

// Path returns the data file path for city.
func (l *Loader) Path(city string) (string, error) {
	if err := ValidateCityName(city); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, city+Ext), nil
}

// Load reads and parses the data file for city. A missing file yields
// domain.ErrCityNotFound; any unparseable row fails the whole load.
func (l *Loader) Load(ctx context.Context, city string) (*domain.EventTable, error) {
	start := time.Now()

	path, err := l.Path(city)
	if err != nil {
		l.metrics.TableLoadErrors.WithLabelValues("invalid_city").Inc()
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.metrics.TableLoadErrors.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("load city %q: %w: %w", city, domain.ErrCityNotFound, err)
		}
		l.metrics.TableLoadErrors.WithLabelValues("io").Inc()
		return nil, fmt.Errorf("load city %q: %w", city, err)
	}
	defer f.Close()

	table, err := l.parse(ctx, city, f)
	if err != nil {
		reason := "io"
		if errors.Is(err, domain.ErrMalformedRecord) || errors.Is(err, domain.ErrMissingColumn) {
			reason = "malformed"
		}
		l.metrics.TableLoadErrors.WithLabelValues(reason).Inc()
		return nil, fmt.Errorf("load city %q: %w", city, err)
	}

	l.metrics.TableLoads.Inc()
	l.metrics.RowsLoaded.Observe(float64(table.Len()))
	l.metrics.TableLoadSeconds.Observe(time.Since(start).Seconds())
	l.logger.Debug("city table loaded", "city", city, "rows", table.Len(), "path", path)

	return table, nil
}

func (l *Loader) parse(ctx context.Context, city string, r io.Reader) (*domain.EventTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", domain.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	idx, err := columnIndex(header, l.schema)
	if err != nil {
		return nil, err
	}

	table := &domain.EventTable{City: city}
	fields := make(map[string]string, len(idx))
	for n := 1; ; n++ {
		if n%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
		}
		if isBlank(row) {
			continue
		}

		for name, i := range idx {
			fields[name] = ""
			if i < len(row) {
				fields[name] = row[i]
			}
		}

		rec, err := domain.ParseRecord(l.schema, fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// columnIndex maps each schema column to its position in header.
func columnIndex(header []string, schema domain.Schema) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, bom))
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}

	idx := make(map[string]int, 3)
	for _, col := range schema.Columns() {
		i, ok := positions[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, col)
		}
		idx[col] = i
	}
	return idx, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ValidateCityName rejects names that cannot safely name a file in the
// cities directory.
func ValidateCityName(city string) error {
	switch {
	case strings.TrimSpace(city) == "":
		return fmt.Errorf("%w: empty", domain.ErrInvalidCity)
	case strings.ContainsAny(city, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", domain.ErrInvalidCity, city)
	case city == "." || city == "..":
		return fmt.Errorf("%w: %q", domain.ErrInvalidCity, city)
	}
	return nil
}

// CityFromPath returns the city a data file belongs to, or false when path is
// not a data file.
func CityFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, Ext) {
		return "", false
	}
	city := strings.TrimSuffix(base, Ext)
	return city, city != ""
}
