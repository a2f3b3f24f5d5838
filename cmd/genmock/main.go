// Command genmock writes deterministic sample alert logs: one CSV per city
// plus the city list file. It reads every generated file back through the
// loader so the fixtures always match what the service accepts.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/cities \
//	  -cities TelAviv,Haifa,Eilat \
//	  -start 2024-10-01 -end 2024-11-24
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/alert-risk-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
	"github.com/couchcryptid/alert-risk-dashboard/internal/observability"
)

// hourWeights skews generated alerts toward evening hours.
var hourWeights = [domain.HoursPerDay]int{
	1, 1, 1, 1, 1, 1, 2, 2, 3, 3, 3, 3,
	3, 3, 3, 4, 4, 5, 6, 6, 5, 4, 2, 1,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/cities", "directory for the generated city CSV files")
	citiesFlag := flag.String("cities", "TelAviv,Haifa,Eilat", "comma-separated city names")
	startFlag := flag.String("start", "2024-10-01", "first date, YYYY-MM-DD")
	endFlag := flag.String("end", "2024-11-24", "last date, YYYY-MM-DD")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	start, err := time.Parse(config.DateLayout, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(config.DateLayout, *endFlag)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("-end %s is before -start %s", *endFlag, *startFlag)
	}

	var cities []string
	for _, c := range strings.Split(*citiesFlag, ",") {
		if c = strings.TrimSpace(c); c != "" {
			if err := csvfile.ValidateCityName(c); err != nil {
				return err
			}
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		flag.Usage()
		return fmt.Errorf("no cities given")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, city := range cities {
		path := filepath.Join(*outDir, city+csvfile.Ext)
		n, err := writeCity(path, city, start, end, *seed)
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s: %d alerts", city, n)
	}

	listPath := filepath.Join(*outDir, "cities.txt")
	if err := os.WriteFile(listPath, []byte(strings.Join(cities, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write city list: %w", err)
	}
	log.Printf("city list: %s", listPath)

	return verify(*outDir, cities, domain.NewDateRange(start, end))
}

// writeCity generates a city's alerts between start and end inclusive and
// returns the number of rows written.
func writeCity(path, city string, start, end time.Time, seed uint64) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := generate(f, city, start, end, newRand(city, seed))
	if err != nil {
		return 0, err
	}
	return n, f.Close()
}

func newRand(city string, seed uint64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(city)) //nolint:errcheck // hash writes never fail
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

func generate(w io.Writer, city string, start, end time.Time, rng *rand.Rand) (int, error) {
	schema := domain.DefaultSchema()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{schema.CityField, schema.DateField, "time", schema.DateTimeField}); err != nil {
		return 0, err
	}

	rows := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for range rng.IntN(4) {
			ts := d.Add(time.Duration(pickHour(rng))*time.Hour + time.Duration(rng.IntN(60))*time.Minute)
			// A salvo repeats the same timestamp for several sirens.
			for range 1 + rng.IntN(2) {
				row := []string{city, ts.Format("02/01/2006"), ts.Format("15:04"), ts.Format("2006-01-02T15:04:05")}
				if err := cw.Write(row); err != nil {
					return 0, err
				}
				rows++
			}
		}
	}
	cw.Flush()
	return rows, cw.Error()
}

func pickHour(rng *rand.Rand) int {
	total := 0
	for _, w := range hourWeights {
		total += w
	}
	n := rng.IntN(total)
	for h, w := range hourWeights {
		if n < w {
			return h
		}
		n -= w
	}
	return domain.HoursPerDay - 1
}

// verify loads every generated file through the production loader and logs
// the dashboard figures for the evening peak.
func verify(dir string, cities []string, r domain.DateRange) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := csvfile.NewLoader(dir, domain.DefaultSchema(), logger, observability.NewUnregisteredMetrics())

	for _, city := range cities {
		table, err := loader.Load(context.Background(), city)
		if err != nil {
			return fmt.Errorf("verify %s: %w", city, err)
		}
		out := domain.ComputeOutputs(table, domain.Query{City: city, Range: r, TargetHour: 18}, domain.Estimator{})
		log.Printf("verified %s: %d alerts over %d days, p(18:00)=%.4f%%", city, out.AlertCount, out.Days, out.ProbabilityPercent)
	}
	return nil
}
