package csvfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// ReadCityList reads one city name per line. Names are trimmed of surrounding
// whitespace; blank lines are skipped and the file order is kept.
func ReadCityList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read city list: %w", err)
	}
	defer f.Close()

	var cities []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), bom))
		if name == "" {
			continue
		}
		cities = append(cities, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read city list: %w", err)
	}
	return cities, nil
}

// CityList reads the selectable cities from a list file on every call, so
// edits take effect without a restart.
type CityList struct {
	path string
}

// NewCityList creates a CityList backed by the file at path.
func NewCityList(path string) *CityList {
	return &CityList{path: path}
}

// ListCities implements dashboard.CityLister.
func (l *CityList) ListCities(_ context.Context) ([]string, error) {
	return ReadCityList(l.path)
}
