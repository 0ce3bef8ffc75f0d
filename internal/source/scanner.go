package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/monsefu/resplan/internal/model"
)

// ScanDir lists the periods for which dir holds a forecast file named YYYY-MM.json.
func ScanDir(dir string) ([]model.Period, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var periods []model.Period
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		p, err := model.ParsePeriod(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].String() < periods[j].String() })
	return periods, nil
}

// Files serves forecasts from local JSON files. Path is either a directory of
// YYYY-MM.json files or a single forecast file.
type Files struct {
	Path string
}

// FetchForecast reads the forecast for period.
func (f Files) FetchForecast(_ context.Context, period model.Period) (model.Forecast, error) {
	path := f.Path
	info, err := os.Stat(path)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("reading forecast: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, period.String()+".json")
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied forecast path
	if err != nil {
		return model.Forecast{}, fmt.Errorf("reading forecast: %w", err)
	}
	fc, err := DecodeForecast(data, period)
	if err != nil {
		return model.Forecast{}, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// LoadInventoryFile reads an inventory record from a JSON file.
func LoadInventoryFile(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied inventory path
	if err != nil {
		return model.Inventory{}, fmt.Errorf("reading inventory: %w", err)
	}
	return DecodeInventory(data)
}
