package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// HistoryAggregator merges a game's recorded price observations into
// one ordered time series per vendor.
type HistoryAggregator struct {
	store Store
}

func NewHistoryAggregator(store Store) *HistoryAggregator {
	return &HistoryAggregator{store: store}
}

// History returns a date-ascending series per vendor name. Duplicate
// dates within a vendor collapse to the latest written value. A game
// with no observations at all is ErrNotFound; a vendor with none is
// simply absent from the result.
func (a *HistoryAggregator) History(ctx context.Context, gameID uint) (map[string][]PricePoint, error) {
	observations, err := a.store.ListObservations(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading observations for game %d: %w", gameID, err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("no price history for game %d: %w", gameID, ErrNotFound)
	}

	// Rows arrive in insertion order, so overwriting on a repeated
	// date keeps the last written value.
	byVendor := make(map[string]map[time.Time]PricePoint)
	for _, obs := range observations {
		day := obs.Date.Truncate(24 * time.Hour)
		series, ok := byVendor[obs.VendorName]
		if !ok {
			series = make(map[time.Time]PricePoint)
			byVendor[obs.VendorName] = series
		}
		series[day] = PricePoint{Date: day, Price: obs.Price}
	}

	result := make(map[string][]PricePoint, len(byVendor))
	for vendor, series := range byVendor {
		points := make([]PricePoint, 0, len(series))
		for _, p := range series {
			points = append(points, p)
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})
		result[vendor] = points
	}
	return result, nil
}
