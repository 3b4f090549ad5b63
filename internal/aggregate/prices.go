package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PriceAggregator fans a game lookup out across every vendor that
// currently tracks the game and collects one snapshot per vendor.
type PriceAggregator struct {
	store        Store
	log          *zap.Logger
	fetchTimeout time.Duration
	parallel     int
}

func NewPriceAggregator(store Store, log *zap.Logger, fetchTimeout time.Duration, parallel int) *PriceAggregator {
	if parallel < 1 {
		parallel = 1
	}
	return &PriceAggregator{
		store:        store,
		log:          log,
		fetchTimeout: fetchTimeout,
		parallel:     parallel,
	}
}

// Prices returns one snapshot per vendor that has an identifier mapped
// for gameID. The vendor set is resolved per call, so vendors added or
// removed since the last call are picked up automatically. A single
// vendor's fetch failing drops that vendor from the result instead of
// failing the whole aggregation.
func (a *PriceAggregator) Prices(ctx context.Context, gameID uint) (map[string]Snapshot, error) {
	vendors, err := a.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving vendor set: %w", err)
	}

	links, err := a.store.VendorLinks(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("resolving vendor links for game %d: %w", gameID, err)
	}

	result := make(map[string]Snapshot)
	mu := sync.Mutex{}
	wg := sync.WaitGroup{}
	semaphore := make(chan struct{}, a.parallel)

	seen := make(map[string]bool, len(vendors))
	for _, v := range vendors {
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true

		localID, ok := links[v.ID]
		if !ok {
			continue // game not tracked on this vendor
		}

		wg.Add(1)
		go func(vendor Vendor, localID string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()

			snap, err := a.store.FetchSnapshot(fetchCtx, vendor.ID, localID)
			if err != nil {
				a.log.Warn("vendor snapshot fetch failed, skipping",
					zap.String("vendor", vendor.Name),
					zap.Uint("game_id", gameID),
					zap.Error(err))
				return
			}

			mu.Lock()
			result[vendor.Name] = *snap
			mu.Unlock()
		}(v, localID)
	}

	wg.Wait()
	return result, nil
}
