package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors for callers to branch on with errors.Is.
var (
	// ErrNotFound means the game itself (or any history for it) does
	// not exist. A vendor that simply does not carry the game is not
	// an error.
	ErrNotFound = errors.New("game not found")
	// ErrSourceUnavailable means the store or a vendor source could
	// not be reached at all.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformed means a collaborator returned a row we cannot use.
	ErrMalformed = errors.New("malformed row")
)

// Vendor is one known vendor source at the time of the call.
type Vendor struct {
	ID   uint
	Name string
}

// Snapshot is the current state of a game on one vendor.
type Snapshot struct {
	LocalID     string          `json:"local_id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	InStock     string          `json:"in_stock"`
	URL         string          `json:"url"`
	LastChecked time.Time       `json:"last_checked"`
}

// Observation is one historical (vendor, date, price) point as read
// from the store, in insertion order.
type Observation struct {
	VendorName string
	Price      decimal.Decimal
	Date       time.Time
}

// PricePoint is one entry of a per-vendor time series.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Store is what the aggregators need from the persistence layer.
type Store interface {
	// ListVendors returns the current vendor set, ordered. It must
	// never substitute an empty list for a failure.
	ListVendors(ctx context.Context) ([]Vendor, error)
	// VendorLinks returns the vendor-local identifier per site id for
	// one game, in a single query. ErrNotFound when the game row is
	// absent; a missing key just means the game is not tracked there.
	VendorLinks(ctx context.Context, gameID uint) (map[uint]string, error)
	// FetchSnapshot returns the current listing for (vendor, local id),
	// or ErrNotFound.
	FetchSnapshot(ctx context.Context, vendorID uint, localID string) (*Snapshot, error)
	// ListObservations returns every history row for a game joined to
	// its vendor name, in insertion order.
	ListObservations(ctx context.Context, gameID uint) ([]Observation, error)
}
