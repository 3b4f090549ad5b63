package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the MySQL-backed implementation of the read side: the
// vendor registry, link resolution, snapshot and history lookups, and
// the titles listing behind the search index.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListVendors reads the sites table on every call. The vendor set
// changes from outside this process, so nothing here is cached.
func (s *Store) ListVendors(ctx context.Context) ([]aggregate.Vendor, error) {
	var sites []models.Site
	if err := s.db.WithContext(ctx).Order("id").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("listing sites: %w: %v", aggregate.ErrSourceUnavailable, err)
	}

	vendors := make([]aggregate.Vendor, 0, len(sites))
	for _, site := range sites {
		vendors = append(vendors, aggregate.Vendor{ID: site.ID, Name: site.Name})
	}
	return vendors, nil
}

// VendorLinks resolves the per-vendor local identifier for one game in
// a single query over the link table. The game must exist; its links
// may be empty.
func (s *Store) VendorLinks(ctx context.Context, gameID uint) (map[uint]string, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aggregate.ErrNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w: %v", gameID, aggregate.ErrSourceUnavailable, err)
	}

	var links []models.GameSiteLink
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("loading links for game %d: %w: %v", gameID, aggregate.ErrSourceUnavailable, err)
	}

	result := make(map[uint]string, len(links))
	for _, link := range links {
		if link.LocalID == "" {
			continue
		}
		result[link.SiteID] = link.LocalID
	}
	return result, nil
}

// FetchSnapshot returns the current listing for one (vendor, local id)
// pair.
func (s *Store) FetchSnapshot(ctx context.Context, vendorID uint, localID string) (*aggregate.Snapshot, error) {
	var listing models.Listing
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND local_id = ?", vendorID, localID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aggregate.ErrNotFound
		}
		return nil, fmt.Errorf("loading listing %s on site %d: %w: %v", localID, vendorID, aggregate.ErrSourceUnavailable, err)
	}

	return &aggregate.Snapshot{
		LocalID:     listing.LocalID,
		Title:       listing.Title,
		Price:       listing.Price,
		InStock:     listing.InStock,
		URL:         listing.URL,
		LastChecked: listing.LastChecked,
	}, nil
}

// ListObservations returns all history rows for a game joined to their
// vendor names. Ordered by primary key, which is insertion order, so
// the history merge's last-write-wins is deterministic.
func (s *Store) ListObservations(ctx context.Context, gameID uint) ([]aggregate.Observation, error) {
	var rows []struct {
		SiteName string
		Price    decimal.Decimal
		Date     time.Time
	}
	err := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Select("sites.name AS site_name, price_observations.price, price_observations.date").
		Joins("JOIN sites ON sites.id = price_observations.site_id").
		Where("price_observations.game_id = ?", gameID).
		Order("price_observations.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading observations for game %d: %w: %v", gameID, aggregate.ErrSourceUnavailable, err)
	}

	observations := make([]aggregate.Observation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, aggregate.Observation{
			VendorName: row.SiteName,
			Price:      row.Price,
			Date:       row.Date,
		})
	}
	return observations, nil
}

// Titles returns every (id, title) pair, ordered by id. This backs the
// search index refresh.
func (s *Store) Titles(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := s.db.WithContext(ctx).Order("id").Find(&games).Error; err != nil {
		return nil, fmt.Errorf("listing titles: %w: %v", aggregate.ErrSourceUnavailable, err)
	}
	return games, nil
}

// GameByID returns one game row or aggregate.ErrNotFound.
func (s *Store) GameByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aggregate.ErrNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w: %v", id, aggregate.ErrSourceUnavailable, err)
	}
	return &game, nil
}
