package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock status values as stored on vendor listings.
const (
	StockInStock    = "in_stock"
	StockComingSoon = "coming_soon"
	StockOutOfStock = "out_of_stock"
	StockUnknown    = "unknown"
)

// Game is a tracked title. Rows are created by the ingestor; this
// service only reads them.
type Game struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Site is one vendor source. The set of rows changes independently of
// this code (new vendors appear, dead ones get removed).
type Site struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"unique;not null"`
	BaseURL   string    `json:"base_url"`
	CreatedAt time.Time `json:"created_at"`
}

// GameSiteLink maps a game to its identifier on one vendor's side.
// A game with no link row for a site is simply not tracked there.
type GameSiteLink struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	GameID  uint   `json:"game_id" gorm:"not null;index:idx_game_site,unique"`
	Game    Game   `json:"-" gorm:"foreignKey:GameID"`
	SiteID  uint   `json:"site_id" gorm:"not null;index:idx_game_site,unique"`
	Site    Site   `json:"-" gorm:"foreignKey:SiteID"`
	LocalID string `json:"local_id" gorm:"not null"`
}

// Listing is the latest scraped state of a game on one vendor,
// keyed by (site, vendor-local id). Written by the ingestor.
type Listing struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	SiteID      uint            `json:"site_id" gorm:"not null;index:idx_site_local,unique"`
	Site        Site            `json:"-" gorm:"foreignKey:SiteID"`
	LocalID     string          `json:"local_id" gorm:"not null;index:idx_site_local,unique"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	InStock     string          `json:"in_stock" gorm:"default:'unknown'"`
	URL         string          `json:"url"`
	LastChecked time.Time       `json:"last_checked"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PriceObservation is one historical price point for a game on one
// vendor. Appended daily by the ingestor.
type PriceObservation struct {
	ID     uint            `json:"id" gorm:"primaryKey"`
	GameID uint            `json:"game_id" gorm:"not null;index"`
	Game   Game            `json:"-" gorm:"foreignKey:GameID"`
	SiteID uint            `json:"site_id" gorm:"not null;index"`
	Site   Site            `json:"-" gorm:"foreignKey:SiteID"`
	Price  decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Date   time.Time       `json:"date" gorm:"not null;index;type:date"`
}
