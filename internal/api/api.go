package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Catalog is the read-only game/vendor directory the handlers serve.
type Catalog interface {
	Titles(ctx context.Context) ([]models.Game, error)
	GameByID(ctx context.Context, id uint) (*models.Game, error)
	ListVendors(ctx context.Context) ([]aggregate.Vendor, error)
}

// PriceSource is the current-prices view.
type PriceSource interface {
	Prices(ctx context.Context, gameID uint) (map[string]aggregate.Snapshot, error)
}

// HistorySource is the price-history view.
type HistorySource interface {
	History(ctx context.Context, gameID uint) (map[string][]aggregate.PricePoint, error)
}

type APIHandler struct {
	catalog Catalog
	prices  PriceSource
	history HistorySource
	log     *zap.Logger
}

func SetupRoutes(r *gin.RouterGroup, catalog Catalog, prices PriceSource, history HistorySource, log *zap.Logger) *APIHandler {
	handler := &APIHandler{
		catalog: catalog,
		prices:  prices,
		history: history,
		log:     log,
	}

	r.GET("/titles", handler.GetTitles)
	r.GET("/titles/:id", handler.GetTitle)
	r.GET("/vendors", handler.GetVendors)
	r.GET("/prices/:id", handler.GetPrices)
	r.GET("/history/:id", handler.GetHistory)
	r.GET("/history/:id/export", handler.ExportHistory)

	return handler
}

// GetTitles returns every (id, title) pair. This backs the bot's
// title index refresh.
func (h *APIHandler) GetTitles(c *gin.Context) {
	games, err := h.catalog.Titles(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	type title struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}
	titles := make([]title, 0, len(games))
	for _, g := range games {
		titles = append(titles, title{ID: g.ID, Title: g.Title})
	}
	c.JSON(http.StatusOK, titles)
}

func (h *APIHandler) GetTitle(c *gin.Context) {
	id, ok := h.gameID(c)
	if !ok {
		return
	}

	game, err := h.catalog.GameByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": game.ID, "title": game.Title})
}

func (h *APIHandler) GetVendors(c *gin.Context) {
	vendors, err := h.catalog.ListVendors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	names := make([]gin.H, 0, len(vendors))
	for _, v := range vendors {
		names = append(names, gin.H{"name": v.Name})
	}
	c.JSON(http.StatusOK, names)
}

// GetPrices returns the per-vendor price comparison for one game.
// Vendors that currently fail to resolve are absent from the result
// rather than failing the call.
func (h *APIHandler) GetPrices(c *gin.Context) {
	id, ok := h.gameID(c)
	if !ok {
		return
	}

	prices, err := h.prices.Prices(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

// GetHistory returns one date-ascending price series per vendor.
func (h *APIHandler) GetHistory(c *gin.Context) {
	id, ok := h.gameID(c)
	if !ok {
		return
	}

	series, err := h.history.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// ExportHistory streams a game's price history as an XLSX workbook,
// one sheet per vendor.
func (h *APIHandler) ExportHistory(c *gin.Context) {
	id, ok := h.gameID(c)
	if !ok {
		return
	}

	series, err := h.history.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	book := excelize.NewFile()
	defer book.Close()

	first := true
	for vendor, points := range series {
		sheet := vendor
		if first {
			book.SetSheetName("Sheet1", sheet)
			first = false
		} else {
			if _, err := book.NewSheet(sheet); err != nil {
				h.fail(c, err)
				return
			}
		}

		_ = book.SetCellValue(sheet, "A1", "Date")
		_ = book.SetCellValue(sheet, "B1", "Price")
		for i, p := range points {
			row := i + 2
			_ = book.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.Date.Format("2006-01-02"))
			_ = book.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Price.InexactFloat64())
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=history_%d.xlsx", id))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := book.Write(c.Writer); err != nil {
		h.log.Error("writing history export", zap.Uint("game_id", id), zap.Error(err))
	}
}

func (h *APIHandler) gameID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return 0, false
	}
	return uint(id), true
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aggregate.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
	case errors.Is(err, aggregate.ErrSourceUnavailable):
		h.log.Error("data source unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data source unavailable"})
	default:
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
