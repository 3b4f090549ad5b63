package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"game-hunter/internal/aggregate"

	"github.com/go-resty/resty/v2"
)

// Renderer turns per-vendor price series into a line-chart PNG using
// the QuickChart API.
type Renderer struct {
	client *resty.Client
}

func NewRenderer(baseURL string, timeout time.Duration) *Renderer {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	return &Renderer{client: client}
}

type point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

type dataset struct {
	Label string  `json:"label"`
	Fill  bool    `json:"fill"`
	Data  []point `json:"data"`
}

// Render fetches the chart image for a history bundle. The payload is
// opaque to callers; they only forward it.
func (r *Renderer) Render(ctx context.Context, series map[string][]aggregate.PricePoint) ([]byte, error) {
	datasets := make([]dataset, 0, len(series))
	for vendor, points := range series {
		ds := dataset{Label: vendor}
		for _, p := range points {
			ds.Data = append(ds.Data, point{
				X: p.Date.Format("2006-01-02"),
				Y: p.Price.String(),
			})
		}
		datasets = append(datasets, ds)
	}

	config := map[string]interface{}{
		"type": "line",
		"data": map[string]interface{}{"datasets": datasets},
		"options": map[string]interface{}{
			"title": map[string]interface{}{
				"display": true,
				"text":    "Price history",
			},
			"scales": map[string]interface{}{
				"xAxes": []map[string]interface{}{{
					"type":  "time",
					"ticks": map[string]interface{}{"source": "data"},
					"time": map[string]interface{}{
						"parser": "YYYY-MM-DD",
						"displayFormats": map[string]interface{}{
							"day": "DD-MM-YYYY",
						},
					},
				}},
			},
		},
	}

	encoded, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding chart config: %w", err)
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("c", string(encoded)).
		Get("/chart")
	if err != nil {
		return nil, fmt.Errorf("fetching chart: %w: %v", aggregate.ErrSourceUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetching chart: %w: status %d", aggregate.ErrSourceUnavailable, resp.StatusCode())
	}
	return resp.Body(), nil
}
