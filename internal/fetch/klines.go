// Package fetch pulls historical klines over the Binance REST API so replay
// files can be captured without a separate tool.
package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

const defaultBaseURL = "https://api.binance.com"

// Client fetches klines for a single symbol/interval.
type Client struct {
	http *resty.Client
}

// NewClient creates a fetch client. baseURL is overridable for tests.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	return &Client{http: http}
}

// Klines fetches up to limit bars for the symbol and interval, oldest first.
// Binance returns klines as JSON arrays of mixed numbers and strings; fields
// beyond close time are ignored.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]zone.Bar, error) {
	var raw [][]interface{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&raw).
		Get("/api/v3/klines")
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch klines: status %d: %s", resp.StatusCode(), resp.String())
	}

	bars := make([]zone.Bar, 0, len(raw))
	for i, k := range raw {
		bar, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, bar)
	}
	log.Debug().Str("symbol", symbol).Str("interval", interval).Int("bars", len(bars)).Msg("klines fetched")
	return bars, nil
}

func parseKline(k []interface{}) (zone.Bar, error) {
	if len(k) < 6 {
		return zone.Bar{}, fmt.Errorf("short kline: %d fields", len(k))
	}
	openTime, ok := k[0].(float64)
	if !ok {
		return zone.Bar{}, fmt.Errorf("unexpected open time %T", k[0])
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return zone.Bar{}, fmt.Errorf("unexpected field %d type %T", i, k[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zone.Bar{}, fmt.Errorf("parse field %d %q: %w", i, s, err)
		}
		fields[i-1] = v
	}
	return zone.Bar{
		Timestamp: time.UnixMilli(int64(openTime)).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}
