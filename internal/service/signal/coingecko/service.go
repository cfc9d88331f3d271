package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

var _ signal.PriceService = (*Service)(nil)

// Service 通过 CoinGecko markets 接口获取现价和24h涨跌幅
type Service struct {
	baseURL string
	cli     *http.Client
}

type Option func(s *Service)

func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

func NewService(opts ...Option) *Service {
	svc := &Service{
		baseURL: defaultBaseURL,
		cli: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type marketRow struct {
	CurrentPrice             decimal.Decimal  `json:"current_price"`
	PriceChangePercentage24h *decimal.Decimal `json:"price_change_percentage_24h"`
}

func (s *Service) Price(ctx context.Context, asset signal.Asset) (signal.PriceInfo, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", asset.CoingeckoId)
	params.Set("price_change_percentage", "24h")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/coins/markets?"+params.Encode(), nil)
	if err != nil {
		return signal.PriceInfo{}, fmt.Errorf("create coingecko request: %w", err)
	}

	resp, err := s.cli.Do(req)
	if err != nil {
		return signal.PriceInfo{}, fmt.Errorf("fetch coingecko market: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return signal.PriceInfo{}, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var rows []marketRow
	if err = json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return signal.PriceInfo{}, fmt.Errorf("decode coingecko market: %w", err)
	}
	if len(rows) == 0 {
		return signal.PriceInfo{}, fmt.Errorf("coingecko returned no row for %s", asset.CoingeckoId)
	}

	info := signal.PriceInfo{
		Price: rows[0].CurrentPrice,
	}
	if rows[0].PriceChangePercentage24h != nil {
		info.Change24hPct = *rows[0].PriceChangePercentage24h
		info.HasChange24hPct = true
	}
	return info, nil
}
