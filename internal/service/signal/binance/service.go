package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

var _ signal.Source = (*Service)(nil)

// Service 从币安合约API拉取衍生品指标: 永续资金费率与持仓量24h变化
type Service struct {
	cli *futures.Client
}

func NewService(cli *futures.Client) *Service {
	return &Service{cli: cli}
}

func (s *Service) Name() string {
	return "binance"
}

func (s *Service) Metrics() []signal.Metric {
	return []signal.Metric{
		signal.MetricFundingRate,
		signal.MetricOiChangePct,
	}
}

func (s *Service) Fetch(ctx context.Context, asset signal.Asset, metric signal.Metric, now time.Time) (signal.Reading, error) {
	switch metric {
	case signal.MetricFundingRate:
		return s.fetchFundingRate(ctx, asset, now)
	case signal.MetricOiChangePct:
		return s.fetchOiChangePct(ctx, asset, now)
	default:
		return signal.Reading{}, fmt.Errorf("binance does not provide metric %s", metric)
	}
}

// 合约API使用 BTCUSDT 格式
func pair(asset signal.Asset) string {
	return asset.Symbol + "USDT"
}

func (s *Service) fetchFundingRate(ctx context.Context, asset signal.Asset, now time.Time) (signal.Reading, error) {
	indexes, err := s.cli.NewPremiumIndexService().Symbol(pair(asset)).Do(ctx)
	if err != nil {
		return signal.Reading{}, fmt.Errorf("fetch premium index: %w", err)
	}
	if len(indexes) == 0 {
		return signal.Reading{}, fmt.Errorf("no premium index for %s", pair(asset))
	}

	rate, err := decimal.NewFromString(indexes[0].LastFundingRate)
	if err != nil {
		return signal.Reading{}, fmt.Errorf("parse funding rate %q: %w", indexes[0].LastFundingRate, err)
	}
	return signal.NewReading(asset.Symbol, signal.MetricFundingRate, rate, now), nil
}

func (s *Service) fetchOiChangePct(ctx context.Context, asset signal.Asset, now time.Time) (signal.Reading, error) {
	stats, err := s.cli.NewOpenInterestStatisticsService().
		Symbol(pair(asset)).
		Period("1d").
		Limit(2).
		Do(ctx)
	if err != nil {
		return signal.Reading{}, fmt.Errorf("fetch open interest statistics: %w", err)
	}
	if len(stats) < 2 {
		return signal.Reading{}, fmt.Errorf("not enough open interest points for %s", pair(asset))
	}

	prev, err := decimal.NewFromString(stats[0].SumOpenInterest)
	if err != nil {
		return signal.Reading{}, fmt.Errorf("parse open interest %q: %w", stats[0].SumOpenInterest, err)
	}
	last, err := decimal.NewFromString(stats[len(stats)-1].SumOpenInterest)
	if err != nil {
		return signal.Reading{}, fmt.Errorf("parse open interest %q: %w", stats[len(stats)-1].SumOpenInterest, err)
	}
	if prev.IsZero() {
		return signal.Reading{}, fmt.Errorf("zero previous open interest for %s", pair(asset))
	}

	changePct := last.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	return signal.NewReading(asset.Symbol, signal.MetricOiChangePct, changePct, now), nil
}
