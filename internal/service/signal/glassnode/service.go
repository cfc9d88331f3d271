package glassnode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/KNICEX/overheat-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.glassnode.com/v1"

// 用于计算储备变化趋势的采样点数
const reserveTrendPoints = 30

var _ signal.Source = (*Service)(nil)

var metricPaths = map[signal.Metric]string{
	signal.MetricEtfNetflow:       "metrics/institutions/us_spot_etf_flows_net",
	signal.MetricExchangeNetflow:  "metrics/transactions/transfers_volume_to_exchanges_sum",
	signal.MetricWhaleCount:       "metrics/entities/min_1k_count",
	signal.MetricReserveChangePct: "metrics/distribution/balance_exchanges",
}

// Service 拉取 Glassnode 链上/机构指标。
// 未配置 api key 时所有指标降级为 Unavailable, 而不是伪装成 0。
type Service struct {
	apiKey  string
	baseURL string
	cli     *http.Client
}

type Option func(s *Service)

func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

func NewService(apiKey string, opts ...Option) *Service {
	svc := &Service{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		cli: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Name() string {
	return "glassnode"
}

func (s *Service) Metrics() []signal.Metric {
	return []signal.Metric{
		signal.MetricEtfNetflow,
		signal.MetricExchangeNetflow,
		signal.MetricWhaleCount,
		signal.MetricReserveChangePct,
	}
}

func (s *Service) Fetch(ctx context.Context, asset signal.Asset, metric signal.Metric, now time.Time) (signal.Reading, error) {
	path, ok := metricPaths[metric]
	if !ok {
		return signal.Reading{}, fmt.Errorf("glassnode does not provide metric %s", metric)
	}
	if s.apiKey == "" {
		return signal.UnavailableReading(asset.Symbol, metric, now), nil
	}

	points, err := s.fetchSeries(ctx, path, asset.Symbol)
	if err != nil {
		return signal.Reading{}, err
	}
	if len(points) == 0 {
		return signal.Reading{}, fmt.Errorf("glassnode returned empty series for %s", path)
	}

	if metric == signal.MetricReserveChangePct {
		// 储备变化用近30个点的归一化回归斜率表示, 抗单点噪声
		if len(points) > reserveTrendPoints {
			points = points[len(points)-reserveTrendPoints:]
		}
		trend := decimalx.Slope(points).Mul(decimal.NewFromInt(100))
		return signal.NewReading(asset.Symbol, metric, trend, now), nil
	}

	return signal.NewReading(asset.Symbol, metric, points[len(points)-1], now), nil
}

type seriesPoint struct {
	T int64           `json:"t"`
	V decimal.Decimal `json:"v"`
}

func (s *Service) fetchSeries(ctx context.Context, path, symbol string) ([]decimal.Decimal, error) {
	params := url.Values{}
	params.Set("a", symbol)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create glassnode request: %w", err)
	}

	resp, err := s.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch glassnode %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("glassnode %s returned status %d", path, resp.StatusCode)
	}

	var points []seriesPoint
	if err = json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("decode glassnode %s: %w", path, err)
	}

	values := make([]decimal.Decimal, 0, len(points))
	for _, p := range points {
		values = append(values, p.V)
	}
	return values, nil
}
