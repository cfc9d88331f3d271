package signal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Asset 被监控资产
type Asset struct {
	Symbol      string `mapstructure:"symbol"`       // BTC / ETH
	CoingeckoId string `mapstructure:"coingecko_id"` // bitcoin / ethereum
}

type Metric string

const (
	MetricEtfNetflow       Metric = "etf_netflow"
	MetricExchangeNetflow  Metric = "exchange_netflow"
	MetricOiChangePct      Metric = "oi_change_pct"
	MetricFundingRate      Metric = "funding_rate"
	MetricWhaleCount       Metric = "whale_count"
	MetricReserveChangePct Metric = "reserve_change_pct"
)

// ScoringMetrics 参与评分的指标, 顺序即报文展示顺序
func ScoringMetrics() []Metric {
	return []Metric{
		MetricEtfNetflow,
		MetricExchangeNetflow,
		MetricOiChangePct,
		MetricFundingRate,
		MetricWhaleCount,
		MetricReserveChangePct,
	}
}

// Reading 某资产某指标的一次观测, 创建后不再修改。
// Unavailable 表示该指标本轮拉取失败或未配置数据源,
// 与 "确认为 0" 是两种不同的情况。
type Reading struct {
	Asset       string
	Metric      Metric
	Value       decimal.Decimal
	Unavailable bool
	Timestamp   time.Time
}

func NewReading(asset string, metric Metric, value decimal.Decimal, now time.Time) Reading {
	return Reading{Asset: asset, Metric: metric, Value: value, Timestamp: now}
}

func UnavailableReading(asset string, metric Metric, now time.Time) Reading {
	return Reading{Asset: asset, Metric: metric, Unavailable: true, Timestamp: now}
}

// Source 上游信号源。单次 Fetch 由调用方通过 ctx 限定超时,
// 核心不在此之外附加重试。
type Source interface {
	Name() string
	// Metrics 该数据源能提供的指标
	Metrics() []Metric
	Fetch(ctx context.Context, asset Asset, metric Metric, now time.Time) (Reading, error)
}

// PriceInfo 现价快照, 只用于报文展示, 不参与评分
type PriceInfo struct {
	Price           decimal.Decimal
	Change24hPct    decimal.Decimal
	HasChange24hPct bool
}

type PriceService interface {
	Price(ctx context.Context, asset Asset) (PriceInfo, error)
}
