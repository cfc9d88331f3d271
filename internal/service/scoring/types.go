package scoring

import (
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/shopspring/decimal"
)

type Label string

const (
	LabelNormal     Label = "normal"
	LabelOverheated Label = "overheated"
	LabelOversold   Label = "oversold"
)

// MetricWeight 单指标权重配置, Invert 表示该指标与过热负相关
// (如交易所储备增加通常意味着抛压, 贡献为负)
type MetricWeight struct {
	Weight float64 `mapstructure:"weight"`
	Invert bool    `mapstructure:"invert"`
}

type Config struct {
	Weights map[string]MetricWeight `mapstructure:"weights"`
	// 过热/超跌阈值, 0-100
	OverheatThreshold float64 `mapstructure:"overheat_threshold"`
	OversoldThreshold float64 `mapstructure:"oversold_threshold"`
}

func DefaultConfig() Config {
	return Config{
		Weights: map[string]MetricWeight{
			string(signal.MetricEtfNetflow):       {Weight: 0.30},
			string(signal.MetricExchangeNetflow):  {Weight: 0.15},
			string(signal.MetricOiChangePct):      {Weight: 0.15},
			string(signal.MetricFundingRate):      {Weight: 0.10},
			string(signal.MetricWhaleCount):       {Weight: 0.10},
			string(signal.MetricReserveChangePct): {Weight: 0.20, Invert: true},
		},
		OverheatThreshold: 60,
		OversoldThreshold: 30,
	}
}

// ScoreSnapshot 单资产单轮评分结果, 创建后不再修改
type ScoreSnapshot struct {
	Asset     string
	Timestamp time.Time
	Score     decimal.Decimal
	Label     Label
	// 参与本次评分的观测与各指标0-1子分, 供审计
	Readings    []signal.Reading
	SubScores   map[signal.Metric]decimal.Decimal
	Unavailable []signal.Metric
}
