package scoring

import (
	"testing"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{
			name: "empty weights",
			cfg:  Config{OverheatThreshold: 60, OversoldThreshold: 30},
		},
		{
			name: "weights not summing to 1",
			cfg: Config{
				Weights:           map[string]MetricWeight{"funding_rate": {Weight: 0.5}},
				OverheatThreshold: 60,
				OversoldThreshold: 30,
			},
		},
		{
			name: "negative weight",
			cfg: Config{
				Weights: map[string]MetricWeight{
					"funding_rate": {Weight: 1.5},
					"etf_netflow":  {Weight: -0.5},
				},
				OverheatThreshold: 60,
				OversoldThreshold: 30,
			},
		},
		{
			name: "thresholds inverted",
			cfg: Config{
				Weights:           map[string]MetricWeight{"funding_rate": {Weight: 1}},
				OverheatThreshold: 30,
				OversoldThreshold: 60,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.cfg)
			assert.Error(t, err)
		})
	}
}

// 构造均值0、总体标准差1的基线
func unitBaseline() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromInt(-1), decimal.NewFromInt(1),
		decimal.NewFromInt(-1), decimal.NewFromInt(1),
	}
}

func allReadings(asset string, value decimal.Decimal, now time.Time) []signal.Reading {
	readings := make([]signal.Reading, 0)
	for _, metric := range signal.ScoringMetrics() {
		readings = append(readings, signal.NewReading(asset, metric, value, now))
	}
	return readings
}

func allBaselines() map[signal.Metric][]decimal.Decimal {
	baselines := make(map[signal.Metric][]decimal.Decimal)
	for _, metric := range signal.ScoringMetrics() {
		baselines[metric] = unitBaseline()
	}
	return baselines
}

func TestScore_NeutralWithoutBaseline(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	now := time.Now()
	// 没有任何历史时所有指标都是中性, 总分正好50
	snapshot := engine.Score("BTC", now, allReadings("BTC", decimal.NewFromInt(42), now), nil)
	assert.True(t, snapshot.Score.Equal(decimal.NewFromInt(50)), "score = %s", snapshot.Score)
	assert.Equal(t, LabelNormal, snapshot.Label)
	assert.Empty(t, snapshot.Unavailable)
}

func TestScore_ExtremeLabels(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	now := time.Now()

	// reserve_change_pct 是反向指标, 用极低值让它也贡献满分
	high := make([]signal.Reading, 0)
	for _, metric := range signal.ScoringMetrics() {
		v := decimal.NewFromInt(100)
		if metric == signal.MetricReserveChangePct {
			v = decimal.NewFromInt(-100)
		}
		high = append(high, signal.NewReading("BTC", metric, v, now))
	}
	snapshot := engine.Score("BTC", now, high, allBaselines())
	assert.True(t, snapshot.Score.Equal(decimal.NewFromInt(100)), "score = %s", snapshot.Score)
	assert.Equal(t, LabelOverheated, snapshot.Label)

	low := make([]signal.Reading, 0)
	for _, metric := range signal.ScoringMetrics() {
		v := decimal.NewFromInt(-100)
		if metric == signal.MetricReserveChangePct {
			v = decimal.NewFromInt(100)
		}
		low = append(low, signal.NewReading("BTC", metric, v, now))
	}
	snapshot = engine.Score("BTC", now, low, allBaselines())
	assert.True(t, snapshot.Score.IsZero(), "score = %s", snapshot.Score)
	assert.Equal(t, LabelOversold, snapshot.Label)
}

// 不可用指标贡献中性分, 永远不会把总分钉在边界上
func TestScore_UnavailableNeverPinsBoundary(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	now := time.Now()

	for _, unavailable := range signal.ScoringMetrics() {
		readings := make([]signal.Reading, 0)
		for _, metric := range signal.ScoringMetrics() {
			if metric == unavailable {
				readings = append(readings, signal.UnavailableReading("BTC", metric, now))
				continue
			}
			v := decimal.NewFromInt(100)
			if metric == signal.MetricReserveChangePct {
				v = decimal.NewFromInt(-100)
			}
			readings = append(readings, signal.NewReading("BTC", metric, v, now))
		}

		snapshot := engine.Score("BTC", now, readings, allBaselines())
		assert.True(t, snapshot.Score.LessThan(decimal.NewFromInt(100)),
			"metric %s unavailable, score = %s", unavailable, snapshot.Score)
		assert.True(t, snapshot.Score.GreaterThan(decimal.NewFromInt(50)),
			"metric %s unavailable, score = %s", unavailable, snapshot.Score)
		assert.Equal(t, []signal.Metric{unavailable}, snapshot.Unavailable)
	}
}

func TestScore_MissingReadingTreatedAsUnavailable(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	now := time.Now()

	// 完全没有 whale_count 的观测
	readings := make([]signal.Reading, 0)
	for _, metric := range signal.ScoringMetrics() {
		if metric == signal.MetricWhaleCount {
			continue
		}
		readings = append(readings, signal.NewReading("BTC", metric, decimal.NewFromInt(1), now))
	}

	snapshot := engine.Score("BTC", now, readings, nil)
	assert.Contains(t, snapshot.Unavailable, signal.MetricWhaleCount)
	assert.True(t, snapshot.SubScores[signal.MetricWhaleCount].Equal(decimal.NewFromFloat(0.5)))
}

func TestScore_InvertedMetric(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	now := time.Now()

	// 储备大增(抛压)应压低总分
	readings := allReadings("ETH", decimal.Zero, now)
	for i := range readings {
		if readings[i].Metric == signal.MetricReserveChangePct {
			readings[i] = signal.NewReading("ETH", signal.MetricReserveChangePct, decimal.NewFromInt(100), now)
		}
	}
	snapshot := engine.Score("ETH", now, readings, allBaselines())
	assert.True(t, snapshot.SubScores[signal.MetricReserveChangePct].IsZero())
	assert.True(t, snapshot.Score.LessThan(decimal.NewFromInt(50)), "score = %s", snapshot.Score)
}
