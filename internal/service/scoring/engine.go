package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/KNICEX/overheat-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

const (
	// z-score 截断区间, 超出按边界计
	zBound = 3.0
	// 权重和允许的偏差
	weightEpsilon = 1e-6
)

var (
	scoreMin = decimal.Zero
	scoreMax = decimal.NewFromInt(100)
	// 指标不可用时的中性子分, 既不拉高也不压低
	neutralSubScore = decimal.NewFromFloat(0.5)
)

type metricWeight struct {
	metric signal.Metric
	weight decimal.Decimal
	invert bool
}

// Engine 把异构指标归一化为 0-100 的过热评分。
// 纯函数: 不做 IO, 不持有可变状态。
type Engine struct {
	weights []metricWeight
	upper   decimal.Decimal
	lower   decimal.Decimal
}

func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Weights) == 0 {
		return nil, fmt.Errorf("no metric weights configured")
	}
	if cfg.OverheatThreshold <= cfg.OversoldThreshold {
		return nil, fmt.Errorf("overheat threshold %.1f must be above oversold threshold %.1f",
			cfg.OverheatThreshold, cfg.OversoldThreshold)
	}

	var sum float64
	weights := make([]metricWeight, 0, len(cfg.Weights))
	for name, w := range cfg.Weights {
		if w.Weight < 0 {
			return nil, fmt.Errorf("negative weight %.3f for metric %s", w.Weight, name)
		}
		sum += w.Weight
		weights = append(weights, metricWeight{
			metric: signal.Metric(name),
			weight: decimal.NewFromFloat(w.Weight),
			invert: w.Invert,
		})
	}
	if math.Abs(sum-1) > weightEpsilon {
		return nil, fmt.Errorf("metric weights must sum to 1, got %.6f", sum)
	}

	// map 遍历顺序不定, 固定顺序让子分展示稳定
	sort.Slice(weights, func(i, j int) bool {
		return weights[i].metric < weights[j].metric
	})

	return &Engine{
		weights: weights,
		upper:   decimal.NewFromFloat(cfg.OverheatThreshold),
		lower:   decimal.NewFromFloat(cfg.OversoldThreshold),
	}, nil
}

// Score 对一个资产的一组观测评分。baselines 是各指标的历史序列,
// 历史不足两个点时该指标的 z-score 记 0(即中性)。
func (e *Engine) Score(asset string, now time.Time, readings []signal.Reading,
	baselines map[signal.Metric][]decimal.Decimal) ScoreSnapshot {

	byMetric := make(map[signal.Metric]signal.Reading, len(readings))
	for _, r := range readings {
		byMetric[r.Metric] = r
	}

	snapshot := ScoreSnapshot{
		Asset:     asset,
		Timestamp: now,
		Readings:  readings,
		SubScores: make(map[signal.Metric]decimal.Decimal, len(e.weights)),
	}

	score := decimal.Zero
	for _, w := range e.weights {
		sub := neutralSubScore
		reading, ok := byMetric[w.metric]
		if !ok || reading.Unavailable {
			snapshot.Unavailable = append(snapshot.Unavailable, w.metric)
		} else {
			sub = subScore(reading.Value, baselines[w.metric], w.invert)
		}
		snapshot.SubScores[w.metric] = sub
		score = score.Add(sub.Mul(w.weight))
	}

	snapshot.Score = decimalx.Clamp(score.Mul(scoreMax), scoreMin, scoreMax)
	snapshot.Label = e.label(snapshot.Score)
	return snapshot
}

// subScore z-score 截断到 ±3 后线性映射到 0-1
func subScore(value decimal.Decimal, baseline []decimal.Decimal, invert bool) decimal.Decimal {
	z := decimalx.ZScore(value, baseline)
	if invert {
		z = z.Neg()
	}
	bound := decimal.NewFromFloat(zBound)
	z = decimalx.Clamp(z, bound.Neg(), bound)
	return z.Add(bound).Div(bound.Mul(decimal.NewFromInt(2)))
}

// Thresholds 返回 (过热, 超跌) 阈值, 供报文渲染
func (e *Engine) Thresholds() (upper, lower decimal.Decimal) {
	return e.upper, e.lower
}

func (e *Engine) label(score decimal.Decimal) Label {
	switch {
	case score.GreaterThanOrEqual(e.upper):
		return LabelOverheated
	case score.LessThanOrEqual(e.lower):
		return LabelOversold
	default:
		return LabelNormal
	}
}
