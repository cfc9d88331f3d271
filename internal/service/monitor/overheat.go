package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/entity"
	"github.com/KNICEX/overheat-monitor/internal/metrics"
	"github.com/KNICEX/overheat-monitor/internal/repo"
	"github.com/KNICEX/overheat-monitor/internal/service/alert"
	"github.com/KNICEX/overheat-monitor/internal/service/notification"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
	"github.com/KNICEX/overheat-monitor/internal/service/signal"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	defaultFetchTimeout   = 10 * time.Second
	defaultBaselineWindow = 90
)

type Config struct {
	Assets         []signal.Asset `mapstructure:"assets"`
	FetchTimeout   time.Duration  `mapstructure:"fetch_timeout"`
	BaselineWindow int            `mapstructure:"baseline_window"`
}

var _ OverheatService = (*OverheatMonitor)(nil)

// OverheatMonitor 驱动 拉取→评分→判定→派发 的单轮流程
type OverheatMonitor struct {
	assets         []signal.Asset
	fetchTimeout   time.Duration
	baselineWindow int

	priceSvc   signal.PriceService
	sources    map[signal.Metric]signal.Source
	engine     *scoring.Engine
	store      *alert.Store
	dispatcher *notification.Dispatcher
	histRepo   repo.MetricHistoryRepo
	advisor    Advisor

	mu   sync.Mutex
	last *CycleOutcome
}

type Option func(m *OverheatMonitor)

func WithAdvisor(advisor Advisor) Option {
	return func(m *OverheatMonitor) {
		m.advisor = advisor
	}
}

func NewOverheatMonitor(cfg Config, priceSvc signal.PriceService, sources []signal.Source,
	engine *scoring.Engine, store *alert.Store, dispatcher *notification.Dispatcher,
	histRepo repo.MetricHistoryRepo, opts ...Option) *OverheatMonitor {

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.BaselineWindow <= 0 {
		cfg.BaselineWindow = defaultBaselineWindow
	}

	byMetric := make(map[signal.Metric]signal.Source)
	for _, src := range sources {
		for _, metric := range src.Metrics() {
			byMetric[metric] = src
		}
	}

	m := &OverheatMonitor{
		assets:         cfg.Assets,
		fetchTimeout:   cfg.FetchTimeout,
		baselineWindow: cfg.BaselineWindow,
		priceSvc:       priceSvc,
		sources:        byMetric,
		engine:         engine,
		store:          store,
		dispatcher:     dispatcher,
		histRepo:       histRepo,
		advisor:        staticAdvisor{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *OverheatMonitor) CheckOnce(ctx context.Context) (CycleOutcome, error) {
	outcome := CycleOutcome{
		Id:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	slog.Info("cycle started", "cycle", outcome.Id, "assets", len(m.assets))

	for _, asset := range m.assets {
		outcome.Results = append(outcome.Results, m.checkAsset(ctx, asset))
	}

	outcome.FinishedAt = time.Now()
	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())

	m.mu.Lock()
	m.last = &outcome
	m.mu.Unlock()

	slog.Info("cycle finished", "cycle", outcome.Id,
		"duration", outcome.FinishedAt.Sub(outcome.StartedAt))
	return outcome, nil
}

func (m *OverheatMonitor) LastOutcome() (CycleOutcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return CycleOutcome{}, false
	}
	return *m.last, true
}

func (m *OverheatMonitor) checkAsset(ctx context.Context, asset signal.Asset) AssetResult {
	now := time.Now()
	result := AssetResult{Asset: asset.Symbol}

	readings, fetchErrs := m.gatherReadings(ctx, asset, now)
	result.FetchErrors = fetchErrs

	available := lo.CountBy(readings, func(r signal.Reading) bool {
		return !r.Unavailable
	})
	if available == 0 {
		// 本轮一个信号都没拿到, 跳过评估, 沿用上次状态
		slog.Warn("skip asset evaluation", "asset", asset.Symbol, "reason", "no signal available")
		result.Skipped = true
		result.SkipReason = "no signal available"
		return result
	}

	priceInfo := m.fetchPrice(ctx, asset, &result)

	// 先取基线再追加当前值, 当前观测不参与自己的 z-score
	baselines := m.loadBaselines(ctx, asset)
	m.appendHistory(ctx, readings)

	snapshot := m.engine.Score(asset.Symbol, now, readings, baselines)
	metrics.Score.WithLabelValues(asset.Symbol).Set(snapshot.Score.InexactFloat64())

	result.Score = snapshot.Score.StringFixed(1)
	result.Label = snapshot.Label
	result.Unavailable = snapshot.Unavailable
	result.SubScores = make(map[signal.Metric]string, len(snapshot.SubScores))
	for metric, sub := range snapshot.SubScores {
		result.SubScores[metric] = sub.StringFixed(3)
	}

	decision, err := m.store.Evaluate(ctx, snapshot, now)
	if err != nil {
		slog.Error("failed to evaluate alert state", "asset", asset.Symbol, "error", err)
		result.Error = err.Error()
		return result
	}
	if !decision.Due {
		return result
	}

	result.Notified = true
	result.NotifyReason = decision.Reason
	slog.Info("alert due", "asset", asset.Symbol, "label", snapshot.Label,
		"score", result.Score, "reason", decision.Reason)

	msg := m.renderMessage(asset, priceInfo, snapshot, m.advice(ctx, snapshot))
	deliveries := m.dispatcher.Dispatch(ctx, msg)
	for _, d := range deliveries {
		out := DeliveryOutcome{
			Channel:  d.Channel,
			Attempts: d.Attempts,
			Ok:       d.Ok(),
		}
		status := "ok"
		if !d.Ok() {
			out.Error = d.Err.Error()
			status = "failed"
			slog.Error("notification delivery failed", "asset", asset.Symbol,
				"channel", d.Channel, "attempts", d.Attempts, "error", d.Err)
		}
		metrics.NotificationsTotal.WithLabelValues(d.Channel, status).Inc()
		result.Deliveries = append(result.Deliveries, out)
	}
	return result
}

// gatherReadings 并发拉取所有评分指标, 失败的指标降级为 Unavailable
func (m *OverheatMonitor) gatherReadings(ctx context.Context, asset signal.Asset, now time.Time) ([]signal.Reading, []string) {
	scoringMetrics := signal.ScoringMetrics()
	readings := make([]signal.Reading, len(scoringMetrics))
	errs := make([]string, len(scoringMetrics))

	var wg sync.WaitGroup
	for i, metric := range scoringMetrics {
		src, ok := m.sources[metric]
		if !ok {
			readings[i] = signal.UnavailableReading(asset.Symbol, metric, now)
			continue
		}

		wg.Add(1)
		go func(i int, metric signal.Metric, src signal.Source) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()

			reading, err := src.Fetch(fetchCtx, asset, metric, now)
			if err != nil {
				slog.Error("failed to fetch signal", "source", src.Name(),
					"asset", asset.Symbol, "metric", metric, "error", err)
				metrics.FetchFailuresTotal.WithLabelValues(src.Name(), string(metric)).Inc()
				readings[i] = signal.UnavailableReading(asset.Symbol, metric, now)
				errs[i] = fmt.Sprintf("%s/%s: %v", src.Name(), metric, err)
				return
			}
			readings[i] = reading
		}(i, metric, src)
	}
	wg.Wait()

	return readings, lo.Compact(errs)
}

func (m *OverheatMonitor) fetchPrice(ctx context.Context, asset signal.Asset, result *AssetResult) *signal.PriceInfo {
	priceCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	info, err := m.priceSvc.Price(priceCtx, asset)
	if err != nil {
		slog.Error("failed to fetch price", "asset", asset.Symbol, "error", err)
		result.FetchErrors = append(result.FetchErrors, fmt.Sprintf("price: %v", err))
		return nil
	}

	result.Price = info.Price.String()
	if info.HasChange24hPct {
		result.PriceChange24hPct = info.Change24hPct.StringFixed(2)
	}
	return &info
}

func (m *OverheatMonitor) loadBaselines(ctx context.Context, asset signal.Asset) map[signal.Metric][]decimal.Decimal {
	baselines := make(map[signal.Metric][]decimal.Decimal)
	for _, metric := range signal.ScoringMetrics() {
		points, err := m.histRepo.FindRecent(ctx, asset.Symbol, string(metric), m.baselineWindow)
		if err != nil {
			slog.Error("failed to load metric history", "asset", asset.Symbol,
				"metric", metric, "error", err)
			continue
		}
		values := make([]decimal.Decimal, 0, len(points))
		for _, p := range points {
			v, err := decimal.NewFromString(p.Value)
			if err != nil {
				slog.Warn("drop malformed history point", "asset", asset.Symbol,
					"metric", metric, "value", p.Value)
				continue
			}
			values = append(values, v)
		}
		baselines[metric] = values
	}
	return baselines
}

func (m *OverheatMonitor) appendHistory(ctx context.Context, readings []signal.Reading) {
	for _, r := range readings {
		if r.Unavailable {
			continue
		}
		err := m.histRepo.Append(ctx, entity.MetricPoint{
			Asset:  r.Asset,
			Metric: string(r.Metric),
			Value:  r.Value.String(),
		})
		if err != nil {
			slog.Error("failed to append metric history", "asset", r.Asset,
				"metric", r.Metric, "error", err)
		}
	}
}

func (m *OverheatMonitor) advice(ctx context.Context, snapshot scoring.ScoreSnapshot) string {
	advice, err := m.advisor.Advise(ctx, snapshot)
	if err != nil || advice == "" {
		slog.Warn("advisor failed, fall back to static advice",
			"asset", snapshot.Asset, "error", err)
		advice, _ = staticAdvisor{}.Advise(ctx, snapshot)
	}
	return advice
}
