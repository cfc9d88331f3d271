package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/entity"
	"github.com/KNICEX/overheat-monitor/internal/repo"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlertRepo struct {
	mu     sync.Mutex
	states map[string]entity.AlertState
	nextId int64
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{states: make(map[string]entity.AlertState)}
}

func (f *fakeAlertRepo) FindByAsset(_ context.Context, asset string) (entity.AlertState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[asset]
	if !ok {
		return entity.AlertState{}, repo.ErrAlertStateNotFound
	}
	return state, nil
}

func (f *fakeAlertRepo) Save(_ context.Context, state entity.AlertState) (entity.AlertState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state.Id == 0 {
		f.nextId++
		state.Id = f.nextId
	}
	f.states[state.Asset] = state
	return state, nil
}

func snap(asset string, score float64, label scoring.Label, now time.Time) scoring.ScoreSnapshot {
	return scoring.ScoreSnapshot{
		Asset:     asset,
		Timestamp: now,
		Score:     decimal.NewFromFloat(score),
		Label:     label,
	}
}

func TestEvaluate_AlertLifecycle(t *testing.T) {
	stateRepo := newFakeAlertRepo()
	store := NewStore(stateRepo, Config{Cooldown: 3 * time.Hour})
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 首次过热: 立即触发
	decision, err := store.Evaluate(ctx, snap("BTC", 92, scoring.LabelOverheated, t0), t0)
	require.NoError(t, err)
	assert.True(t, decision.Due)
	assert.Equal(t, ReasonFirstAlert, decision.Reason)
	assert.Equal(t, t0, decision.State.LastNotifiedAt)
	assert.Equal(t, string(scoring.LabelOverheated), decision.State.LastNotifiedLabel)

	// 1小时后仍过热: 冷却中, 不触发, 但分数要更新
	t1 := t0.Add(time.Hour)
	decision, err = store.Evaluate(ctx, snap("BTC", 95, scoring.LabelOverheated, t1), t1)
	require.NoError(t, err)
	assert.False(t, decision.Due)
	assert.Equal(t, "95", decision.State.LastScore)
	assert.Equal(t, t0, decision.State.LastNotifiedAt)

	// 4小时后: 冷却已过, 再次触发
	t2 := t0.Add(4 * time.Hour)
	decision, err = store.Evaluate(ctx, snap("BTC", 88, scoring.LabelOverheated, t2), t2)
	require.NoError(t, err)
	assert.True(t, decision.Due)
	assert.Equal(t, ReasonCooldownElapsed, decision.Reason)
	assert.Equal(t, t2, decision.State.LastNotifiedAt)

	// 10分钟后方向切换为超跌: 绕过冷却
	t3 := t2.Add(10 * time.Minute)
	decision, err = store.Evaluate(ctx, snap("BTC", 10, scoring.LabelOversold, t3), t3)
	require.NoError(t, err)
	assert.True(t, decision.Due)
	assert.Equal(t, ReasonDirectionFlip, decision.Reason)
	assert.Equal(t, t3, decision.State.LastNotifiedAt)
}

func TestEvaluate_NormalNeverDue(t *testing.T) {
	store := NewStore(newFakeAlertRepo(), Config{Cooldown: 3 * time.Hour})
	ctx := context.Background()
	now := time.Now()

	decision, err := store.Evaluate(ctx, snap("ETH", 45, scoring.LabelNormal, now), now)
	require.NoError(t, err)
	assert.False(t, decision.Due)
	assert.Equal(t, "45", decision.State.LastScore)
	assert.True(t, decision.State.LastNotifiedAt.IsZero())
}

// 同一快照同一时刻评估两次, 只有第一次触发
func TestEvaluate_Idempotent(t *testing.T) {
	store := NewStore(newFakeAlertRepo(), Config{Cooldown: 3 * time.Hour})
	ctx := context.Background()
	now := time.Now()
	snapshot := snap("BTC", 92, scoring.LabelOverheated, now)

	first, err := store.Evaluate(ctx, snapshot, now)
	require.NoError(t, err)
	assert.True(t, first.Due)

	second, err := store.Evaluate(ctx, snapshot, now)
	require.NoError(t, err)
	assert.False(t, second.Due)
}

func TestEvaluate_LastNotifiedMonotonic(t *testing.T) {
	stateRepo := newFakeAlertRepo()
	store := NewStore(stateRepo, Config{Cooldown: time.Hour})
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	labels := []scoring.Label{
		scoring.LabelOverheated, scoring.LabelNormal, scoring.LabelOversold,
		scoring.LabelOversold, scoring.LabelOverheated, scoring.LabelNormal,
	}

	var lastNotified time.Time
	for i, label := range labels {
		now := t0.Add(time.Duration(i) * 30 * time.Minute)
		decision, err := store.Evaluate(ctx, snap("BTC", 50, label, now), now)
		require.NoError(t, err)
		assert.False(t, decision.State.LastNotifiedAt.Before(lastNotified),
			"step %d: last notified went backwards", i)
		lastNotified = decision.State.LastNotifiedAt
	}
}

// 冷却期内切回曾经通知过的标签同样算方向切换, 立即触发
func TestEvaluate_FlipBackBypassesCooldown(t *testing.T) {
	store := NewStore(newFakeAlertRepo(), Config{Cooldown: 3 * time.Hour})
	ctx := context.Background()
	t0 := time.Now()

	decision, _ := store.Evaluate(ctx, snap("BTC", 90, scoring.LabelOverheated, t0), t0)
	assert.True(t, decision.Due)

	t1 := t0.Add(10 * time.Minute)
	decision, _ = store.Evaluate(ctx, snap("BTC", 5, scoring.LabelOversold, t1), t1)
	assert.True(t, decision.Due)

	t2 := t1.Add(10 * time.Minute)
	decision, err := store.Evaluate(ctx, snap("BTC", 95, scoring.LabelOverheated, t2), t2)
	require.NoError(t, err)
	assert.True(t, decision.Due)
	assert.Equal(t, ReasonDirectionFlip, decision.Reason)
}
