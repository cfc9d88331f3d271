package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/entity"
	"github.com/KNICEX/overheat-monitor/internal/repo"
	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
)

// 触发原因
const (
	ReasonFirstAlert      = "first_alert"
	ReasonCooldownElapsed = "cooldown_elapsed"
	ReasonDirectionFlip   = "direction_flip"
)

// Decision 一次评估的派发决定
type Decision struct {
	Due    bool
	Reason string
	State  entity.AlertState
}

type Config struct {
	// 同一标签两次通知之间的最短间隔
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// Store 告警状态的唯一写入方。
// 决定 "due" 时先落盘再派发(write-ahead), 派发失败不回滚,
// 用放弃重投换取重启后不会重复轰炸。
type Store struct {
	repo     repo.AlertStateRepo
	cooldown time.Duration

	// 串行化所有状态变更
	mu sync.Mutex
}

func NewStore(stateRepo repo.AlertStateRepo, cfg Config) *Store {
	return &Store{
		repo:     stateRepo,
		cooldown: cfg.Cooldown,
	}
}

// Evaluate 更新状态并判断是否应当通知。
// 无论是否 due, last score/label 都会更新到最新快照。
func (s *Store) Evaluate(ctx context.Context, snapshot scoring.ScoreSnapshot, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.FindByAsset(ctx, snapshot.Asset)
	if err != nil {
		if !errors.Is(err, repo.ErrAlertStateNotFound) {
			return Decision{}, fmt.Errorf("load alert state for %s: %w", snapshot.Asset, err)
		}
		state = entity.AlertState{Asset: snapshot.Asset}
	}

	state.LastScore = snapshot.Score.String()
	state.LastLabel = string(snapshot.Label)

	reason := s.dueReason(state, snapshot.Label, now)
	if reason != "" {
		// last notified 时间单调不减
		if now.After(state.LastNotifiedAt) {
			state.LastNotifiedAt = now
		}
		state.LastNotifiedLabel = string(snapshot.Label)
	}

	state, err = s.repo.Save(ctx, state)
	if err != nil {
		return Decision{}, fmt.Errorf("save alert state for %s: %w", snapshot.Asset, err)
	}

	return Decision{
		Due:    reason != "",
		Reason: reason,
		State:  state,
	}, nil
}

func (s *Store) dueReason(state entity.AlertState, label scoring.Label, now time.Time) string {
	if label == scoring.LabelNormal {
		return ""
	}
	if state.LastNotifiedAt.IsZero() {
		return ReasonFirstAlert
	}
	// 非 normal 标签与上次通知不同: 方向切换, 绕过冷却
	if state.LastNotifiedLabel != string(label) {
		return ReasonDirectionFlip
	}
	if now.Sub(state.LastNotifiedAt) >= s.cooldown {
		return ReasonCooldownElapsed
	}
	return ""
}
