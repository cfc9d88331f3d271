package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCycleInFlight 手动触发撞上正在执行的周期, 被合并而非并行
var ErrCycleInFlight = errors.New("a cycle is already in flight")

// IntervalRunner 以固定间隔驱动任务, 同一时刻最多一个周期在执行。
// 定时触发与手动触发共用同一把互斥锁。
type IntervalRunner struct {
	task     Task
	interval time.Duration

	mu sync.Mutex
}

func NewIntervalRunner(task Task, interval time.Duration) *IntervalRunner {
	return &IntervalRunner{
		task:     task,
		interval: interval,
	}
}

// Start 阻塞运行定时循环, 直到 ctx 取消。首个周期在一个完整间隔之后。
func (r *IntervalRunner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "task", r.task.Name(), "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "task", r.task.Name())
			return
		case <-ticker.C:
			if err := r.TryRun(ctx); err != nil {
				if errors.Is(err, ErrCycleInFlight) {
					// 上个周期还没结束, 本次tick被合并
					slog.Warn("skip scheduled run", "task", r.task.Name(), "reason", "cycle in flight")
					continue
				}
				slog.Error("scheduled run failed", "task", r.task.Name(), "error", err)
			}
		}
	}
}

// TryRun 立即执行一个周期; 已有周期在执行时返回 ErrCycleInFlight。
func (r *IntervalRunner) TryRun(ctx context.Context) error {
	if !r.mu.TryLock() {
		return ErrCycleInFlight
	}
	defer r.mu.Unlock()

	return r.task.Run(ctx)
}
