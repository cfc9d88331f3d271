package monitor

import (
	"context"

	"github.com/KNICEX/overheat-monitor/internal/schedule"
)

type checkTask struct {
	svc OverheatService
}

// NewCheckTask 把监控核心包装成可调度任务
func NewCheckTask(svc OverheatService) schedule.Task {
	return &checkTask{svc: svc}
}

func (t *checkTask) Run(ctx context.Context) error {
	_, err := t.svc.CheckOnce(ctx)
	return err
}

func (t *checkTask) Name() string {
	return "overheat check task"
}
