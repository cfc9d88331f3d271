package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	runs    atomic.Int64
	started chan struct{}
	release chan struct{}
}

func (t *fakeTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.started != nil {
		t.started <- struct{}{}
		select {
		case <-t.release:
		case <-ctx.Done():
		}
	}
	return nil
}

func (t *fakeTask) Name() string {
	return "fake task"
}

// 手动触发撞上进行中的周期时被合并, 不并行执行
func TestTryRun_Coalesced(t *testing.T) {
	task := &fakeTask{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	runner := NewIntervalRunner(task, time.Hour)

	done := make(chan error, 1)
	go func() {
		done <- runner.TryRun(context.Background())
	}()
	<-task.started

	err := runner.TryRun(context.Background())
	assert.ErrorIs(t, err, ErrCycleInFlight)

	close(task.release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, task.runs.Load())

	// 周期结束后又可以触发
	task.started = nil
	require.NoError(t, runner.TryRun(context.Background()))
	assert.EqualValues(t, 2, task.runs.Load())
}

func TestStart_RunsPeriodicallyAndStops(t *testing.T) {
	task := &fakeTask{}
	runner := NewIntervalRunner(task, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		return task.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after context cancel")
	}
}
