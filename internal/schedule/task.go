package schedule

import "context"

// Task 一个可被调度器驱动的任务
type Task interface {
	Run(ctx context.Context) error
	Name() string
}
