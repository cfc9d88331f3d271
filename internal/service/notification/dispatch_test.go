package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	name string
	// 每次调用依次弹出一个错误, 用尽后返回 nil
	errs []error

	mu    sync.Mutex
	calls int
}

func (f *fakeChannel) Name() string {
	return f.name
}

func (f *fakeChannel) Send(_ context.Context, _ Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type blockingChannel struct {
	name string
}

func (b *blockingChannel) Name() string {
	return b.name
}

func (b *blockingChannel) Send(ctx context.Context, _ Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func testConfig() DispatchConfig {
	return DispatchConfig{
		SendTimeout: 50 * time.Millisecond,
		RetryDelay:  time.Millisecond,
	}
}

func TestDispatch_AllChannelsSucceed(t *testing.T) {
	email := &fakeChannel{name: "email"}
	push := &fakeChannel{name: "serverchan"}
	d := NewDispatcher([]Channel{email, push}, testConfig())

	results := d.Dispatch(context.Background(), Message{Title: "t", Body: "b"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Ok())
		assert.Equal(t, 1, r.Attempts)
	}
}

// 一个渠道失败不影响另一个渠道
func TestDispatch_FailureIsolated(t *testing.T) {
	email := &fakeChannel{name: "email", errs: []error{
		fmt.Errorf("timeout"), fmt.Errorf("timeout"),
	}}
	push := &fakeChannel{name: "serverchan"}
	d := NewDispatcher([]Channel{email, push}, testConfig())

	results := d.Dispatch(context.Background(), Message{Title: "t", Body: "b"})
	require.Len(t, results, 2)

	assert.Equal(t, "email", results[0].Channel)
	assert.False(t, results[0].Ok())
	assert.Equal(t, 2, results[0].Attempts)

	assert.Equal(t, "serverchan", results[1].Channel)
	assert.True(t, results[1].Ok())
}

func TestDispatch_TransientRetriedOnce(t *testing.T) {
	email := &fakeChannel{name: "email", errs: []error{fmt.Errorf("503")}}
	d := NewDispatcher([]Channel{email}, testConfig())

	results := d.Dispatch(context.Background(), Message{})
	require.Len(t, results, 1)
	assert.True(t, results[0].Ok())
	assert.Equal(t, 2, results[0].Attempts)
}

func TestDispatch_PermanentNotRetried(t *testing.T) {
	email := &fakeChannel{name: "email", errs: []error{
		fmt.Errorf("%w: smtp auth", ErrPermanent),
	}}
	d := NewDispatcher([]Channel{email}, testConfig())

	results := d.Dispatch(context.Background(), Message{})
	require.Len(t, results, 1)
	assert.False(t, results[0].Ok())
	assert.Equal(t, 1, results[0].Attempts)
	assert.True(t, errors.Is(results[0].Err, ErrPermanent))
	assert.Equal(t, 1, email.calls)
}

// 渠道挂死由超时兜底, 不会阻塞调度
func TestDispatch_TimeoutBounded(t *testing.T) {
	slow := &blockingChannel{name: "email"}
	push := &fakeChannel{name: "serverchan"}
	d := NewDispatcher([]Channel{slow, push}, testConfig())

	start := time.Now()
	results := d.Dispatch(context.Background(), Message{})
	require.Len(t, results, 2)

	assert.False(t, results[0].Ok())
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.True(t, results[1].Ok())
	assert.Less(t, time.Since(start), time.Second)
}
