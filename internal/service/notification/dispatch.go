package notification

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultSendTimeout = 15 * time.Second
	defaultRetryDelay  = 2 * time.Second
)

type DispatchConfig struct {
	// 单次投递超时
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	// 瞬时失败重试前的等待
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// Dispatcher 把一条消息并发扇出到所有渠道。
// 每个渠道独立计时、独立失败, 瞬时失败最多重试一次。
type Dispatcher struct {
	channels    []Channel
	sendTimeout time.Duration
	retryDelay  time.Duration
}

func NewDispatcher(channels []Channel, cfg DispatchConfig) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Dispatcher{
		channels:    channels,
		sendTimeout: cfg.SendTimeout,
		retryDelay:  cfg.RetryDelay,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) []DeliveryResult {
	results := make([]DeliveryResult, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = d.sendWithRetry(ctx, ch, msg)
		}(i, ch)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, ch Channel, msg Message) DeliveryResult {
	res := DeliveryResult{Channel: ch.Name()}

	for attempt := 0; attempt < 2; attempt++ {
		res.Attempts++
		res.Err = d.sendOnce(ctx, ch, msg)
		if res.Err == nil || errors.Is(res.Err, ErrPermanent) {
			return res
		}
		if attempt == 0 {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(d.retryDelay):
			}
		}
	}
	return res
}

func (d *Dispatcher) sendOnce(ctx context.Context, ch Channel, msg Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	return ch.Send(sendCtx, msg)
}
