package notification

import (
	"context"
	"errors"
)

// ErrPermanent 标记不可重试的投递失败(认证失败、收件人非法等)
var ErrPermanent = errors.New("permanent delivery failure")

// Message 渲染完成的通知: 简洁标题 + 详细正文
type Message struct {
	Title string
	Body  string
}

// Channel 单个通知渠道, 各渠道相互独立
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// DeliveryResult 单渠道投递结果
type DeliveryResult struct {
	Channel  string
	Attempts int
	Err      error
}

func (r DeliveryResult) Ok() bool {
	return r.Err == nil
}
