package monitor

import (
	"context"
	"time"

	"github.com/KNICEX/overheat-monitor/internal/service/scoring"
	"github.com/KNICEX/overheat-monitor/internal/service/signal"
)

// DeliveryOutcome 单渠道投递结果(对外暴露用)
type DeliveryOutcome struct {
	Channel  string `json:"channel"`
	Attempts int    `json:"attempts"`
	Ok       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// AssetResult 单资产单轮检测结果
type AssetResult struct {
	Asset      string `json:"asset"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`

	Price             string `json:"price,omitempty"`
	PriceChange24hPct string `json:"price_change_24h_pct,omitempty"`

	Score string        `json:"score"`
	Label scoring.Label `json:"label"`
	// 各指标0-1子分, 不可用指标为中性值
	SubScores   map[signal.Metric]string `json:"sub_scores,omitempty"`
	Unavailable []signal.Metric          `json:"unavailable,omitempty"`

	Notified     bool              `json:"notified"`
	NotifyReason string            `json:"notify_reason,omitempty"`
	Deliveries   []DeliveryOutcome `json:"deliveries,omitempty"`

	FetchErrors []string `json:"fetch_errors,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// CycleOutcome 一轮检测的结构化结果, 供展示层查询
type CycleOutcome struct {
	Id         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []AssetResult `json:"results"`
}

// OverheatService 监控核心入口
type OverheatService interface {
	// CheckOnce 同步跑一轮检测。单资产的失败被隔离在对应的
	// AssetResult 里, 返回 error 仅用于整轮不可恢复的情况。
	CheckOnce(ctx context.Context) (CycleOutcome, error)
	// LastOutcome 最近一轮结果, 还没跑过则 ok 为 false
	LastOutcome() (CycleOutcome, bool)
}

// Advisor 为告警正文生成一段简短建议
type Advisor interface {
	Advise(ctx context.Context, snapshot scoring.ScoreSnapshot) (string, error)
}
