package entity

import (
	"time"
)

// MetricPoint 指标历史点, 作为 z-score 的滚动基线
type MetricPoint struct {
	Id     int64  `gorm:"primaryKey;autoIncrement"`
	Asset  string `gorm:"index:idx_asset_metric"`
	Metric string `gorm:"index:idx_asset_metric"`
	Value  string // decimal 字符串

	CreatedAt time.Time `gorm:"index"`
}
