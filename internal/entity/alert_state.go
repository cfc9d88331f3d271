package entity

import (
	"time"
)

// AlertState 单资产告警状态, 去重/冷却的依据。
// 正常运行期间只更新不删除。
type AlertState struct {
	Id    int64  `gorm:"primaryKey;autoIncrement"`
	Asset string `gorm:"uniqueIndex"`

	LastScore string // decimal 字符串
	LastLabel string

	LastNotifiedAt    time.Time
	LastNotifiedLabel string

	CreatedAt time.Time
	UpdatedAt time.Time
}
