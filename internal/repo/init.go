package repo

import (
	"github.com/KNICEX/overheat-monitor/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.AlertState{}, &entity.MetricPoint{})
}
