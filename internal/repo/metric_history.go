package repo

import (
	"context"

	"github.com/KNICEX/overheat-monitor/internal/entity"
	"gorm.io/gorm"
)

// 每个 (asset, metric) 序列最多保留的行数
const maxPointsPerSeries = 180

type MetricHistoryRepo interface {
	// Append 追加一个历史点并裁剪旧数据
	Append(ctx context.Context, point entity.MetricPoint) error
	// FindRecent 按时间升序返回最近 limit 个点
	FindRecent(ctx context.Context, asset, metric string, limit int) ([]entity.MetricPoint, error)
}

type metricHistoryRepo struct {
	db *gorm.DB
}

func NewMetricHistoryRepo(db *gorm.DB) MetricHistoryRepo {
	return &metricHistoryRepo{
		db: db,
	}
}

func (r *metricHistoryRepo) Append(ctx context.Context, point entity.MetricPoint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&point).Error; err != nil {
			return err
		}

		keep := tx.Model(&entity.MetricPoint{}).
			Select("id").
			Where("asset = ? AND metric = ?", point.Asset, point.Metric).
			Order("id DESC").
			Limit(maxPointsPerSeries)
		return tx.
			Where("asset = ? AND metric = ?", point.Asset, point.Metric).
			Where("id NOT IN (?)", keep).
			Delete(&entity.MetricPoint{}).Error
	})
}

func (r *metricHistoryRepo) FindRecent(ctx context.Context, asset, metric string, limit int) ([]entity.MetricPoint, error) {
	var points []entity.MetricPoint
	err := r.db.WithContext(ctx).
		Where("asset = ? AND metric = ?", asset, metric).
		Order("id DESC").
		Limit(limit).
		Find(&points).Error
	if err != nil {
		return nil, err
	}

	// 反转为时间升序
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}
