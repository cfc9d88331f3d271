package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/overheat-monitor/internal/entity"
	"gorm.io/gorm"
)

var ErrAlertStateNotFound = errors.New("alert state not found")

type AlertStateRepo interface {
	FindByAsset(ctx context.Context, asset string) (entity.AlertState, error)
	// Save 同步落盘, 不做缓冲
	Save(ctx context.Context, state entity.AlertState) (entity.AlertState, error)
}

type alertStateRepo struct {
	db *gorm.DB
}

func NewAlertStateRepo(db *gorm.DB) AlertStateRepo {
	return &alertStateRepo{
		db: db,
	}
}

func (r *alertStateRepo) FindByAsset(ctx context.Context, asset string) (entity.AlertState, error) {
	var state entity.AlertState
	err := r.db.WithContext(ctx).Where("asset = ?", asset).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.AlertState{}, ErrAlertStateNotFound
		}
		return entity.AlertState{}, err
	}
	return state, nil
}

func (r *alertStateRepo) Save(ctx context.Context, state entity.AlertState) (entity.AlertState, error) {
	err := r.db.WithContext(ctx).Save(&state).Error
	if err != nil {
		return entity.AlertState{}, err
	}
	return state, nil
}
