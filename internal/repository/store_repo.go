package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// StoreRepository 门店营业时间与临时休业仓储
type StoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository 创建门店仓储
func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// ==================== 营业时间 ====================

// UpsertBusinessHour 写入某个星期几的营业时间（已存在则覆盖）
func (r *StoreRepository) UpsertBusinessHour(ctx context.Context, hour *models.StoreBusinessHour) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{"open_time", "close_time", "is_closed", "updated_at"}),
	}).Create(hour).Error
}

// GetBusinessHour 获取某个星期几的营业时间
func (r *StoreRepository) GetBusinessHour(ctx context.Context, dayOfWeek int) (*models.StoreBusinessHour, error) {
	var hour models.StoreBusinessHour
	err := r.db.WithContext(ctx).
		Where("day_of_week = ?", dayOfWeek).
		First(&hour).Error
	if err != nil {
		return nil, err
	}
	return &hour, nil
}

// ListBusinessHours 按星期排序返回全部营业时间
func (r *StoreRepository) ListBusinessHours(ctx context.Context) ([]*models.StoreBusinessHour, error) {
	var hours []*models.StoreBusinessHour
	err := r.db.WithContext(ctx).
		Order("day_of_week ASC").
		Find(&hours).Error
	return hours, err
}

// ==================== 临时休业 ====================

// CreateClosure 创建临时休业记录
func (r *StoreRepository) CreateClosure(ctx context.Context, closure *models.StoreClosure) error {
	return r.db.WithContext(ctx).Create(closure).Error
}

// GetClosureByID 根据 ID 获取休业记录
func (r *StoreRepository) GetClosureByID(ctx context.Context, id int64) (*models.StoreClosure, error) {
	var closure models.StoreClosure
	err := r.db.WithContext(ctx).First(&closure, id).Error
	if err != nil {
		return nil, err
	}
	return &closure, nil
}

// DeleteClosure 删除休业记录
func (r *StoreRepository) DeleteClosure(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.StoreClosure{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListClosures 按开始时间倒序分页返回休业记录
func (r *StoreRepository) ListClosures(ctx context.Context, offset, limit int) ([]*models.StoreClosure, int64, error) {
	var closures []*models.StoreClosure
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StoreClosure{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("start_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&closures).Error
	return closures, total, err
}

// ListClosuresInRange 返回与给定区间有交集的休业记录（边界视为命中）
func (r *StoreRepository) ListClosuresInRange(ctx context.Context, from, to time.Time) ([]*models.StoreClosure, error) {
	var closures []*models.StoreClosure
	err := r.db.WithContext(ctx).
		Where("start_at <= ? AND end_at >= ?", to, from).
		Order("start_at ASC").
		Find(&closures).Error
	return closures, err
}

// HasClosureAt 判断给定时刻是否处于休业期间（闭区间）
func (r *StoreRepository) HasClosureAt(ctx context.Context, at time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StoreClosure{}).
		Where("start_at <= ? AND end_at >= ?", at, at).
		Count(&count).Error
	return count > 0, err
}
