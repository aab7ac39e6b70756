// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// ScheduleRepository 排班与请假仓储
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// UpsertSchedule 创建或更新排班（设计师+星期唯一）
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, schedule *models.StylistSchedule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stylist_id"}, {Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "updated_at"}),
	}).Create(schedule).Error
}

// GetSchedule 获取设计师某一天的排班
func (r *ScheduleRepository) GetSchedule(ctx context.Context, stylistID int64, dayOfWeek int) (*models.StylistSchedule, error) {
	var schedule models.StylistSchedule
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND day_of_week = ?", stylistID, dayOfWeek).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListSchedules 获取设计师一周的排班
func (r *ScheduleRepository) ListSchedules(ctx context.Context, stylistID int64) ([]*models.StylistSchedule, error) {
	var schedules []*models.StylistSchedule
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Order("day_of_week ASC").
		Find(&schedules).Error
	return schedules, err
}

// ExistsSchedule 判断设计师某一天是否已有排班
func (r *ScheduleRepository) ExistsSchedule(ctx context.Context, stylistID int64, dayOfWeek int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StylistSchedule{}).
		Where("stylist_id = ? AND day_of_week = ?", stylistID, dayOfWeek).
		Count(&count).Error
	return count > 0, err
}

// DeleteSchedule 删除设计师某一天的排班
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, stylistID int64, dayOfWeek int) error {
	return r.db.WithContext(ctx).
		Where("stylist_id = ? AND day_of_week = ?", stylistID, dayOfWeek).
		Delete(&models.StylistSchedule{}).Error
}

// CreateTimeOff 创建请假申请
func (r *ScheduleRepository) CreateTimeOff(ctx context.Context, timeOff *models.StylistTimeOff) error {
	return r.db.WithContext(ctx).Create(timeOff).Error
}

// GetTimeOffByID 根据 ID 获取请假申请
func (r *ScheduleRepository) GetTimeOffByID(ctx context.Context, id int64) (*models.StylistTimeOff, error) {
	var timeOff models.StylistTimeOff
	err := r.db.WithContext(ctx).First(&timeOff, id).Error
	if err != nil {
		return nil, err
	}
	return &timeOff, nil
}

// UpdateTimeOff 更新请假申请
func (r *ScheduleRepository) UpdateTimeOff(ctx context.Context, timeOff *models.StylistTimeOff) error {
	return r.db.WithContext(ctx).Save(timeOff).Error
}

// UpdateTimeOffStatus 更新请假申请状态
func (r *ScheduleRepository) UpdateTimeOffStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.StylistTimeOff{}).
		Where("id = ?", id).UpdateColumn("status", status).Error
}

// DeleteTimeOff 删除请假申请
func (r *ScheduleRepository) DeleteTimeOff(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.StylistTimeOff{}, id).Error
}

// TimeOffListParams 请假列表查询参数
type TimeOffListParams struct {
	Offset    int
	Limit     int
	StylistID *int64
	Status    string
	From      *time.Time
	To        *time.Time
}

// ListTimeOff 获取请假申请列表
func (r *ScheduleRepository) ListTimeOff(ctx context.Context, params TimeOffListParams) ([]*models.StylistTimeOff, int64, error) {
	var items []*models.StylistTimeOff
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StylistTimeOff{})

	// 过滤条件
	if params.StylistID != nil {
		query = query.Where("stylist_id = ?", *params.StylistID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.From != nil {
		query = query.Where("end_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("start_at <= ?", *params.To)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Order("start_at DESC").Offset(params.Offset).Limit(params.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListApprovedTimeOffInRange 获取设计师在时间范围内（含边界）的已批准请假
func (r *ScheduleRepository) ListApprovedTimeOffInRange(ctx context.Context, stylistID int64, from, to time.Time) ([]*models.StylistTimeOff, error) {
	var items []*models.StylistTimeOff
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND status = ?", stylistID, models.TimeOffStatusApproved).
		Where("start_at <= ? AND end_at >= ?", to, from).
		Order("start_at ASC").
		Find(&items).Error
	return items, err
}

// HasApprovedTimeOffAt 判断设计师在指定时刻是否处于已批准请假中（边界按闭区间处理）
func (r *ScheduleRepository) HasApprovedTimeOffAt(ctx context.Context, stylistID int64, at time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StylistTimeOff{}).
		Where("stylist_id = ? AND status = ?", stylistID, models.TimeOffStatusApproved).
		Where("start_at <= ? AND end_at >= ?", at, at).
		Count(&count).Error
	return count > 0, err
}
