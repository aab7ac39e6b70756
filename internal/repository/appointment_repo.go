package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// AppointmentRepository 预约仓储
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository 创建预约仓储
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create 创建预约
func (r *AppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

// GetByID 根据 ID 获取预约（附带服务项目）
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Services").
		First(&appointment, id).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// GetByIDWithUsers 根据 ID 获取预约（附带顾客与设计师）
func (r *AppointmentRepository) GetByIDWithUsers(ctx context.Context, id int64) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Services").
		Preload("User").
		Preload("Stylist").
		First(&appointment, id).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// GetByCheckInCode 根据到店码获取预约
func (r *AppointmentRepository) GetByCheckInCode(ctx context.Context, code string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Services").
		Where("check_in_code = ?", code).
		First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Update 更新预约
func (r *AppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appointment).Error
}

// UpdateFields 更新预约指定字段
func (r *AppointmentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus 更新预约状态
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"status": status})
}

// Delete 删除预约（连带服务项目关联）
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appointment := &models.Appointment{ID: id}
		if err := tx.Model(appointment).Association("Services").Clear(); err != nil {
			return err
		}
		result := tx.Delete(appointment)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReplaceServices 替换预约的服务项目
func (r *AppointmentRepository) ReplaceServices(ctx context.Context, id int64, services []models.Product) error {
	appointment := &models.Appointment{ID: id}
	return r.db.WithContext(ctx).Model(appointment).Association("Services").Replace(services)
}

// AppointmentListParams 预约列表查询参数
type AppointmentListParams struct {
	Offset    int
	Limit     int
	UserID    *int64
	StylistID *int64
	Status    string
	From      *time.Time
	To        *time.Time
}

// List 分页查询预约列表
func (r *AppointmentRepository) List(ctx context.Context, params AppointmentListParams) ([]*models.Appointment, int64, error) {
	var appointments []*models.Appointment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Appointment{})

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.StylistID != nil {
		query = query.Where("stylist_id = ?", *params.StylistID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.From != nil {
		query = query.Where("start_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("start_at < ?", *params.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Services").
		Order("start_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&appointments).Error
	return appointments, total, err
}

// FindConflicts 查询与给定时段冲突的预约
//
// 时段按半开区间处理：start_at < end 且 end_at > start 即为冲突，
// 首尾相接的预约不算冲突；仅 confirmed、in_progress 状态参与判定。
func (r *AppointmentRepository) FindConflicts(ctx context.Context, stylistID int64, start, end time.Time, excludeID *int64) ([]*models.Appointment, error) {
	var appointments []*models.Appointment

	query := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Where("status IN ?", models.ConflictStatuses()).
		Where("start_at < ? AND end_at > ?", end, start)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	err := query.Order("start_at ASC").Find(&appointments).Error
	return appointments, err
}

// ListByStylistInRange 查询设计师在区间内参与冲突判定的预约
func (r *AppointmentRepository) ListByStylistInRange(ctx context.Context, stylistID int64, from, to time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Where("status IN ?", models.ConflictStatuses()).
		Where("start_at < ? AND end_at > ?", to, from).
		Order("start_at ASC").
		Find(&appointments).Error
	return appointments, err
}

// ListUpcoming 查询即将开始的已确认预约（用于提醒）
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.Appointment, error) {
	var appointments []*models.Appointment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Stylist").
		Where("status = ?", models.AppointmentStatusConfirmed).
		Where("start_at >= ? AND start_at < ?", from, to).
		Where("reminder_sent_at IS NULL").
		Order("start_at ASC").
		Find(&appointments).Error
	return appointments, err
}

// MarkReminded 记录提醒已发送
func (r *AppointmentRepository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("reminder_sent_at", at).Error
}

// CountByStatus 按状态统计预约数量
func (r *AppointmentRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
