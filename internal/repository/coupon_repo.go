// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// CouponRepository 优惠券仓储
type CouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create 创建优惠券
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// CreateBatch 批量创建优惠券
func (r *CouponRepository) CreateBatch(ctx context.Context, coupons []*models.Coupon) error {
	return r.db.WithContext(ctx).Create(&coupons).Error
}

// GetByID 根据 ID 获取优惠券
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, id).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据代码获取优惠券
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ExistsByCode 判断代码是否已存在
func (r *CouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// Update 更新优惠券
func (r *CouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// UpdateFields 更新指定字段
func (r *CouponRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除优惠券
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Coupon{}, id).Error
}

// CountOrders 统计引用该优惠券的订单数
func (r *CouponRepository) CountOrders(ctx context.Context, couponID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("coupon_id = ?", couponID).Count(&count).Error
	return count, err
}

// CouponListParams 优惠券列表查询参数
type CouponListParams struct {
	Offset       int
	Limit        int
	IsActive     *bool
	DiscountType string
	Keyword      string
	EndAtFrom    *time.Time
	EndAtTo      *time.Time
}

// List 获取优惠券列表
func (r *CouponRepository) List(ctx context.Context, params CouponListParams) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	// 过滤条件
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.DiscountType != "" {
		query = query.Where("discount_type = ?", params.DiscountType)
	}
	if params.Keyword != "" {
		query = query.Where("code LIKE ? OR name LIKE ?", "%"+params.Keyword+"%", "%"+params.Keyword+"%")
	}
	if params.EndAtFrom != nil {
		query = query.Where("end_at >= ?", *params.EndAtFrom)
	}
	if params.EndAtTo != nil {
		query = query.Where("end_at <= ?", *params.EndAtTo)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Order("created_at DESC").Offset(params.Offset).Limit(params.Limit).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// ListAvailable 获取当前可用的优惠券列表（用户端）
func (r *CouponRepository) ListAvailable(ctx context.Context, now time.Time, offset, limit int) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("is_active = ?", true).
		Where("start_at IS NULL OR start_at <= ?", now).
		Where("end_at IS NULL OR end_at >= ?", now).
		Where("usage_limit IS NULL OR used_count < usage_limit")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// ListExpiringSoon 获取即将过期的优惠券列表
func (r *CouponRepository) ListExpiringSoon(ctx context.Context, now, until time.Time) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("end_at IS NOT NULL AND end_at > ? AND end_at <= ?", now, until).
		Order("end_at ASC").
		Find(&coupons).Error
	return coupons, err
}

// IncrementUsedCount 增加已使用数量
// 带使用上限守卫，超限时返回 gorm.ErrRecordNotFound
func (r *CouponRepository) IncrementUsedCount(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementUsedCount 减少已使用数量（用于移除优惠或取消订单）
func (r *CouponRepository) DecrementUsedCount(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1"))
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// DeactivateExpired 停用已过期的优惠券，返回受影响行数
func (r *CouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("is_active = ?", true).
		Where("end_at IS NOT NULL AND end_at < ?", now).
		UpdateColumn("is_active", false)
	return result.RowsAffected, result.Error
}

// CouponStatistics 优惠券统计数据
type CouponStatistics struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Expired   int64 `json:"expired"`
	TotalUsed int64 `json:"total_used"`
}

// Statistics 统计优惠券数据
func (r *CouponRepository) Statistics(ctx context.Context, now time.Time) (*CouponStatistics, error) {
	var stats CouponStatistics

	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("end_at IS NOT NULL AND end_at < ?", now).Count(&stats.Expired).Error; err != nil {
		return nil, err
	}
	var totalUsed struct {
		Sum int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Select("COALESCE(SUM(used_count), 0) as sum").Scan(&totalUsed).Error; err != nil {
		return nil, err
	}
	stats.TotalUsed = totalUsed.Sum

	return &stats, nil
}
