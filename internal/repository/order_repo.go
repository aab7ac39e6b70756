// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单（含明细）
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Details").
		Preload("Details.Product").
		Preload("Coupon").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Details").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateFields 更新指定字段
func (r *OrderRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除订单及其明细
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	Offset        int
	Limit         int
	UserID        *int64
	Status        string
	CouponID      *int64
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// List 获取订单列表
func (r *OrderRepository) List(ctx context.Context, params OrderListParams) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	// 过滤条件
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.CouponID != nil {
		query = query.Where("coupon_id = ?", *params.CouponID)
	}
	if params.CreatedAtFrom != nil {
		query = query.Where("created_at >= ?", *params.CreatedAtFrom)
	}
	if params.CreatedAtTo != nil {
		query = query.Where("created_at <= ?", *params.CreatedAtTo)
	}

	// 统计总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 查询列表
	if err := query.Preload("Details").Order("created_at DESC").
		Offset(params.Offset).Limit(params.Limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// CreateDetail 创建订单明细
func (r *OrderRepository) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

// GetDetailByID 根据 ID 获取订单明细
func (r *OrderRepository) GetDetailByID(ctx context.Context, id int64) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	err := r.db.WithContext(ctx).First(&detail, id).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateDetail 更新订单明细
func (r *OrderRepository) UpdateDetail(ctx context.Context, detail *models.OrderDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}

// DeleteDetail 删除订单明细
func (r *OrderRepository) DeleteDetail(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.OrderDetail{}, id).Error
}

// ListDetails 获取订单的全部明细
func (r *OrderRepository) ListDetails(ctx context.Context, orderID int64) ([]*models.OrderDetail, error) {
	var details []*models.OrderDetail
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&details).Error
	return details, err
}

// SumDetailTotal 汇总订单明细金额
func (r *OrderRepository) SumDetailTotal(ctx context.Context, orderID int64) (int64, error) {
	var result struct {
		Sum int64
	}
	err := r.db.WithContext(ctx).Model(&models.OrderDetail{}).
		Select("COALESCE(SUM(total_price), 0) as sum").
		Where("order_id = ?", orderID).
		Scan(&result).Error
	return result.Sum, err
}

// OrderStatistics 订单统计数据
type OrderStatistics struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	Paid           int64 `json:"paid"`
	Completed      int64 `json:"completed"`
	Cancelled      int64 `json:"cancelled"`
	TotalRevenue   int64 `json:"total_revenue"`
	TotalDiscount  int64 `json:"total_discount"`
}

// Statistics 统计订单数据
func (r *OrderRepository) Statistics(ctx context.Context, from, to *time.Time) (*OrderStatistics, error) {
	var stats OrderStatistics

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at <= ?", *to)
		}
		return q
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		status string
		dest   *int64
	}{
		{models.OrderStatusPending, &stats.Pending},
		{models.OrderStatusPaid, &stats.Paid},
		{models.OrderStatusCompleted, &stats.Completed},
		{models.OrderStatusCancelled, &stats.Cancelled},
	}
	for _, sc := range statusCounts {
		if err := base().Where("status = ?", sc.status).Count(sc.dest).Error; err != nil {
			return nil, err
		}
	}

	var sums struct {
		Revenue  int64
		Discount int64
	}
	if err := base().
		Where("status IN ?", []string{models.OrderStatusPaid, models.OrderStatusCompleted}).
		Select("COALESCE(SUM(final_amount), 0) as revenue, COALESCE(SUM(discount_amount), 0) as discount").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	stats.TotalRevenue = sums.Revenue
	stats.TotalDiscount = sums.Discount

	return &stats, nil
}
