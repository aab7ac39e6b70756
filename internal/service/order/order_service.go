// Package order 提供订单与计价相关服务
package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/utils"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	"github.com/linweihsiang/salon-booking-backend/internal/service/marketing"
)

// OrderService 订单服务
//
// 金额不变式：final_amount = total_amount - discount_amount。
// 所有改动订单金额或优惠券计数的操作都在事务内完成。
type OrderService struct {
	db        *gorm.DB
	orderRepo *repository.OrderRepository
	couponSvc *marketing.CouponService
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo *repository.OrderRepository, couponSvc *marketing.CouponService) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		couponSvc: couponSvc,
	}
}

// OrderItemRequest 订单项目请求
type OrderItemRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	Message   *string `json:"message,omitempty"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	UserID        int64
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode    string             `json:"coupon_code,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	AppointmentID *int64             `json:"appointment_id,omitempty"`
}

// Create 创建订单
//
// 在同一事务内写入订单与明细、扣减零售商品库存、累加优惠券使用次数。
// 优惠码无效时订单照常创建，只是不享受优惠。
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrOrderEmpty
	}

	var order *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		details := make([]models.OrderDetail, 0, len(req.Items))

		for _, item := range req.Items {
			if item.Quantity <= 0 {
				return ErrQuantityInvalid
			}

			var product models.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if !product.IsActive {
				return ErrProductInactive
			}

			// 零售商品扣库存，服务项目不占库存
			if !product.IsService {
				result := tx.Model(&models.Product{}).
					Where("id = ? AND stock_quantity >= ?", product.ID, item.Quantity).
					UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					return ErrStockInsufficient
				}
			}

			linePrice := product.Price * int64(item.Quantity)
			total += linePrice
			details = append(details, models.OrderDetail{
				ProductID:    product.ID,
				Quantity:     item.Quantity,
				PricePerItem: product.Price,
				TotalPrice:   linePrice,
				Message:      item.Message,
			})
		}

		var couponID *int64
		var discount int64
		if req.CouponCode != "" {
			id, d, err := s.redeemCoupon(tx, req.CouponCode, total)
			if err != nil {
				return err
			}
			couponID = id
			discount = d
		}

		order = &models.Order{
			OrderNo:        utils.GenerateOrderNo("SO"),
			UserID:         req.UserID,
			AppointmentID:  req.AppointmentID,
			CouponID:       couponID,
			TotalAmount:    total,
			DiscountAmount: discount,
			FinalAmount:    total - discount,
			Status:         models.OrderStatusPending,
			Notes:          req.Notes,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for i := range details {
			details[i].OrderID = order.ID
		}
		if err := tx.Create(&details).Error; err != nil {
			return err
		}
		order.Details = details

		return nil
	})

	if err != nil {
		return nil, err
	}
	return order, nil
}

// redeemCoupon 在事务内核销优惠码
//
// 优惠码不存在或不可用时静默降级为不使用优惠券；
// 并发下次数被抢完同样降级，保证订单创建不受影响。
func (s *OrderService) redeemCoupon(tx *gorm.DB, code string, total int64) (*int64, int64, error) {
	var coupon models.Coupon
	if err := tx.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	if err := s.couponSvc.Validate(&coupon, total, time.Now()); err != nil {
		return nil, 0, nil
	}

	result := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", coupon.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return nil, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, 0, nil
	}

	discount := s.couponSvc.CalculateDiscount(&coupon, total)
	return &coupon.ID, discount, nil
}

// GetByID 获取订单详情
func (s *OrderService) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetByOrderNo 根据订单号获取订单
func (s *OrderService) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// OrderListRequest 订单列表请求
type OrderListRequest struct {
	Page     int
	PageSize int
	UserID   *int64
	Status   string
	From     *time.Time
	To       *time.Time
}

// OrderListResponse 订单列表响应
type OrderListResponse struct {
	List  []*models.Order `json:"list"`
	Total int64           `json:"total"`
}

// List 分页查询订单列表
func (s *OrderService) List(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	orders, total, err := s.orderRepo.List(ctx, repository.OrderListParams{
		Offset:        offset,
		Limit:         req.PageSize,
		UserID:        req.UserID,
		Status:        req.Status,
		CreatedAtFrom: req.From,
		CreatedAtTo:   req.To,
	})
	if err != nil {
		return nil, err
	}

	return &OrderListResponse{List: orders, Total: total}, nil
}

// ApplyCoupon 为既有订单套用优惠码
//
// 与创建时不同，这里优惠码无效会直接报错；
// 订单原有优惠券会先退回使用次数再换新。
func (s *OrderService) ApplyCoupon(ctx context.Context, orderID int64, code string) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrOrderNotPending
		}

		var coupon models.Coupon
		if err := tx.Where("code = ?", code).First(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return marketing.ErrCouponNotFound
			}
			return err
		}
		if err := s.couponSvc.Validate(&coupon, order.TotalAmount, time.Now()); err != nil {
			return err
		}

		if order.CouponID != nil {
			if err := releaseCoupon(tx, *order.CouponID); err != nil {
				return err
			}
		}

		result := tx.Model(&models.Coupon{}).
			Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", coupon.ID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return marketing.ErrCouponUsedUp
		}

		discount := s.couponSvc.CalculateDiscount(&coupon, order.TotalAmount)
		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"coupon_id":       coupon.ID,
				"discount_amount": discount,
				"final_amount":    order.TotalAmount - discount,
			}).Error
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// RemoveCoupon 取消订单上的优惠券
func (s *OrderService) RemoveCoupon(ctx context.Context, orderID int64) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrOrderNotPending
		}
		if order.CouponID == nil {
			return nil
		}

		if err := releaseCoupon(tx, *order.CouponID); err != nil {
			return err
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"coupon_id":       nil,
				"discount_amount": 0,
				"final_amount":    order.TotalAmount,
			}).Error
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// AddItem 为订单追加项目
func (s *OrderService) AddItem(ctx context.Context, orderID int64, item *OrderItemRequest) (*models.Order, error) {
	if item.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockPendingOrder(tx, orderID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if !product.IsActive {
			return ErrProductInactive
		}

		if !product.IsService {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrStockInsufficient
			}
		}

		detail := &models.OrderDetail{
			OrderID:      orderID,
			ProductID:    product.ID,
			Quantity:     item.Quantity,
			PricePerItem: product.Price,
			TotalPrice:   product.Price * int64(item.Quantity),
			Message:      item.Message,
		}
		if err := tx.Create(detail).Error; err != nil {
			return err
		}

		return recalcOrderAmounts(tx, order)
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// UpdateItem 修改订单项目数量或留言
//
// 单价沿用下单时的价格，不随商品当前售价变动。
func (s *OrderService) UpdateItem(ctx context.Context, orderID, detailID int64, quantity int, message *string) (*models.Order, error) {
	if quantity <= 0 {
		return nil, ErrQuantityInvalid
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockPendingOrder(tx, orderID)
		if err != nil {
			return err
		}

		var detail models.OrderDetail
		if err := tx.Where("id = ? AND order_id = ?", detailID, orderID).First(&detail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderDetailNotFound
			}
			return err
		}

		if err := adjustStock(tx, detail.ProductID, detail.Quantity-quantity); err != nil {
			return err
		}

		detail.Quantity = quantity
		detail.TotalPrice = detail.PricePerItem * int64(quantity)
		if message != nil {
			detail.Message = message
		}
		if err := tx.Save(&detail).Error; err != nil {
			return err
		}

		return recalcOrderAmounts(tx, order)
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// RemoveItem 移除订单项目
func (s *OrderService) RemoveItem(ctx context.Context, orderID, detailID int64) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockPendingOrder(tx, orderID)
		if err != nil {
			return err
		}

		var detail models.OrderDetail
		if err := tx.Where("id = ? AND order_id = ?", detailID, orderID).First(&detail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderDetailNotFound
			}
			return err
		}

		if err := adjustStock(tx, detail.ProductID, detail.Quantity); err != nil {
			return err
		}

		if err := tx.Delete(&detail).Error; err != nil {
			return err
		}

		return recalcOrderAmounts(tx, order)
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// 状态机：每个状态允许的下一个状态
var allowedTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

// UpdateStatus 变更订单状态
//
// 变更为 cancelled 时退回优惠券使用次数并恢复零售库存。
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !transitionAllowed(order.Status, status) {
			return ErrInvalidTransition
		}

		if status == models.OrderStatusCancelled {
			if err := rollbackOrderSideEffects(tx, &order); err != nil {
				return err
			}
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("status", status).Error
	})

	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

// Cancel 取消订单
func (s *OrderService) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, models.OrderStatusCancelled)
}

// Delete 删除订单（管理端）
//
// 未取消的订单删除时同样退回优惠券次数与库存。
func (s *OrderService) Delete(ctx context.Context, orderID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status != models.OrderStatusCancelled {
			if err := rollbackOrderSideEffects(tx, &order); err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
}

// CreateFromAppointment 根据预约生成订单
//
// 预约的每个服务项目生成一条数量为 1 的明细。
func (s *OrderService) CreateFromAppointment(ctx context.Context, appointmentID int64, couponCode string) (*models.Order, error) {
	var appointment models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Services").
		First(&appointment, appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if len(appointment.Services) == 0 {
		return nil, ErrOrderEmpty
	}

	items := make([]OrderItemRequest, 0, len(appointment.Services))
	for _, svc := range appointment.Services {
		items = append(items, OrderItemRequest{ProductID: svc.ID, Quantity: 1})
	}

	return s.Create(ctx, &CreateOrderRequest{
		UserID:        appointment.UserID,
		Items:         items,
		CouponCode:    couponCode,
		AppointmentID: &appointmentID,
	})
}

// Statistics 订单统计
func (s *OrderService) Statistics(ctx context.Context, from, to *time.Time) (*repository.OrderStatistics, error) {
	return s.orderRepo.Statistics(ctx, from, to)
}

// ==================== 事务内辅助 ====================

// lockPendingOrder 取出待处理订单，非待处理状态拒绝修改
func lockPendingOrder(tx *gorm.DB, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	return &order, nil
}

// recalcOrderAmounts 明细变动后重算订单金额
//
// 优惠金额沿用原值不重算，仅在超过新总额时压到总额，
// 保证 final_amount 不为负。
func recalcOrderAmounts(tx *gorm.DB, order *models.Order) error {
	var total int64
	err := tx.Model(&models.OrderDetail{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	if err != nil {
		return err
	}

	discount := order.DiscountAmount
	if discount > total {
		discount = total
	}

	return tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"total_amount":    total,
			"discount_amount": discount,
			"final_amount":    total - discount,
		}).Error
}

// releaseCoupon 退回一次优惠券使用次数
func releaseCoupon(tx *gorm.DB, couponID int64) error {
	return tx.Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// adjustStock 按数量差调整零售商品库存，delta 为正表示退回
func adjustStock(tx *gorm.DB, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		return err
	}
	if product.IsService {
		return nil
	}

	if delta > 0 {
		return tx.Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
	}

	need := -delta
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, need).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", need))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockInsufficient
	}
	return nil
}

// rollbackOrderSideEffects 退回订单占用的优惠券次数与零售库存
func rollbackOrderSideEffects(tx *gorm.DB, order *models.Order) error {
	if order.CouponID != nil {
		if err := releaseCoupon(tx, *order.CouponID); err != nil {
			return err
		}
	}

	var details []models.OrderDetail
	if err := tx.Where("order_id = ?", order.ID).Find(&details).Error; err != nil {
		return err
	}
	for _, detail := range details {
		if err := adjustStock(tx, detail.ProductID, detail.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// transitionAllowed 判断状态变更是否合法
func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
