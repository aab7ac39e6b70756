// Package marketing 提供优惠券相关服务
package marketing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/common/utils"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo *repository.CouponRepository
	now        func() time.Time // 测试时可替换
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo *repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: timeutil.Now}
}

// CreateCouponRequest 创建优惠券请求
type CreateCouponRequest struct {
	Code              string     `json:"code" binding:"required,max=50"`
	Name              string     `json:"name" binding:"required,max=100"`
	DiscountType      string     `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     int64      `json:"discount_value" binding:"required,gt=0"`
	MinOrderAmount    *int64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
}

// validateTerms 校验优惠力度与活动时间窗
//
// percentage 类型取值 1..10000（万分比），fixed 类型大于 0；
// 起止时间同时给出时，结束不得早于开始。
func validateTerms(discountType string, discountValue int64, startAt, endAt *time.Time) error {
	switch discountType {
	case models.DiscountTypePercentage:
		if discountValue < 1 || discountValue > 10000 {
			return ErrCouponValueInvalid
		}
	case models.DiscountTypeFixed:
		if discountValue <= 0 {
			return ErrCouponValueInvalid
		}
	}
	if startAt != nil && endAt != nil && endAt.Before(*startAt) {
		return ErrCouponWindowInvalid
	}
	return nil
}

// Create 创建优惠券
func (s *CouponService) Create(ctx context.Context, req *CreateCouponRequest) (*models.Coupon, error) {
	if err := validateTerms(req.DiscountType, req.DiscountValue, req.StartAt, req.EndAt); err != nil {
		return nil, err
	}

	exists, err := s.couponRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCouponCodeExists
	}

	coupon := &models.Coupon{
		Code:              req.Code,
		Name:              req.Name,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// BulkCreateCouponRequest 批量创建优惠券请求
type BulkCreateCouponRequest struct {
	CodePrefix        string     `json:"code_prefix" binding:"required,max=40"`
	Count             int        `json:"count" binding:"required,gt=0,lte=1000"`
	Name              string     `json:"name" binding:"required,max=100"`
	DiscountType      string     `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     int64      `json:"discount_value" binding:"required,gt=0"`
	MinOrderAmount    *int64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
}

// BulkCreate 批量创建优惠券
//
// 优惠码按前缀加四位序号生成，如 NEWYEAR-0001。
func (s *CouponService) BulkCreate(ctx context.Context, req *BulkCreateCouponRequest) ([]*models.Coupon, error) {
	if err := validateTerms(req.DiscountType, req.DiscountValue, req.StartAt, req.EndAt); err != nil {
		return nil, err
	}

	coupons := make([]*models.Coupon, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		code := fmt.Sprintf("%s-%04d", req.CodePrefix, i)
		exists, err := s.couponRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrCouponCodeExists, code)
		}
		coupons = append(coupons, &models.Coupon{
			Code:              code,
			Name:              req.Name,
			DiscountType:      req.DiscountType,
			DiscountValue:     req.DiscountValue,
			MinOrderAmount:    req.MinOrderAmount,
			MaxDiscountAmount: req.MaxDiscountAmount,
			UsageLimit:        req.UsageLimit,
			IsActive:          true,
			StartAt:           req.StartAt,
			EndAt:             req.EndAt,
		})
	}

	if err := s.couponRepo.CreateBatch(ctx, coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

// GetByID 获取优惠券详情
func (s *CouponService) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

// GetByCode 根据优惠码获取优惠券
func (s *CouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

// UpdateCouponRequest 更新优惠券请求
type UpdateCouponRequest struct {
	Name              *string    `json:"name,omitempty"`
	DiscountType      *string    `json:"discount_type,omitempty" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue     *int64     `json:"discount_value,omitempty" binding:"omitempty,gt=0"`
	MinOrderAmount    *int64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
}

// Update 更新优惠券
func (s *CouponService) Update(ctx context.Context, id int64, req *UpdateCouponRequest) (*models.Coupon, error) {
	coupon, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 按更新后的生效值做交叉校验
	discountType := coupon.DiscountType
	if req.DiscountType != nil {
		discountType = *req.DiscountType
	}
	discountValue := coupon.DiscountValue
	if req.DiscountValue != nil {
		discountValue = *req.DiscountValue
	}
	startAt := coupon.StartAt
	if req.StartAt != nil {
		startAt = req.StartAt
	}
	endAt := coupon.EndAt
	if req.EndAt != nil {
		endAt = req.EndAt
	}
	if err := validateTerms(discountType, discountValue, startAt, endAt); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.DiscountType != nil {
		fields["discount_type"] = *req.DiscountType
	}
	if req.DiscountValue != nil {
		fields["discount_value"] = *req.DiscountValue
	}
	if req.MinOrderAmount != nil {
		fields["min_order_amount"] = *req.MinOrderAmount
	}
	if req.MaxDiscountAmount != nil {
		fields["max_discount_amount"] = *req.MaxDiscountAmount
	}
	if req.UsageLimit != nil {
		fields["usage_limit"] = *req.UsageLimit
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.StartAt != nil {
		fields["start_at"] = *req.StartAt
	}
	if req.EndAt != nil {
		fields["end_at"] = *req.EndAt
	}

	if len(fields) == 0 {
		return coupon, nil
	}

	if err := s.couponRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete 删除优惠券
//
// 已被订单引用的优惠券不允许删除，只能停用。
func (s *CouponService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.couponRepo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCouponInUse
	}

	return s.couponRepo.Delete(ctx, id)
}

// CouponListRequest 优惠券列表请求
type CouponListRequest struct {
	Page         int
	PageSize     int
	IsActive     *bool
	DiscountType string
	Keyword      string
}

// CouponListResponse 优惠券列表响应
type CouponListResponse struct {
	List  []*models.Coupon `json:"list"`
	Total int64            `json:"total"`
}

// List 分页查询优惠券列表（管理端）
func (s *CouponService) List(ctx context.Context, req *CouponListRequest) (*CouponListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	coupons, total, err := s.couponRepo.List(ctx, repository.CouponListParams{
		Offset:       offset,
		Limit:        req.PageSize,
		IsActive:     req.IsActive,
		DiscountType: req.DiscountType,
		Keyword:      req.Keyword,
	})
	if err != nil {
		return nil, err
	}

	return &CouponListResponse{List: coupons, Total: total}, nil
}

// ListAvailable 查询当前可用的优惠券（用户端）
func (s *CouponService) ListAvailable(ctx context.Context) ([]*models.Coupon, error) {
	coupons, _, err := s.couponRepo.ListAvailable(ctx, s.now(), 0, -1)
	return coupons, err
}

// ListExpiringSoon 查询指定天数内即将过期的优惠券
func (s *CouponService) ListExpiringSoon(ctx context.Context, days int) ([]*models.Coupon, error) {
	now := s.now()
	return s.couponRepo.ListExpiringSoon(ctx, now, now.AddDate(0, 0, days))
}

// Validate 校验优惠券在给定订单金额下是否可用
//
// 按固定顺序检查：停用 → 未开始 → 已过期 → 次数用尽 → 未达门槛，
// 返回第一个不满足的原因。
func (s *CouponService) Validate(coupon *models.Coupon, amount int64, now time.Time) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return ErrCouponDisabled
	}
	if coupon.StartAt != nil && now.Before(*coupon.StartAt) {
		return ErrCouponNotStarted
	}
	if coupon.EndAt != nil && now.After(*coupon.EndAt) {
		return ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return ErrCouponUsedUp
	}
	if coupon.MinOrderAmount != nil && amount < *coupon.MinOrderAmount {
		return fmt.Errorf("%w（最低消费 %s 元）", ErrCouponAmountNotMet, utils.FormatMoney(*coupon.MinOrderAmount))
	}
	return nil
}

// ValidateCode 根据优惠码校验优惠券
func (s *CouponService) ValidateCode(ctx context.Context, code string, amount int64) (*models.Coupon, error) {
	coupon, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(coupon, amount, s.now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

// CalculateDiscount 计算优惠金额（分）
//
// percentage 类型按万分比计算并受最高优惠封顶；
// fixed 类型不超过订单金额；未知类型不优惠。
func (s *CouponService) CalculateDiscount(coupon *models.Coupon, amount int64) int64 {
	if coupon == nil || amount <= 0 {
		return 0
	}

	var discount int64
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = amount * coupon.DiscountValue / 10000
		if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
			discount = *coupon.MaxDiscountAmount
		}
	case models.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return 0
	}

	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// DeactivateExpired 批量停用已过期的优惠券，返回停用数量
func (s *CouponService) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.couponRepo.DeactivateExpired(ctx, s.now())
}

// Statistics 优惠券统计
func (s *CouponService) Statistics(ctx context.Context) (*repository.CouponStatistics, error) {
	return s.couponRepo.Statistics(ctx, s.now())
}
