// Package marketing 提供营销相关的 HTTP Handler
package marketing

import (
	goerrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	marketingService "github.com/linweihsiang/salon-booking-backend/internal/service/marketing"
)

// CouponHandler 优惠券处理器
type CouponHandler struct {
	couponService *marketingService.CouponService
}

// NewCouponHandler 创建优惠券处理器
func NewCouponHandler(couponSvc *marketingService.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponSvc}
}

// mapError 将服务层错误转换为统一错误码
func mapError(err error) error {
	// 门槛错误带有动态金额说明，需按语义匹配
	if goerrors.Is(err, marketingService.ErrCouponAmountNotMet) {
		return errors.ErrCouponMinAmount.WithMessage(err.Error())
	}

	switch err {
	case nil:
		return nil
	case marketingService.ErrCouponNotFound:
		return errors.ErrCouponNotFound
	case marketingService.ErrCouponDisabled:
		return errors.ErrCouponDisabled
	case marketingService.ErrCouponNotStarted:
		return errors.ErrCouponNotStarted
	case marketingService.ErrCouponExpired:
		return errors.ErrCouponExpired
	case marketingService.ErrCouponUsedUp:
		return errors.ErrCouponLimitReached
	case marketingService.ErrCouponCodeExists:
		return errors.ErrCouponCodeExists
	case marketingService.ErrCouponValueInvalid:
		return errors.ErrCouponValueInvalid
	case marketingService.ErrCouponWindowInvalid:
		return errors.ErrCouponValueInvalid.WithMessage(err.Error())
	case marketingService.ErrCouponInUse:
		return errors.ErrCouponInUse
	}
	return err
}

// ListAvailable 可用优惠券列表
// @Summary 当前可用的优惠券列表
// @Tags 营销-优惠券
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Coupon}
// @Router /api/v1/coupons [get]
func (h *CouponHandler) ListAvailable(c *gin.Context) {
	coupons, err := h.couponService.ListAvailable(c.Request.Context())
	handler.MustSucceed(c, mapError(err), coupons)
}

// ValidateCode 校验优惠码
// @Summary 校验优惠码并试算折扣
// @Tags 营销-优惠券
// @Produce json
// @Security Bearer
// @Param code query string true "优惠码"
// @Param amount query int true "订单金额（分）"
// @Success 200 {object} response.Response
// @Router /api/v1/coupons/validate [get]
func (h *CouponHandler) ValidateCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "优惠码不能为空")
		return
	}
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount < 0 {
		response.BadRequest(c, "金额不正确")
		return
	}

	coupon, err := h.couponService.ValidateCode(c.Request.Context(), code, amount)
	if handler.HandleError(c, mapError(err)) {
		return
	}

	response.Success(c, gin.H{
		"coupon":   coupon,
		"discount": h.couponService.CalculateDiscount(coupon, amount),
	})
}

// ==================== 管理端 ====================

// AdminCreate 创建优惠券（管理端）
// @Summary 创建优惠券
// @Tags 管理-优惠券
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body marketingService.CreateCouponRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Coupon}
// @Router /api/v1/admin/coupons [post]
func (h *CouponHandler) AdminCreate(c *gin.Context) {
	var req marketingService.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), coupon)
}

// AdminBulkCreate 批量创建优惠券（管理端）
// @Summary 批量创建优惠券
// @Tags 管理-优惠券
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body marketingService.BulkCreateCouponRequest true "请求参数"
// @Success 200 {object} response.Response{data=[]models.Coupon}
// @Router /api/v1/admin/coupons/bulk [post]
func (h *CouponHandler) AdminBulkCreate(c *gin.Context) {
	var req marketingService.BulkCreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	coupons, err := h.couponService.BulkCreate(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), coupons)
}

// AdminList 优惠券列表（管理端）
// @Summary 优惠券列表
// @Tags 管理-优惠券
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param discount_type query string false "折扣类型：percentage/fixed"
// @Param keyword query string false "关键字"
// @Success 200 {object} response.Response{data=marketing.CouponListResponse}
// @Router /api/v1/admin/coupons [get]
func (h *CouponHandler) AdminList(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &marketingService.CouponListRequest{
		Page:         p.Page,
		PageSize:     p.PageSize,
		DiscountType: c.Query("discount_type"),
		Keyword:      c.Query("keyword"),
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}

	result, err := h.couponService.List(c.Request.Context(), req)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// AdminGet 优惠券详情（管理端）
// @Summary 优惠券详情
// @Tags 管理-优惠券
// @Produce json
// @Security Bearer
// @Param id path int true "优惠券ID"
// @Success 200 {object} response.Response{data=models.Coupon}
// @Router /api/v1/admin/coupons/{id} [get]
func (h *CouponHandler) AdminGet(c *gin.Context) {
	couponID, ok := handler.ParseID(c, "优惠券")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetByID(c.Request.Context(), couponID)
	handler.MustSucceed(c, mapError(err), coupon)
}

// AdminUpdate 更新优惠券（管理端）
// @Summary 更新优惠券
// @Tags 管理-优惠券
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "优惠券ID"
// @Param request body marketingService.UpdateCouponRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Coupon}
// @Router /api/v1/admin/coupons/{id} [put]
func (h *CouponHandler) AdminUpdate(c *gin.Context) {
	couponID, ok := handler.ParseID(c, "优惠券")
	if !ok {
		return
	}

	var req marketingService.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	coupon, err := h.couponService.Update(c.Request.Context(), couponID, &req)
	handler.MustSucceed(c, mapError(err), coupon)
}

// AdminDelete 删除优惠券（管理端）
// @Summary 删除优惠券
// @Tags 管理-优惠券
// @Produce json
// @Security Bearer
// @Param id path int true "优惠券ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/coupons/{id} [delete]
func (h *CouponHandler) AdminDelete(c *gin.Context) {
	couponID, ok := handler.ParseID(c, "优惠券")
	if !ok {
		return
	}

	if handler.HandleError(c, mapError(h.couponService.Delete(c.Request.Context(), couponID))) {
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// AdminStatistics 优惠券统计（管理端）
// @Summary 优惠券统计
// @Tags 管理-优惠券
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=repository.CouponStatistics}
// @Router /api/v1/admin/coupons/statistics [get]
func (h *CouponHandler) AdminStatistics(c *gin.Context) {
	stats, err := h.couponService.Statistics(c.Request.Context())
	handler.MustSucceed(c, mapError(err), stats)
}
