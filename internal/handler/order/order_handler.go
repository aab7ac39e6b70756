// Package order 提供订单相关的 HTTP Handler
package order

import (
	goerrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	marketingService "github.com/linweihsiang/salon-booking-backend/internal/service/marketing"
	orderService "github.com/linweihsiang/salon-booking-backend/internal/service/order"
)

// Handler 订单处理器
type Handler struct {
	orderService *orderService.OrderService
}

// NewHandler 创建订单处理器
func NewHandler(orderSvc *orderService.OrderService) *Handler {
	return &Handler{orderService: orderSvc}
}

// mapError 将服务层错误转换为统一错误码
func mapError(err error) error {
	switch err {
	case nil:
		return nil
	case orderService.ErrOrderNotFound:
		return errors.ErrOrderNotFound
	case orderService.ErrOrderDetailNotFound:
		return errors.ErrOrderDetailMissing
	case orderService.ErrOrderEmpty:
		return errors.ErrOrderDetailEmpty
	case orderService.ErrOrderNotPending, orderService.ErrInvalidTransition:
		return errors.ErrOrderStatusError
	case orderService.ErrProductNotFound:
		return errors.ErrProductNotFound
	case orderService.ErrProductInactive:
		return errors.ErrProductInactive
	case orderService.ErrStockInsufficient:
		return errors.ErrStockInsufficient
	case orderService.ErrQuantityInvalid:
		return errors.ErrInvalidParams
	case orderService.ErrAppointmentNotFound:
		return errors.ErrAppointmentNotFound
	}
	return err
}

// getOwnOrder 加载订单并校验归属
func (h *Handler) getOwnOrder(c *gin.Context) (*models.Order, bool) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return nil, false
	}
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return nil, false
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		handler.HandleError(c, mapError(err))
		return nil, false
	}
	if order.UserID != userID {
		response.NotFound(c, "订单不存在")
		return nil, false
	}
	return order, true
}

// Create 创建订单
// @Summary 创建订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body orderService.CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req orderService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.UserID = userID

	order, err := h.orderService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), order)
}

// CreateFromAppointmentRequest 由预约生成订单请求
type CreateFromAppointmentRequest struct {
	AppointmentID int64  `json:"appointment_id" binding:"required"`
	CouponCode    string `json:"coupon_code,omitempty"`
}

// CreateFromAppointment 由预约生成订单
// @Summary 由预约生成订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateFromAppointmentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/from-appointment [post]
func (h *Handler) CreateFromAppointment(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}

	var req CreateFromAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.orderService.CreateFromAppointment(c.Request.Context(), req.AppointmentID, req.CouponCode)
	handler.MustSucceed(c, mapError(err), order)
}

// ListMine 我的订单列表
// @Summary 我的订单列表
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=order.OrderListResponse}
// @Router /api/v1/orders [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	result, err := h.orderService.List(c.Request.Context(), &orderService.OrderListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		UserID:   &userID,
		Status:   c.Query("status"),
	})
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// Get 订单详情
// @Summary 订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}
	response.Success(c, order)
}

// ApplyCouponRequest 套用优惠码请求
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon 套用优惠码
// @Summary 为待处理订单套用优惠码
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body ApplyCouponRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/coupon [put]
func (h *Handler) ApplyCoupon(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}

	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updated, err := h.orderService.ApplyCoupon(c.Request.Context(), order.ID, req.Code)
	handler.MustSucceed(c, mapCouponError(err), updated)
}

// mapCouponError 套用优惠码时的错误转换
func mapCouponError(err error) error {
	if goerrors.Is(err, marketingService.ErrCouponAmountNotMet) {
		return errors.ErrCouponMinAmount.WithMessage(err.Error())
	}

	switch err {
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
	}
	return mapError(err)
}

// RemoveCoupon 移除优惠码
// @Summary 移除订单上的优惠码
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/coupon [delete]
func (h *Handler) RemoveCoupon(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}

	updated, err := h.orderService.RemoveCoupon(c.Request.Context(), order.ID)
	handler.MustSucceed(c, mapError(err), updated)
}

// AddItem 新增订单明细
// @Summary 新增订单明细
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body orderService.OrderItemRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/items [post]
func (h *Handler) AddItem(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}

	var req orderService.OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updated, err := h.orderService.AddItem(c.Request.Context(), order.ID, &req)
	handler.MustSucceed(c, mapError(err), updated)
}

// UpdateItemRequest 修改订单明细请求
type UpdateItemRequest struct {
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Message  *string `json:"message,omitempty"`
}

// UpdateItem 修改订单明细
// @Summary 修改订单明细数量
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param detail_id path int true "明细ID"
// @Param request body UpdateItemRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/items/{detail_id} [put]
func (h *Handler) UpdateItem(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}
	detailID, ok := handler.ParseParamID(c, "detail_id", "订单明细")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updated, err := h.orderService.UpdateItem(c.Request.Context(), order.ID, detailID, req.Quantity, req.Message)
	handler.MustSucceed(c, mapError(err), updated)
}

// RemoveItem 删除订单明细
// @Summary 删除订单明细
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param detail_id path int true "明细ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/items/{detail_id} [delete]
func (h *Handler) RemoveItem(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}
	detailID, ok := handler.ParseParamID(c, "detail_id", "订单明细")
	if !ok {
		return
	}

	updated, err := h.orderService.RemoveItem(c.Request.Context(), order.ID, detailID)
	handler.MustSucceed(c, mapError(err), updated)
}

// Cancel 取消订单
// @Summary 取消订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/cancel [put]
func (h *Handler) Cancel(c *gin.Context) {
	order, ok := h.getOwnOrder(c)
	if !ok {
		return
	}

	updated, err := h.orderService.Cancel(c.Request.Context(), order.ID)
	handler.MustSucceed(c, mapError(err), updated)
}

// ==================== 管理端 ====================

// AdminList 订单列表（管理端）
// @Summary 订单列表
// @Tags 管理-订单
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=order.OrderListResponse}
// @Router /api/v1/admin/orders [get]
func (h *Handler) AdminList(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &orderService.OrderListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Status:   c.Query("status"),
	}
	if userID, ok := handler.ParseQueryID(c, "user_id", "用户"); !ok {
		return
	} else if userID != nil {
		req.UserID = userID
	}
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	req.From = from
	req.To = to

	result, err := h.orderService.List(c.Request.Context(), req)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// UpdateStatusRequest 更新订单状态请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid completed cancelled"`
}

// AdminUpdateStatus 更新订单状态（管理端）
// @Summary 更新订单状态
// @Tags 管理-订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param request body UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/admin/orders/{id}/status [put]
func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
	handler.MustSucceed(c, mapError(err), order)
}

// AdminDelete 删除订单（管理端）
// @Summary 删除订单
// @Tags 管理-订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/orders/{id} [delete]
func (h *Handler) AdminDelete(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	if handler.HandleError(c, mapError(h.orderService.Delete(c.Request.Context(), orderID))) {
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// AdminStatistics 订单统计（管理端）
// @Summary 订单统计
// @Tags 管理-订单
// @Produce json
// @Security Bearer
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} response.Response{data=repository.OrderStatistics}
// @Router /api/v1/admin/orders/statistics [get]
func (h *Handler) AdminStatistics(c *gin.Context) {
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}

	stats, err := h.orderService.Statistics(c.Request.Context(), from, to)
	handler.MustSucceed(c, mapError(err), stats)
}
