// Package appointment 提供预约相关的 HTTP Handler
package appointment

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	appointmentService "github.com/linweihsiang/salon-booking-backend/internal/service/appointment"
)

// Handler 预约处理器
type Handler struct {
	appointmentService *appointmentService.AppointmentService
}

// NewHandler 创建预约处理器
func NewHandler(appointmentSvc *appointmentService.AppointmentService) *Handler {
	return &Handler{appointmentService: appointmentSvc}
}

// mapError 将服务层错误转换为统一错误码
func mapError(err error) error {
	switch err {
	case nil:
		return nil
	case appointmentService.ErrAppointmentNotFound:
		return errors.ErrAppointmentNotFound
	case appointmentService.ErrNoServices:
		return errors.ErrAppointmentNoServices
	case appointmentService.ErrNotService:
		return errors.ErrNotService
	case appointmentService.ErrServiceInactive:
		return errors.ErrProductInactive
	case appointmentService.ErrPastTime:
		return errors.ErrAppointmentInPast
	case appointmentService.ErrStoreClosed:
		return errors.ErrStoreClosed
	case appointmentService.ErrStylistUnavailable:
		return errors.ErrStylistNotWorking
	case appointmentService.ErrTimeConflict:
		return errors.ErrAppointmentConflict
	case appointmentService.ErrInvalidTransition, appointmentService.ErrNotConfirmed:
		return errors.ErrAppointmentStatusError
	case appointmentService.ErrCheckInCodeInvalid:
		return errors.ErrCheckInCodeInvalid
	}
	return err
}

// Create 创建预约
// @Summary 创建预约
// @Tags 预约
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body appointmentService.CreateAppointmentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/appointments [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req appointmentService.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.UserID = userID

	appointment, err := h.appointmentService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), appointment)
}

// CalculateRequest 预约试算请求
type CalculateRequest struct {
	ServiceIDs []int64 `json:"service_ids" binding:"required,min=1"`
}

// Calculate 预约试算
// @Summary 试算一组服务的总时长与总金额
// @Tags 预约
// @Accept json
// @Produce json
// @Param request body CalculateRequest true "请求参数"
// @Success 200 {object} response.Response{data=appointmentService.CalculateResult}
// @Router /api/v1/appointments/calculate [post]
func (h *Handler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.appointmentService.Calculate(c.Request.Context(), req.ServiceIDs)
	handler.MustSucceed(c, mapError(err), result)
}

// ListMine 我的预约列表
// @Summary 我的预约列表
// @Tags 预约
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=appointment.AppointmentListResponse}
// @Router /api/v1/appointments [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	result, err := h.appointmentService.List(c.Request.Context(), &appointmentService.AppointmentListRequest{
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

// getOwnAppointment 加载预约并校验归属（顾客或被预约的造型师）
func (h *Handler) getOwnAppointment(c *gin.Context) (*models.Appointment, bool) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return nil, false
	}
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return nil, false
	}

	appointment, err := h.appointmentService.GetByID(c.Request.Context(), appointmentID)
	if err != nil {
		handler.HandleError(c, mapError(err))
		return nil, false
	}
	if appointment.UserID != userID && appointment.StylistID != userID {
		response.NotFound(c, "预约不存在")
		return nil, false
	}
	return appointment, true
}

// Get 预约详情
// @Summary 预约详情
// @Tags 预约
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/appointments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	appointment, ok := h.getOwnAppointment(c)
	if !ok {
		return
	}
	response.Success(c, appointment)
}

// Cancel 取消预约
// @Summary 取消预约
// @Tags 预约
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/appointments/{id}/cancel [put]
func (h *Handler) Cancel(c *gin.Context) {
	appointment, ok := h.getOwnAppointment(c)
	if !ok {
		return
	}

	updated, err := h.appointmentService.Cancel(c.Request.Context(), appointment.ID)
	handler.MustSucceed(c, mapError(err), updated)
}

// RescheduleRequest 改期请求
type RescheduleRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
}

// Reschedule 预约改期
// @Summary 预约改期
// @Tags 预约
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Param request body RescheduleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/appointments/{id}/reschedule [put]
func (h *Handler) Reschedule(c *gin.Context) {
	appointment, ok := h.getOwnAppointment(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	updated, err := h.appointmentService.Reschedule(c.Request.Context(), appointment.ID, req.StartAt)
	handler.MustSucceed(c, mapError(err), updated)
}

// QRCode 获取到店核销二维码
// @Summary 获取到店核销二维码
// @Tags 预约
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response
// @Router /api/v1/appointments/{id}/qrcode [get]
func (h *Handler) QRCode(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return
	}

	dataURL, err := h.appointmentService.CheckInQRCode(c.Request.Context(), appointmentID, userID)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.Success(c, gin.H{"qrcode": dataURL})
}

// ==================== 造型师端 ====================

// ListForStylist 造型师的预约列表
// @Summary 造型师的预约列表
// @Tags 预约-造型师
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=appointment.AppointmentListResponse}
// @Router /api/v1/stylist/appointments [get]
func (h *Handler) ListForStylist(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	req := &appointmentService.AppointmentListRequest{
		Page:      p.Page,
		PageSize:  p.PageSize,
		StylistID: &stylistID,
		Status:    c.Query("status"),
	}
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	req.From = from
	req.To = to

	result, err := h.appointmentService.List(c.Request.Context(), req)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// Confirm 确认预约
// @Summary 确认预约
// @Tags 预约-造型师
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/stylist/appointments/{id}/confirm [put]
func (h *Handler) Confirm(c *gin.Context) {
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.Confirm(c.Request.Context(), appointmentID)
	handler.MustSucceed(c, mapError(err), appointment)
}

// CheckInRequest 到店报到请求
type CheckInRequest struct {
	Code string `json:"code" binding:"required"`
}

// CheckIn 扫码到店报到
// @Summary 扫码到店报到
// @Tags 预约-造型师
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CheckInRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/stylist/appointments/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	appointment, err := h.appointmentService.CheckIn(c.Request.Context(), req.Code)
	handler.MustSucceed(c, mapError(err), appointment)
}

// Complete 完成服务
// @Summary 完成服务
// @Tags 预约-造型师
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/stylist/appointments/{id}/complete [put]
func (h *Handler) Complete(c *gin.Context) {
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.Complete(c.Request.Context(), appointmentID)
	handler.MustSucceed(c, mapError(err), appointment)
}

// MarkNoShow 标记未到店
// @Summary 标记未到店
// @Tags 预约-造型师
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/stylist/appointments/{id}/no-show [put]
func (h *Handler) MarkNoShow(c *gin.Context) {
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.MarkNoShow(c.Request.Context(), appointmentID)
	handler.MustSucceed(c, mapError(err), appointment)
}

// ==================== 管理端 ====================

// AdminList 预约列表（管理端）
// @Summary 预约列表
// @Tags 管理-预约
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param user_id query int false "顾客ID"
// @Param stylist_id query int false "造型师ID"
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=appointment.AppointmentListResponse}
// @Router /api/v1/admin/appointments [get]
func (h *Handler) AdminList(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &appointmentService.AppointmentListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Status:   c.Query("status"),
	}
	if userID, ok := handler.ParseQueryID(c, "user_id", "顾客"); !ok {
		return
	} else if userID != nil {
		req.UserID = userID
	}
	if stylistID, ok := handler.ParseQueryID(c, "stylist_id", "造型师"); !ok {
		return
	} else if stylistID != nil {
		req.StylistID = stylistID
	}
	from, to, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	req.From = from
	req.To = to

	result, err := h.appointmentService.List(c.Request.Context(), req)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// AdminUpdateStatusRequest 更新预约状态请求
type AdminUpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateStatus 更新预约状态（管理端）
// @Summary 更新预约状态
// @Tags 管理-预约
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预约ID"
// @Param request body AdminUpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Appointment}
// @Router /api/v1/admin/appointments/{id}/status [put]
func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	appointmentID, ok := handler.ParseID(c, "预约")
	if !ok {
		return
	}

	var req AdminUpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	appointment, err := h.appointmentService.UpdateStatus(c.Request.Context(), appointmentID, req.Status)
	handler.MustSucceed(c, mapError(err), appointment)
}
