// Package schedule 提供排班与可约时段的 HTTP Handler
package schedule

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	scheduleService "github.com/linweihsiang/salon-booking-backend/internal/service/schedule"
)

// Handler 排班处理器
type Handler struct {
	scheduleService *scheduleService.ScheduleService
}

// NewHandler 创建排班处理器
func NewHandler(scheduleSvc *scheduleService.ScheduleService) *Handler {
	return &Handler{scheduleService: scheduleSvc}
}

// mapError 将服务层错误转换为统一错误码
func mapError(err error) error {
	switch err {
	case nil:
		return nil
	case scheduleService.ErrScheduleNotFound:
		return errors.ErrScheduleNotFound
	case scheduleService.ErrInvalidDayOfWeek, scheduleService.ErrInvalidTimeRange:
		return errors.ErrScheduleInvalid
	case scheduleService.ErrInvalidDuration:
		return errors.ErrInvalidParams
	case scheduleService.ErrTimeOffNotFound:
		return errors.ErrTimeOffNotFound
	case scheduleService.ErrTimeOffNotPending:
		return errors.ErrTimeOffProcessed
	}
	return err
}

// UpsertScheduleRequest 设置排班请求
type UpsertScheduleRequest struct {
	DayOfWeek int                `json:"day_of_week" binding:"min=0,max=6"`
	StartTime timeutil.ClockTime `json:"start_time" binding:"required"`
	EndTime   timeutil.ClockTime `json:"end_time" binding:"required"`
}

// UpsertSchedule 设置每周排班
// @Summary 设置造型师某个星期几的排班
// @Tags 排班
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UpsertScheduleRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.StylistSchedule}
// @Router /api/v1/schedules [put]
func (h *Handler) UpsertSchedule(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	schedule, err := h.scheduleService.UpsertSchedule(c.Request.Context(), stylistID, req.DayOfWeek, req.StartTime, req.EndTime)
	handler.MustSucceed(c, mapError(err), schedule)
}

// GetMySchedule 获取自己的每周排班
// @Summary 获取自己的每周排班
// @Tags 排班
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.StylistSchedule}
// @Router /api/v1/schedules [get]
func (h *Handler) GetMySchedule(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	schedules, err := h.scheduleService.GetWeeklySchedule(c.Request.Context(), stylistID)
	handler.MustSucceed(c, mapError(err), schedules)
}

// DeleteSchedule 删除某个星期几的排班
// @Summary 删除某个星期几的排班
// @Tags 排班
// @Produce json
// @Security Bearer
// @Param day path int true "星期编码 0-6"
// @Success 200 {object} response.Response
// @Router /api/v1/schedules/{day} [delete]
func (h *Handler) DeleteSchedule(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		response.BadRequest(c, "星期编码不正确")
		return
	}

	if handler.HandleError(c, mapError(h.scheduleService.DeleteSchedule(c.Request.Context(), stylistID, day))) {
		return
	}
	response.SuccessWithMessage(c, "排班已删除", nil)
}

// CheckConflict 检查某个星期几是否已有排班
// @Summary 检查某个星期几是否已有排班
// @Tags 排班
// @Produce json
// @Security Bearer
// @Param day path int true "星期编码 0-6"
// @Success 200 {object} response.Response{data=scheduleService.ScheduleConflict}
// @Router /api/v1/schedules/{day}/conflict [get]
func (h *Handler) CheckConflict(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		response.BadRequest(c, "星期编码不正确")
		return
	}

	conflict, svcErr := h.scheduleService.CheckScheduleConflicts(c.Request.Context(), stylistID, day)
	handler.MustSucceed(c, mapError(svcErr), conflict)
}

// GetStylistSchedule 获取造型师每周排班（公开）
// @Summary 获取造型师每周排班
// @Tags 排班
// @Produce json
// @Param id path int true "造型师ID"
// @Success 200 {object} response.Response{data=[]models.StylistSchedule}
// @Router /api/v1/stylists/{id}/schedule [get]
func (h *Handler) GetStylistSchedule(c *gin.Context) {
	stylistID, ok := handler.ParseID(c, "造型师")
	if !ok {
		return
	}

	schedules, err := h.scheduleService.GetWeeklySchedule(c.Request.Context(), stylistID)
	handler.MustSucceed(c, mapError(err), schedules)
}

// GetAvailableSlots 获取造型师某天的可约时段
// @Summary 获取造型师某天的可约时段
// @Tags 排班
// @Produce json
// @Param id path int true "造型师ID"
// @Param date query string true "日期 YYYY-MM-DD"
// @Param duration query int true "服务时长（分钟）"
// @Param step query int false "步进（分钟），默认等于时长"
// @Success 200 {object} response.Response{data=[]schedule.Slot}
// @Router /api/v1/stylists/{id}/slots [get]
func (h *Handler) GetAvailableSlots(c *gin.Context) {
	stylistID, ok := handler.ParseID(c, "造型师")
	if !ok {
		return
	}

	date, err := handler.ParseDate(c.Query("date"))
	if err != nil {
		response.BadRequest(c, "日期格式不正确")
		return
	}
	durationMin, err := strconv.Atoi(c.Query("duration"))
	if err != nil || durationMin <= 0 {
		response.BadRequest(c, "时长不正确")
		return
	}
	var step time.Duration
	if v := c.Query("step"); v != "" {
		stepMin, err := strconv.Atoi(v)
		if err != nil || stepMin <= 0 {
			response.BadRequest(c, "步进不正确")
			return
		}
		step = time.Duration(stepMin) * time.Minute
	}

	slots, err := h.scheduleService.GetAvailableSlots(c.Request.Context(), stylistID, date,
		time.Duration(durationMin)*time.Minute, step)
	handler.MustSucceed(c, mapError(err), slots)
}

// ==================== 休假 ====================

// TimeOffRequest 请假申请请求
type TimeOffRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
	Reason  *string   `json:"reason,omitempty"`
}

// RequestTimeOff 提交休假申请
// @Summary 提交休假申请
// @Tags 排班-休假
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body TimeOffRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.StylistTimeOff}
// @Router /api/v1/time-off [post]
func (h *Handler) RequestTimeOff(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req TimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	timeOff, err := h.scheduleService.RequestTimeOff(c.Request.Context(), stylistID, req.StartAt, req.EndAt, req.Reason)
	handler.MustSucceed(c, mapError(err), timeOff)
}

// ListMyTimeOff 我的休假申请列表
// @Summary 我的休假申请列表
// @Tags 排班-休假
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=schedule.TimeOffListResponse}
// @Router /api/v1/time-off [get]
func (h *Handler) ListMyTimeOff(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)
	result, err := h.scheduleService.ListTimeOff(c.Request.Context(), &scheduleService.TimeOffListRequest{
		Page:      p.Page,
		PageSize:  p.PageSize,
		StylistID: &stylistID,
		Status:    c.Query("status"),
	})
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// CancelTimeOff 撤回休假申请
// @Summary 撤回待审批的休假申请
// @Tags 排班-休假
// @Produce json
// @Security Bearer
// @Param id path int true "休假申请ID"
// @Success 200 {object} response.Response
// @Router /api/v1/time-off/{id} [delete]
func (h *Handler) CancelTimeOff(c *gin.Context) {
	stylistID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	timeOffID, ok := handler.ParseID(c, "休假申请")
	if !ok {
		return
	}

	if handler.HandleError(c, mapError(h.scheduleService.CancelTimeOff(c.Request.Context(), timeOffID, stylistID))) {
		return
	}
	response.SuccessWithMessage(c, "休假申请已撤回", nil)
}

// ==================== 管理端 ====================

// AdminListTimeOff 休假申请列表（管理端）
// @Summary 休假申请列表
// @Tags 管理-休假
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param stylist_id query int false "造型师ID"
// @Param status query string false "状态筛选"
// @Success 200 {object} response.Response{data=schedule.TimeOffListResponse}
// @Router /api/v1/admin/time-off [get]
func (h *Handler) AdminListTimeOff(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &scheduleService.TimeOffListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Status:   c.Query("status"),
	}
	if stylistID, ok := handler.ParseQueryID(c, "stylist_id", "造型师"); !ok {
		return
	} else if stylistID != nil {
		req.StylistID = stylistID
	}

	result, err := h.scheduleService.ListTimeOff(c.Request.Context(), req)
	if handler.HandleError(c, mapError(err)) {
		return
	}
	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// ReviewTimeOffRequest 审批休假请求
type ReviewTimeOffRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// AdminReviewTimeOff 审批休假申请（管理端）
// @Summary 审批休假申请
// @Tags 管理-休假
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "休假申请ID"
// @Param request body ReviewTimeOffRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.StylistTimeOff}
// @Router /api/v1/admin/time-off/{id}/review [put]
func (h *Handler) AdminReviewTimeOff(c *gin.Context) {
	timeOffID, ok := handler.ParseID(c, "休假申请")
	if !ok {
		return
	}

	var req ReviewTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	timeOff, err := h.scheduleService.ReviewTimeOff(c.Request.Context(), timeOffID, *req.Approve)
	handler.MustSucceed(c, mapError(err), timeOff)
}
