// Package store 提供门店营业设置的 HTTP Handler
package store

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	storeService "github.com/linweihsiang/salon-booking-backend/internal/service/store"
)

// Handler 门店处理器
type Handler struct {
	storeService *storeService.StoreService
}

// NewHandler 创建门店处理器
func NewHandler(storeSvc *storeService.StoreService) *Handler {
	return &Handler{storeService: storeSvc}
}

// mapError 将服务层错误转换为统一错误码
func mapError(err error) error {
	switch err {
	case nil:
		return nil
	case storeService.ErrInvalidDayOfWeek, storeService.ErrInvalidTimeRange:
		return errors.ErrBusinessHourInvalid
	case storeService.ErrHoursIncomplete:
		return errors.ErrBusinessHourInvalid
	case storeService.ErrClosureNotFound:
		return errors.ErrClosureNotFound
	}
	return err
}

// GetHours 获取每周营业时间
// @Summary 获取每周营业时间
// @Tags 门店
// @Produce json
// @Success 200 {object} response.Response{data=map[int]models.StoreBusinessHour}
// @Router /api/v1/store/hours [get]
func (h *Handler) GetHours(c *gin.Context) {
	hours, err := h.storeService.GetWeeklyHours(c.Request.Context())
	handler.MustSucceed(c, mapError(err), hours)
}

// IsOpen 查询某时刻是否营业
// @Summary 查询某时刻是否营业
// @Tags 门店
// @Produce json
// @Param at query string false "时间 YYYY-MM-DD HH:MM:SS，默认当前"
// @Success 200 {object} response.Response
// @Router /api/v1/store/open [get]
func (h *Handler) IsOpen(c *gin.Context) {
	at := timeutil.Now()
	if v := c.Query("at"); v != "" {
		parsed, err := handler.ParseDateTime(v)
		if err != nil {
			response.BadRequest(c, "时间格式不正确")
			return
		}
		at = parsed
	}

	open, err := h.storeService.IsOpen(c.Request.Context(), at)
	if handler.HandleError(c, mapError(err)) {
		return
	}

	result := gin.H{"open": open}
	if !open {
		next, err := h.storeService.NextOpenTime(c.Request.Context(), at)
		if handler.HandleError(c, mapError(err)) {
			return
		}
		result["next_open_time"] = next
	}
	response.Success(c, result)
}

// ==================== 管理端 ====================

// AdminSetHours 设置营业时间（管理端）
// @Summary 批量设置每周营业时间
// @Tags 管理-门店
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body []storeService.BusinessHourRequest true "请求参数"
// @Success 200 {object} response.Response{data=[]models.StoreBusinessHour}
// @Router /api/v1/admin/store/hours [put]
func (h *Handler) AdminSetHours(c *gin.Context) {
	var reqs []*storeService.BusinessHourRequest
	if err := c.ShouldBindJSON(&reqs); err != nil || len(reqs) == 0 {
		response.BadRequest(c, "参数错误")
		return
	}

	hours, err := h.storeService.SetWeeklyHours(c.Request.Context(), reqs)
	handler.MustSucceed(c, mapError(err), hours)
}

// AdminSetHour 设置单日营业时间（管理端）
// @Summary 设置某个星期几的营业时间
// @Tags 管理-门店
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body storeService.BusinessHourRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.StoreBusinessHour}
// @Router /api/v1/admin/store/hour [put]
func (h *Handler) AdminSetHour(c *gin.Context) {
	var req storeService.BusinessHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	hour, err := h.storeService.SetBusinessHour(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), hour)
}

// AdminListClosures 休业记录列表（管理端）
// @Summary 休业记录列表
// @Tags 管理-门店
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=[]models.StoreClosure}
// @Router /api/v1/admin/store/closures [get]
func (h *Handler) AdminListClosures(c *gin.Context) {
	p := handler.BindPagination(c)

	closures, total, err := h.storeService.ListClosures(c.Request.Context(), p.Page, p.PageSize)
	handler.MustSucceedPage(c, mapError(err), closures, total, p.Page, p.PageSize)
}

// AdminCreateClosure 新增休业记录（管理端）
// @Summary 新增临时休业
// @Tags 管理-门店
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body storeService.ClosureRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.StoreClosure}
// @Router /api/v1/admin/store/closures [post]
func (h *Handler) AdminCreateClosure(c *gin.Context) {
	var req storeService.ClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if req.EndAt.Sub(req.StartAt) > 90*24*time.Hour {
		response.BadRequest(c, "休业区间过长")
		return
	}

	closure, err := h.storeService.CreateClosure(c.Request.Context(), &req)
	handler.MustSucceed(c, mapError(err), closure)
}

// AdminDeleteClosure 删除休业记录（管理端）
// @Summary 删除休业记录
// @Tags 管理-门店
// @Produce json
// @Security Bearer
// @Param id path int true "休业记录ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/store/closures/{id} [delete]
func (h *Handler) AdminDeleteClosure(c *gin.Context) {
	closureID, ok := handler.ParseID(c, "休业记录")
	if !ok {
		return
	}

	if handler.HandleError(c, mapError(h.storeService.DeleteClosure(c.Request.Context(), closureID))) {
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}
