// Package user 提供用户相关的 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	userService "github.com/linweihsiang/salon-booking-backend/internal/service/user"
)

// Handler 用户处理器
type Handler struct {
	userService *userService.UserService
}

// NewHandler 创建用户处理器
func NewHandler(userSvc *userService.UserService) *Handler {
	return &Handler{userService: userSvc}
}

// GetProfile 获取个人资料
// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=user.UserProfile}
// @Router /api/v1/users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	handler.MustSucceed(c, err, profile)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body userService.UpdateProfileRequest true "请求参数"
// @Success 200 {object} response.Response{data=user.UserProfile}
// @Router /api/v1/users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req userService.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, profile)
}

// BindExternalRequest 绑定第三方账号请求
type BindExternalRequest struct {
	UID string `json:"uid" binding:"required"`
}

// BindGoogle 绑定 Google 账号
// @Summary 绑定 Google 账号
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BindExternalRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/users/bindings/google [post]
func (h *Handler) BindGoogle(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req BindExternalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.userService.BindGoogle(c.Request.Context(), userID, req.UID)) {
		return
	}
	response.SuccessWithMessage(c, "绑定成功", nil)
}

// UnbindGoogle 解绑 Google 账号
// @Summary 解绑 Google 账号
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/users/bindings/google [delete]
func (h *Handler) UnbindGoogle(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	if handler.HandleError(c, h.userService.UnbindGoogle(c.Request.Context(), userID)) {
		return
	}
	response.SuccessWithMessage(c, "解绑成功", nil)
}

// BindLine 绑定 LINE 账号
// @Summary 绑定 LINE 账号
// @Tags 用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BindExternalRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/users/bindings/line [post]
func (h *Handler) BindLine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req BindExternalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.userService.BindLine(c.Request.Context(), userID, req.UID)) {
		return
	}
	response.SuccessWithMessage(c, "绑定成功", nil)
}

// UnbindLine 解绑 LINE 账号
// @Summary 解绑 LINE 账号
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/users/bindings/line [delete]
func (h *Handler) UnbindLine(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	if handler.HandleError(c, h.userService.UnbindLine(c.Request.Context(), userID)) {
		return
	}
	response.SuccessWithMessage(c, "解绑成功", nil)
}

// ListStylists 造型师列表
// @Summary 获取造型师列表
// @Tags 用户
// @Produce json
// @Success 200 {object} response.Response{data=[]user.StylistInfo}
// @Router /api/v1/stylists [get]
func (h *Handler) ListStylists(c *gin.Context) {
	stylists, err := h.userService.ListStylists(c.Request.Context())
	handler.MustSucceed(c, err, stylists)
}

// GetStylist 造型师详情
// @Summary 获取造型师详情
// @Tags 用户
// @Produce json
// @Param id path int true "造型师ID"
// @Success 200 {object} response.Response{data=user.StylistInfo}
// @Router /api/v1/stylists/{id} [get]
func (h *Handler) GetStylist(c *gin.Context) {
	stylistID, ok := handler.ParseID(c, "造型师")
	if !ok {
		return
	}

	stylist, err := h.userService.GetStylist(c.Request.Context(), stylistID)
	handler.MustSucceed(c, err, stylist)
}

// ==================== 管理端 ====================

// AdminListUsers 用户列表（管理端）
// @Summary 用户列表
// @Tags 管理-用户
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param role query string false "角色筛选"
// @Param keyword query string false "关键字"
// @Success 200 {object} response.Response{data=[]user.UserProfile}
// @Router /api/v1/admin/users [get]
func (h *Handler) AdminListUsers(c *gin.Context) {
	p := handler.BindPagination(c)

	params := repository.UserListParams{
		Offset:  p.GetOffset(),
		Limit:   p.GetLimit(),
		Role:    c.Query("role"),
		Keyword: c.Query("keyword"),
	}
	if activeStr := c.Query("is_active"); activeStr != "" {
		active := activeStr == "true"
		params.IsActive = &active
	}

	profiles, total, err := h.userService.ListUsers(c.Request.Context(), params)
	handler.MustSucceedPage(c, err, profiles, total, p.Page, p.PageSize)
}

// SetRoleRequest 调整角色请求
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AdminSetRole 调整用户角色（管理端）
// @Summary 调整用户角色
// @Tags 管理-用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body SetRoleRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/users/{id}/role [put]
func (h *Handler) AdminSetRole(c *gin.Context) {
	userID, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.userService.SetRole(c.Request.Context(), userID, req.Role)) {
		return
	}
	response.SuccessWithMessage(c, "角色已更新", nil)
}

// SetActiveRequest 启停账号请求
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AdminSetActive 启用或停用账号（管理端）
// @Summary 启用或停用账号
// @Tags 管理-用户
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body SetActiveRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/users/{id}/active [put]
func (h *Handler) AdminSetActive(c *gin.Context) {
	userID, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.userService.SetActive(c.Request.Context(), userID, *req.IsActive)) {
		return
	}
	response.SuccessWithMessage(c, "账号状态已更新", nil)
}
