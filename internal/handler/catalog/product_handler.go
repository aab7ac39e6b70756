// Package catalog 提供商品与服务项目的 HTTP Handler
package catalog

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linweihsiang/salon-booking-backend/internal/common/handler"
	"github.com/linweihsiang/salon-booking-backend/internal/common/response"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	catalogService "github.com/linweihsiang/salon-booking-backend/internal/service/catalog"
)

// Handler 商品处理器
type Handler struct {
	productService *catalogService.ProductService
}

// NewHandler 创建商品处理器
func NewHandler(productSvc *catalogService.ProductService) *Handler {
	return &Handler{productService: productSvc}
}

// List 商品列表
// @Summary 商品列表
// @Tags 商品
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param is_service query bool false "是否服务项目"
// @Param keyword query string false "关键字"
// @Param price_min query int false "最低价格（分）"
// @Param price_max query int false "最高价格（分）"
// @Success 200 {object} response.Response{data=[]models.Product}
// @Router /api/v1/products [get]
func (h *Handler) List(c *gin.Context) {
	p := handler.BindPagination(c)

	params := repository.ProductListParams{
		Offset:  p.GetOffset(),
		Limit:   p.GetLimit(),
		Keyword: c.Query("keyword"),
	}
	if v := c.Query("is_service"); v != "" {
		isService := v == "true"
		params.IsService = &isService
	}
	if v := c.Query("is_active"); v != "" {
		isActive := v == "true"
		params.IsActive = &isActive
	}
	if v := c.Query("price_min"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.PriceMin = &n
		}
	}
	if v := c.Query("price_max"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.PriceMax = &n
		}
	}

	products, total, err := h.productService.List(c.Request.Context(), params)
	handler.MustSucceedPage(c, err, products, total, p.Page, p.PageSize)
}

// ListServices 可预约服务列表
// @Summary 可预约服务列表
// @Tags 商品
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Product}
// @Router /api/v1/services [get]
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.productService.ListServices(c.Request.Context())
	handler.MustSucceed(c, err, services)
}

// Get 商品详情
// @Summary 商品详情
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/v1/products/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), productID)
	handler.MustSucceed(c, err, product)
}

// ==================== 管理端 ====================

// AdminCreate 创建商品（管理端）
// @Summary 创建商品或服务项目
// @Tags 管理-商品
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body catalogService.CreateProductRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/v1/admin/products [post]
func (h *Handler) AdminCreate(c *gin.Context) {
	var req catalogService.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	product, err := h.productService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, product)
}

// AdminUpdate 更新商品（管理端）
// @Summary 更新商品
// @Tags 管理-商品
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "商品ID"
// @Param request body catalogService.UpdateProductRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Product}
// @Router /api/v1/admin/products/{id} [put]
func (h *Handler) AdminUpdate(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	var req catalogService.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	product, err := h.productService.Update(c.Request.Context(), productID, &req)
	handler.MustSucceed(c, err, product)
}

// AdminDelete 删除商品（管理端）
// @Summary 删除商品
// @Tags 管理-商品
// @Produce json
// @Security Bearer
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/products/{id} [delete]
func (h *Handler) AdminDelete(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	if handler.HandleError(c, h.productService.Delete(c.Request.Context(), productID)) {
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// AdjustStockRequest 库存调整请求
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdminAdjustStock 调整库存（管理端）
// @Summary 调整零售商品库存
// @Tags 管理-商品
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "商品ID"
// @Param request body AdjustStockRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/products/{id}/stock [put]
func (h *Handler) AdminAdjustStock(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if handler.HandleError(c, h.productService.AdjustStock(c.Request.Context(), productID, req.Delta)) {
		return
	}
	response.SuccessWithMessage(c, "库存已调整", nil)
}
