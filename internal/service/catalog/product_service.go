// Package catalog 提供商品与服务项目管理
package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// ProductService 商品服务
type ProductService struct {
	db          *gorm.DB
	productRepo *repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(db *gorm.DB, productRepo *repository.ProductRepository) *ProductService {
	return &ProductService{
		db:          db,
		productRepo: productRepo,
	}
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required,max=100"`
	Description   *string `json:"description,omitempty"`
	Price         int64   `json:"price" binding:"required,min=0"`
	DurationTime  *int    `json:"duration_time,omitempty"`
	StockQuantity int     `json:"stock_quantity"`
	Image         *string `json:"image,omitempty"`
	IsService     bool    `json:"is_service"`
}

// UpdateProductRequest 更新商品请求，nil 字段表示不修改
type UpdateProductRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Price         *int64  `json:"price,omitempty"`
	DurationTime  *int    `json:"duration_time,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
	Image         *string `json:"image,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// Create 创建商品或服务项目
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if req.IsService && (req.DurationTime == nil || *req.DurationTime <= 0) {
		return nil, errors.ErrDurationMissing
	}

	product := &models.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		DurationTime: req.DurationTime,
		Image:        req.Image,
		IsActive:     true,
		IsService:    req.IsService,
	}
	// 服务项目不占库存
	if !req.IsService {
		product.StockQuantity = req.StockQuantity
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return product, nil
}

// GetByID 获取商品详情
func (s *ProductService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(ctx context.Context, id int64, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.DurationTime != nil {
		if product.IsService && *req.DurationTime <= 0 {
			return nil, errors.ErrDurationMissing
		}
		fields["duration_time"] = *req.DurationTime
	}
	if req.StockQuantity != nil && !product.IsService {
		fields["stock_quantity"] = *req.StockQuantity
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return product, nil
	}

	if err := s.productRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.GetByID(ctx, id)
}

// Delete 删除商品；已被订单或预约引用的商品只下架不删除
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.OrderDetail{}).
		Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if refs == 0 {
		var apptRefs int64
		if err := s.db.WithContext(ctx).Table("appointment_services").
			Where("product_id = ?", id).Count(&apptRefs).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		refs = apptRefs
	}

	if refs > 0 {
		if err := s.productRepo.UpdateFields(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// List 商品列表
func (s *ProductService) List(ctx context.Context, params repository.ProductListParams) ([]*models.Product, int64, error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return products, total, nil
}

// ListServices 获取可预约的服务项目
func (s *ProductService) ListServices(ctx context.Context) ([]*models.Product, error) {
	services, err := s.productRepo.ListActiveServices(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return services, nil
}

// AdjustStock 零售商品库存调整，delta 为负时校验存量
func (s *ProductService) AdjustStock(ctx context.Context, id int64, delta int) error {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.IsService {
		return errors.ErrInvalidParams.WithMessage("服务项目不占库存")
	}
	if delta == 0 {
		return nil
	}

	if delta > 0 {
		if err := s.productRepo.IncrementStock(ctx, id, delta); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	}

	if err := s.productRepo.DecrementStock(ctx, id, -delta); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrStockInsufficient
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}
