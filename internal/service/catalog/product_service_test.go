package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderDetail{},
		&models.Appointment{},
	))
	return db
}

func newCatalogTestService(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	db := setupCatalogTestDB(t)
	return NewProductService(db, repository.NewProductRepository(db)), db
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

// ==================== 创建 ====================

func TestProductService_Create(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()

	t.Run("创建零售商品", func(t *testing.T) {
		product, err := svc.Create(ctx, &CreateProductRequest{
			Name:          "洗髮精",
			Price:         45000,
			StockQuantity: 20,
		})
		require.NoError(t, err)
		assert.False(t, product.IsService)
		assert.Equal(t, 20, product.StockQuantity)
		assert.True(t, product.IsActive)
	})

	t.Run("创建服务项目", func(t *testing.T) {
		product, err := svc.Create(ctx, &CreateProductRequest{
			Name:          "剪髮",
			Price:         80000,
			DurationTime:  intPtr(60),
			StockQuantity: 5, // 服务项目忽略库存
			IsService:     true,
		})
		require.NoError(t, err)
		assert.True(t, product.IsService)
		assert.Equal(t, 0, product.StockQuantity)
	})

	t.Run("服务项目缺少时长", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateProductRequest{
			Name:      "染髮",
			Price:     200000,
			IsService: true,
		})
		assert.ErrorIs(t, err, errors.ErrDurationMissing)
	})
}

// ==================== 更新 ====================

func TestProductService_Update(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, &CreateProductRequest{
		Name:         "燙髮",
		Price:        300000,
		DurationTime: intPtr(120),
		IsService:    true,
	})
	require.NoError(t, err)

	t.Run("部分更新", func(t *testing.T) {
		updated, err := svc.Update(ctx, product.ID, &UpdateProductRequest{
			Price:        int64Ptr(280000),
			DurationTime: intPtr(90),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 280000, updated.Price)
		assert.Equal(t, 90, *updated.DurationTime)
		assert.Equal(t, "燙髮", updated.Name)
	})

	t.Run("服务项目时长不可为零", func(t *testing.T) {
		_, err := svc.Update(ctx, product.ID, &UpdateProductRequest{DurationTime: intPtr(0)})
		assert.ErrorIs(t, err, errors.ErrDurationMissing)
	})

	t.Run("下架", func(t *testing.T) {
		updated, err := svc.Update(ctx, product.ID, &UpdateProductRequest{IsActive: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("商品不存在", func(t *testing.T) {
		_, err := svc.Update(ctx, 99999, &UpdateProductRequest{})
		assert.ErrorIs(t, err, errors.ErrProductNotFound)
	})
}

// ==================== 删除 ====================

func TestProductService_Delete(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()

	t.Run("无引用时物理删除", func(t *testing.T) {
		product, err := svc.Create(ctx, &CreateProductRequest{Name: "護髮油", Price: 60000})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, product.ID))
		_, err = svc.GetByID(ctx, product.ID)
		assert.ErrorIs(t, err, errors.ErrProductNotFound)
	})

	t.Run("被订单引用时仅下架", func(t *testing.T) {
		product, err := svc.Create(ctx, &CreateProductRequest{Name: "潤髮乳", Price: 50000, StockQuantity: 3})
		require.NoError(t, err)

		order := &models.Order{UserID: 1, OrderNo: "SO-TEST-1", TotalAmount: 50000, FinalAmount: 50000, Status: models.OrderStatusPaid}
		require.NoError(t, db.Create(order).Error)
		require.NoError(t, db.Create(&models.OrderDetail{
			OrderID: order.ID, ProductID: product.ID, Quantity: 1, PricePerItem: 50000,
		}).Error)

		require.NoError(t, svc.Delete(ctx, product.ID))

		kept, err := svc.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.False(t, kept.IsActive)
	})
}

// ==================== 列表与库存 ====================

func TestProductService_ListAndStock(t *testing.T) {
	svc, _ := newCatalogTestService(t)
	ctx := context.Background()

	retail, err := svc.Create(ctx, &CreateProductRequest{Name: "髮蠟", Price: 30000, StockQuantity: 5})
	require.NoError(t, err)
	service, err := svc.Create(ctx, &CreateProductRequest{
		Name: "洗剪吹", Price: 100000, DurationTime: intPtr(45), IsService: true,
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, service.ID, &UpdateProductRequest{})
	require.NoError(t, err)

	t.Run("按类型筛选", func(t *testing.T) {
		products, total, err := svc.List(ctx, repository.ProductListParams{
			Offset:    0,
			Limit:     10,
			IsService: boolPtr(true),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, products, 1)
		assert.Equal(t, "洗剪吹", products[0].Name)
	})

	t.Run("按价格区间筛选", func(t *testing.T) {
		_, total, err := svc.List(ctx, repository.ProductListParams{
			Offset:   0,
			Limit:    10,
			PriceMax: int64Ptr(50000),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("可预约服务列表", func(t *testing.T) {
		services, err := svc.ListServices(ctx)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, service.ID, services[0].ID)
	})

	t.Run("入库与出库", func(t *testing.T) {
		require.NoError(t, svc.AdjustStock(ctx, retail.ID, 10))
		require.NoError(t, svc.AdjustStock(ctx, retail.ID, -12))

		reloaded, err := svc.GetByID(ctx, retail.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, reloaded.StockQuantity)
	})

	t.Run("库存不足时拒绝出库", func(t *testing.T) {
		err := svc.AdjustStock(ctx, retail.ID, -100)
		assert.ErrorIs(t, err, errors.ErrStockInsufficient)

		reloaded, err := svc.GetByID(ctx, retail.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, reloaded.StockQuantity)
	})

	t.Run("服务项目不可调库存", func(t *testing.T) {
		err := svc.AdjustStock(ctx, service.ID, 5)
		require.Error(t, err)
	})
}
