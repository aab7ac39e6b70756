// Package repository 订单仓储单元测试
package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// setupOrderTestDB 创建订单测试数据库
func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderDetail{},
	)
	require.NoError(t, err)

	return db
}

var orderSeq int

func createTestOrderForRepo(t *testing.T, db *gorm.DB, opts ...func(*models.Order)) *models.Order {
	t.Helper()

	orderSeq++
	order := &models.Order{
		OrderNo:        fmt.Sprintf("ORD%d%04d", time.Now().Unix(), orderSeq),
		UserID:         1,
		TotalAmount:    100000,
		DiscountAmount: 0,
		FinalAmount:    100000,
		Status:         models.OrderStatusPending,
	}

	for _, opt := range opts {
		opt(order)
	}

	require.NoError(t, db.Create(order).Error)
	return order
}

func createTestOrderDetail(t *testing.T, db *gorm.DB, orderID, productID int64, quantity int, pricePerItem int64) *models.OrderDetail {
	t.Helper()

	detail := &models.OrderDetail{
		OrderID:      orderID,
		ProductID:    productID,
		Quantity:     quantity,
		PricePerItem: pricePerItem,
		TotalPrice:   pricePerItem * int64(quantity),
	}
	require.NoError(t, db.Create(detail).Error)
	return detail
}

func TestOrderRepository_Create(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &models.Order{
		OrderNo:     "ORD20260901001",
		UserID:      1,
		TotalAmount: 80000,
		FinalAmount: 80000,
		Status:      models.OrderStatusPending,
	}

	err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestOrderRepository_GetByID(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	product := createTestProductForRepo(t, db)
	order := createTestOrderForRepo(t, db)
	createTestOrderDetail(t, db, order.ID, product.ID, 2, 45000)

	t.Run("获取订单含明细", func(t *testing.T) {
		found, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNo, found.OrderNo)
		require.Len(t, found.Details, 1)
		assert.Equal(t, int64(90000), found.Details[0].TotalPrice)
	})

	t.Run("订单不存在", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestOrderRepository_GetByOrderNo(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := createTestOrderForRepo(t, db)

	found, err := repo.GetByOrderNo(ctx, order.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestOrderRepository_Delete(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	product := createTestProductForRepo(t, db)
	order := createTestOrderForRepo(t, db)
	createTestOrderDetail(t, db, order.ID, product.ID, 1, 45000)

	require.NoError(t, repo.Delete(ctx, order.ID))

	var orderCount, detailCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderDetail{}).Where("order_id = ?", order.ID).Count(&detailCount)
	assert.Equal(t, int64(0), orderCount)
	assert.Equal(t, int64(0), detailCount)
}

func TestOrderRepository_List(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.UserID = 1
		o.Status = models.OrderStatusPending
	})
	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.UserID = 1
		o.Status = models.OrderStatusCompleted
	})
	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.UserID = 2
		o.Status = models.OrderStatusPending
	})

	t.Run("按用户过滤", func(t *testing.T) {
		userID := int64(1)
		_, total, err := repo.List(ctx, OrderListParams{Offset: 0, Limit: 10, UserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("按状态过滤", func(t *testing.T) {
		_, total, err := repo.List(ctx, OrderListParams{Offset: 0, Limit: 10, Status: models.OrderStatusPending})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("组合过滤", func(t *testing.T) {
		userID := int64(1)
		orders, total, err := repo.List(ctx, OrderListParams{
			Offset: 0, Limit: 10,
			UserID: &userID,
			Status: models.OrderStatusCompleted,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, models.OrderStatusCompleted, orders[0].Status)
	})
}

func TestOrderRepository_DetailCRUD(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	product := createTestProductForRepo(t, db)
	order := createTestOrderForRepo(t, db)

	// 创建明细
	detail := &models.OrderDetail{
		OrderID:      order.ID,
		ProductID:    product.ID,
		Quantity:     1,
		PricePerItem: 45000,
		TotalPrice:   45000,
	}
	require.NoError(t, repo.CreateDetail(ctx, detail))
	assert.NotZero(t, detail.ID)

	// 更新明细
	detail.Quantity = 3
	detail.TotalPrice = 135000
	require.NoError(t, repo.UpdateDetail(ctx, detail))

	found, err := repo.GetDetailByID(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Quantity)
	assert.Equal(t, int64(135000), found.TotalPrice)

	// 汇总金额
	sum, err := repo.SumDetailTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(135000), sum)

	// 删除明细
	require.NoError(t, repo.DeleteDetail(ctx, detail.ID))
	details, err := repo.ListDetails(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, details)

	// 空订单汇总为0
	sum, err = repo.SumDetailTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestOrderRepository_Statistics(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.Status = models.OrderStatusCompleted
		o.TotalAmount = 100000
		o.DiscountAmount = 10000
		o.FinalAmount = 90000
	})
	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.Status = models.OrderStatusPaid
		o.TotalAmount = 50000
		o.FinalAmount = 50000
	})
	createTestOrderForRepo(t, db, func(o *models.Order) {
		o.Status = models.OrderStatusCancelled
		o.TotalAmount = 30000
		o.FinalAmount = 30000
	})

	stats, err := repo.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Paid)
	assert.Equal(t, int64(1), stats.Cancelled)
	// 取消的订单不计入营收
	assert.Equal(t, int64(140000), stats.TotalRevenue)
	assert.Equal(t, int64(10000), stats.TotalDiscount)
}
