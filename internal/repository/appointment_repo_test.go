// Package repository 预约仓储单元测试
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

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

var appointmentSeq int

func setupAppointmentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Appointment{},
	)
	require.NoError(t, err)

	return db
}

// createTestAppointmentForRepo 创建测试预约
func createTestAppointmentForRepo(t *testing.T, db *gorm.DB, stylistID int64, start, end time.Time, opts ...func(*models.Appointment)) *models.Appointment {
	t.Helper()

	appointmentSeq++
	code := fmt.Sprintf("CHK%d%d", time.Now().UnixNano(), appointmentSeq)
	appointment := &models.Appointment{
		UserID:      1,
		StylistID:   stylistID,
		StartAt:     start,
		EndAt:       end,
		Status:      models.AppointmentStatusConfirmed,
		CheckInCode: &code,
	}

	for _, opt := range opts {
		opt(appointment)
	}

	require.NoError(t, db.Create(appointment).Error)
	return appointment
}

func TestAppointmentRepository_CreateAndGet(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	service := createTestServiceForRepo(t, db, "精剪造型", 60, 80000)
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)

	appointment := &models.Appointment{
		UserID:    1,
		StylistID: 2,
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
		Status:    models.AppointmentStatusPending,
		Services:  []models.Product{*service},
	}
	require.NoError(t, repo.Create(ctx, appointment))
	assert.NotZero(t, appointment.ID)

	found, err := repo.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.StylistID)
	require.Len(t, found.Services, 1)
	assert.Equal(t, "精剪造型", found.Services[0].Name)
}

func TestAppointmentRepository_GetByCheckInCode(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)
	appointment := createTestAppointmentForRepo(t, db, 2, start, start.Add(time.Hour))

	found, err := repo.GetByCheckInCode(ctx, *appointment.CheckInCode)
	require.NoError(t, err)
	assert.Equal(t, appointment.ID, found.ID)

	_, err = repo.GetByCheckInCode(ctx, "NOTEXIST")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAppointmentRepository_UpdateStatus(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)
	appointment := createTestAppointmentForRepo(t, db, 2, start, start.Add(time.Hour))

	require.NoError(t, repo.UpdateStatus(ctx, appointment.ID, models.AppointmentStatusInProgress))

	found, err := repo.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentStatusInProgress, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 99999, models.AppointmentStatusCompleted), gorm.ErrRecordNotFound)
}

func TestAppointmentRepository_Delete(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	service := createTestServiceForRepo(t, db, "染发", 120, 200000)
	start := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)
	appointment := createTestAppointmentForRepo(t, db, 2, start, start.Add(2*time.Hour), func(a *models.Appointment) {
		a.Services = []models.Product{*service}
	})

	require.NoError(t, repo.Delete(ctx, appointment.ID))

	_, err := repo.GetByID(ctx, appointment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 关联记录一并清理
	var linkCount int64
	db.Table("appointment_services").Where("appointment_id = ?", appointment.ID).Count(&linkCount)
	assert.Equal(t, int64(0), linkCount)
}

func TestAppointmentRepository_ReplaceServices(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	cut := createTestServiceForRepo(t, db, "剪发", 30, 50000)
	perm := createTestServiceForRepo(t, db, "烫发", 150, 300000)

	start := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)
	appointment := createTestAppointmentForRepo(t, db, 2, start, start.Add(time.Hour), func(a *models.Appointment) {
		a.Services = []models.Product{*cut}
	})

	require.NoError(t, repo.ReplaceServices(ctx, appointment.ID, []models.Product{*perm}))

	found, err := repo.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	require.Len(t, found.Services, 1)
	assert.Equal(t, "烫发", found.Services[0].Name)
}

func TestAppointmentRepository_List(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 9, 10, 9, 0, 0, 0, timeutil.Location)

	createTestAppointmentForRepo(t, db, 1, base, base.Add(time.Hour))
	createTestAppointmentForRepo(t, db, 1, base.Add(2*time.Hour), base.Add(3*time.Hour), func(a *models.Appointment) {
		a.Status = models.AppointmentStatusCancelled
	})
	createTestAppointmentForRepo(t, db, 2, base.Add(24*time.Hour), base.Add(25*time.Hour), func(a *models.Appointment) {
		a.UserID = 5
	})

	t.Run("按设计师过滤", func(t *testing.T) {
		stylistID := int64(1)
		_, total, err := repo.List(ctx, AppointmentListParams{Offset: 0, Limit: 10, StylistID: &stylistID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("按顾客过滤", func(t *testing.T) {
		userID := int64(5)
		items, total, err := repo.List(ctx, AppointmentListParams{Offset: 0, Limit: 10, UserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, int64(2), items[0].StylistID)
	})

	t.Run("按状态过滤", func(t *testing.T) {
		_, total, err := repo.List(ctx, AppointmentListParams{Offset: 0, Limit: 10, Status: models.AppointmentStatusCancelled})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("按日期范围过滤", func(t *testing.T) {
		from := base.Add(12 * time.Hour)
		to := base.Add(36 * time.Hour)
		_, total, err := repo.List(ctx, AppointmentListParams{Offset: 0, Limit: 10, From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestAppointmentRepository_FindConflicts(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)

	// 10:00 - 11:00 已确认
	confirmed := createTestAppointmentForRepo(t, db, 1, base, base.Add(time.Hour))
	// 13:00 - 14:00 已取消（不参与判定）
	createTestAppointmentForRepo(t, db, 1, base.Add(3*time.Hour), base.Add(4*time.Hour), func(a *models.Appointment) {
		a.Status = models.AppointmentStatusCancelled
	})

	t.Run("时段重叠判定为冲突", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 1, base.Add(30*time.Minute), base.Add(90*time.Minute), nil)
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, confirmed.ID, conflicts[0].ID)
	})

	t.Run("完全包含判定为冲突", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 1, base.Add(-time.Hour), base.Add(2*time.Hour), nil)
		require.NoError(t, err)
		assert.Len(t, conflicts, 1)
	})

	t.Run("首尾相接不算冲突", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 1, base.Add(time.Hour), base.Add(2*time.Hour), nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)

		conflicts, err = repo.FindConflicts(ctx, 1, base.Add(-time.Hour), base, nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("已取消的预约不参与判定", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 1, base.Add(3*time.Hour), base.Add(4*time.Hour), nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("其他设计师不受影响", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 2, base, base.Add(time.Hour), nil)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("排除自身后无冲突", func(t *testing.T) {
		conflicts, err := repo.FindConflicts(ctx, 1, base, base.Add(time.Hour), &confirmed.ID)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}

func TestAppointmentRepository_ListUpcoming(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 9, 10, 9, 0, 0, 0, timeutil.Location)

	// 提醒窗口内的已确认预约
	createTestAppointmentForRepo(t, db, 1, now.Add(30*time.Minute), now.Add(90*time.Minute))
	// 窗口外
	createTestAppointmentForRepo(t, db, 1, now.Add(5*time.Hour), now.Add(6*time.Hour))
	// 窗口内但待确认
	createTestAppointmentForRepo(t, db, 2, now.Add(45*time.Minute), now.Add(time.Hour), func(a *models.Appointment) {
		a.Status = models.AppointmentStatusPending
	})

	items, err := repo.ListUpcoming(ctx, now, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAppointmentRepository_CountByStatus(t *testing.T) {
	db := setupAppointmentTestDB(t)
	repo := NewAppointmentRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 9, 10, 10, 0, 0, 0, timeutil.Location)
	createTestAppointmentForRepo(t, db, 1, base, base.Add(time.Hour))
	createTestAppointmentForRepo(t, db, 1, base.Add(2*time.Hour), base.Add(3*time.Hour))
	createTestAppointmentForRepo(t, db, 2, base, base.Add(time.Hour), func(a *models.Appointment) {
		a.Status = models.AppointmentStatusCompleted
	})

	count, err := repo.CountByStatus(ctx, models.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
