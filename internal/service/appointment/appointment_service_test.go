// Package appointment 预约服务单元测试
package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linweihsiang/salon-booking-backend/internal/common/qrcode"
	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	"github.com/linweihsiang/salon-booking-backend/internal/service/schedule"
	"github.com/linweihsiang/salon-booking-backend/internal/service/store"
)

type testEnv struct {
	svc *AppointmentService
	db  *gorm.DB
}

func setupAppointmentService(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Appointment{},
		&models.StylistSchedule{},
		&models.StylistTimeOff{},
		&models.StoreBusinessHour{},
		&models.StoreClosure{},
	)
	require.NoError(t, err)

	scheduleSvc := schedule.NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewAppointmentRepository(db),
	)
	storeSvc := store.NewStoreService(repository.NewStoreRepository(db))

	svc := NewAppointmentService(
		db,
		repository.NewAppointmentRepository(db),
		scheduleSvc,
		storeSvc,
		qrcode.NewGenerator(),
	)
	return &testEnv{svc: svc, db: db}
}

// futureMonday 返回一周之后的第一个周一零点
func futureMonday() time.Time {
	d := timeutil.StartOfDay(timeutil.Now()).AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// seedOpenWeek 全周门店 09:00-21:00 营业，造型师 1 号 09:00-18:00 排班
func (e *testEnv) seedOpenWeek(t *testing.T) {
	t.Helper()
	for day := 0; day <= 6; day++ {
		open := timeutil.NewClock(9, 0)
		close := timeutil.NewClock(21, 0)
		require.NoError(t, e.db.Create(&models.StoreBusinessHour{
			DayOfWeek: day,
			OpenTime:  &open,
			CloseTime: &close,
		}).Error)
		require.NoError(t, e.db.Create(&models.StylistSchedule{
			StylistID: 1,
			DayOfWeek: day,
			StartTime: timeutil.NewClock(9, 0),
			EndTime:   timeutil.NewClock(18, 0),
		}).Error)
	}
}

func (e *testEnv) seedService(t *testing.T, name string, durationMinutes int, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:         name,
		Price:        price,
		DurationTime: &durationMinutes,
		IsActive:     true,
		IsService:    true,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func TestAppointmentService_Create(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()
	env.seedOpenWeek(t)

	cut := env.seedService(t, "精剪", 60, 80000)
	wash := env.seedService(t, "洗护", 30, 20000)
	monday := futureMonday()

	t.Run("成功创建并推算结束时间", func(t *testing.T) {
		start := monday.Add(10 * time.Hour)
		appointment, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    start,
			ServiceIDs: []int64{cut.ID, wash.ID},
		})
		require.NoError(t, err)
		// 60 + 30 分钟
		assert.True(t, appointment.EndAt.Equal(start.Add(90*time.Minute)))
		assert.Equal(t, models.AppointmentStatusPending, appointment.Status)
		require.NotNil(t, appointment.CheckInCode)
		assert.Len(t, appointment.Services, 2)
	})

	t.Run("过去的时间拒绝", func(t *testing.T) {
		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    timeutil.Now().Add(-time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		assert.ErrorIs(t, err, ErrPastTime)
	})

	t.Run("门店未营业拒绝", func(t *testing.T) {
		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(7 * time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		assert.ErrorIs(t, err, ErrStoreClosed)
	})

	t.Run("超出排班拒绝", func(t *testing.T) {
		// 门店营业到 21:00 但造型师 18:00 下班
		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(19 * time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		assert.ErrorIs(t, err, ErrStylistUnavailable)

		// 结束时间越过下班时刻同样拒绝
		_, err = env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(17*time.Hour + 30*time.Minute),
			ServiceIDs: []int64{cut.ID},
		})
		assert.ErrorIs(t, err, ErrStylistUnavailable)
	})

	t.Run("无排班的造型师拒绝", func(t *testing.T) {
		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  99,
			StartAt:    monday.Add(10 * time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		assert.ErrorIs(t, err, ErrStylistUnavailable)
	})

	t.Run("时段冲突拒绝", func(t *testing.T) {
		start := monday.Add(14 * time.Hour)
		first, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    start,
			ServiceIDs: []int64{cut.ID},
		})
		require.NoError(t, err)
		_, err = env.svc.Confirm(ctx, first.ID)
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     2,
			StylistID:  1,
			StartAt:    start.Add(30 * time.Minute),
			ServiceIDs: []int64{wash.ID},
		})
		assert.ErrorIs(t, err, ErrTimeConflict)

		// 首尾相接不算冲突
		_, err = env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     2,
			StylistID:  1,
			StartAt:    start.Add(time.Hour),
			ServiceIDs: []int64{wash.ID},
		})
		assert.NoError(t, err)
	})

	t.Run("零售商品不能预约", func(t *testing.T) {
		retail := &models.Product{Name: "洗发水", Price: 15000, IsActive: true}
		require.NoError(t, env.db.Create(retail).Error)

		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(24 * time.Hour).Add(10 * time.Hour),
			ServiceIDs: []int64{retail.ID},
		})
		assert.ErrorIs(t, err, ErrNotService)
	})

	t.Run("服务项目为空", func(t *testing.T) {
		_, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:    1,
			StylistID: 1,
			StartAt:   monday.Add(10 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrNoServices)
	})
}

func TestAppointmentService_Calculate(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()

	cut := env.seedService(t, "精剪", 60, 80000)
	color := env.seedService(t, "染发", 90, 250000)

	t.Run("合计时长与金额", func(t *testing.T) {
		result, err := env.svc.Calculate(ctx, []int64{cut.ID, color.ID})
		require.NoError(t, err)
		assert.Equal(t, 150, result.TotalDuration)
		assert.Equal(t, int64(330000), result.TotalAmount)
	})

	t.Run("重复的服务只计一次", func(t *testing.T) {
		result, err := env.svc.Calculate(ctx, []int64{cut.ID, cut.ID, color.ID})
		require.NoError(t, err)
		assert.Equal(t, 150, result.TotalDuration)
		assert.Equal(t, int64(330000), result.TotalAmount)
	})

	t.Run("空服务列表", func(t *testing.T) {
		_, err := env.svc.Calculate(ctx, nil)
		assert.ErrorIs(t, err, ErrNoServices)
	})

	t.Run("不存在的服务", func(t *testing.T) {
		_, err := env.svc.Calculate(ctx, []int64{cut.ID, 9999})
		assert.ErrorIs(t, err, ErrNotService)
	})
}

func TestAppointmentService_StatusFlow(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()
	env.seedOpenWeek(t)

	cut := env.seedService(t, "精剪", 60, 80000)
	monday := futureMonday()

	newAppointment := func(t *testing.T, hour int) *models.Appointment {
		appointment, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(time.Duration(hour) * time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		require.NoError(t, err)
		return appointment
	}

	t.Run("完整流程", func(t *testing.T) {
		appointment := newAppointment(t, 9)

		confirmed, err := env.svc.Confirm(ctx, appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusConfirmed, confirmed.Status)

		checkedIn, err := env.svc.CheckIn(ctx, *appointment.CheckInCode)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusInProgress, checkedIn.Status)

		done, err := env.svc.Complete(ctx, appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusCompleted, done.Status)
	})

	t.Run("未确认不能报到", func(t *testing.T) {
		appointment := newAppointment(t, 11)
		_, err := env.svc.CheckIn(ctx, *appointment.CheckInCode)
		assert.ErrorIs(t, err, ErrNotConfirmed)
	})

	t.Run("无效到店码", func(t *testing.T) {
		_, err := env.svc.CheckIn(ctx, "BADCODE")
		assert.ErrorIs(t, err, ErrCheckInCodeInvalid)
	})

	t.Run("非法状态变更", func(t *testing.T) {
		appointment := newAppointment(t, 13)
		_, err := env.svc.Complete(ctx, appointment.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		cancelled, err := env.svc.Cancel(ctx, appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusCancelled, cancelled.Status)

		_, err = env.svc.Confirm(ctx, appointment.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("标记未到店", func(t *testing.T) {
		appointment := newAppointment(t, 15)
		_, err := env.svc.Confirm(ctx, appointment.ID)
		require.NoError(t, err)

		noShow, err := env.svc.MarkNoShow(ctx, appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AppointmentStatusNoShow, noShow.Status)
	})
}

func TestAppointmentService_Reschedule(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()
	env.seedOpenWeek(t)

	cut := env.seedService(t, "精剪", 60, 80000)
	monday := futureMonday()

	appointment, err := env.svc.Create(ctx, &CreateAppointmentRequest{
		UserID:     1,
		StylistID:  1,
		StartAt:    monday.Add(10 * time.Hour),
		ServiceIDs: []int64{cut.ID},
	})
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, appointment.ID)
	require.NoError(t, err)

	t.Run("改期成功重算结束时间", func(t *testing.T) {
		newStart := monday.Add(24 * time.Hour).Add(14 * time.Hour)
		updated, err := env.svc.Reschedule(ctx, appointment.ID, newStart)
		require.NoError(t, err)
		assert.True(t, updated.StartAt.Equal(newStart))
		assert.True(t, updated.EndAt.Equal(newStart.Add(time.Hour)))
	})

	t.Run("改回原时段不与自身冲突", func(t *testing.T) {
		current, err := env.svc.GetByID(ctx, appointment.ID)
		require.NoError(t, err)

		_, err = env.svc.Reschedule(ctx, appointment.ID, current.StartAt)
		assert.NoError(t, err)
	})

	t.Run("与他人预约冲突拒绝", func(t *testing.T) {
		otherStart := monday.Add(2 * 24 * time.Hour).Add(10 * time.Hour)
		other, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     2,
			StylistID:  1,
			StartAt:    otherStart,
			ServiceIDs: []int64{cut.ID},
		})
		require.NoError(t, err)
		_, err = env.svc.Confirm(ctx, other.ID)
		require.NoError(t, err)

		_, err = env.svc.Reschedule(ctx, appointment.ID, otherStart.Add(30*time.Minute))
		assert.ErrorIs(t, err, ErrTimeConflict)
	})

	t.Run("已完成的预约不能改期", func(t *testing.T) {
		done, err := env.svc.Create(ctx, &CreateAppointmentRequest{
			UserID:     1,
			StylistID:  1,
			StartAt:    monday.Add(3 * 24 * time.Hour).Add(10 * time.Hour),
			ServiceIDs: []int64{cut.ID},
		})
		require.NoError(t, err)
		_, err = env.svc.Confirm(ctx, done.ID)
		require.NoError(t, err)
		_, err = env.svc.CheckIn(ctx, *done.CheckInCode)
		require.NoError(t, err)
		_, err = env.svc.Complete(ctx, done.ID)
		require.NoError(t, err)

		_, err = env.svc.Reschedule(ctx, done.ID, monday.Add(4*24*time.Hour).Add(10*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestAppointmentService_CheckInQRCode(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()
	env.seedOpenWeek(t)

	cut := env.seedService(t, "精剪", 60, 80000)
	monday := futureMonday()

	appointment, err := env.svc.Create(ctx, &CreateAppointmentRequest{
		UserID:     1,
		StylistID:  1,
		StartAt:    monday.Add(10 * time.Hour),
		ServiceIDs: []int64{cut.ID},
	})
	require.NoError(t, err)

	t.Run("生成二维码", func(t *testing.T) {
		dataURL, err := env.svc.CheckInQRCode(ctx, appointment.ID, 1)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
	})

	t.Run("他人无法获取", func(t *testing.T) {
		_, err := env.svc.CheckInQRCode(ctx, appointment.ID, 2)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestAppointmentService_ListUpcoming(t *testing.T) {
	env := setupAppointmentService(t)
	ctx := context.Background()

	now := timeutil.Now()
	code1 := "UPCOMING1"
	code2 := "UPCOMING2"
	require.NoError(t, env.db.Create(&models.Appointment{
		UserID:      1,
		StylistID:   1,
		StartAt:     now.Add(time.Hour),
		EndAt:       now.Add(2 * time.Hour),
		Status:      models.AppointmentStatusConfirmed,
		CheckInCode: &code1,
	}).Error)
	require.NoError(t, env.db.Create(&models.Appointment{
		UserID:      1,
		StylistID:   1,
		StartAt:     now.Add(48 * time.Hour),
		EndAt:       now.Add(49 * time.Hour),
		Status:      models.AppointmentStatusConfirmed,
		CheckInCode: &code2,
	}).Error)

	items, err := env.svc.ListUpcoming(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
