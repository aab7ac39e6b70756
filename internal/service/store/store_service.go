// Package store 提供门店营业时间与休业管理服务
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// 门店模块错误定义
var (
	ErrInvalidDayOfWeek = errors.New("星期编码必须在 0 到 6 之间")
	ErrInvalidTimeRange = errors.New("开始时间必须早于结束时间")
	ErrHoursIncomplete  = errors.New("营业日必须同时设置开门与关门时间")
	ErrClosureNotFound  = errors.New("休业记录不存在")
)

// nextOpenScanDays 查找下一次开门时间时向后扫描的天数
const nextOpenScanDays = 7

// StoreService 门店服务
//
// 营业时间按星期几配置；临时休业为闭区间，覆盖期间门店视为不营业。
type StoreService struct {
	storeRepo *repository.StoreRepository
}

// NewStoreService 创建门店服务
func NewStoreService(storeRepo *repository.StoreRepository) *StoreService {
	return &StoreService{storeRepo: storeRepo}
}

// ==================== 营业时间 ====================

// BusinessHourRequest 营业时间设置请求
type BusinessHourRequest struct {
	DayOfWeek int                 `json:"day_of_week" binding:"min=0,max=6"`
	OpenTime  *timeutil.ClockTime `json:"open_time,omitempty"`
	CloseTime *timeutil.ClockTime `json:"close_time,omitempty"`
	IsClosed  bool                `json:"is_closed"`
}

// SetBusinessHour 设置某个星期几的营业时间
func (s *StoreService) SetBusinessHour(ctx context.Context, req *BusinessHourRequest) (*models.StoreBusinessHour, error) {
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if !req.IsClosed {
		if req.OpenTime == nil || req.CloseTime == nil {
			return nil, ErrHoursIncomplete
		}
		if !req.OpenTime.Before(*req.CloseTime) {
			return nil, ErrInvalidTimeRange
		}
	}

	hour := &models.StoreBusinessHour{
		DayOfWeek: req.DayOfWeek,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		IsClosed:  req.IsClosed,
	}
	if hour.IsClosed {
		hour.OpenTime = nil
		hour.CloseTime = nil
	}

	if err := s.storeRepo.UpsertBusinessHour(ctx, hour); err != nil {
		return nil, err
	}
	return s.storeRepo.GetBusinessHour(ctx, req.DayOfWeek)
}

// SetWeeklyHours 批量设置整周营业时间
func (s *StoreService) SetWeeklyHours(ctx context.Context, reqs []*BusinessHourRequest) ([]*models.StoreBusinessHour, error) {
	for _, req := range reqs {
		if _, err := s.SetBusinessHour(ctx, req); err != nil {
			return nil, err
		}
	}
	return s.storeRepo.ListBusinessHours(ctx)
}

// GetWeeklyHours 获取整周营业时间，按星期几索引
//
// 未配置的日子不出现在结果中，调用方应视为不营业。
func (s *StoreService) GetWeeklyHours(ctx context.Context) (map[int]*models.StoreBusinessHour, error) {
	hours, err := s.storeRepo.ListBusinessHours(ctx)
	if err != nil {
		return nil, err
	}

	weekly := make(map[int]*models.StoreBusinessHour, len(hours))
	for _, hour := range hours {
		weekly[hour.DayOfWeek] = hour
	}
	return weekly, nil
}

// ==================== 营业状态 ====================

// IsOpen 判断门店在给定时刻是否营业
//
// 临时休业期间（含起止时刻）不营业；当天未配置或标记歇业不营业；
// 时刻落在开关门之间（含边界）则营业。
func (s *StoreService) IsOpen(ctx context.Context, at time.Time) (bool, error) {
	at = timeutil.Normalize(at)

	closed, err := s.storeRepo.HasClosureAt(ctx, at)
	if err != nil {
		return false, err
	}
	if closed {
		return false, nil
	}

	hour, err := s.storeRepo.GetBusinessHour(ctx, timeutil.Weekday(at))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return hourCovers(hour, timeutil.ClockOf(at)), nil
}

// NextOpenTime 返回严格晚于给定时刻的下一次开门时间
//
// 当前正在营业时返回的仍是之后的下一次开门；向后最多扫描 7 天，
// 一周内无任何营业时段返回 nil。
func (s *StoreService) NextOpenTime(ctx context.Context, from time.Time) (*time.Time, error) {
	from = timeutil.Normalize(from)

	weekly, err := s.GetWeeklyHours(ctx)
	if err != nil {
		return nil, err
	}

	for day := 0; day < nextOpenScanDays; day++ {
		date := timeutil.StartOfDay(from).AddDate(0, 0, day)
		hour, ok := weekly[timeutil.Weekday(date)]
		if !ok || hour.IsClosed || hour.OpenTime == nil || hour.CloseTime == nil {
			continue
		}

		candidate := timeutil.Combine(date, *hour.OpenTime)
		if candidate.Before(from) {
			candidate = from
		}
		closeAt := timeutil.Combine(date, *hour.CloseTime)

		// 落在临时休业内则顺延到休业结束之后，仍在当天营业时段内才算数
		for !candidate.After(closeAt) {
			closures, err := s.storeRepo.ListClosuresInRange(ctx, candidate, candidate)
			if err != nil {
				return nil, err
			}
			if len(closures) == 0 {
				// 此刻无休业即正在营业，开门时刻不晚于 from 时顺延到下一个营业日
				if candidate.After(from) {
					return &candidate, nil
				}
				break
			}
			for _, closure := range closures {
				after := timeutil.Normalize(closure.EndAt.Add(time.Second))
				if after.After(candidate) {
					candidate = after
				}
			}
		}
	}
	return nil, nil
}

// hourCovers 判断时刻是否落在营业时段内（含边界）
func hourCovers(hour *models.StoreBusinessHour, clock timeutil.ClockTime) bool {
	if hour.IsClosed || hour.OpenTime == nil || hour.CloseTime == nil {
		return false
	}
	return !clock.Before(*hour.OpenTime) && !clock.After(*hour.CloseTime)
}

// ==================== 临时休业 ====================

// ClosureRequest 临时休业请求
type ClosureRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
	Reason  *string   `json:"reason,omitempty"`
}

// CreateClosure 创建临时休业
func (s *StoreService) CreateClosure(ctx context.Context, req *ClosureRequest) (*models.StoreClosure, error) {
	start := timeutil.Normalize(req.StartAt)
	end := timeutil.Normalize(req.EndAt)
	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}

	closure := &models.StoreClosure{
		StartAt: start,
		EndAt:   end,
		Reason:  req.Reason,
	}
	if err := s.storeRepo.CreateClosure(ctx, closure); err != nil {
		return nil, err
	}
	return closure, nil
}

// DeleteClosure 删除临时休业
func (s *StoreService) DeleteClosure(ctx context.Context, id int64) error {
	err := s.storeRepo.DeleteClosure(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrClosureNotFound
	}
	return err
}

// ListClosures 分页查询临时休业
func (s *StoreService) ListClosures(ctx context.Context, page, pageSize int) ([]*models.StoreClosure, int64, error) {
	offset := (page - 1) * pageSize
	return s.storeRepo.ListClosures(ctx, offset, pageSize)
}
