// Package schedule 提供排班、休假与可用时段服务
package schedule

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// ScheduleService 排班服务
//
// 所有时间先规范化到 UTC+8 再参与判断：
// 排班的起止时刻为闭区间，已批准休假的起止时间同样按闭区间处理，
// 预约时段为半开区间 [start, end)。
type ScheduleService struct {
	scheduleRepo    *repository.ScheduleRepository
	appointmentRepo *repository.AppointmentRepository
}

// NewScheduleService 创建排班服务
func NewScheduleService(scheduleRepo *repository.ScheduleRepository, appointmentRepo *repository.AppointmentRepository) *ScheduleService {
	return &ScheduleService{
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
	}
}

// ==================== 每周排班 ====================

// UpsertSchedule 设置造型师某个星期几的排班（已存在则覆盖）
func (s *ScheduleService) UpsertSchedule(ctx context.Context, stylistID int64, dayOfWeek int, start, end timeutil.ClockTime) (*models.StylistSchedule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}

	schedule := &models.StylistSchedule{
		StylistID: stylistID,
		DayOfWeek: dayOfWeek,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.scheduleRepo.UpsertSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetSchedule(ctx, stylistID, dayOfWeek)
}

// GetWeeklySchedule 获取造型师整周排班
func (s *ScheduleService) GetWeeklySchedule(ctx context.Context, stylistID int64) ([]*models.StylistSchedule, error) {
	return s.scheduleRepo.ListSchedules(ctx, stylistID)
}

// HasSchedule 判断造型师某个星期几是否已有排班
func (s *ScheduleService) HasSchedule(ctx context.Context, stylistID int64, dayOfWeek int) (bool, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return false, ErrInvalidDayOfWeek
	}
	return s.scheduleRepo.ExistsSchedule(ctx, stylistID, dayOfWeek)
}

// ScheduleConflict 排班冲突检查结果
type ScheduleConflict struct {
	HasConflict bool   `json:"has_conflict"`
	Message     string `json:"message,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// CheckScheduleConflicts 检查造型师某个星期几是否已有排班
func (s *ScheduleService) CheckScheduleConflicts(ctx context.Context, stylistID int64, dayOfWeek int) (*ScheduleConflict, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}

	existing, err := s.scheduleRepo.GetSchedule(ctx, stylistID, dayOfWeek)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ScheduleConflict{}, nil
		}
		return nil, err
	}

	return &ScheduleConflict{
		HasConflict: true,
		Message:     "该日已有排班 " + existing.StartTime.String() + "-" + existing.EndTime.String(),
		Suggestion:  "可直接覆盖更新，或先删除当日排班",
	}, nil
}

// DeleteSchedule 删除造型师某个星期几的排班
func (s *ScheduleService) DeleteSchedule(ctx context.Context, stylistID int64, dayOfWeek int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	err := s.scheduleRepo.DeleteSchedule(ctx, stylistID, dayOfWeek)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrScheduleNotFound
	}
	return err
}

// ==================== 可用性判断 ====================

// IsStylistAvailable 判断造型师在给定时刻是否可约
//
// 已批准休假期间（含起止时刻）不可约；当天无排班不可约；
// 时刻落在排班起止之间（含边界）则可约。
func (s *ScheduleService) IsStylistAvailable(ctx context.Context, stylistID int64, at time.Time) (bool, error) {
	at = timeutil.Normalize(at)

	onLeave, err := s.scheduleRepo.HasApprovedTimeOffAt(ctx, stylistID, at)
	if err != nil {
		return false, err
	}
	if onLeave {
		return false, nil
	}

	schedule, err := s.scheduleRepo.GetSchedule(ctx, stylistID, timeutil.Weekday(at))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	clock := timeutil.ClockOf(at)
	return !clock.Before(schedule.StartTime) && !clock.After(schedule.EndTime), nil
}

// Slot 可预约时段
type Slot struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// GetAvailableSlots 枚举造型师某天的可预约时段
//
// 从排班开始时刻按 step 步进，保留结束不晚于排班下班时刻、
// 且与已批准休假和已确认预约均无重叠的时段。
// step 缺省等于 duration，铺出的时段首尾相接互不重叠。
func (s *ScheduleService) GetAvailableSlots(ctx context.Context, stylistID int64, date time.Time, duration, step time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if step <= 0 {
		step = duration
	}

	schedule, err := s.scheduleRepo.GetSchedule(ctx, stylistID, timeutil.Weekday(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []Slot{}, nil
		}
		return nil, err
	}

	day := timeutil.StartOfDay(date)
	dayEnd := day.Add(24 * time.Hour)

	timeOffs, err := s.scheduleRepo.ListApprovedTimeOffInRange(ctx, stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointmentRepo.ListByStylistInRange(ctx, stylistID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	slots := []Slot{}
	for clock := schedule.StartTime; !clock.Add(duration).After(schedule.EndTime); clock = clock.Add(step) {
		start := timeutil.Combine(day, clock)
		end := start.Add(duration)

		if slotBlocked(start, end, timeOffs, appointments) {
			continue
		}
		slots = append(slots, Slot{StartAt: start, EndAt: end})
	}
	return slots, nil
}

// slotBlocked 判断时段是否被休假或预约占用
func slotBlocked(start, end time.Time, timeOffs []*models.StylistTimeOff, appointments []*models.Appointment) bool {
	for _, off := range timeOffs {
		// 休假为闭区间，时段为半开区间
		if off.StartAt.Before(end) && !off.EndAt.Before(start) {
			return true
		}
	}
	for _, appt := range appointments {
		if appt.StartAt.Before(end) && appt.EndAt.After(start) {
			return true
		}
	}
	return false
}

// HasAppointmentConflict 判断时段是否与既有预约冲突
//
// 仅 confirmed、in_progress 状态参与判定；首尾相接不算冲突。
func (s *ScheduleService) HasAppointmentConflict(ctx context.Context, stylistID int64, start, end time.Time, excludeID *int64) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidTimeRange
	}
	conflicts, err := s.appointmentRepo.FindConflicts(ctx, stylistID, timeutil.Normalize(start), timeutil.Normalize(end), excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// ==================== 休假申请 ====================

// RequestTimeOff 提交休假申请
func (s *ScheduleService) RequestTimeOff(ctx context.Context, stylistID int64, start, end time.Time, reason *string) (*models.StylistTimeOff, error) {
	start = timeutil.Normalize(start)
	end = timeutil.Normalize(end)
	if !start.Before(end) {
		return nil, ErrInvalidTimeRange
	}

	timeOff := &models.StylistTimeOff{
		StylistID: stylistID,
		StartAt:   start,
		EndAt:     end,
		Reason:    reason,
		Status:    models.TimeOffStatusPending,
	}
	if err := s.scheduleRepo.CreateTimeOff(ctx, timeOff); err != nil {
		return nil, err
	}
	return timeOff, nil
}

// ReviewTimeOff 审批休假申请
func (s *ScheduleService) ReviewTimeOff(ctx context.Context, id int64, approve bool) (*models.StylistTimeOff, error) {
	timeOff, err := s.scheduleRepo.GetTimeOffByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeOffNotFound
		}
		return nil, err
	}
	if timeOff.Status != models.TimeOffStatusPending {
		return nil, ErrTimeOffNotPending
	}

	status := models.TimeOffStatusRejected
	if approve {
		status = models.TimeOffStatusApproved
	}
	if err := s.scheduleRepo.UpdateTimeOffStatus(ctx, id, status); err != nil {
		return nil, err
	}
	timeOff.Status = status
	return timeOff, nil
}

// CancelTimeOff 撤回休假申请（仅限待审批）
func (s *ScheduleService) CancelTimeOff(ctx context.Context, id, stylistID int64) error {
	timeOff, err := s.scheduleRepo.GetTimeOffByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimeOffNotFound
		}
		return err
	}
	if timeOff.StylistID != stylistID {
		return ErrTimeOffNotFound
	}
	if timeOff.Status != models.TimeOffStatusPending {
		return ErrTimeOffNotPending
	}
	return s.scheduleRepo.DeleteTimeOff(ctx, id)
}

// TimeOffListRequest 休假列表请求
type TimeOffListRequest struct {
	Page      int
	PageSize  int
	StylistID *int64
	Status    string
	From      *time.Time
	To        *time.Time
}

// TimeOffListResponse 休假列表响应
type TimeOffListResponse struct {
	List  []*models.StylistTimeOff `json:"list"`
	Total int64                    `json:"total"`
}

// ListTimeOff 分页查询休假申请
func (s *ScheduleService) ListTimeOff(ctx context.Context, req *TimeOffListRequest) (*TimeOffListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	items, total, err := s.scheduleRepo.ListTimeOff(ctx, repository.TimeOffListParams{
		Offset:    offset,
		Limit:     req.PageSize,
		StylistID: req.StylistID,
		Status:    req.Status,
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, err
	}
	return &TimeOffListResponse{List: items, Total: total}, nil
}
