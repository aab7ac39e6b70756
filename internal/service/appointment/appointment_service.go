// Package appointment 提供预约相关服务
package appointment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/qrcode"
	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/common/utils"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	"github.com/linweihsiang/salon-booking-backend/internal/service/schedule"
	"github.com/linweihsiang/salon-booking-backend/internal/service/store"
)

// checkInCodeLength 到店码长度
const checkInCodeLength = 12

// AppointmentService 预约服务
//
// 创建与改期都要同时通过三道检查：门店营业、造型师可约、时段无冲突。
type AppointmentService struct {
	db          *gorm.DB
	apptRepo    *repository.AppointmentRepository
	scheduleSvc *schedule.ScheduleService
	storeSvc    *store.StoreService
	qr          *qrcode.Generator
}

// NewAppointmentService 创建预约服务
func NewAppointmentService(
	db *gorm.DB,
	apptRepo *repository.AppointmentRepository,
	scheduleSvc *schedule.ScheduleService,
	storeSvc *store.StoreService,
	qr *qrcode.Generator,
) *AppointmentService {
	return &AppointmentService{
		db:          db,
		apptRepo:    apptRepo,
		scheduleSvc: scheduleSvc,
		storeSvc:    storeSvc,
		qr:          qr,
	}
}

// CreateAppointmentRequest 创建预约请求
type CreateAppointmentRequest struct {
	UserID     int64
	StylistID  int64     `json:"stylist_id" binding:"required"`
	StartAt    time.Time `json:"start_at" binding:"required"`
	ServiceIDs []int64   `json:"service_ids" binding:"required,min=1"`
	Notes      *string   `json:"notes,omitempty"`
}

// Create 创建预约
//
// 结束时间由所选服务项目的时长合计推算。
func (s *AppointmentService) Create(ctx context.Context, req *CreateAppointmentRequest) (*models.Appointment, error) {
	start := timeutil.Normalize(req.StartAt)
	if start.Before(timeutil.Now()) {
		return nil, ErrPastTime
	}

	services, err := s.loadServices(ctx, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	end := start.Add(totalDuration(services))

	if err := s.checkBookable(ctx, req.StylistID, start, end, nil); err != nil {
		return nil, err
	}

	code := utils.GenerateCheckInCode(checkInCodeLength)
	appointment := &models.Appointment{
		UserID:      req.UserID,
		StylistID:   req.StylistID,
		StartAt:     start,
		EndAt:       end,
		Status:      models.AppointmentStatusPending,
		Notes:       req.Notes,
		CheckInCode: &code,
		Services:    services,
	}
	if err := s.apptRepo.Create(ctx, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// loadServices 加载并校验服务项目
func (s *AppointmentService) loadServices(ctx context.Context, serviceIDs []int64) ([]models.Product, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServices
	}

	// 重复传入的服务只计一次
	seen := make(map[int64]struct{}, len(serviceIDs))
	unique := make([]int64, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("id IN ?", unique).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	if len(products) != len(unique) {
		return nil, ErrNotService
	}

	for _, product := range products {
		if !product.IsService {
			return nil, ErrNotService
		}
		if !product.IsActive {
			return nil, ErrServiceInactive
		}
	}
	return products, nil
}

// totalDuration 合计服务项目时长
func totalDuration(services []models.Product) time.Duration {
	var minutes int
	for _, svc := range services {
		if svc.DurationTime != nil {
			minutes += *svc.DurationTime
		}
	}
	return time.Duration(minutes) * time.Minute
}

// CalculateResult 预约试算结果
type CalculateResult struct {
	TotalDuration int   `json:"total_duration"` // 分钟
	TotalAmount   int64 `json:"total_amount"`   // 分
}

// Calculate 试算一组服务项目的总时长与总金额
func (s *AppointmentService) Calculate(ctx context.Context, serviceIDs []int64) (*CalculateResult, error) {
	services, err := s.loadServices(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	result := &CalculateResult{
		TotalDuration: int(totalDuration(services) / time.Minute),
	}
	for _, svc := range services {
		result.TotalAmount += svc.Price
	}
	return result, nil
}

// checkBookable 预约时段三道检查：门店营业、造型师可约、无时段冲突
func (s *AppointmentService) checkBookable(ctx context.Context, stylistID int64, start, end time.Time, excludeID *int64) error {
	open, err := s.storeSvc.IsOpen(ctx, start)
	if err != nil {
		return err
	}
	if !open {
		return ErrStoreClosed
	}

	for _, at := range []time.Time{start, end} {
		available, err := s.scheduleSvc.IsStylistAvailable(ctx, stylistID, at)
		if err != nil {
			return err
		}
		if !available {
			return ErrStylistUnavailable
		}
	}

	conflict, err := s.scheduleSvc.HasAppointmentConflict(ctx, stylistID, start, end, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return ErrTimeConflict
	}
	return nil
}

// GetByID 获取预约详情
func (s *AppointmentService) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	appointment, err := s.apptRepo.GetByIDWithUsers(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appointment, nil
}

// AppointmentListRequest 预约列表请求
type AppointmentListRequest struct {
	Page      int
	PageSize  int
	UserID    *int64
	StylistID *int64
	Status    string
	From      *time.Time
	To        *time.Time
}

// AppointmentListResponse 预约列表响应
type AppointmentListResponse struct {
	List  []*models.Appointment `json:"list"`
	Total int64                 `json:"total"`
}

// List 分页查询预约列表
func (s *AppointmentService) List(ctx context.Context, req *AppointmentListRequest) (*AppointmentListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	items, total, err := s.apptRepo.List(ctx, repository.AppointmentListParams{
		Offset:    offset,
		Limit:     req.PageSize,
		UserID:    req.UserID,
		StylistID: req.StylistID,
		Status:    req.Status,
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, err
	}
	return &AppointmentListResponse{List: items, Total: total}, nil
}

// 状态机：每个状态允许的下一个状态
var allowedTransitions = map[string][]string{
	models.AppointmentStatusPending:    {models.AppointmentStatusConfirmed, models.AppointmentStatusCancelled},
	models.AppointmentStatusConfirmed:  {models.AppointmentStatusInProgress, models.AppointmentStatusCancelled, models.AppointmentStatusNoShow},
	models.AppointmentStatusInProgress: {models.AppointmentStatusCompleted},
}

// UpdateStatus 变更预约状态
func (s *AppointmentService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Appointment, error) {
	appointment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(appointment.Status, status) {
		return nil, ErrInvalidTransition
	}

	if err := s.apptRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appointment.Status = status
	return appointment, nil
}

// Confirm 确认预约
func (s *AppointmentService) Confirm(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.AppointmentStatusConfirmed)
}

// Cancel 取消预约
func (s *AppointmentService) Cancel(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.AppointmentStatusCancelled)
}

// Complete 完成服务
func (s *AppointmentService) Complete(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.AppointmentStatusCompleted)
}

// MarkNoShow 标记未到店
func (s *AppointmentService) MarkNoShow(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.AppointmentStatusNoShow)
}

// Reschedule 预约改期
//
// 结束时间按原服务项目时长重新推算，改期同样要通过三道检查，
// 冲突判定排除预约自身。
func (s *AppointmentService) Reschedule(ctx context.Context, id int64, newStart time.Time) (*models.Appointment, error) {
	appointment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentStatusPending && appointment.Status != models.AppointmentStatusConfirmed {
		return nil, ErrInvalidTransition
	}

	start := timeutil.Normalize(newStart)
	if start.Before(timeutil.Now()) {
		return nil, ErrPastTime
	}
	end := start.Add(totalDuration(appointment.Services))

	if err := s.checkBookable(ctx, appointment.StylistID, start, end, &id); err != nil {
		return nil, err
	}

	err = s.apptRepo.UpdateFields(ctx, id, map[string]interface{}{
		"start_at": start,
		"end_at":   end,
	})
	if err != nil {
		return nil, err
	}
	appointment.StartAt = start
	appointment.EndAt = end
	return appointment, nil
}

// CheckIn 凭到店码报到，预约进入服务中
func (s *AppointmentService) CheckIn(ctx context.Context, code string) (*models.Appointment, error) {
	appointment, err := s.apptRepo.GetByCheckInCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckInCodeInvalid
		}
		return nil, err
	}
	if appointment.Status != models.AppointmentStatusConfirmed {
		return nil, ErrNotConfirmed
	}

	if err := s.apptRepo.UpdateStatus(ctx, appointment.ID, models.AppointmentStatusInProgress); err != nil {
		return nil, err
	}
	appointment.Status = models.AppointmentStatusInProgress
	return appointment, nil
}

// CheckInQRCode 生成到店码二维码，返回 data URL
func (s *AppointmentService) CheckInQRCode(ctx context.Context, id, userID int64) (string, error) {
	appointment, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if appointment.UserID != userID {
		return "", ErrAppointmentNotFound
	}
	if appointment.CheckInCode == nil {
		return "", ErrCheckInCodeInvalid
	}
	return s.qr.GenerateDataURL(*appointment.CheckInCode)
}

// ListUpcoming 查询提醒窗口内即将开始的已确认预约
func (s *AppointmentService) ListUpcoming(ctx context.Context, window time.Duration) ([]*models.Appointment, error) {
	now := timeutil.Now()
	return s.apptRepo.ListUpcoming(ctx, now, now.Add(window))
}

// transitionAllowed 判断状态变更是否合法
func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
