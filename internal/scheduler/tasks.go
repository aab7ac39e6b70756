// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/metrics"
	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
	marketingService "github.com/linweihsiang/salon-booking-backend/internal/service/marketing"
	orderService "github.com/linweihsiang/salon-booking-backend/internal/service/order"
	"github.com/linweihsiang/salon-booking-backend/pkg/sms"
)

// 提醒窗口：开始前两小时内的已确认预约发送提醒短信
const reminderWindow = 2 * time.Hour

// TaskHandler 任务处理器
type TaskHandler struct {
	db            *gorm.DB
	apptRepo      *repository.AppointmentRepository
	couponService *marketingService.CouponService
	orderService  *orderService.OrderService
	smsSender     sms.Sender
	metrics       *metrics.Metrics
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	db *gorm.DB,
	apptRepo *repository.AppointmentRepository,
	couponSvc *marketingService.CouponService,
	orderSvc *orderService.OrderService,
	smsSender sms.Sender,
	m *metrics.Metrics,
) *TaskHandler {
	return &TaskHandler{
		db:            db,
		apptRepo:      apptRepo,
		couponService: couponSvc,
		orderService:  orderSvc,
		smsSender:     smsSender,
		metrics:       m,
	}
}

// DeactivateExpiredCoupons 停用已过期的优惠券
func (h *TaskHandler) DeactivateExpiredCoupons(ctx context.Context) error {
	count, err := h.couponService.DeactivateExpired(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Printf("[Task] Deactivated %d expired coupons", count)
	}

	return nil
}

// SendAppointmentReminders 发送预约提醒短信
func (h *TaskHandler) SendAppointmentReminders(ctx context.Context) error {
	if h.smsSender == nil {
		return nil
	}

	now := timeutil.Now()
	appointments, err := h.apptRepo.ListUpcoming(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return err
	}

	if len(appointments) == 0 {
		return nil
	}

	log.Printf("[Task] Found %d appointments to remind", len(appointments))

	for _, appt := range appointments {
		// 未开启通知或缺少手机号的用户跳过，但仍标记已处理避免重复扫描
		if appt.User != nil && appt.User.Notification && appt.User.Phone != "" {
			params := map[string]string{
				"time": timeutil.Normalize(appt.StartAt).Format("01月02日 15:04"),
			}
			if err := h.smsSender.SendNotification(ctx, appt.User.Phone, sms.TemplateCodeRemind, params); err != nil {
				log.Printf("[Task] Failed to send reminder for appointment %d: %v", appt.ID, err)
				if h.metrics != nil {
					h.metrics.RecordSMSSent(string(sms.TemplateCodeRemind), "fail")
				}
				continue
			}
			if h.metrics != nil {
				h.metrics.RecordSMSSent(string(sms.TemplateCodeRemind), "success")
			}
		}

		if err := h.apptRepo.MarkReminded(ctx, appt.ID, now); err != nil {
			log.Printf("[Task] Failed to mark appointment %d reminded: %v", appt.ID, err)
		}
	}

	return nil
}

// MarkNoShowAppointments 将超时未到店的已确认预约标记为未到店
func (h *TaskHandler) MarkNoShowAppointments(ctx context.Context) error {
	// 结束后 30 分钟仍未开始服务视为未到店
	cutoff := timeutil.Now().Add(-30 * time.Minute)

	result := h.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("status = ?", models.AppointmentStatusConfirmed).
		Where("end_at < ?", cutoff).
		Update("status", models.AppointmentStatusNoShow)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("[Task] Marked %d appointments as no-show", result.RowsAffected)
	}

	return nil
}

// CancelStalePendingOrders 取消长时间未支付的订单
func (h *TaskHandler) CancelStalePendingOrders(ctx context.Context) error {
	staleBefore := time.Now().Add(-24 * time.Hour) // 24小时未支付自动取消

	var orders []*models.Order
	err := h.db.WithContext(ctx).
		Where("status = ?", models.OrderStatusPending).
		Where("created_at < ?", staleBefore).
		Limit(100).
		Find(&orders).Error
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		return nil
	}

	log.Printf("[Task] Found %d stale pending orders to cancel", len(orders))

	for _, order := range orders {
		// 经由服务层取消以回补优惠券使用次数
		if _, err := h.orderService.Cancel(ctx, order.ID); err != nil {
			log.Printf("[Task] Failed to cancel order %d: %v", order.ID, err)
		}
	}

	return nil
}

// SetupTasks 设置所有任务
func SetupTasks(scheduler *Scheduler, handler *TaskHandler) {
	// 每小时停用过期优惠券
	scheduler.AddTask("DeactivateExpiredCoupons", 1*time.Hour, handler.DeactivateExpiredCoupons)

	// 每五分钟发送预约提醒
	scheduler.AddTask("SendAppointmentReminders", 5*time.Minute, handler.SendAppointmentReminders)

	// 每五分钟标记未到店预约
	scheduler.AddTask("MarkNoShowAppointments", 5*time.Minute, handler.MarkNoShowAppointments)

	// 每十分钟取消过期未支付订单
	scheduler.AddTask("CancelStalePendingOrders", 10*time.Minute, handler.CancelStalePendingOrders)
}
