package models

import (
	"time"
)

// Appointment 预约模型
//
// 时段为半开区间 [start_at, end_at)；
// 仅 confirmed 与 in_progress 状态参与冲突判定。
type Appointment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	StylistID   int64     `gorm:"index;not null" json:"stylist_id"`
	StartAt     time.Time `gorm:"not null;index" json:"start_at"`
	EndAt       time.Time `gorm:"not null" json:"end_at"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes       *string   `gorm:"type:varchar(500)" json:"notes,omitempty"`
	CheckInCode *string   `gorm:"type:varchar(32);uniqueIndex" json:"check_in_code,omitempty"`

	// ReminderSentAt 提醒短信发送时间，避免重复提醒
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Stylist  *User     `gorm:"foreignKey:StylistID" json:"stylist,omitempty"`
	Services []Product `gorm:"many2many:appointment_services" json:"services,omitempty"`
}

// TableName 表名
func (Appointment) TableName() string {
	return "appointments"
}

// 预约状态
const (
	AppointmentStatusPending    = "pending"     // 待确认
	AppointmentStatusConfirmed  = "confirmed"   // 已确认
	AppointmentStatusInProgress = "in_progress" // 服务中
	AppointmentStatusCompleted  = "completed"   // 已完成
	AppointmentStatusCancelled  = "cancelled"   // 已取消
	AppointmentStatusNoShow     = "no_show"     // 未到店
)

// ConflictStatuses 参与时段冲突判定的状态
func ConflictStatuses() []string {
	return []string{AppointmentStatusConfirmed, AppointmentStatusInProgress}
}
