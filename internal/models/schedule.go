package models

import (
	"time"

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
)

// StylistSchedule 造型师每周排班
//
// day_of_week 采用 0=周日 .. 6=周六 编码，
// 每位造型师每个星期几至多一条记录。
type StylistSchedule struct {
	ID        int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	StylistID int64              `gorm:"not null;uniqueIndex:uq_stylist_day" json:"stylist_id"`
	DayOfWeek int                `gorm:"not null;uniqueIndex:uq_stylist_day" json:"day_of_week"`
	StartTime timeutil.ClockTime `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   timeutil.ClockTime `gorm:"type:varchar(5);not null" json:"end_time"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Stylist *User `gorm:"foreignKey:StylistID" json:"stylist,omitempty"`
}

// TableName 表名
func (StylistSchedule) TableName() string {
	return "stylist_schedules"
}

// StylistTimeOff 造型师休假申请
//
// 仅 approved 状态的休假会阻断可用性判断。
type StylistTimeOff struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StylistID int64     `gorm:"index;not null" json:"stylist_id"`
	StartAt   time.Time `gorm:"not null" json:"start_at"`
	EndAt     time.Time `gorm:"not null" json:"end_at"`
	Reason    *string   `gorm:"type:varchar(255)" json:"reason,omitempty"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Stylist *User `gorm:"foreignKey:StylistID" json:"stylist,omitempty"`
}

// TableName 表名
func (StylistTimeOff) TableName() string {
	return "stylist_time_off"
}

// 休假申请状态
const (
	TimeOffStatusPending  = "pending"  // 待审批
	TimeOffStatusApproved = "approved" // 已批准
	TimeOffStatusRejected = "rejected" // 已驳回
)
