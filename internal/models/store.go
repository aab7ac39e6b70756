package models

import (
	"time"

	"github.com/linweihsiang/salon-booking-backend/internal/common/timeutil"
)

// StoreBusinessHour 门店营业时间
//
// 每个星期几一条记录；is_closed 为 true 或未设置开闭时间时当天不营业。
type StoreBusinessHour struct {
	ID        int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	DayOfWeek int                 `gorm:"not null;uniqueIndex" json:"day_of_week"`
	OpenTime  *timeutil.ClockTime `gorm:"type:varchar(5)" json:"open_time,omitempty"`
	CloseTime *timeutil.ClockTime `gorm:"type:varchar(5)" json:"close_time,omitempty"`
	IsClosed  bool                `gorm:"not null;default:false" json:"is_closed"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (StoreBusinessHour) TableName() string {
	return "store_business_hours"
}

// StoreClosure 门店临时休业
type StoreClosure struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StartAt   time.Time `gorm:"not null;index" json:"start_at"`
	EndAt     time.Time `gorm:"not null;index" json:"end_at"`
	Reason    *string   `gorm:"type:varchar(255)" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (StoreClosure) TableName() string {
	return "store_closures"
}
