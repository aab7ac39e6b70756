package models

import (
	"time"
)

// Coupon 优惠券模型
//
// percentage 类型的 discount_value 为万分比（10000 = 100%），
// fixed 类型为固定减免金额（分）。金额字段均以分为单位。
type Coupon struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code              string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name              string     `gorm:"type:varchar(100);not null" json:"name"`
	DiscountType      string     `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue     int64      `gorm:"not null" json:"discount_value"`
	MinOrderAmount    *int64     `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty"`
	UsedCount         int        `gorm:"not null;default:0" json:"used_count"`
	IsActive          bool       `gorm:"not null;default:true;index" json:"is_active"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Coupon) TableName() string {
	return "coupons"
}

// 优惠券折扣类型
const (
	DiscountTypePercentage = "percentage" // 按比例折扣
	DiscountTypeFixed      = "fixed"      // 固定金额减免
)
