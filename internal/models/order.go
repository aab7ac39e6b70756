package models

import (
	"time"
)

// Order 订单模型
//
// 不变式：final_amount = total_amount - discount_amount，三者均不为负。
// 金额以分为单位存储。
type Order struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	AppointmentID  *int64    `gorm:"index" json:"appointment_id,omitempty"`
	CouponID       *int64    `gorm:"index" json:"coupon_id,omitempty"`
	TotalAmount    int64     `gorm:"not null;default:0" json:"total_amount"`
	DiscountAmount int64     `gorm:"not null;default:0" json:"discount_amount"`
	FinalAmount    int64     `gorm:"not null;default:0" json:"final_amount"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes          *string   `gorm:"type:varchar(500)" json:"notes,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User        *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Coupon      *Coupon       `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	Appointment *Appointment  `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Details     []OrderDetail `gorm:"foreignKey:OrderID" json:"details,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// 订单状态
const (
	OrderStatusPending   = "pending"   // 待处理
	OrderStatusPaid      = "paid"      // 已支付
	OrderStatusCompleted = "completed" // 已完成
	OrderStatusCancelled = "cancelled" // 已取消
)

// OrderDetail 订单明细
type OrderDetail struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64     `gorm:"index;not null" json:"order_id"`
	ProductID    int64     `gorm:"not null" json:"product_id"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	PricePerItem int64     `gorm:"not null" json:"price_per_item"`
	TotalPrice   int64     `gorm:"not null" json:"total_price"`
	Message      *string   `gorm:"type:varchar(255)" json:"message,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Order   *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 表名
func (OrderDetail) TableName() string {
	return "order_details"
}
