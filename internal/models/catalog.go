package models

import (
	"time"
)

// Product 商品模型
//
// is_service 为 true 时表示服务项目（剪发、染发等），
// duration_time 为该服务所需分钟数；零售商品无时长。
// 金额以分为单位存储。
type Product struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Description   *string   `gorm:"type:varchar(500)" json:"description,omitempty"`
	Price         int64     `gorm:"not null" json:"price"`
	DurationTime  *int      `json:"duration_time,omitempty"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	Image         *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	IsService     bool      `gorm:"not null;default:false;index" json:"is_service"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}
