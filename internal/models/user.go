// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型
//
// 顾客、造型师与管理员共用一张表，以 role 区分。
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Name         *string   `gorm:"type:varchar(50)" json:"name,omitempty"`
	Phone        *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Image        *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	GoogleUID    *string   `gorm:"type:varchar(100);index" json:"google_uid,omitempty"`
	LineUID      *string   `gorm:"type:varchar(100);index" json:"line_uid,omitempty"`
	Notification bool      `gorm:"not null;default:true" json:"notification"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// 用户角色
const (
	RoleCustomer = "customer" // 顾客
	RoleStylist  = "stylist"  // 造型师
	RoleAdmin    = "admin"    // 管理员
)

// IsValidRole 判断角色是否合法
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleStylist, RoleAdmin:
		return true
	}
	return false
}

// IsStylist 判断是否为造型师
func (u *User) IsStylist() bool {
	return u.Role == RoleStylist
}

// IsAdmin 判断是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
