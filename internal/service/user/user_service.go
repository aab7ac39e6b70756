// Package user 提供用户资料与角色管理服务
package user

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// UserService 用户服务
type UserService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, userRepo *repository.UserRepository) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
	}
}

// UserProfile 用户详情
type UserProfile struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         *string   `json:"name,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Image        *string   `json:"image,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	Notification bool      `json:"notification"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdateProfileRequest 更新用户资料请求，nil 字段表示不修改
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Image        *string `json:"image,omitempty"`
	Notification *bool   `json:"notification,omitempty"`
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfile(user), nil
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*UserProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Notification != nil {
		fields["notification"] = *req.Notification
	}
	if len(fields) == 0 {
		return s.toProfile(user), nil
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	user, err = s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfile(user), nil
}

// ==================== 第三方账号绑定 ====================

// BindGoogle 绑定 Google 账号
func (s *UserService) BindGoogle(ctx context.Context, userID int64, googleUID string) error {
	return s.bindExternal(ctx, userID, "google_uid", googleUID)
}

// UnbindGoogle 解绑 Google 账号
func (s *UserService) UnbindGoogle(ctx context.Context, userID int64) error {
	return s.unbindExternal(ctx, userID, "google_uid")
}

// BindLine 绑定 LINE 账号
func (s *UserService) BindLine(ctx context.Context, userID int64, lineUID string) error {
	return s.bindExternal(ctx, userID, "line_uid", lineUID)
}

// UnbindLine 解绑 LINE 账号
func (s *UserService) UnbindLine(ctx context.Context, userID int64) error {
	return s.unbindExternal(ctx, userID, "line_uid")
}

func (s *UserService) bindExternal(ctx context.Context, userID int64, column, uid string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if s.externalUID(user, column) != nil {
		return errors.ErrAccountBound
	}

	// 同一第三方账号不可绑定多个用户
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where(column+" = ?", uid).Count(&count).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrAccountBound
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{column: uid}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *UserService) unbindExternal(ctx context.Context, userID int64, column string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if s.externalUID(user, column) == nil {
		return errors.ErrAccountNotBound
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{column: nil}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *UserService) externalUID(user *models.User, column string) *string {
	if column == "google_uid" {
		return user.GoogleUID
	}
	return user.LineUID
}

// ==================== 管理端 ====================

// ListUsers 用户列表（管理端）
func (s *UserService) ListUsers(ctx context.Context, params repository.UserListParams) ([]*UserProfile, int64, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	profiles := make([]*UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, s.toProfile(u))
	}
	return profiles, total, nil
}

// SetRole 调整用户角色（管理端）
func (s *UserService) SetRole(ctx context.Context, userID int64, role string) error {
	if !models.IsValidRole(role) {
		return errors.ErrRoleInvalid
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"role": role}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// SetActive 启用或停用账号（管理端）
func (s *UserService) SetActive(ctx context.Context, userID int64, active bool) error {
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"is_active": active}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// ==================== 造型师 ====================

// StylistInfo 造型师公开信息
type StylistInfo struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// ListStylists 获取启用的造型师列表
func (s *UserService) ListStylists(ctx context.Context) ([]*StylistInfo, error) {
	stylists, err := s.userRepo.ListStylists(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	infos := make([]*StylistInfo, 0, len(stylists))
	for _, st := range stylists {
		infos = append(infos, &StylistInfo{ID: st.ID, Name: st.Name, Image: st.Image})
	}
	return infos, nil
}

// GetStylist 获取造型师公开信息
func (s *UserService) GetStylist(ctx context.Context, stylistID int64) (*StylistInfo, error) {
	user, err := s.getUser(ctx, stylistID)
	if err != nil {
		return nil, err
	}
	if !user.IsStylist() || !user.IsActive {
		return nil, errors.ErrNotStylist
	}
	return &StylistInfo{ID: user.ID, Name: user.Name, Image: user.Image}, nil
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

func (s *UserService) toProfile(user *models.User) *UserProfile {
	return &UserProfile{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Name:         user.Name,
		Phone:        user.Phone,
		Image:        user.Image,
		Role:         user.Role,
		IsActive:     user.IsActive,
		Notification: user.Notification,
		CreatedAt:    user.CreatedAt,
	}
}
