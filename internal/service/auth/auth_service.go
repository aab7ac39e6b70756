// Package auth 提供认证服务
package auth

import (
	"context"

	"gorm.io/gorm"

	"github.com/linweihsiang/salon-booking-backend/internal/common/crypto"
	"github.com/linweihsiang/salon-booking-backend/internal/common/errors"
	"github.com/linweihsiang/salon-booking-backend/internal/common/jwt"
	"github.com/linweihsiang/salon-booking-backend/internal/models"
	"github.com/linweihsiang/salon-booking-backend/internal/repository"
)

// AuthService 认证服务
type AuthService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	jwtManager  *jwt.Manager
	codeService *CodeService
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	jwtManager *jwt.Manager,
	codeService *CodeService,
) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		codeService: codeService,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest 登录请求，account 可为用户名或邮箱
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Image    *string `json:"image,omitempty"`
	Role     string  `json:"role"`
}

// Register 注册新顾客账号
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrUserExists
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         models.RoleCustomer,
		IsActive:     true,
		Notification: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return s.buildLoginResponse(user)
}

// Login 用户名/邮箱 + 密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.findByAccount(ctx, req.Account)
	if err != nil {
		return nil, err
	}

	if !crypto.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if !user.IsActive {
		return nil, errors.ErrAccountDisabled
	}

	return s.buildLoginResponse(user)
}

// findByAccount 按用户名查找，找不到再按邮箱查找
func (s *AuthService) findByAccount(ctx context.Context, account string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, account)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	user, err = s.userRepo.GetByEmail(ctx, account)
	if err == nil {
		return user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return nil, errors.ErrUserNotFound
}

// buildLoginResponse 生成 Token 并组装登录响应
func (s *AuthService) buildLoginResponse(user *models.User) (*LoginResponse, error) {
	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
	}, nil
}

// toUserInfo 转换为用户信息
func (s *AuthService) toUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		Phone:    user.Phone,
		Image:    user.Image,
		Role:     user.Role,
	}
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}
	return tokenPair, nil
}

// ChangePassword 修改密码（需验证旧密码）
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(oldPassword, user.PasswordHash) {
		return errors.ErrPasswordError
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// SendResetCode 发送重置密码短信验证码
func (s *AuthService) SendResetCode(ctx context.Context, phone string) error {
	if _, err := s.userRepo.GetByPhone(ctx, phone); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := s.codeService.SendCode(ctx, phone, CodeTypeReset); err != nil {
		return errors.Wrap(errors.ErrSmsSendFail.Code, err.Error(), err)
	}
	return nil
}

// ResetPassword 通过短信验证码重置密码
func (s *AuthService) ResetPassword(ctx context.Context, phone, code, newPassword string) error {
	valid, err := s.codeService.VerifyCode(ctx, phone, code, CodeTypeReset)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if !valid {
		return errors.ErrCodeError
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}
