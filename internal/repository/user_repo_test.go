// Package repository 用户仓储单元测试
package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linweihsiang/salon-booking-backend/internal/models"
)

// setupUserTestDB 创建用户测试数据库
func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	require.NoError(t, err)

	return db
}

var userSeq int

func createTestUserForRepo(t *testing.T, db *gorm.DB, opts ...func(*models.User)) *models.User {
	t.Helper()

	userSeq++
	user := &models.User{
		Username:     fmt.Sprintf("user%d", userSeq),
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		PasswordHash: "hash",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}

	for _, opt := range opts {
		opt(user)
	}

	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		Username:     "newuser",
		Email:        "newuser@example.com",
		PasswordHash: "hash",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}

	err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUserForRepo(t, db, func(u *models.User) {
		u.Username = "alice"
	})

	t.Run("用户存在", func(t *testing.T) {
		found, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUserForRepo(t, db, func(u *models.User) {
		u.Email = "bob@example.com"
	})

	found, err := repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestUserRepository_GetByPhone(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	phone := "0912345678"
	created := createTestUserForRepo(t, db, func(u *models.User) {
		u.Phone = &phone
	})

	found, err := repo.GetByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestUserRepository_Exists(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUserForRepo(t, db, func(u *models.User) {
		u.Username = "taken"
		u.Email = "taken@example.com"
	})

	exists, err := repo.ExistsByUsername(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, "free")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "taken@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUserForRepo(t, db)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "newhash"))

	var found models.User
	db.First(&found, user.ID)
	assert.Equal(t, "newhash", found.PasswordHash)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUserForRepo(t, db)

	err := repo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"is_active": false,
		"role":      models.RoleStylist,
	})
	require.NoError(t, err)

	var found models.User
	db.First(&found, user.ID)
	assert.False(t, found.IsActive)
	assert.Equal(t, models.RoleStylist, found.Role)
}

func TestUserRepository_List(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUserForRepo(t, db, func(u *models.User) {
		u.Username = "stylist_amy"
		u.Role = models.RoleStylist
	})
	createTestUserForRepo(t, db, func(u *models.User) {
		u.Username = "customer_ben"
	})
	createTestUserForRepo(t, db, func(u *models.User) {
		u.Username = "inactive_cat"
		u.IsActive = false
	})

	t.Run("按角色过滤", func(t *testing.T) {
		users, total, err := repo.List(ctx, UserListParams{Offset: 0, Limit: 10, Role: models.RoleStylist})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "stylist_amy", users[0].Username)
	})

	t.Run("按启用状态过滤", func(t *testing.T) {
		active := false
		users, total, err := repo.List(ctx, UserListParams{Offset: 0, Limit: 10, IsActive: &active})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "inactive_cat", users[0].Username)
	})

	t.Run("按关键词过滤", func(t *testing.T) {
		_, total, err := repo.List(ctx, UserListParams{Offset: 0, Limit: 10, Keyword: "ben"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("分页", func(t *testing.T) {
		users, total, err := repo.List(ctx, UserListParams{Offset: 0, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, users, 2)
	})
}

func TestUserRepository_ListStylists(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUserForRepo(t, db, func(u *models.User) {
		u.Role = models.RoleStylist
	})
	createTestUserForRepo(t, db, func(u *models.User) {
		u.Role = models.RoleStylist
		u.IsActive = false
	})
	createTestUserForRepo(t, db)

	stylists, err := repo.ListStylists(ctx)
	require.NoError(t, err)
	assert.Len(t, stylists, 1)
}
