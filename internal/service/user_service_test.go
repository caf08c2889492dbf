package service

import (
	"context"
	"donation-backend/internal/cache"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// TestRegister 测试用户注册功能
func TestRegister(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, cache.NewMemoryTokenBlacklist())

	mockRepo.On("FindByEmail", ctx, "asha@example.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 11
	})

	user, err := service.Register(ctx, RegisterInput{Name: " Asha ", Email: "Asha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), user.ID)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, model.UserTypeIndividual, user.UserType)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, model.UserStatusActive, user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	mockRepo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, cache.NewMemoryTokenBlacklist())

	// 已存在
	mockRepo.On("FindByEmail", ctx, "taken@example.com").Return(&model.User{ID: 1}, nil)
	_, err := service.Register(ctx, RegisterInput{Name: "A", Email: "taken@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, errors.ErrResourceExists))

	// 并发注册，唯一键冲突
	mockRepo.On("FindByEmail", ctx, "race@example.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(interfaces.ErrDuplicate)
	_, err = service.Register(ctx, RegisterInput{Name: "B", Email: "race@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "User already exists with this email", messageOf(err))
}

// TestLogin 测试用户登录功能
func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, cache.NewMemoryTokenBlacklist())

	active := &model.User{ID: 1, Email: "a@example.com", PasswordHash: hashed(t, "secret1"), Status: model.UserStatusActive}
	suspended := &model.User{ID: 2, Email: "s@example.com", PasswordHash: hashed(t, "secret1"), Status: model.UserStatusSuspended}
	mockRepo.On("FindByEmail", ctx, "a@example.com").Return(active, nil)
	mockRepo.On("FindByEmail", ctx, "s@example.com").Return(suspended, nil)
	mockRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)

	user, err := service.Login(ctx, "A@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = service.Login(ctx, "a@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	_, err = service.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	// 密码错误时不暴露封禁状态
	_, err = service.Login(ctx, "s@example.com", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
	_, err = service.Login(ctx, "s@example.com", "secret1")
	assert.True(t, errors.Is(err, errors.ErrAccountSuspended))
}

// TestUpdateProfile 测试更新用户资料功能
func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, cache.NewMemoryTokenBlacklist())

	mockRepo.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1, Name: "Old", Phone: "111"}, nil)
	mockRepo.On("FindByID", ctx, int64(999)).Return(nil, nil)
	mockRepo.On("UpdateProfile", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	user, err := service.UpdateProfile(ctx, 1, ProfileUpdate{Name: "New", Address: &model.Address{City: "Pune"}})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
	assert.Equal(t, "111", user.Phone)
	assert.Equal(t, "Pune", user.Address.City)

	_, err = service.UpdateProfile(ctx, 999, ProfileUpdate{Name: "x"})
	assert.True(t, errors.Is(err, errors.ErrResourceNotFound))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, cache.NewMemoryTokenBlacklist())

	mockRepo.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1, PasswordHash: hashed(t, "secret1")}, nil)
	mockRepo.On("UpdatePassword", ctx, int64(1), mock.AnythingOfType("string")).Return(nil)

	err := service.ChangePassword(ctx, 1, "wrong", "secret2")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
	assert.Equal(t, "Current password is incorrect", messageOf(err))
	mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, service.ChangePassword(ctx, 1, "secret1", "secret2"))
	newHash := mockRepo.Calls[len(mockRepo.Calls)-1].Arguments.String(2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("secret2")))
}

func TestLogoutBlacklistsToken(t *testing.T) {
	ctx := context.Background()
	service := NewUserService(new(MockUserRepository), cache.NewMemoryTokenBlacklist())

	assert.False(t, service.IsTokenBlacklisted(ctx, "tok"))
	require.NoError(t, service.Logout(ctx, "tok", time.Now().Add(time.Hour)))
	assert.True(t, service.IsTokenBlacklisted(ctx, "tok"))
	assert.False(t, service.IsTokenBlacklisted(ctx, "other"))
}
