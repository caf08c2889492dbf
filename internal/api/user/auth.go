package user

import (
	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService service.UserServiceInterface
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService service.UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService}
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var registerData struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=6"`
		UserType string `json:"userType" binding:"user_type"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation,
			"Please provide a name, a valid email and a password of at least 6 characters", err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Name:     registerData.Name,
		Email:    registerData.Email,
		Password: registerData.Password,
		UserType: model.UserType(registerData.UserType),
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleSuccess(c, http.StatusCreated, "Registration successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Please provide email and password", err))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), loginData.Email, loginData.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleSuccess(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 令牌加入黑名单直到过期
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.ContextToken)
	expiresAt, _ := c.Get(middleware.ContextTokenExpires)
	until, _ := expiresAt.(time.Time)

	if err := h.userService.Logout(c.Request.Context(), token, until); err != nil {
		errors.HandleError(c, err)
		return
	}
	util.Logger.Info("用户已登出", zap.Int64("user_id", c.GetInt64(middleware.ContextUserID)))
	errors.HandleSuccess(c, http.StatusOK, "Logged out successfully", nil)
}
