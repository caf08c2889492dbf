package user

import (
	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProfileHandler 当前登录用户的资料
type ProfileHandler struct {
	userService service.UserServiceInterface
}

func NewProfileHandler(userService service.UserServiceInterface) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// GetProfile 获取当前用户
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.GetInt64(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"user": user})
}

// UpdateProfile 只更新 name、phone、address
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var updateData struct {
		Name    string         `json:"name" binding:"max=100"`
		Phone   string         `json:"phone" binding:"max=20"`
		Address *model.Address `json:"address"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid profile data", err))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.GetInt64(middleware.ContextUserID), service.ProfileUpdate{
		Name:    updateData.Name,
		Phone:   updateData.Phone,
		Address: updateData.Address,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

// ChangePassword 修改密码
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var passwordData struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&passwordData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation,
			"Please provide the current password and a new password of at least 6 characters", err))
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), c.GetInt64(middleware.ContextUserID),
		passwordData.CurrentPassword, passwordData.NewPassword)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "Password changed successfully", nil)
}
