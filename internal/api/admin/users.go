package admin

import (
	"donation-backend/internal/api"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 用户管理
func (h *AdminHandler) GetUsers(c *gin.Context) {
	p := util.ParsePagination(c, defaultPageLimit)
	filter := interfaces.UserFilter{
		UserType: model.UserType(c.Query("userType")),
		Status:   model.UserStatus(c.Query("status")),
		Search:   c.Query("search"),
	}

	page, err := h.adminService.ListUsers(c.Request.Context(), filter, p)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	payload := p.Meta(len(page.Items), page.Total)
	payload["users"] = page.Items
	errors.HandleSuccess(c, http.StatusOK, "", payload)
}

func (h *AdminHandler) GetUserDetail(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.adminService.GetUserDetail(c.Request.Context(), id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{
		"user":      detail.User,
		"donations": detail.Donations,
		"payments":  detail.Payments,
	})
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid user status", err))
		return
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), id, model.UserStatus(input.Status))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "User status updated", gin.H{"user": user})
}
