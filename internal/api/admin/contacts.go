package admin

import (
	"donation-backend/internal/api"
	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 工单管理
func (h *AdminHandler) GetContacts(c *gin.Context) {
	p := util.ParsePagination(c, defaultPageLimit)
	filter := interfaces.ContactFilter{
		Status:  model.ContactStatus(c.Query("status")),
		Subject: model.ContactSubject(c.Query("subject")),
	}

	page, err := h.contactService.AdminList(c.Request.Context(), filter, p)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	payload := p.Meta(len(page.Items), page.Total)
	payload["contacts"] = page.Items
	errors.HandleSuccess(c, http.StatusOK, "", payload)
}

func (h *AdminHandler) UpdateContact(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status          string `json:"status"`
		ResponseMessage string `json:"responseMessage" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid contact update", err))
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), id, c.GetInt64(middleware.ContextUserID), service.ContactUpdate{
		Status:          model.ContactStatus(input.Status),
		ResponseMessage: input.ResponseMessage,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "Contact inquiry updated", gin.H{"contact": contact})
}
