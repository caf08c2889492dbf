package contact

import (
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContactHandler 公开的联系表单接口，不需要登录
type ContactHandler struct {
	contactService service.ContactServiceInterface
}

func NewContactHandler(contactService service.ContactServiceInterface) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var input struct {
		Name    string `json:"name" binding:"max=100"`
		Email   string `json:"email" binding:"omitempty,email,max=255"`
		Subject string `json:"subject"`
		Message string `json:"message" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("提交工单失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation,
			"Please provide a valid email and a message of at most 2000 characters", err))
		return
	}

	contact, err := h.contactService.Submit(c.Request.Context(), service.ContactInput{
		Name:    input.Name,
		Email:   input.Email,
		Subject: model.ContactSubject(input.Subject),
		Message: input.Message,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusCreated,
		"Your message has been sent. We will get back to you within 24 hours.",
		gin.H{"ticketId": contact.TicketID})
}

// MyInquiries 按 ?email= 查询
func (h *ContactHandler) MyInquiries(c *gin.Context) {
	inquiries, err := h.contactService.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{
		"count":     len(inquiries),
		"inquiries": inquiries,
	})
}
