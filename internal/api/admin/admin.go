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
	"go.uber.org/zap"
)

const defaultPageLimit = 20

// AdminHandler 按功能模块组织处理方法
type AdminHandler struct {
	adminService    service.AdminServiceInterface
	statsService    service.StatsServiceInterface
	donationService service.DonationServiceInterface
	contactService  service.ContactServiceInterface
	errorAnalytics  *errors.ErrorAnalytics
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(
	adminService service.AdminServiceInterface,
	statsService service.StatsServiceInterface,
	donationService service.DonationServiceInterface,
	contactService service.ContactServiceInterface,
	errorAnalytics *errors.ErrorAnalytics,
) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		statsService:    statsService,
		donationService: donationService,
		contactService:  contactService,
		errorAnalytics:  errorAnalytics,
	}
}

// 统计
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"stats": stats})
}

func (h *AdminHandler) GetDonationAnalytics(c *gin.Context) {
	analytics, err := h.statsService.Analytics(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"analytics": analytics})
}

// GetErrorStats 进程内错误统计，重启后清零
func (h *AdminHandler) GetErrorStats(c *gin.Context) {
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"errors": h.errorAnalytics.GetStats()})
}

// 捐赠管理
func (h *AdminHandler) GetDonations(c *gin.Context) {
	p := util.ParsePagination(c, defaultPageLimit)
	filter := interfaces.DonationFilter{
		Type:   model.DonationType(c.Query("type")),
		Search: c.Query("search"),
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []model.DonationStatus{model.DonationStatus(status)}
	}

	page, err := h.donationService.AdminList(c.Request.Context(), filter, p)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	payload := p.Meta(len(page.Items), page.Total)
	payload["donations"] = page.Items
	errors.HandleSuccess(c, http.StatusOK, "", payload)
}

func (h *AdminHandler) UpdateDonationStatus(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Status      string           `json:"status" binding:"required"`
		Description string           `json:"description" binding:"max=500"`
		Recipient   *model.Recipient `json:"recipient"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Please provide a status", err))
		return
	}

	donation, err := h.donationService.UpdateStatus(c.Request.Context(), id, service.StatusUpdate{
		Status:      model.DonationStatus(input.Status),
		Description: input.Description,
		Recipient:   input.Recipient,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	util.Logger.Info("管理员更新捐赠状态",
		zap.Int64("admin_id", c.GetInt64(middleware.ContextUserID)),
		zap.String("donation_id", donation.DonationID),
		zap.String("status", input.Status))
	errors.HandleSuccess(c, http.StatusOK, "Donation status updated", gin.H{"donation": donation})
}
