package donation

import (
	"donation-backend/internal/api"
	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultPageLimit = 10

type DonationHandler struct {
	donationService service.DonationServiceInterface
}

func NewDonationHandler(donationService service.DonationServiceInterface) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// CreateDonation 各类型字段是否齐全由服务层校验
func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var input struct {
		Type          string             `json:"type" binding:"required"`
		FoodItem      string             `json:"foodItem" binding:"max=200"`
		Quantity      string             `json:"quantity" binding:"max=100"`
		BestBefore    string             `json:"bestBefore" binding:"max=50"`
		Amount        float64            `json:"amount" binding:"gte=0"`
		PaymentMethod string             `json:"paymentMethod"`
		Purpose       string             `json:"purpose"`
		SupplyItems   []model.SupplyItem `json:"supplyItems"`
		Location      *model.Location    `json:"location"`
		Notes         string             `json:"notes" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("创建捐赠失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid donation data", err))
		return
	}

	donation, err := h.donationService.Create(c.Request.Context(), c.GetInt64(middleware.ContextUserID), service.CreateDonationInput{
		Type:          model.DonationType(input.Type),
		FoodItem:      input.FoodItem,
		Quantity:      input.Quantity,
		BestBefore:    input.BestBefore,
		Amount:        input.Amount,
		PaymentMethod: model.PaymentMethod(input.PaymentMethod),
		Purpose:       model.DonationPurpose(input.Purpose),
		SupplyItems:   input.SupplyItems,
		Location:      input.Location,
		Notes:         input.Notes,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusCreated, "Donation created successfully", gin.H{
		"donation": gin.H{
			"id":         donation.ID,
			"donationId": donation.DonationID,
			"type":       donation.Type,
			"status":     donation.Status,
			"createdAt":  donation.CreatedAt,
		},
	})
}

// ListMyDonations 当前用户的捐赠，按创建时间倒序
func (h *DonationHandler) ListMyDonations(c *gin.Context) {
	p := util.ParsePagination(c, defaultPageLimit)
	page, err := h.donationService.ListByDonor(c.Request.Context(), c.GetInt64(middleware.ContextUserID), p)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	payload := p.Meta(len(page.Items), page.Total)
	payload["donations"] = page.Items
	errors.HandleSuccess(c, http.StatusOK, "", payload)
}

func (h *DonationHandler) GetDonation(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	donation, err := h.donationService.GetByID(c.Request.Context(), id, middleware.CurrentRequester(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"donation": donation})
}

// TrackDonation 公开接口，凭业务 ID 查询进度
func (h *DonationHandler) TrackDonation(c *gin.Context) {
	donation, err := h.donationService.Track(c.Request.Context(), c.Param("donationId"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusOK, "", gin.H{
		"donation": gin.H{
			"id":            donation.ID,
			"donationId":    donation.DonationID,
			"type":          donation.Type,
			"status":        donation.Status,
			"foodItem":      donation.FoodItem,
			"quantity":      donation.Quantity,
			"bestBefore":    donation.BestBefore,
			"amount":        donation.Amount,
			"paymentMethod": donation.PaymentMethod,
			"purpose":       donation.Purpose,
			"supplyItems":   donation.SupplyItems,
			"location":      donation.Location,
			"notes":         donation.Notes,
			"recipient":     donation.Recipient,
			"timeline":      donation.Timeline,
			"createdAt":     donation.CreatedAt,
			"deliveredAt":   donation.DeliveredAt,
		},
	})
}

func (h *DonationHandler) CancelDonation(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}

	// 请求体可以为空
	var input struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid cancel reason", err))
			return
		}
	}

	donation, err := h.donationService.Cancel(c.Request.Context(), id, middleware.CurrentRequester(c), input.Reason)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "Donation cancelled successfully", gin.H{"donation": donation})
}
