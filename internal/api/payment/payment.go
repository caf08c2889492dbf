package payment

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

const (
	defaultPageLimit = 10
	simulationMode   = "simulation"
)

type PaymentHandler struct {
	paymentService service.PaymentServiceInterface
}

func NewPaymentHandler(paymentService service.PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrder 创建模拟支付订单
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var input struct {
		Amount       float64 `json:"amount"`
		DonationType string  `json:"donationType" binding:"max=50"`
		Description  string  `json:"description" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("创建订单失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid input data", err))
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), c.GetInt64(middleware.ContextUserID), service.CreateOrderInput{
		Amount:       input.Amount,
		DonationType: input.DonationType,
		Description:  input.Description,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusCreated, "Payment order created", gin.H{
		"order": gin.H{
			"id":       order.OrderID,
			"amount":   order.Amount,
			"currency": order.Currency,
		},
		"orderId":   order.OrderID,
		"paymentId": order.PaymentID,
		"mode":      simulationMode,
	})
}

// VerifyPayment 模拟结算；失败时订单已记为 failed，返回 400
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var input struct {
		OrderID       string `json:"orderId" binding:"required"`
		PaymentMethod string `json:"paymentMethod" binding:"payment_method"`
		DonationType  string `json:"donationType"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Please provide a valid orderId and payment method", err))
		return
	}

	payment, err := h.paymentService.VerifyPayment(c.Request.Context(), c.GetInt64(middleware.ContextUserID), service.VerifyInput{
		OrderID:       input.OrderID,
		PaymentMethod: model.PaymentMethod(input.PaymentMethod),
		DonationType:  input.DonationType,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusOK, "Payment successful! Thank you for your donation.", gin.H{
		"receiptId": payment.ReceiptID,
		"payment": gin.H{
			"id":         payment.PaymentID,
			"amount":     payment.Amount,
			"donationId": payment.DonationRef,
			"receiptId":  payment.ReceiptID,
			"method":     payment.PaymentMethod,
		},
	})
}

func (h *PaymentHandler) ListMyPayments(c *gin.Context) {
	p := util.ParsePagination(c, defaultPageLimit)
	page, err := h.paymentService.ListUserPayments(c.Request.Context(), c.GetInt64(middleware.ContextUserID), p)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	payload := p.Meta(len(page.Items), page.Total)
	payload["payments"] = page.Items
	errors.HandleSuccess(c, http.StatusOK, "", payload)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.GetPayment(c.Request.Context(), id, middleware.CurrentRequester(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, "", gin.H{"payment": payment})
}
