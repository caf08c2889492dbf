package payment

import (
	"bytes"
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/model"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateOrder(ctx context.Context, userID int64, in service.CreateOrderInput) (*model.Payment, error) {
	args := m.Called(ctx, userID, in)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, userID int64, in service.VerifyInput) (*model.Payment, error) {
	args := m.Called(ctx, userID, in)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id int64, requester service.Requester) (*model.Payment, error) {
	args := m.Called(ctx, id, requester)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) ListUserPayments(ctx context.Context, userID int64, p util.Pagination) (service.Page[*model.Payment], error) {
	args := m.Called(ctx, userID, p)
	return args.Get(0).(service.Page[*model.Payment]), args.Error(1)
}

func (m *MockPaymentService) ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, ttl)
	return args.Get(0).(int64), args.Error(1)
}

var (
	anyCtx  = mock.Anything
	testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = util.RegisterValidators(v)
	}
}

func newRouter(mockService *MockPaymentService, role string) *gin.Engine {
	handler := NewPaymentHandler(mockService)
	router := gin.New()
	authed := router.Group("/", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, int64(7))
		c.Set(middleware.ContextUserRole, role)
	})
	authed.POST("/create-order", handler.CreateOrder)
	authed.POST("/verify", handler.VerifyPayment)
	authed.GET("", handler.ListMyPayments)
	authed.GET("/:id", handler.GetPayment)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestCreateOrder(t *testing.T) {
	mockService := new(MockPaymentService)
	router := newRouter(mockService, model.RoleUser)

	in := service.CreateOrderInput{Amount: 500, DonationType: "meals", Description: "Sunday meals"}
	order := model.NewOrder("PAY-2024-00001", "ORD-1710496800000-ABC123", 7, 500, "meals", "Sunday meals", testNow)
	mockService.On("CreateOrder", anyCtx, int64(7), in).Return(order, nil).Once()

	w, response := doJSON(router, http.MethodPost, "/create-order",
		`{"amount":500,"donationType":"meals","description":"Sunday meals"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Payment order created", response["message"])
	assert.Equal(t, "ORD-1710496800000-ABC123", response["orderId"])
	assert.Equal(t, "PAY-2024-00001", response["paymentId"])
	assert.Equal(t, "simulation", response["mode"])
	orderBody, ok := response["order"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "INR", orderBody["currency"])

	mockService.On("CreateOrder", anyCtx, int64(7), service.CreateOrderInput{Amount: 0.5}).
		Return(nil, errors.New(errors.ErrValidation, "Amount must be at least ₹1")).Once()
	w, response = doJSON(router, http.MethodPost, "/create-order", `{"amount":0.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Amount must be at least ₹1", response["message"])
	mockService.AssertExpectations(t)
}

func TestVerifyPayment(t *testing.T) {
	mockService := new(MockPaymentService)
	router := newRouter(mockService, model.RoleUser)

	paid := model.NewOrder("PAY-2024-00001", "ORD-1", 7, 500, "meals", "", testNow)
	require.NoError(t, paid.MarkPaid("RCPT-2024-ABCDEFGH", model.PaymentMethodUPI, model.SimulatedDetails{UPIID: "user@upi"}, testNow))
	paid.DonationRef = "DON-2024-00002"

	in := service.VerifyInput{OrderID: "ORD-1", PaymentMethod: model.PaymentMethodUPI}
	mockService.On("VerifyPayment", anyCtx, int64(7), in).Return(paid, nil).Once()

	w, response := doJSON(router, http.MethodPost, "/verify", `{"orderId":"ORD-1","paymentMethod":"upi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment successful! Thank you for your donation.", response["message"])
	assert.Equal(t, "RCPT-2024-ABCDEFGH", response["receiptId"])
	payment, ok := response["payment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DON-2024-00002", payment["donationId"])
	assert.Equal(t, "upi", payment["method"])

	mockService.On("VerifyPayment", anyCtx, int64(7), service.VerifyInput{OrderID: "ORD-2"}).
		Return(nil, errors.New(errors.ErrPaymentFailed, "Payment failed. Please try again.")).Once()
	w, response = doJSON(router, http.MethodPost, "/verify", `{"orderId":"ORD-2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Payment failed. Please try again.", response["message"])

	mockService.On("VerifyPayment", anyCtx, int64(7), service.VerifyInput{OrderID: "ORD-404"}).
		Return(nil, errors.New(errors.ErrResourceNotFound, "Payment order not found")).Once()
	w, _ = doJSON(router, http.MethodPost, "/verify", `{"orderId":"ORD-404"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 不支持的支付方式在绑定阶段被拒绝
	w, _ = doJSON(router, http.MethodPost, "/verify", `{"orderId":"ORD-1","paymentMethod":"crypto"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestListMyPayments(t *testing.T) {
	mockService := new(MockPaymentService)
	page := service.Page[*model.Payment]{
		Items: []*model.Payment{model.NewOrder("PAY-2024-00001", "ORD-1", 7, 500, "", "", testNow)},
		Total: 1,
	}
	mockService.On("ListUserPayments", anyCtx, int64(7), util.Pagination{Page: 1, Limit: 10}).Return(page, nil)

	w, response := doJSON(newRouter(mockService, model.RoleUser), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["count"])
	assert.Equal(t, float64(1), response["pages"])
	assert.Len(t, response["payments"], 1)
}

func TestGetPaymentAsAdmin(t *testing.T) {
	mockService := new(MockPaymentService)
	admin := service.Requester{UserID: 7, IsAdmin: true}
	mockService.On("GetPayment", anyCtx, int64(3), admin).
		Return(model.NewOrder("PAY-2024-00003", "ORD-3", 9, 100, "", "", testNow), nil)

	w, response := doJSON(newRouter(mockService, model.RoleAdmin), http.MethodGet, "/3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response, "payment")
	mockService.AssertExpectations(t)
}
