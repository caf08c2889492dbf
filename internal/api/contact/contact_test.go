package contact

import (
	"bytes"
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/service"
	"donation-backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, in service.ContactInput) (*model.Contact, error) {
	args := m.Called(ctx, in)
	contact, _ := args.Get(0).(*model.Contact)
	return contact, args.Error(1)
}

func (m *MockContactService) ListByEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	args := m.Called(ctx, email)
	contacts, _ := args.Get(0).([]*model.Contact)
	return contacts, args.Error(1)
}

func (m *MockContactService) AdminList(ctx context.Context, filter interfaces.ContactFilter, p util.Pagination) (service.Page[*model.Contact], error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).(service.Page[*model.Contact]), args.Error(1)
}

func (m *MockContactService) Update(ctx context.Context, id int64, adminID int64, update service.ContactUpdate) (*model.Contact, error) {
	args := m.Called(ctx, id, adminID, update)
	contact, _ := args.Get(0).(*model.Contact)
	return contact, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mockService *MockContactService) *gin.Engine {
	handler := NewContactHandler(mockService)
	router := gin.New()
	router.POST("/contact", handler.Submit)
	router.GET("/contact/my-inquiries", handler.MyInquiries)
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

func TestSubmit(t *testing.T) {
	mockService := new(MockContactService)
	router := newRouter(mockService)

	in := service.ContactInput{
		Name:    "Meera",
		Email:   "Meera@Example.com",
		Subject: model.SubjectVolunteer,
		Message: "I can help on weekends",
	}
	mockService.On("Submit", mock.Anything, in).Return(&model.Contact{TicketID: "TKT-2024-00001"}, nil).Once()

	w, response := doJSON(router, http.MethodPost, "/contact",
		`{"name":"Meera","email":"Meera@Example.com","subject":"volunteer","message":"I can help on weekends"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "TKT-2024-00001", response["ticketId"])

	mockService.On("Submit", mock.Anything, service.ContactInput{Name: "Meera"}).
		Return(nil, errors.New(errors.ErrValidation, "Please provide name, email, subject, and message")).Once()
	w, response = doJSON(router, http.MethodPost, "/contact", `{"name":"Meera"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide name, email, subject, and message", response["message"])
	mockService.AssertExpectations(t)
}

func TestSubmitRejectsLongMessage(t *testing.T) {
	mockService := new(MockContactService)
	body, _ := json.Marshal(map[string]string{
		"name":    "Meera",
		"email":   "meera@example.com",
		"subject": "general",
		"message": strings.Repeat("a", 2001),
	})

	w, _ := doJSON(newRouter(mockService), http.MethodPost, "/contact", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmitRejectsLongEmail(t *testing.T) {
	mockService := new(MockContactService)
	body, _ := json.Marshal(map[string]string{
		"name":    "Meera",
		"email":   strings.Repeat("m", 250) + "@example.com",
		"subject": "general",
		"message": "hello",
	})

	w, _ := doJSON(newRouter(mockService), http.MethodPost, "/contact", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestMyInquiries(t *testing.T) {
	mockService := new(MockContactService)
	router := newRouter(mockService)

	mockService.On("ListByEmail", mock.Anything, "meera@example.com").
		Return([]*model.Contact{{TicketID: "TKT-2024-00002"}, {TicketID: "TKT-2024-00001"}}, nil)
	mockService.On("ListByEmail", mock.Anything, "").
		Return(nil, errors.New(errors.ErrValidation, "Please provide an email"))

	w, response := doJSON(router, http.MethodGet, "/contact/my-inquiries?email=meera@example.com", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), response["count"])

	w, response = doJSON(router, http.MethodGet, "/contact/my-inquiries", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide an email", response["message"])
}
