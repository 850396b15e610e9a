package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"localdeals/internal/domain/payment/model"
	"localdeals/internal/domain/payment/strategy"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/middleware"
	"localdeals/pkg/response"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentService is a mock of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) OpenSession(ctx context.Context, customerID, claimID, channel string) (*model.Session, error) {
	args := m.Called(ctx, customerID, claimID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockPaymentService) HandleNotify(ctx context.Context, channel string, req *http.Request) error {
	return m.Called(ctx, channel, req).Error(0)
}

func (m *MockPaymentService) RegisterStrategy(channel string, s strategy.PaymentStrategy) {
	m.Called(channel, s)
}

func setupRouter(svc *MockPaymentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(svc)
	r.POST("/payment/sessions", func(c *gin.Context) {
		middleware.SetPrincipal(c, &middleware.Principal{UserID: "u1", Role: "customer"})
		c.Next()
	}, h.OpenSession)
	r.POST("/payment/notify/alipay", h.AlipayNotify)
	r.POST("/payment/notify/wechat", h.WechatNotify)
	r.POST("/payment/notify/signed", h.SignedNotify)
	return r
}

func post(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOpenSession(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("OpenSession", mock.Anything, "u1", "c1", "signed").Return(&model.Session{ClaimID: "c1", SessionToken: "tok", PayParam: "https://pay"}, nil)
	r := setupRouter(svc)

	w := post(r, "/payment/sessions", gin.H{"claimId": "c1", "channel": "signed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionToken":"tok"`)

	w = post(r, "/payment/sessions", gin.H{"claimId": "c1", "channel": "paypal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "OpenSession", 1)
}

func TestOpenSession_DomainError(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("OpenSession", mock.Anything, "u1", "c1", "wechat").Return(nil, fmt.Errorf("claim c1: %w", apperr.ErrWrongPaymentTier))

	w := post(setupRouter(svc), "/payment/sessions", gin.H{"claimId": "c1", "channel": "wechat"})
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, response.ErrWrongPaymentTier, resp.Code)
}

func TestNotifyAcknowledgements(t *testing.T) {
	invalid := fmt.Errorf("notify: %w", apperr.ErrInvalidEvent)
	infra := errors.New("connection refused")

	tests := []struct {
		name     string
		path     string
		channel  string
		err      error
		wantCode int
		wantBody string
	}{
		{"alipay ok", "/payment/notify/alipay", "alipay", nil, http.StatusOK, "success"},
		{"alipay fail", "/payment/notify/alipay", "alipay", invalid, http.StatusOK, "fail"},
		{"wechat ok", "/payment/notify/wechat", "wechat", nil, http.StatusOK, ""},
		{"wechat bad signature", "/payment/notify/wechat", "wechat", invalid, http.StatusBadRequest, "FAIL"},
		{"wechat infra", "/payment/notify/wechat", "wechat", infra, http.StatusInternalServerError, "FAIL"},
		{"signed ok", "/payment/notify/signed", "signed", nil, http.StatusOK, `"received":true`},
		{"signed bad signature", "/payment/notify/signed", "signed", invalid, http.StatusBadRequest, `"received":false`},
		{"signed infra", "/payment/notify/signed", "signed", infra, http.StatusInternalServerError, `"received":false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			svc.On("HandleNotify", mock.Anything, tt.channel, mock.Anything).Return(tt.err)

			w := post(setupRouter(svc), tt.path, gin.H{"id": "evt"})
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
