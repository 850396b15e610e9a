package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"localdeals/internal/domain/points/model"
	"localdeals/internal/domain/points/service"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/middleware"
	"localdeals/pkg/response"
	"localdeals/pkg/utils"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Append(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string, ref *model.Ref) (string, error) {
	args := m.Called(ctx, userID, amount, entryType, description, ref)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) Summary(ctx context.Context, userID string) (*service.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Summary), args.Error(1)
}

func (m *MockLedgerService) Adjust(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string) (string, error) {
	args := m.Called(ctx, userID, amount, entryType, description)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID string, p *utils.Pagination) ([]model.LedgerEntry, int64, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

type MockRedemptionService struct {
	mock.Mock
}

func (m *MockRedemptionService) Redeem(ctx context.Context, userID string, points int64) (*service.RedeemResult, error) {
	args := m.Called(ctx, userID, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RedeemResult), args.Error(1)
}

func setupRouter(ledger service.LedgerService, redemptions service.RedemptionService) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, &middleware.Principal{UserID: "u1", Role: "customer"})
		c.Next()
	})
	h := NewPointsHandler(ledger, redemptions)
	r.GET("/points", h.Summary)
	r.GET("/points/entries", h.History)
	r.POST("/points/redeem", h.Redeem)
	r.POST("/admin/points/adjust", h.Adjust)
	return r
}

func perform(r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := new(MockLedgerService)
	ledger.On("Summary", mock.Anything, "u1").Return(&service.Summary{Balance: 750}, nil)

	w, resp := perform(setupRouter(ledger, new(MockRedemptionService)), http.MethodGet, "/points", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.Contains(t, w.Body.String(), `"balance":750`)
}

func TestHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ledger := new(MockLedgerService)
	ledger.On("History", mock.Anything, "u1", mock.AnythingOfType("*utils.Pagination")).
		Run(func(args mock.Arguments) {
			p := args.Get(2).(*utils.Pagination)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 5, p.Limit)
		}).
		Return([]model.LedgerEntry{{ID: "e1", Amount: 100}}, int64(6), nil)

	w, resp := perform(setupRouter(ledger, new(MockRedemptionService)), http.MethodGet, "/points/entries?page=2&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(6), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Len(t, data["list"], 1)
	ledger.AssertExpectations(t)
}

func TestRedeem(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ok", func(t *testing.T) {
		redemptions := new(MockRedemptionService)
		redemptions.On("Redeem", mock.Anything, "u1", int64(500)).Return(&service.RedeemResult{
			Redemption:   &model.Redemption{ID: "r1", PointsUsed: 500},
			CreditAmount: decimal.RequireFromString("5.00"),
			NewBalance:   100,
		}, nil)

		w, _ := perform(setupRouter(new(MockLedgerService), redemptions), http.MethodPost, "/points/redeem", gin.H{"points": 500})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"newBalance":100`)
		redemptions.AssertExpectations(t)
	})

	t.Run("missing points", func(t *testing.T) {
		redemptions := new(MockRedemptionService)
		w, resp := perform(setupRouter(new(MockLedgerService), redemptions), http.MethodPost, "/points/redeem", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrInvalidParam, resp.Code)
		redemptions.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)
	})

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"below minimum", apperr.ErrBelowMinimumRedemption, response.ErrBelowMinimum},
		{"not a multiple", apperr.ErrNotAMultipleOfUnit, response.ErrNotMultipleOfUnit},
		{"insufficient", apperr.ErrInsufficientBalance, response.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redemptions := new(MockRedemptionService)
			redemptions.On("Redeem", mock.Anything, "u1", int64(550)).Return(nil, fmt.Errorf("redeem: %w", tt.err))

			w, resp := perform(setupRouter(new(MockLedgerService), redemptions), http.MethodPost, "/points/redeem", gin.H{"points": 550})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestAdjust(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := "7f1f7a2e-1c8e-4a7b-9a55-0a4c3f0c2d11"

	ledger := new(MockLedgerService)
	ledger.On("Adjust", mock.Anything, userID, int64(-200), model.EntryAdjustment, "duplicate earn").Return("e1", nil)

	r := setupRouter(ledger, new(MockRedemptionService))
	w, _ := perform(r, http.MethodPost, "/admin/points/adjust", gin.H{
		"userId": userID, "amount": -200, "type": "adjustment", "description": "duplicate earn",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entryId":"e1"`)

	w, _ = perform(r, http.MethodPost, "/admin/points/adjust", gin.H{
		"userId": userID, "amount": 100, "type": "earned", "description": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ledger.AssertNumberOfCalls(t, "Adjust", 1)
}
