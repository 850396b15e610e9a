package service

import (
	"context"
	"fmt"
	"localdeals/internal/domain/deal/model"
	"localdeals/internal/pkg/apperr"
	baseModel "localdeals/pkg/model"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDealRepository is a mock of DealRepository
type MockDealRepository struct {
	mock.Mock
}

func (m *MockDealRepository) GetByID(ctx context.Context, id string) (*model.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Deal), args.Error(1)
}

func (m *MockDealRepository) TryReserveSlot(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDealRepository) ReleaseSlot(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestAvailability(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	max := 10
	deposit := decimal.RequireFromString("5.00")
	deal := &model.Deal{
		BaseModel:     baseModel.BaseModel{ID: "d1"},
		Title:         "Half-price pizza",
		DealPrice:     decimal.RequireFromString("12.50"),
		DepositAmount: &deposit,
		MaxClaims:     &max,
		ClaimsCount:   7,
		StartsAt:      now.Add(-time.Hour),
		ExpiresAt:     now.Add(time.Hour),
		Status:        model.StatusActive,
	}

	repo := new(MockDealRepository)
	repo.On("GetByID", mock.Anything, "d1").Return(deal, nil)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, fmt.Errorf("deal missing: %w", apperr.ErrNotFound))

	svc := &dealService{repo: repo, now: func() time.Time { return now }}

	a, err := svc.Availability(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.Equal(t, 3, a.Remaining)
	assert.Equal(t, "5.00", a.Deposit.StringFixed(2))

	_, err = svc.Availability(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	repo.AssertNotCalled(t, "TryReserveSlot", mock.Anything, mock.Anything)
}

func TestAvailabilityOf_FullDeal(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	max := 2
	d := &model.Deal{
		MaxClaims:   &max,
		ClaimsCount: 2,
		StartsAt:    now.Add(-time.Hour),
		ExpiresAt:   now.Add(time.Hour),
		Status:      model.StatusActive,
	}

	a := availabilityOf(d, now)
	assert.False(t, a.Available)
	assert.Equal(t, 0, a.Remaining)
}
