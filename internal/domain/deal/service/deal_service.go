package service

import (
	"context"
	"localdeals/internal/domain/deal/model"
	"localdeals/internal/domain/deal/repository"
	"time"

	"github.com/shopspring/decimal"
)

// Availability 只读的容量视图，不代表领取一定成功
type Availability struct {
	DealID    string          `json:"dealId"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	Available bool            `json:"available"`
	MaxClaims *int            `json:"maxClaims,omitempty"`
	Claimed   int             `json:"claimed"`
	Remaining int             `json:"remaining"` // -1 表示不限量
	Deposit   decimal.Decimal `json:"deposit"`
	StartsAt  time.Time       `json:"startsAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type DealService interface {
	Availability(ctx context.Context, dealID string) (*Availability, error)
}

type dealService struct {
	repo repository.DealRepository
	now  func() time.Time
}

func NewDealService(repo repository.DealRepository) DealService {
	return &dealService{repo: repo, now: time.Now}
}

func (s *dealService) Availability(ctx context.Context, dealID string) (*Availability, error) {
	deal, err := s.repo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return availabilityOf(deal, s.now()), nil
}

func availabilityOf(d *model.Deal, now time.Time) *Availability {
	return &Availability{
		DealID:    d.ID,
		Title:     d.Title,
		Status:    d.Status,
		Available: d.Available(now) && !d.Full(),
		MaxClaims: d.MaxClaims,
		Claimed:   d.ClaimsCount,
		Remaining: d.Remaining(),
		Deposit:   d.Deposit(),
		StartsAt:  d.StartsAt,
		ExpiresAt: d.ExpiresAt,
	}
}
