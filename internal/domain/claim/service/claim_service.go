package service

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/claim/model"
	"localdeals/internal/domain/claim/repository"
	userModel "localdeals/internal/domain/user/model"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/config"
	"localdeals/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

// ClaimService claim 生命周期引擎，是 claim 字段唯一的写入方
type ClaimService interface {
	Create(ctx context.Context, customerID, dealID, tier string) (*model.Claim, error)
	// AttachSession 记录线上支付会话，回调时按会话找回 claim
	AttachSession(ctx context.Context, customerID, claimID, sessionToken string) (*model.Claim, error)
	// ConfirmBySession 网关回调确认定金，重复回调是成功的空操作
	ConfirmBySession(ctx context.Context, sessionToken string) (*ConfirmResult, error)
	// ConfirmManually 到店直付由商家确认
	ConfirmManually(ctx context.Context, vendorID, claimID string) (*ConfirmResult, error)
	Redeem(ctx context.Context, vendorID string, proof Proof) (*model.Claim, error)
	Cancel(ctx context.Context, customerID, claimID string) error
	Transfer(ctx context.Context, customerID, claimID, recipientEmail string) (*model.ClaimTransfer, error)

	Get(ctx context.Context, customerID, claimID string) (*ClaimView, error)
	ListActive(ctx context.Context, customerID string) ([]ClaimView, error)
	ListPendingConfirmations(ctx context.Context, vendorID string) ([]model.Claim, error)
	ListTransfers(ctx context.Context, customerID, claimID string) ([]model.ClaimTransfer, error)
	ResolveScanToken(ctx context.Context, vendorID, scanToken string) (*ScanResolution, error)
}

// Directory 按邮箱查找转赠收件人
type Directory interface {
	FindCustomerByEmail(ctx context.Context, email string) (*userModel.User, error)
}

// Notifier 状态变更后的通知，失败不影响业务
type Notifier interface {
	DepositConfirmed(ctx context.Context, claim *model.Claim)
	ClaimTransferred(ctx context.Context, claim *model.Claim, fromCustomerID string)
}

// Proof 核销凭证：扫码 token，或 deal + 核销码
type Proof struct {
	ScanToken string `json:"scanToken"`
	DealID    string `json:"dealId"`
	Code      string `json:"code"`
}

// ConfirmResult AlreadyConfirmed 为 true 表示本次是重复确认
type ConfirmResult struct {
	Claim            *model.Claim `json:"claim"`
	AlreadyConfirmed bool         `json:"alreadyConfirmed"`
}

// ClaimView 给持有人展示的 claim，包含核销凭证
type ClaimView struct {
	model.Claim
	State          model.State `json:"state"`
	ScanToken      string      `json:"scanToken,omitempty"`
	RedemptionCode string      `json:"redemptionCode,omitempty"`
}

// ScanResolution 商家扫码后看到的信息，只读
type ScanResolution struct {
	ClaimID    string      `json:"claimId"`
	DealID     string      `json:"dealId"`
	DealTitle  string      `json:"dealTitle"`
	State      model.State `json:"state"`
	Redeemable bool        `json:"redeemable"`
	ExpiresAt  time.Time   `json:"expiresAt"`
	RedeemedAt *time.Time  `json:"redeemedAt,omitempty"`
}

type claimService struct {
	store     repository.Store
	directory Directory
	notifier  Notifier
	rules     config.PointsConfig
	logger    *zap.Logger
	metrics   *metrics.MetricsCollector
	now       func() time.Time
}

// NewClaimService notifier 可以为 nil
func NewClaimService(store repository.Store, directory Directory, notifier Notifier, rules config.PointsConfig, logger *zap.Logger) ClaimService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &claimService{
		store:     store,
		directory: directory,
		notifier:  notifier,
		rules:     rules,
		logger:    logger,
		metrics:   metrics.GetGlobalCollector(),
		now:       time.Now,
	}
}

// Create 只做预定，不占名额；名额在定金确认时才占用
func (s *claimService) Create(ctx context.Context, customerID, dealID, tier string) (*model.Claim, error) {
	if tier == "" {
		tier = model.TierIntegrated
	}
	if tier != model.TierIntegrated && tier != model.TierManual {
		return nil, fmt.Errorf("payment tier %q: %w", tier, apperr.ErrWrongPaymentTier)
	}

	now := s.now()
	var claim *model.Claim
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		deal, err := tx.Deals().GetByID(ctx, dealID)
		if err != nil {
			return err
		}
		if !deal.Available(now) {
			return fmt.Errorf("deal %s (%s): %w", dealID, deal.Status, apperr.ErrDealUnavailable)
		}
		// 只读判断，真正的占位在确认时用条件更新完成
		if deal.Full() {
			s.metrics.RecordCapacityDenied("create")
			return fmt.Errorf("deal %s: %w", dealID, apperr.ErrAtCapacity)
		}

		if err := tx.Claims().LockCustomerDeal(ctx, customerID, dealID); err != nil {
			return err
		}
		active, err := tx.Claims().HasActiveClaim(ctx, customerID, dealID, now)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("customer %s deal %s: %w", customerID, dealID, apperr.ErrDuplicateActiveClaim)
		}

		claim = &model.Claim{
			DealID:      dealID,
			CustomerID:  customerID,
			PaymentTier: tier,
			ExpiresAt:   deal.ExpiresAt,
		}
		return tx.Claims().Create(ctx, claim)
	})
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim created",
		zap.String("claim_id", claim.ID),
		zap.String("deal_id", dealID),
		zap.String("customer_id", customerID),
		zap.String("tier", tier))
	return claim, nil
}

func (s *claimService) AttachSession(ctx context.Context, customerID, claimID, sessionToken string) (*model.Claim, error) {
	now := s.now()
	var claim *model.Claim
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := tx.Claims().LockByID(ctx, claimID)
		if err != nil {
			return err
		}
		if c.CustomerID != customerID {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotOwner)
		}
		if c.PaymentTier != model.TierIntegrated {
			return fmt.Errorf("claim %s is %s: %w", claimID, c.PaymentTier, apperr.ErrWrongPaymentTier)
		}
		if c.DepositConfirmed {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrAlreadyConfirmed)
		}
		if c.IsExpired(now) {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrExpired)
		}

		c.SessionToken = &sessionToken
		if err := tx.Claims().Save(ctx, c); err != nil {
			return err
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *claimService) Get(ctx context.Context, customerID, claimID string) (*ClaimView, error) {
	claim, err := s.store.Claims().GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.CustomerID != customerID {
		return nil, fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotOwner)
	}
	view := s.view(claim)
	return &view, nil
}

func (s *claimService) ListActive(ctx context.Context, customerID string) ([]ClaimView, error) {
	claims, err := s.store.Claims().ListActive(ctx, customerID, s.now())
	if err != nil {
		return nil, err
	}
	views := make([]ClaimView, 0, len(claims))
	for i := range claims {
		views = append(views, s.view(&claims[i]))
	}
	return views, nil
}

func (s *claimService) ListPendingConfirmations(ctx context.Context, vendorID string) ([]model.Claim, error) {
	return s.store.Claims().ListPendingManual(ctx, vendorID, s.now())
}

// ListTransfers 当前持有人和历史上的转出/转入方都可以查看
func (s *claimService) ListTransfers(ctx context.Context, customerID, claimID string) ([]model.ClaimTransfer, error) {
	claim, err := s.store.Claims().GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	transfers, err := s.store.Claims().ListTransfers(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.CustomerID == customerID {
		return transfers, nil
	}
	for _, t := range transfers {
		if t.FromCustomerID == customerID || t.ToCustomerID == customerID {
			return transfers, nil
		}
	}
	return nil, fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotOwner)
}

func (s *claimService) ResolveScanToken(ctx context.Context, vendorID, scanToken string) (*ScanResolution, error) {
	claim, err := s.store.Claims().GetByScanToken(ctx, scanToken)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("scan token: %w", apperr.ErrInvalidProof)
	}
	if err != nil {
		return nil, err
	}
	deal, err := s.store.Deals().GetByID(ctx, claim.DealID)
	if err != nil {
		return nil, err
	}
	if deal.VendorID != vendorID {
		return nil, fmt.Errorf("claim %s belongs to another vendor: %w", claim.ID, apperr.ErrForbidden)
	}

	state := claim.State(s.now())
	return &ScanResolution{
		ClaimID:    claim.ID,
		DealID:     claim.DealID,
		DealTitle:  deal.Title,
		State:      state,
		Redeemable: state == model.StateDepositConfirmed,
		ExpiresAt:  claim.ExpiresAt,
		RedeemedAt: claim.RedeemedAt,
	}, nil
}

func (s *claimService) view(c *model.Claim) ClaimView {
	v := ClaimView{Claim: *c, State: c.State(s.now())}
	if c.ScanToken != nil {
		v.ScanToken = *c.ScanToken
	}
	if c.RedemptionCode != nil {
		v.RedemptionCode = *c.RedemptionCode
	}
	return v
}

func (s *claimService) record(transition string, err error) {
	s.metrics.RecordClaimTransition(transition, apperr.Label(err))
}

type noopNotifier struct{}

func (noopNotifier) DepositConfirmed(context.Context, *model.Claim)         {}
func (noopNotifier) ClaimTransferred(context.Context, *model.Claim, string) {}
