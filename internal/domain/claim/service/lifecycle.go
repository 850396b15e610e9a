package service

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/claim/model"
	"localdeals/internal/domain/claim/repository"
	pointsModel "localdeals/internal/domain/points/model"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/token"
	"strings"

	"go.uber.org/zap"
)

func (s *claimService) ConfirmBySession(ctx context.Context, sessionToken string) (*ConfirmResult, error) {
	return s.confirm(ctx, "confirm_webhook", func(tx repository.Store) (*model.Claim, error) {
		return tx.Claims().LockBySession(ctx, sessionToken)
	}, nil)
}

func (s *claimService) ConfirmManually(ctx context.Context, vendorID, claimID string) (*ConfirmResult, error) {
	return s.confirm(ctx, "confirm_manual", func(tx repository.Store) (*model.Claim, error) {
		return tx.Claims().LockByID(ctx, claimID)
	}, func(tx repository.Store, c *model.Claim) error {
		if c.PaymentTier != model.TierManual {
			return fmt.Errorf("claim %s is %s: %w", c.ID, c.PaymentTier, apperr.ErrWrongPaymentTier)
		}
		return s.requireVendor(ctx, tx, vendorID, c)
	})
}

// confirm 两种触发方式共用同一个迁移：
// 行锁保证并发确认只有一个真正生效，其余看到 DepositConfirmed 后按空操作返回
func (s *claimService) confirm(
	ctx context.Context,
	transition string,
	locate func(tx repository.Store) (*model.Claim, error),
	authorize func(tx repository.Store, c *model.Claim) error,
) (*ConfirmResult, error) {
	now := s.now()
	var result *ConfirmResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := locate(tx)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(tx, c); err != nil {
				return err
			}
		}

		// 已确认优先于过期判断：重复投递的回调在过期后也必须是空操作
		if c.DepositConfirmed {
			result = &ConfirmResult{Claim: c, AlreadyConfirmed: true}
			return nil
		}
		if c.IsExpired(now) {
			return fmt.Errorf("claim %s: %w", c.ID, apperr.ErrExpired)
		}

		if err := tx.Deals().TryReserveSlot(ctx, c.DealID); err != nil {
			if errors.Is(err, apperr.ErrAtCapacity) {
				s.metrics.RecordCapacityDenied("confirm")
			}
			return err
		}

		scanToken := token.NewScanToken()
		code := token.NewRedemptionCode()
		c.DepositConfirmed = true
		c.DepositConfirmedAt = &now
		c.ScanToken = &scanToken
		c.RedemptionCode = &code
		if err := tx.Claims().Save(ctx, c); err != nil {
			return err
		}

		if s.rules.EarnPerClaim > 0 {
			entry, err := pointsModel.NewEntry(c.CustomerID, s.rules.EarnPerClaim, pointsModel.EntryEarned,
				"Points for claiming a deal", &pointsModel.Ref{DealID: c.DealID, ClaimID: c.ID}, now)
			if err != nil {
				return err
			}
			if err := tx.Ledger().Append(ctx, entry); err != nil {
				return err
			}
		}

		result = &ConfirmResult{Claim: c}
		return nil
	})

	if err != nil {
		s.record(transition, err)
		return nil, err
	}
	if result.AlreadyConfirmed {
		s.record(transition, apperr.ErrAlreadyConfirmed)
		s.logger.Info("claim already confirmed", zap.String("claim_id", result.Claim.ID), zap.String("via", transition))
		return result, nil
	}

	s.record(transition, nil)
	if s.rules.EarnPerClaim > 0 {
		s.metrics.RecordLedgerAppend(string(pointsModel.EntryEarned))
	}
	s.logger.Info("deposit confirmed",
		zap.String("claim_id", result.Claim.ID),
		zap.String("deal_id", result.Claim.DealID),
		zap.String("customer_id", result.Claim.CustomerID),
		zap.String("via", transition))
	s.notifier.DepositConfirmed(ctx, result.Claim)
	return result, nil
}

// Redeem 每个 claim 只能核销一次，重复扫码返回 AlreadyRedeemed
func (s *claimService) Redeem(ctx context.Context, vendorID string, proof Proof) (*model.Claim, error) {
	now := s.now()
	var claim *model.Claim
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := lockByProof(ctx, tx, proof)
		if err != nil {
			return err
		}
		if err := s.requireVendor(ctx, tx, vendorID, c); err != nil {
			return err
		}

		if c.Redeemed {
			return fmt.Errorf("claim %s: %w", c.ID, apperr.ErrAlreadyRedeemed)
		}
		if c.IsExpired(now) {
			return fmt.Errorf("claim %s: %w", c.ID, apperr.ErrExpired)
		}
		if !c.DepositConfirmed {
			return fmt.Errorf("claim %s: %w", c.ID, apperr.ErrNotConfirmed)
		}

		c.Redeemed = true
		c.RedeemedAt = &now
		if err := tx.Claims().Save(ctx, c); err != nil {
			return err
		}
		claim = c
		return nil
	})
	s.record("redeem", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim redeemed",
		zap.String("claim_id", claim.ID),
		zap.String("deal_id", claim.DealID),
		zap.String("vendor_id", vendorID))
	return claim, nil
}

// Cancel 定金不退，已确认的 claim 只归还名额
func (s *claimService) Cancel(ctx context.Context, customerID, claimID string) error {
	now := s.now()
	var released bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := tx.Claims().LockByID(ctx, claimID)
		if err != nil {
			return err
		}
		if c.CustomerID != customerID {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotOwner)
		}
		if c.Redeemed {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrAlreadyRedeemed)
		}
		if c.IsExpired(now) {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrExpired)
		}

		if c.DepositConfirmed {
			if err := tx.Deals().ReleaseSlot(ctx, c.DealID); err != nil {
				return err
			}
			released = true
		}
		return tx.Claims().SoftDelete(ctx, c)
	})
	s.record("cancel", err)
	if err != nil {
		return err
	}

	s.logger.Info("claim cancelled",
		zap.String("claim_id", claimID),
		zap.String("customer_id", customerID),
		zap.Bool("slot_released", released))
	return nil
}

// Transfer 名额随 claim 转移，claims_count 不变
func (s *claimService) Transfer(ctx context.Context, customerID, claimID, recipientEmail string) (*model.ClaimTransfer, error) {
	now := s.now()
	var (
		record *model.ClaimTransfer
		claim  *model.Claim
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		c, err := tx.Claims().LockByID(ctx, claimID)
		if err != nil {
			return err
		}
		if c.CustomerID != customerID {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotOwner)
		}
		if c.Redeemed {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrAlreadyRedeemed)
		}
		if c.IsExpired(now) {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrExpired)
		}
		if !c.DepositConfirmed {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrNotConfirmed)
		}

		recipient, err := s.directory.FindCustomerByEmail(ctx, recipientEmail)
		if err != nil {
			return err
		}
		if recipient.ID == customerID {
			return fmt.Errorf("claim %s: %w", claimID, apperr.ErrSelfTransfer)
		}

		if err := tx.Claims().LockCustomerDeal(ctx, recipient.ID, c.DealID); err != nil {
			return err
		}
		active, err := tx.Claims().HasActiveClaim(ctx, recipient.ID, c.DealID, now)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("recipient %s deal %s: %w", recipient.ID, c.DealID, apperr.ErrDuplicateActiveClaim)
		}

		c.CustomerID = recipient.ID
		if err := tx.Claims().Save(ctx, c); err != nil {
			return err
		}
		record = &model.ClaimTransfer{
			ClaimID:        c.ID,
			FromCustomerID: customerID,
			ToCustomerID:   recipient.ID,
			CreatedAt:      now,
		}
		if err := tx.Claims().InsertTransfer(ctx, record); err != nil {
			return err
		}
		claim = c
		return nil
	})
	s.record("transfer", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim transferred",
		zap.String("claim_id", claimID),
		zap.String("from", customerID),
		zap.String("to", record.ToCustomerID))
	s.notifier.ClaimTransferred(ctx, claim, customerID)
	return record, nil
}

// requireVendor 商家只能操作自己 deal 下的 claim
func (s *claimService) requireVendor(ctx context.Context, tx repository.Store, vendorID string, c *model.Claim) error {
	deal, err := tx.Deals().GetByID(ctx, c.DealID)
	if err != nil {
		return err
	}
	if deal.VendorID != vendorID {
		return fmt.Errorf("claim %s belongs to another vendor: %w", c.ID, apperr.ErrForbidden)
	}
	return nil
}

func lockByProof(ctx context.Context, tx repository.Store, proof Proof) (*model.Claim, error) {
	var (
		c   *model.Claim
		err error
	)
	switch {
	case proof.ScanToken != "":
		c, err = tx.Claims().LockByScanToken(ctx, proof.ScanToken)
	case proof.DealID != "" && proof.Code != "":
		code := strings.ToUpper(strings.TrimSpace(proof.Code))
		if !token.IsRedemptionCode(code) {
			return nil, fmt.Errorf("malformed code: %w", apperr.ErrInvalidProof)
		}
		c, err = tx.Claims().LockByCode(ctx, proof.DealID, code)
	default:
		return nil, fmt.Errorf("no scan token or code: %w", apperr.ErrInvalidProof)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("proof does not match any claim: %w", apperr.ErrInvalidProof)
	}
	return c, err
}

