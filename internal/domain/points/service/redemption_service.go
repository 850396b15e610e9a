package service

import (
	"context"
	"fmt"
	"localdeals/internal/domain/points/model"
	"localdeals/internal/domain/points/repository"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/config"
	"localdeals/pkg/metrics"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RedemptionService 积分兑换账户余额
type RedemptionService interface {
	Redeem(ctx context.Context, userID string, points int64) (*RedeemResult, error)
}

// RedeemResult 兑换结果
type RedeemResult struct {
	Redemption   *model.Redemption `json:"redemption"`
	CreditAmount decimal.Decimal   `json:"creditAmount"`
	NewBalance   int64             `json:"newBalance"`
}

type redemptionService struct {
	repo    repository.LedgerRepository
	rules   config.PointsConfig
	logger  *zap.Logger
	metrics *metrics.MetricsCollector
	now     func() time.Time
}

func NewRedemptionService(repo repository.LedgerRepository, rules config.PointsConfig, logger *zap.Logger) RedemptionService {
	return &redemptionService{
		repo:    repo,
		rules:   rules,
		logger:  logger,
		metrics: metrics.GetGlobalCollector(),
		now:     time.Now,
	}
}

// Validate 校验兑换数量：不低于最低额且为单位整数倍
func Validate(rules config.PointsConfig, points int64) error {
	if points < rules.MinRedeem {
		return fmt.Errorf("redeem %d points (minimum %d): %w", points, rules.MinRedeem, apperr.ErrBelowMinimumRedemption)
	}
	if points%rules.Unit != 0 {
		return fmt.Errorf("redeem %d points (unit %d): %w", points, rules.Unit, apperr.ErrNotAMultipleOfUnit)
	}
	return nil
}

// Redeem 兑换记录与 spend_credit 流水在同一事务内写入，要么都成功要么都失败。
// 同一用户的兑换通过 advisory lock 串行，余额检查与扣减之间不会插入其他扣减。
func (s *redemptionService) Redeem(ctx context.Context, userID string, points int64) (*RedeemResult, error) {
	if err := Validate(s.rules, points); err != nil {
		return nil, err
	}

	now := s.now()
	var result *RedeemResult
	err := s.repo.Transaction(ctx, func(tx repository.LedgerRepository) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}

		balance, err := liveBalance(ctx, tx, s.rules, userID, now)
		if err != nil {
			return err
		}
		if balance < points {
			return fmt.Errorf("balance %d < %d: %w", balance, points, apperr.ErrInsufficientBalance)
		}

		redemption := &model.Redemption{
			ID:           uuid.New().String(),
			UserID:       userID,
			PointsUsed:   points,
			CreditAmount: model.CreditFor(points, s.rules.PointsPerDollar),
			CreatedAt:    now,
		}
		if err := tx.CreateRedemption(ctx, redemption); err != nil {
			return err
		}

		desc := fmt.Sprintf("Converted %d points to $%s credit", points, redemption.CreditAmount.StringFixed(2))
		entry, err := model.NewEntry(userID, -points, model.EntrySpendCredit, desc, &model.Ref{RedemptionID: redemption.ID}, now)
		if err != nil {
			return err
		}
		if err := tx.Append(ctx, entry); err != nil {
			return err
		}

		result = &RedeemResult{
			Redemption:   redemption,
			CreditAmount: redemption.CreditAmount,
			NewBalance:   balance - points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLedgerAppend(string(model.EntrySpendCredit))
	s.metrics.RecordPointsRedeemed(points)
	s.logger.Info("points redeemed for credit",
		zap.String("user_id", userID),
		zap.Int64("points", points),
		zap.String("credit", result.CreditAmount.StringFixed(2)),
		zap.String("redemption_id", result.Redemption.ID))
	return result, nil
}
