package service

import (
	"context"
	"fmt"
	"localdeals/internal/domain/points/model"
	"localdeals/internal/domain/points/repository"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/config"
	"localdeals/pkg/metrics"
	"localdeals/pkg/utils"
	"time"

	"go.uber.org/zap"
)

const (
	recentEntriesLimit     = 20
	recentRedemptionsLimit = 10
)

// LedgerService 积分账本
type LedgerService interface {
	Append(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string, ref *model.Ref) (string, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Summary(ctx context.Context, userID string) (*Summary, error)
	// History 分页查询流水，最新在前
	History(ctx context.Context, userID string, p *utils.Pagination) ([]model.LedgerEntry, int64, error)
	// Adjust 管理员补发或冲正，只允许 bonus / adjustment
	Adjust(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string) (string, error)
}

// Eligibility 兑换资格
type Eligibility struct {
	MinRedeem       int64 `json:"minRedeem"`
	Unit            int64 `json:"unit"`
	PointsPerDollar int64 `json:"pointsPerDollar"`
	MeetsMinimum    bool  `json:"meetsMinimum"`
	MaxRedeemable   int64 `json:"maxRedeemable"` // 余额向下取整到 unit，不足最低额时为 0
}

// Summary 余额查询结果
type Summary struct {
	Balance     int64               `json:"balance"`
	Entries     []model.LedgerEntry `json:"entries"`
	Redemptions []model.Redemption  `json:"redemptions"`
	Eligibility Eligibility         `json:"eligibility"`
}

type ledgerService struct {
	repo    repository.LedgerRepository
	rules   config.PointsConfig
	logger  *zap.Logger
	metrics *metrics.MetricsCollector
	now     func() time.Time
}

func NewLedgerService(repo repository.LedgerRepository, rules config.PointsConfig, logger *zap.Logger) LedgerService {
	return &ledgerService{
		repo:    repo,
		rules:   rules,
		logger:  logger,
		metrics: metrics.GetGlobalCollector(),
		now:     time.Now,
	}
}

func (s *ledgerService) Append(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string, ref *model.Ref) (string, error) {
	entry, err := model.NewEntry(userID, amount, entryType, description, ref, s.now())
	if err != nil {
		return "", err
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return "", fmt.Errorf("append ledger entry: %w", err)
	}
	s.metrics.RecordLedgerAppend(string(entryType))
	return entry.ID, nil
}

func (s *ledgerService) Adjust(ctx context.Context, userID string, amount int64, entryType model.EntryType, description string) (string, error) {
	if entryType != model.EntryBonus && entryType != model.EntryAdjustment {
		return "", fmt.Errorf("adjust with %q: %w", entryType, apperr.ErrInvalidEntryType)
	}
	id, err := s.Append(ctx, userID, amount, entryType, description, nil)
	if err != nil {
		return "", err
	}
	s.logger.Info("points adjusted",
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("type", string(entryType)),
		zap.String("entry_id", id))
	return id, nil
}

func (s *ledgerService) Balance(ctx context.Context, userID string) (int64, error) {
	return liveBalance(ctx, s.repo, s.rules, userID, s.now())
}

func (s *ledgerService) History(ctx context.Context, userID string, p *utils.Pagination) ([]model.LedgerEntry, int64, error) {
	offset, limit := p.GetPageOffset()
	return s.repo.PageEntries(ctx, userID, offset, limit)
}

func (s *ledgerService) Summary(ctx context.Context, userID string) (*Summary, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, userID, recentEntriesLimit)
	if err != nil {
		return nil, err
	}
	redemptions, err := s.repo.ListRedemptions(ctx, userID, recentRedemptionsLimit)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Balance:     balance,
		Entries:     entries,
		Redemptions: redemptions,
		Eligibility: eligibilityFor(s.rules, balance),
	}, nil
}

// liveBalance 积分不过期时直接求和；否则回放全部流水，扣减先消耗最早的入账。
// 过期只在查询时计算，流水本身永不删除。
func liveBalance(ctx context.Context, repo repository.LedgerRepository, rules config.PointsConfig, userID string, now time.Time) (int64, error) {
	if rules.EntryTTL <= 0 {
		return repo.Balance(ctx, userID)
	}
	entries, err := repo.ListAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	return model.LiveBalance(entries, rules.EntryTTL, now), nil
}

func eligibilityFor(rules config.PointsConfig, balance int64) Eligibility {
	e := Eligibility{
		MinRedeem:       rules.MinRedeem,
		Unit:            rules.Unit,
		PointsPerDollar: rules.PointsPerDollar,
		MeetsMinimum:    balance >= rules.MinRedeem,
	}
	if e.MeetsMinimum {
		e.MaxRedeemable = balance - balance%rules.Unit
	}
	return e
}
