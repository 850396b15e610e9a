package repository

import (
	"context"
	"localdeals/internal/domain/points/model"
	"localdeals/pkg/database"

	"gorm.io/gorm"
)

// LedgerRepository 积分流水仓库
// 刻意不提供 Update / Delete
type LedgerRepository interface {
	Append(ctx context.Context, entry *model.LedgerEntry) error
	// Balance 全部流水求和，积分不过期时即为余额
	Balance(ctx context.Context, userID string) (int64, error)
	// ListAll 按时间升序返回全部流水，用于过期回放
	ListAll(ctx context.Context, userID string) ([]model.LedgerEntry, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error)
	PageEntries(ctx context.Context, userID string, offset, limit int) ([]model.LedgerEntry, int64, error)
	CreateRedemption(ctx context.Context, r *model.Redemption) error
	ListRedemptions(ctx context.Context, userID string, limit int) ([]model.Redemption, error)
	// LockUser 在当前事务内串行化同一用户的扣减
	LockUser(ctx context.Context, userID string) error
	Transaction(ctx context.Context, fn func(tx LedgerRepository) error) error
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *ledgerRepository) ListAll(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) ListEntries(ctx context.Context, userID string, limit int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) PageEntries(ctx context.Context, userID string, offset, limit int) ([]model.LedgerEntry, int64, error) {
	var (
		entries []model.LedgerEntry
		total   int64
	)
	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *ledgerRepository) CreateRedemption(ctx context.Context, redemption *model.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *ledgerRepository) ListRedemptions(ctx context.Context, userID string, limit int) ([]model.Redemption, error) {
	var list []model.Redemption
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ledgerRepository) LockUser(ctx context.Context, userID string) error {
	return database.AdvisoryXactLock(ctx, r.db, "points", userID)
}

func (r *ledgerRepository) Transaction(ctx context.Context, fn func(tx LedgerRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
