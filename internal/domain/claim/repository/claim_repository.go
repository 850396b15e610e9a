package repository

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/claim/model"
	"localdeals/internal/pkg/apperr"
	"localdeals/pkg/database"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimRepository claim 持久化
// Lock* 系列必须在事务内调用，行锁持续到事务结束；已取消（软删除）的 claim 对所有查询不可见
type ClaimRepository interface {
	Create(ctx context.Context, claim *model.Claim) error
	GetByID(ctx context.Context, id string) (*model.Claim, error)
	GetByScanToken(ctx context.Context, token string) (*model.Claim, error)

	LockByID(ctx context.Context, id string) (*model.Claim, error)
	LockBySession(ctx context.Context, sessionToken string) (*model.Claim, error)
	LockByScanToken(ctx context.Context, token string) (*model.Claim, error)
	LockByCode(ctx context.Context, dealID, code string) (*model.Claim, error)

	Save(ctx context.Context, claim *model.Claim) error
	SoftDelete(ctx context.Context, claim *model.Claim) error

	// HasActiveClaim 顾客在该 deal 上是否还有未核销未过期的 claim
	HasActiveClaim(ctx context.Context, customerID, dealID string, now time.Time) (bool, error)
	// LockCustomerDeal 串行化同一 (customer, deal) 的创建与转入
	LockCustomerDeal(ctx context.Context, customerID, dealID string) error

	ListActive(ctx context.Context, customerID string, now time.Time) ([]model.Claim, error)
	ListPendingManual(ctx context.Context, vendorID string, now time.Time) ([]model.Claim, error)

	InsertTransfer(ctx context.Context, t *model.ClaimTransfer) error
	ListTransfers(ctx context.Context, claimID string) ([]model.ClaimTransfer, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*model.Claim, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id), "claim "+id)
}

func (r *claimRepository) GetByScanToken(ctx context.Context, token string) (*model.Claim, error) {
	return r.first(r.db.WithContext(ctx).Where("scan_token = ?", token), "claim by scan token")
}

func (r *claimRepository) LockByID(ctx context.Context, id string) (*model.Claim, error) {
	return r.first(r.forUpdate(ctx).Where("id = ?", id), "claim "+id)
}

func (r *claimRepository) LockBySession(ctx context.Context, sessionToken string) (*model.Claim, error) {
	return r.first(r.forUpdate(ctx).Where("session_token = ?", sessionToken), "claim by session "+sessionToken)
}

func (r *claimRepository) LockByScanToken(ctx context.Context, token string) (*model.Claim, error) {
	return r.first(r.forUpdate(ctx).Where("scan_token = ?", token), "claim by scan token")
}

func (r *claimRepository) LockByCode(ctx context.Context, dealID, code string) (*model.Claim, error) {
	return r.first(r.forUpdate(ctx).Where("deal_id = ? AND redemption_code = ?", dealID, code), "claim by code")
}

func (r *claimRepository) Save(ctx context.Context, claim *model.Claim) error {
	return r.db.WithContext(ctx).Save(claim).Error
}

func (r *claimRepository) SoftDelete(ctx context.Context, claim *model.Claim) error {
	return r.db.WithContext(ctx).Delete(claim).Error
}

func (r *claimRepository) HasActiveClaim(ctx context.Context, customerID, dealID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Claim{}).
		Where("customer_id = ? AND deal_id = ? AND redeemed = ? AND expires_at > ?", customerID, dealID, false, now).
		Count(&count).Error
	return count > 0, err
}

func (r *claimRepository) LockCustomerDeal(ctx context.Context, customerID, dealID string) error {
	return database.AdvisoryXactLock(ctx, r.db, "claim", customerID, dealID)
}

func (r *claimRepository) ListActive(ctx context.Context, customerID string, now time.Time) ([]model.Claim, error) {
	var claims []model.Claim
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND redeemed = ? AND expires_at > ?", customerID, false, now).
		Order("created_at DESC").
		Find(&claims).Error
	return claims, err
}

func (r *claimRepository) ListPendingManual(ctx context.Context, vendorID string, now time.Time) ([]model.Claim, error) {
	var claims []model.Claim
	err := r.db.WithContext(ctx).
		Joins("JOIN deals ON deals.id = claims.deal_id").
		Where("deals.vendor_id = ?", vendorID).
		Where("claims.payment_tier = ? AND claims.deposit_confirmed = ? AND claims.expires_at > ?", model.TierManual, false, now).
		Order("claims.created_at ASC").
		Find(&claims).Error
	return claims, err
}

func (r *claimRepository) InsertTransfer(ctx context.Context, t *model.ClaimTransfer) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *claimRepository) ListTransfers(ctx context.Context, claimID string) ([]model.ClaimTransfer, error) {
	var list []model.ClaimTransfer
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *claimRepository) forUpdate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *claimRepository) first(q *gorm.DB, what string) (*model.Claim, error) {
	var claim model.Claim
	if err := q.First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &claim, nil
}
