package repository

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/deal/model"
	"localdeals/internal/pkg/apperr"

	"gorm.io/gorm"
)

// ErrCounterUnderflow 释放名额时计数器已为 0，说明调用方违反了只释放已确认 claim 的约定
var ErrCounterUnderflow = errors.New("deal claims_count underflow")

// DealRepository deal 只读查询 + 容量控制
type DealRepository interface {
	GetByID(ctx context.Context, id string) (*model.Deal, error)
	CapacityRepository
}

// CapacityRepository 容量控制：claims_count 只能通过这里的原子条件更新修改
type CapacityRepository interface {
	// TryReserveSlot 占用一个名额；已满返回 apperr.ErrAtCapacity
	TryReserveSlot(ctx context.Context, dealID string) error
	// ReleaseSlot 归还一个名额，仅用于已确认定金的 claim
	ReleaseSlot(ctx context.Context, dealID string) error
}

type dealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) DealRepository {
	return &dealRepository{db: db}
}

func (r *dealRepository) GetByID(ctx context.Context, id string) (*model.Deal, error) {
	var deal model.Deal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&deal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("deal %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &deal, nil
}

// TryReserveSlot 单条条件 UPDATE 完成检查与自增，避免先读后写的丢失更新
func (r *dealRepository) TryReserveSlot(ctx context.Context, dealID string) error {
	result := r.db.WithContext(ctx).Model(&model.Deal{}).
		Where("id = ? AND (max_claims IS NULL OR claims_count < max_claims)", dealID).
		UpdateColumn("claims_count", gorm.Expr("claims_count + ?", 1))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missOrFull(ctx, dealID, apperr.ErrAtCapacity)
	}
	return nil
}

func (r *dealRepository) ReleaseSlot(ctx context.Context, dealID string) error {
	result := r.db.WithContext(ctx).Model(&model.Deal{}).
		Where("id = ? AND claims_count > 0", dealID).
		UpdateColumn("claims_count", gorm.Expr("claims_count - ?", 1))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missOrFull(ctx, dealID, ErrCounterUnderflow)
	}
	return nil
}

// missOrFull 区分 deal 不存在与条件不满足
func (r *dealRepository) missOrFull(ctx context.Context, dealID string, cause error) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Deal{}).Where("id = ?", dealID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("deal %s: %w", dealID, apperr.ErrNotFound)
	}
	return fmt.Errorf("deal %s: %w", dealID, cause)
}
