package repository

import (
	"context"
	dealRepo "localdeals/internal/domain/deal/repository"
	pointsRepo "localdeals/internal/domain/points/repository"

	"gorm.io/gorm"
)

// Store claim 引擎的工作单元：claim、deal 容量、积分流水在同一个事务里提交
type Store interface {
	Claims() ClaimRepository
	Deals() dealRepo.DealRepository
	Ledger() pointsRepo.LedgerRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Claims() ClaimRepository {
	return NewClaimRepository(s.db)
}

func (s *gormStore) Deals() dealRepo.DealRepository {
	return dealRepo.NewDealRepository(s.db)
}

func (s *gormStore) Ledger() pointsRepo.LedgerRepository {
	return pointsRepo.NewLedgerRepository(s.db)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
