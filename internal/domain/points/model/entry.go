package model

import (
	"fmt"
	"localdeals/internal/pkg/apperr"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewEntry 构造并校验一条流水；金额为 0 或类型未知时拒绝
func NewEntry(userID string, amount int64, entryType EntryType, description string, ref *Ref, now time.Time) (*LedgerEntry, error) {
	if amount == 0 {
		return nil, fmt.Errorf("ledger entry for %s: %w", userID, apperr.ErrInvalidAmount)
	}
	if !entryType.Valid() {
		return nil, fmt.Errorf("ledger entry type %q: %w", entryType, apperr.ErrInvalidEntryType)
	}

	entry := &LedgerEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      amount,
		Type:        entryType,
		Description: description,
		CreatedAt:   now,
	}
	if ref != nil {
		entry.DealID = optional(ref.DealID)
		entry.ClaimID = optional(ref.ClaimID)
		entry.RedemptionID = optional(ref.RedemptionID)
	}
	return entry, nil
}

// CreditFor 积分折算金额，保留两位小数
func CreditFor(points, pointsPerDollar int64) decimal.Decimal {
	return decimal.NewFromInt(points).Div(decimal.NewFromInt(pointsPerDollar)).Round(2)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
