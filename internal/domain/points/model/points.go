package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType 积分流水类型
type EntryType string

const (
	EntryEarned      EntryType = "earned"
	EntryBonus       EntryType = "bonus"
	EntryAdjustment  EntryType = "adjustment"
	EntryRedeemed    EntryType = "redeemed"
	EntrySpendCredit EntryType = "spend_credit"
)

// Valid 是否为已知类型
func (t EntryType) Valid() bool {
	switch t {
	case EntryEarned, EntryBonus, EntryAdjustment, EntryRedeemed, EntrySpendCredit:
		return true
	}
	return false
}

// LedgerEntry 积分流水，只追加不修改不删除；冲正通过追加负数条目完成
type LedgerEntry struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string    `gorm:"type:uuid;index:idx_points_ledger_user_created,priority:1;not null" json:"userId"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Type         EntryType `gorm:"type:varchar(20);not null" json:"type"`
	DealID       *string   `gorm:"type:uuid" json:"dealId,omitempty"`
	ClaimID      *string   `gorm:"type:uuid" json:"claimId,omitempty"`
	RedemptionID *string   `gorm:"type:uuid" json:"redemptionId,omitempty"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt    time.Time `gorm:"index:idx_points_ledger_user_created,priority:2;not null" json:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "points_ledger"
}

// Ref 流水关联的业务对象
type Ref struct {
	DealID       string
	ClaimID      string
	RedemptionID string
}

// Redemption 积分兑换余额记录，与对应的 spend_credit 流水同事务写入
type Redemption struct {
	ID           string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string          `gorm:"type:uuid;index;not null" json:"userId"`
	PointsUsed   int64           `gorm:"not null" json:"pointsUsed"`
	CreditAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"creditAmount"`
	CreatedAt    time.Time       `gorm:"not null" json:"createdAt"`
}

func (Redemption) TableName() string {
	return "points_redemptions"
}
