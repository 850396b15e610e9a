package model

import (
	baseModel "localdeals/pkg/model"
	"time"
)

// 支付方式
const (
	TierIntegrated = "integrated" // 线上支付，网关异步回调确认
	TierManual     = "manual"     // 到店直付，商家手动确认
)

// State claim 的派生状态，不落库
type State string

const (
	StateCreated          State = "created"
	StateDepositConfirmed State = "deposit_confirmed"
	StateRedeemed         State = "redeemed"
	StateExpired          State = "expired"
	StateCancelled        State = "cancelled"
)

// Claim 顾客对 deal 的一次预定
// 只有 claim service 可以修改这些字段；取消即软删除
type Claim struct {
	baseModel.BaseModel
	DealID             string     `gorm:"type:uuid;index;not null" json:"dealId"`
	CustomerID         string     `gorm:"type:uuid;index;not null" json:"customerId"`
	PaymentTier        string     `gorm:"type:varchar(16);not null" json:"paymentTier"`
	DepositConfirmed   bool       `gorm:"not null;default:false" json:"depositConfirmed"`
	DepositConfirmedAt *time.Time `json:"depositConfirmedAt,omitempty"`
	ScanToken          *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	RedemptionCode     *string    `gorm:"type:varchar(16)" json:"-"`
	Redeemed           bool       `gorm:"not null;default:false" json:"redeemed"`
	RedeemedAt         *time.Time `json:"redeemedAt,omitempty"`
	ExpiresAt          time.Time  `gorm:"not null" json:"expiresAt"` // 领取时从 deal 复制，之后不随 deal 变化
	SessionToken       *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
}

// IsExpired 过期是派生谓词，在每次变更前求值
func (c *Claim) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsCancelled 是否已取消（软删除）
func (c *Claim) IsCancelled() bool {
	return c.DeletedAt.Valid
}

// State 计算当前状态：终态优先，其次过期，最后看是否已确认
func (c *Claim) State(now time.Time) State {
	switch {
	case c.IsCancelled():
		return StateCancelled
	case c.Redeemed:
		return StateRedeemed
	case c.IsExpired(now):
		return StateExpired
	case c.DepositConfirmed:
		return StateDepositConfirmed
	default:
		return StateCreated
	}
}

// Active 未核销、未过期、未取消
func (c *Claim) Active(now time.Time) bool {
	return !c.IsCancelled() && !c.Redeemed && !c.IsExpired(now)
}

// ClaimTransfer 转赠记录，只追加不修改
type ClaimTransfer struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClaimID        string    `gorm:"type:uuid;index;not null" json:"claimId"`
	FromCustomerID string    `gorm:"type:uuid;not null" json:"fromCustomerId"`
	ToCustomerID   string    `gorm:"type:uuid;not null" json:"toCustomerId"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
}

func (ClaimTransfer) TableName() string {
	return "claim_transfers"
}
