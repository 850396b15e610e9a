package model

import (
	baseModel "localdeals/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

// Deal 商家发布的优惠
// 本服务只关心容量与时间窗口，其余字段由商家后台维护
type Deal struct {
	baseModel.BaseModel
	VendorID      string           `gorm:"type:uuid;index;not null" json:"vendorId"`
	Title         string           `gorm:"type:varchar(200);not null" json:"title"`
	OriginalPrice decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"originalPrice"`
	DealPrice     decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"dealPrice"`
	DepositAmount *decimal.Decimal `gorm:"type:numeric(12,2)" json:"depositAmount,omitempty"`
	MaxClaims     *int             `json:"maxClaims,omitempty"` // nil 表示不限量
	ClaimsCount   int              `gorm:"not null;default:0" json:"claimsCount"`
	StartsAt      time.Time        `gorm:"not null" json:"startsAt"`
	ExpiresAt     time.Time        `gorm:"not null" json:"expiresAt"`
	Status        string           `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
}

const (
	StatusDraft   = "draft"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusExpired = "expired"
)

// Available 是否可以领取：已上架且处于时间窗口内
func (d *Deal) Available(now time.Time) bool {
	return d.Status == StatusActive && !now.Before(d.StartsAt) && now.Before(d.ExpiresAt)
}

// Full 是否已满（只读判断，不能替代 TryReserveSlot）
func (d *Deal) Full() bool {
	return d.MaxClaims != nil && d.ClaimsCount >= *d.MaxClaims
}

// Remaining 剩余名额，-1 表示不限量
func (d *Deal) Remaining() int {
	if d.MaxClaims == nil {
		return -1
	}
	if left := *d.MaxClaims - d.ClaimsCount; left > 0 {
		return left
	}
	return 0
}

// Deposit 需要支付的定金，未单独设置时为券后价
func (d *Deal) Deposit() decimal.Decimal {
	if d.DepositAmount != nil {
		return *d.DepositAmount
	}
	return d.DealPrice
}
