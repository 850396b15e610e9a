package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session 线上支付会话，sessionToken 即网关侧的 out_trade_no
type Session struct {
	ClaimID      string          `json:"claimId"`
	Channel      string          `json:"channel"`
	SessionToken string          `json:"sessionToken"`
	Amount       decimal.Decimal `json:"amount"`
	PayParam     string          `json:"payParam"` // App 支付参数或收银台地址
}

// DeadLetter 重试耗尽的支付事件，需人工处理
type DeadLetter struct {
	Channel      string    `json:"channel"`
	EventID      string    `json:"eventId"`
	SessionToken string    `json:"sessionToken"`
	Attempts     int       `json:"attempts"`
	Error        string    `json:"error"`
	FailedAt     time.Time `json:"failedAt"`
}
