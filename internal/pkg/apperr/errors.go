// Package apperr 定义领域错误。
// 领域错误表示前置条件不满足，调用方不应自动重试；
// 其余错误一律视为基础设施错误。
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyRedeemed      = errors.New("already redeemed")
	ErrExpired              = errors.New("expired")
	ErrAtCapacity           = errors.New("deal at capacity")
	ErrNotOwner             = errors.New("not the owner of this claim")
	ErrSelfTransfer         = errors.New("cannot transfer a claim to yourself")
	ErrDuplicateActiveClaim = errors.New("customer already holds an active claim on this deal")
	ErrNotConfirmed         = errors.New("deposit not confirmed")
	ErrDealUnavailable      = errors.New("deal is not available")
	ErrInvalidProof         = errors.New("scan token or redemption code does not match")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrWrongPaymentTier     = errors.New("operation not allowed for this payment tier")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyConfirmed     = errors.New("deposit already confirmed")

	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBelowMinimumRedemption = errors.New("below minimum redemption")
	ErrNotAMultipleOfUnit     = errors.New("not a multiple of the redemption unit")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidEntryType       = errors.New("invalid ledger entry type")

	ErrInvalidEvent       = errors.New("invalid payment event")
	ErrChannelUnavailable = errors.New("payment channel not available")
)

var domainErrors = []error{
	ErrNotFound,
	ErrAlreadyRedeemed,
	ErrExpired,
	ErrAtCapacity,
	ErrNotOwner,
	ErrSelfTransfer,
	ErrDuplicateActiveClaim,
	ErrNotConfirmed,
	ErrDealUnavailable,
	ErrInvalidProof,
	ErrRecipientNotFound,
	ErrWrongPaymentTier,
	ErrForbidden,
	ErrAlreadyConfirmed,
	ErrInsufficientBalance,
	ErrBelowMinimumRedemption,
	ErrNotAMultipleOfUnit,
	ErrInvalidAmount,
	ErrInvalidEntryType,
	ErrInvalidEvent,
	ErrChannelUnavailable,
}

// IsDomain 判断是否为领域错误
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

var labels = map[error]string{
	ErrNotFound:             "not_found",
	ErrAlreadyRedeemed:      "already_redeemed",
	ErrExpired:              "expired",
	ErrAtCapacity:           "at_capacity",
	ErrNotOwner:             "not_owner",
	ErrSelfTransfer:         "self_transfer",
	ErrDuplicateActiveClaim: "duplicate_active_claim",
	ErrNotConfirmed:         "not_confirmed",
	ErrDealUnavailable:      "deal_unavailable",
	ErrInvalidProof:         "invalid_proof",
	ErrRecipientNotFound:    "recipient_not_found",
	ErrWrongPaymentTier:     "wrong_payment_tier",
	ErrForbidden:            "forbidden",
	ErrAlreadyConfirmed:     "already_confirmed",
	ErrInvalidEvent:         "invalid_event",
}

// Label 指标标签：nil 为 ok，领域错误取短名，其余为 error
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			if l, ok := labels[d]; ok {
				return l
			}
			return "domain"
		}
	}
	return "error"
}
