package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 身份与权限 100xx
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 核销券模块错误 200xx
	ErrClaimNotFound        = 20001
	ErrDealAtCapacity       = 20002
	ErrDuplicateActiveClaim = 20003
	ErrClaimExpired         = 20004
	ErrClaimRedeemed        = 20005
	ErrNotClaimOwner        = 20006
	ErrSelfTransfer         = 20007
	ErrClaimNotConfirmed    = 20008
	ErrDealUnavailable      = 20009
	ErrInvalidProof         = 20010
	ErrRecipientNotFound    = 20011
	ErrWrongPaymentTier     = 20012
	ErrAlreadyConfirmed     = 20013

	// 积分模块错误 300xx
	ErrInsufficientBalance = 30001
	ErrBelowMinimum        = 30002
	ErrNotMultipleOfUnit   = 30003
	ErrInvalidAmount       = 30004

	// 支付回调 400xx
	ErrInvalidPaymentEvent = 40001
	ErrChannelUnavailable  = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
