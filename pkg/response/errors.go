package response

import (
	"errors"
	"localdeals/internal/pkg/apperr"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 基础设施错误对用户统一展示的提示：可安全地刷新后重试
const retryMessage = "Something went wrong on our side. Please refresh and try again."

type errorMapping struct {
	err     error
	status  int
	code    int
	message string
}

// 领域错误 -> HTTP 状态、业务码、稳定的用户提示
var errorMappings = []errorMapping{
	{apperr.ErrNotFound, http.StatusNotFound, ErrClaimNotFound, "We couldn't find that coupon."},
	{apperr.ErrAtCapacity, http.StatusOK, ErrDealAtCapacity, "Sorry, this deal is sold out."},
	{apperr.ErrDuplicateActiveClaim, http.StatusOK, ErrDuplicateActiveClaim, "You already have an active coupon for this deal."},
	{apperr.ErrExpired, http.StatusOK, ErrClaimExpired, "This coupon has already expired."},
	{apperr.ErrAlreadyRedeemed, http.StatusOK, ErrClaimRedeemed, "This coupon has already been redeemed."},
	{apperr.ErrNotOwner, http.StatusForbidden, ErrNotClaimOwner, "This coupon does not belong to you."},
	{apperr.ErrSelfTransfer, http.StatusOK, ErrSelfTransfer, "You can't transfer a coupon to yourself."},
	{apperr.ErrNotConfirmed, http.StatusOK, ErrClaimNotConfirmed, "The deposit for this coupon hasn't been confirmed yet."},
	{apperr.ErrDealUnavailable, http.StatusOK, ErrDealUnavailable, "This deal is not currently available."},
	{apperr.ErrInvalidProof, http.StatusOK, ErrInvalidProof, "The code doesn't match this coupon."},
	{apperr.ErrRecipientNotFound, http.StatusOK, ErrRecipientNotFound, "We couldn't find a customer with that email."},
	{apperr.ErrWrongPaymentTier, http.StatusOK, ErrWrongPaymentTier, "This action isn't available for this payment method."},
	{apperr.ErrAlreadyConfirmed, http.StatusOK, ErrAlreadyConfirmed, "The deposit for this coupon is already confirmed."},
	{apperr.ErrForbidden, http.StatusForbidden, ErrNoPermission, "You don't have permission to do that."},
	{apperr.ErrInsufficientBalance, http.StatusOK, ErrInsufficientBalance, "Insufficient balance."},
	{apperr.ErrBelowMinimumRedemption, http.StatusOK, ErrBelowMinimum, "The amount is below the minimum redemption."},
	{apperr.ErrNotAMultipleOfUnit, http.StatusOK, ErrNotMultipleOfUnit, "Points must be redeemed in whole units."},
	{apperr.ErrInvalidAmount, http.StatusBadRequest, ErrInvalidAmount, "The amount is not valid."},
	{apperr.ErrInvalidEntryType, http.StatusBadRequest, ErrInvalidParam, "The entry type is not valid."},
	{apperr.ErrInvalidEvent, http.StatusBadRequest, ErrInvalidPaymentEvent, "The payment event could not be verified."},
	{apperr.ErrChannelUnavailable, http.StatusOK, ErrChannelUnavailable, "This payment method is not available right now."},
}

// Describe 返回错误对应的 HTTP 状态、业务码与用户提示
func Describe(err error) (int, int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, ErrServerInternal, retryMessage
}

// FromError 将 service 层错误写回客户端
// 领域错误返回具体提示，其余错误不暴露内部细节
func FromError(c *gin.Context, err error) {
	status, code, msg := Describe(err)
	if !apperr.IsDomain(err) {
		_ = c.Error(err)
	}
	Error(c, status, code, msg)
}
