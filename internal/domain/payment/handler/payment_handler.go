package handler

import (
	"errors"
	"localdeals/internal/domain/payment/service"
	"localdeals/internal/domain/payment/strategy"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/middleware"
	"localdeals/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type OpenSessionInput struct {
	ClaimID string `json:"claimId" binding:"required"`
	Channel string `json:"channel" binding:"required,oneof=alipay wechat signed"`
}

// OpenSession 发起支付
// @Summary 为线上支付的 claim 发起支付
// @Tags Payment
// @Accept json
// @Produce json
// @Param input body OpenSessionInput true "Claim and channel"
// @Success 200 {object} response.Response{data=model.Session}
// @Router /payment/sessions [post]
func (h *PaymentHandler) OpenSession(c *gin.Context) {
	var input OpenSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	session, err := h.service.OpenSession(c.Request.Context(), p.UserID, input.ClaimID, input.Channel)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, session)
}

// AlipayNotify 支付宝回调
// @Summary 支付宝回调
// @Tags Payment
// @Router /payment/notify/alipay [post]
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	if err := h.service.HandleNotify(c.Request.Context(), strategy.ChannelAlipay, c.Request); err != nil {
		_ = c.Error(err)
		c.String(http.StatusOK, "fail") // 支付宝会按自己的策略重投
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付回调
// @Summary 微信支付回调
// @Tags Payment
// @Router /payment/notify/wechat [post]
func (h *PaymentHandler) WechatNotify(c *gin.Context) {
	if err := h.service.HandleNotify(c.Request.Context(), strategy.ChannelWechat, c.Request); err != nil {
		_ = c.Error(err)
		c.JSON(notifyStatus(err), gin.H{"code": "FAIL", "message": "失败"})
		return
	}
	// 返回 2xx 表示成功
	c.Status(http.StatusOK)
}

// SignedNotify 通用签名网关回调
// @Summary 通用签名网关回调
// @Tags Payment
// @Router /payment/notify/signed [post]
func (h *PaymentHandler) SignedNotify(c *gin.Context) {
	if err := h.service.HandleNotify(c.Request.Context(), strategy.ChannelSigned, c.Request); err != nil {
		_ = c.Error(err)
		c.JSON(notifyStatus(err), gin.H{"received": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// notifyStatus 验签失败 400，其余 500 让网关重投
func notifyStatus(err error) int {
	if errors.Is(err, apperr.ErrInvalidEvent) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
