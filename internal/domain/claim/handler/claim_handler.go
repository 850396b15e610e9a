package handler

import (
	"localdeals/internal/domain/claim/service"
	"localdeals/internal/pkg/middleware"
	"localdeals/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ClaimHandler struct {
	service service.ClaimService
}

func NewClaimHandler(s service.ClaimService) *ClaimHandler {
	return &ClaimHandler{service: s}
}

type CreateClaimInput struct {
	PaymentTier string `json:"paymentTier" binding:"omitempty,oneof=integrated manual"`
}

type TransferInput struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
}

type RedeemInput struct {
	ScanToken string `json:"scanToken"`
	DealID    string `json:"dealId"`
	Code      string `json:"code"`
}

// CreateClaim 领取 deal
// @Summary 领取 deal
// @Tags Claim
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param input body CreateClaimInput false "Payment tier"
// @Success 200 {object} response.Response{data=model.Claim}
// @Router /deals/{id}/claims [post]
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	var input CreateClaimInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
	}

	p, _ := middleware.CurrentPrincipal(c)
	claim, err := h.service.Create(c.Request.Context(), p.UserID, c.Param("id"), input.PaymentTier)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, claim)
}

// ListClaims 我的有效 claim
// @Summary 我的有效 claim
// @Tags Claim
// @Produce json
// @Success 200 {object} response.Response{data=[]service.ClaimView}
// @Router /claims [get]
func (h *ClaimHandler) ListClaims(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	views, err := h.service.ListActive(c.Request.Context(), p.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, views)
}

// GetClaim claim 详情，包含核销二维码 token 与核销码
// @Summary claim 详情
// @Tags Claim
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Response{data=service.ClaimView}
// @Router /claims/{id} [get]
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	view, err := h.service.Get(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, view)
}

// CancelClaim 取消 claim，定金不退
// @Summary 取消 claim
// @Tags Claim
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Response
// @Router /claims/{id} [delete]
func (h *ClaimHandler) CancelClaim(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	if err := h.service.Cancel(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, "Claim cancelled")
}

// TransferClaim 转赠
// @Summary 转赠 claim
// @Tags Claim
// @Accept json
// @Produce json
// @Param id path string true "Claim ID"
// @Param input body TransferInput true "Recipient"
// @Success 200 {object} response.Response{data=model.ClaimTransfer}
// @Router /claims/{id}/transfer [post]
func (h *ClaimHandler) TransferClaim(c *gin.Context) {
	var input TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	record, err := h.service.Transfer(c.Request.Context(), p.UserID, c.Param("id"), input.RecipientEmail)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *ClaimHandler) ListTransfers(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	list, err := h.service.ListTransfers(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// ListPending 商家待确认的到店支付 claim
func (h *ClaimHandler) ListPending(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	list, err := h.service.ListPendingConfirmations(c.Request.Context(), p.VendorID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// ConfirmClaim 商家确认到店支付的定金
// @Summary 商家确认定金
// @Tags Vendor
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Response{data=service.ConfirmResult}
// @Router /vendor/claims/{id}/confirm [post]
func (h *ClaimHandler) ConfirmClaim(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	res, err := h.service.ConfirmManually(c.Request.Context(), p.VendorID, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// ResolveScan 扫码查看 claim 状态，不会核销
// @Summary 扫码查询
// @Tags Vendor
// @Produce json
// @Param token path string true "Scan token"
// @Success 200 {object} response.Response{data=service.ScanResolution}
// @Router /vendor/scan/{token} [get]
func (h *ClaimHandler) ResolveScan(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	res, err := h.service.ResolveScanToken(c.Request.Context(), p.VendorID, c.Param("token"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, res)
}

// Redeem 核销
// @Summary 核销 claim
// @Tags Vendor
// @Accept json
// @Produce json
// @Param input body RedeemInput true "Scan token, or deal id + code"
// @Success 200 {object} response.Response{data=model.Claim}
// @Router /vendor/redeem [post]
func (h *ClaimHandler) Redeem(c *gin.Context) {
	var input RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	claim, err := h.service.Redeem(c.Request.Context(), p.VendorID, service.Proof{
		ScanToken: input.ScanToken,
		DealID:    input.DealID,
		Code:      input.Code,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, claim)
}
