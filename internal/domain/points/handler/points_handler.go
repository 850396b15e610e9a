package handler

import (
	"localdeals/internal/domain/points/model"
	"localdeals/internal/domain/points/service"
	"localdeals/internal/pkg/middleware"
	"localdeals/pkg/response"
	"localdeals/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	ledger      service.LedgerService
	redemptions service.RedemptionService
}

func NewPointsHandler(ledger service.LedgerService, redemptions service.RedemptionService) *PointsHandler {
	return &PointsHandler{ledger: ledger, redemptions: redemptions}
}

type RedeemInput struct {
	Points int64 `json:"points" binding:"required"`
}

type AdjustInput struct {
	UserID      string `json:"userId" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=bonus adjustment"`
	Description string `json:"description" binding:"required,max=255"`
}

// Summary 积分余额
// @Summary 积分余额、最近流水与兑换资格
// @Tags Points
// @Produce json
// @Success 200 {object} response.Response{data=service.Summary}
// @Router /points [get]
func (h *PointsHandler) Summary(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	summary, err := h.ledger.Summary(c.Request.Context(), p.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, summary)
}

// History 积分流水分页
// @Summary 积分流水
// @Tags Points
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /points/entries [get]
func (h *PointsHandler) History(c *gin.Context) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	entries, total, err := h.ledger.History(c.Request.Context(), p.UserID, &page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, utils.PageResult{
		List:  entries,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// Redeem 积分兑换余额
// @Summary 积分兑换账户余额
// @Tags Points
// @Accept json
// @Produce json
// @Param input body RedeemInput true "Points"
// @Success 200 {object} response.Response{data=service.RedeemResult}
// @Router /points/redeem [post]
func (h *PointsHandler) Redeem(c *gin.Context) {
	var input RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	p, _ := middleware.CurrentPrincipal(c)
	result, err := h.redemptions.Redeem(c.Request.Context(), p.UserID, input.Points)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Adjust 管理员调整
// @Summary 管理员补发或冲正积分
// @Tags Points
// @Accept json
// @Produce json
// @Param input body AdjustInput true "Adjustment"
// @Success 200 {object} response.Response
// @Router /admin/points/adjust [post]
func (h *PointsHandler) Adjust(c *gin.Context) {
	var input AdjustInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	id, err := h.ledger.Adjust(c.Request.Context(), input.UserID, input.Amount, model.EntryType(input.Type), input.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"entryId": id})
}
