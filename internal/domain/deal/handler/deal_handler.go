package handler

import (
	"localdeals/internal/domain/deal/service"
	"localdeals/pkg/response"

	"github.com/gin-gonic/gin"
)

type DealHandler struct {
	service service.DealService
}

func NewDealHandler(s service.DealService) *DealHandler {
	return &DealHandler{service: s}
}

// Availability 剩余名额
// @Summary 查询 deal 剩余名额
// @Tags Deal
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} response.Response{data=service.Availability}
// @Router /deals/{id}/availability [get]
func (h *DealHandler) Availability(c *gin.Context) {
	a, err := h.service.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, a)
}
