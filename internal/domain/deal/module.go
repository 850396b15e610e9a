package deal

import (
	"localdeals/internal/domain/deal/handler"
	"localdeals/internal/domain/deal/repository"
	"localdeals/internal/domain/deal/service"
	"localdeals/internal/pkg/middleware"
	"localdeals/internal/pkg/registry"
)

// ServiceDeals 其他模块通过该名称获取 service.DealService
const ServiceDeals = "deal.service"

// DealModule deal 容量查询；deal 的增删改由商家后台负责
type DealModule struct{}

func init() {
	registry.Register(&DealModule{})
}

func (m *DealModule) Name() string {
	return "deal"
}

func (m *DealModule) Priority() int {
	return 5
}

func (m *DealModule) Init(ctx *registry.ModuleContext) error {
	svc := service.NewDealService(repository.NewDealRepository(ctx.DB))
	ctx.Provide(ServiceDeals, svc)
	h := handler.NewDealHandler(svc)

	g := ctx.Router.Group("/deals")
	g.Use(middleware.AuthMiddleware())
	g.GET("/:id/availability", h.Availability)
	return nil
}
