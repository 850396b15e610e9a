package points

import (
	"localdeals/internal/domain/points/handler"
	"localdeals/internal/domain/points/repository"
	"localdeals/internal/domain/points/service"
	userModel "localdeals/internal/domain/user/model"
	"localdeals/internal/pkg/middleware"
	"localdeals/internal/pkg/registry"
)

// ServiceLedger 其他模块通过该名称获取 service.LedgerService
const ServiceLedger = "points.ledger"

type PointsModule struct{}

func init() {
	registry.Register(&PointsModule{})
}

func (m *PointsModule) Name() string {
	return "points"
}

func (m *PointsModule) Priority() int {
	return 5
}

func (m *PointsModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewLedgerRepository(ctx.DB)
	ledger := service.NewLedgerService(repo, ctx.Config.Points, ctx.Logger)
	redemptions := service.NewRedemptionService(repo, ctx.Config.Points, ctx.Logger)
	ctx.Provide(ServiceLedger, ledger)

	h := handler.NewPointsHandler(ledger, redemptions)

	customer := ctx.Router.Group("/points")
	customer.Use(middleware.AuthMiddleware(), middleware.RequireRole(userModel.RoleCustomer))
	{
		customer.GET("", h.Summary)
		customer.GET("/entries", h.History)
		customer.POST("/redeem", h.Redeem)
	}

	admin := ctx.Router.Group("/admin/points")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(userModel.RoleAdmin))
	admin.POST("/adjust", h.Adjust)
	return nil
}
