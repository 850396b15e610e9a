package claim

import (
	"localdeals/internal/domain/claim/handler"
	"localdeals/internal/domain/claim/repository"
	"localdeals/internal/domain/claim/service"
	"localdeals/internal/domain/user"
	userModel "localdeals/internal/domain/user/model"
	userService "localdeals/internal/domain/user/service"
	"localdeals/internal/pkg/middleware"
	"localdeals/internal/pkg/push"
	"localdeals/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceClaims 其他模块通过该名称获取 service.ClaimService
const ServiceClaims = "claim.service"

// ClaimModule claim 生命周期模块
type ClaimModule struct{}

func init() {
	registry.Register(&ClaimModule{})
}

func (m *ClaimModule) Name() string {
	return "claim"
}

func (m *ClaimModule) Priority() int {
	// 依赖用户目录
	return 10
}

func (m *ClaimModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	dir, err := registry.Resolve[userService.Directory](ctx, user.ServiceDirectory)
	if err != nil {
		return err
	}

	var notifier service.Notifier
	if pushSvc, err := push.NewAliyunPushService(ctx.Config.Push); err != nil {
		ctx.Logger.Warn("push disabled", zap.Error(err))
	} else {
		notifier = push.NewClaimNotifier(pushSvc, ctx.Logger)
	}

	svc := service.NewClaimService(repository.NewStore(ctx.DB), dir, notifier, ctx.Config.Points, ctx.Logger)
	ctx.Provide(ServiceClaims, svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, handler.NewClaimHandler(svc))
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ClaimHandler) {
	customer := r.Group("")
	customer.Use(middleware.AuthMiddleware(), middleware.RequireRole(userModel.RoleCustomer))
	{
		customer.POST("/deals/:id/claims", h.CreateClaim)
		customer.GET("/claims", h.ListClaims)
		customer.GET("/claims/:id", h.GetClaim)
		customer.DELETE("/claims/:id", h.CancelClaim)
		customer.POST("/claims/:id/transfer", h.TransferClaim)
		customer.GET("/claims/:id/transfers", h.ListTransfers)
	}

	vendor := r.Group("/vendor")
	vendor.Use(middleware.AuthMiddleware(), middleware.RequireRole(userModel.RoleVendor))
	{
		vendor.GET("/claims/pending", h.ListPending)
		vendor.POST("/claims/:id/confirm", h.ConfirmClaim)
		vendor.GET("/scan/:token", h.ResolveScan)
		vendor.POST("/redeem", h.Redeem)
	}
}
