package payment

import (
	"context"
	"localdeals/internal/domain/claim"
	claimService "localdeals/internal/domain/claim/service"
	"localdeals/internal/domain/deal"
	dealService "localdeals/internal/domain/deal/service"
	"localdeals/internal/domain/payment/handler"
	"localdeals/internal/domain/payment/repository"
	"localdeals/internal/domain/payment/service"
	"localdeals/internal/domain/payment/strategy"
	userModel "localdeals/internal/domain/user/model"
	"localdeals/internal/pkg/middleware"
	"localdeals/internal/pkg/registry"
	"localdeals/internal/pkg/worker"
	"localdeals/pkg/cache"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentModule 支付会话与回调对账
type PaymentModule struct {
	pool *worker.WorkerPool
}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 依赖 claim 与 deal 模块
	return 20
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	claims, err := registry.Resolve[claimService.ClaimService](ctx, claim.ServiceClaims)
	if err != nil {
		return err
	}
	deals, err := registry.Resolve[dealService.DealService](ctx, deal.ServiceDeals)
	if err != nil {
		return err
	}

	var dedupe cache.CacheService
	var deadLetters repository.DeadLetterRepository
	if ctx.Redis != nil {
		dedupe = cache.NewRedisCache(ctx.Redis, "localdeals:")
		deadLetters = repository.NewDeadLetterRepository(ctx.Redis)
	} else {
		ctx.Logger.Warn("redis unavailable, payment dedupe and dead-letter list disabled")
	}

	m.pool = worker.NewWorkerPool(ctx.Config.Worker, ctx.Logger.Named("payment-retry"), service.NewDeadLetterFunc(deadLetters, ctx.Logger))
	m.pool.Start()

	svc := service.NewPaymentService(claims, deals, dedupe, m.pool, deadLetters, ctx.Logger)

	// 2. 注册支付策略，未配置的渠道跳过
	if ctx.Config.Alipay.AppID != "" {
		if s, err := strategy.NewAlipayStrategy(ctx.Config.Alipay); err != nil {
			ctx.Logger.Error("failed to init alipay strategy", zap.Error(err))
		} else {
			svc.RegisterStrategy(strategy.ChannelAlipay, s)
		}
	}
	if ctx.Config.Wechat.MchID != "" {
		if s, err := strategy.NewWechatStrategy(context.Background(), ctx.Config.Wechat); err != nil {
			ctx.Logger.Error("failed to init wechat strategy", zap.Error(err))
		} else {
			svc.RegisterStrategy(strategy.ChannelWechat, s)
		}
	}
	if ctx.Config.Gateway.WebhookSecret != "" {
		if s, err := strategy.NewSignedStrategy(ctx.Config.Gateway); err != nil {
			ctx.Logger.Error("failed to init signed gateway strategy", zap.Error(err))
		} else {
			svc.RegisterStrategy(strategy.ChannelSigned, s)
		}
	}

	// 3. 路由注册
	setupRoutes(ctx.Router, handler.NewPaymentHandler(svc))
	return nil
}

// Shutdown 等待重试中的支付事件结束
func (m *PaymentModule) Shutdown() {
	if m.pool != nil {
		m.pool.Stop()
	}
}

func setupRoutes(r *gin.Engine, h *handler.PaymentHandler) {
	g := r.Group("/payment")

	// 支付回调 (无需鉴权，但需验签)
	g.POST("/notify/alipay", h.AlipayNotify)
	g.POST("/notify/wechat", h.WechatNotify)
	g.POST("/notify/signed", h.SignedNotify)

	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware(), middleware.RequireRole(userModel.RoleCustomer))
	{
		auth.POST("/sessions", h.OpenSession)
	}
}
