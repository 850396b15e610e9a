package service

import (
	"context"
	"fmt"
	claimModel "localdeals/internal/domain/claim/model"
	claimService "localdeals/internal/domain/claim/service"
	dealService "localdeals/internal/domain/deal/service"
	"localdeals/internal/domain/payment/model"
	"localdeals/internal/domain/payment/repository"
	"localdeals/internal/domain/payment/strategy"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/worker"
	"localdeals/pkg/cache"
	"localdeals/pkg/metrics"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// OpenSession 为线上支付的 claim 发起支付，重复调用沿用同一个会话
	OpenSession(ctx context.Context, customerID, claimID, channel string) (*model.Session, error)
	// HandleNotify 验签后驱动 claim 确认；返回 nil 表示可以向网关确认收到
	HandleNotify(ctx context.Context, channel string, req *http.Request) error
	RegisterStrategy(channel string, s strategy.PaymentStrategy)
}

// Claims 支付依赖的 claim 操作
type Claims interface {
	Get(ctx context.Context, customerID, claimID string) (*claimService.ClaimView, error)
	AttachSession(ctx context.Context, customerID, claimID, sessionToken string) (*claimModel.Claim, error)
	ConfirmBySession(ctx context.Context, sessionToken string) (*claimService.ConfirmResult, error)
}

// Deals 查询定金金额
type Deals interface {
	Availability(ctx context.Context, dealID string) (*dealService.Availability, error)
}

// Retrier 瞬时错误交给重试池
type Retrier interface {
	AddTask(task worker.Task) error
}

type paymentService struct {
	claims      Claims
	deals       Deals
	strategies  map[string]strategy.PaymentStrategy
	dedupe      cache.CacheService // 可为空
	retrier     Retrier
	deadLetters repository.DeadLetterRepository // 可为空，仅记录日志
	logger      *zap.Logger
	metrics     *metrics.MetricsCollector
	now         func() time.Time
}

func NewPaymentService(claims Claims, deals Deals, dedupe cache.CacheService, retrier Retrier, deadLetters repository.DeadLetterRepository, logger *zap.Logger) PaymentService {
	return &paymentService{
		claims:      claims,
		deals:       deals,
		strategies:  make(map[string]strategy.PaymentStrategy),
		dedupe:      dedupe,
		retrier:     retrier,
		deadLetters: deadLetters,
		logger:      logger,
		metrics:     metrics.GetGlobalCollector(),
		now:         time.Now,
	}
}

// RegisterStrategy 注册支付策略
func (s *paymentService) RegisterStrategy(channel string, st strategy.PaymentStrategy) {
	s.strategies[channel] = st
}

func (s *paymentService) OpenSession(ctx context.Context, customerID, claimID, channel string) (*model.Session, error) {
	st, ok := s.strategies[channel]
	if !ok {
		return nil, fmt.Errorf("channel %q: %w", channel, apperr.ErrChannelUnavailable)
	}

	view, err := s.claims.Get(ctx, customerID, claimID)
	if err != nil {
		return nil, err
	}
	if view.PaymentTier != claimModel.TierIntegrated {
		return nil, fmt.Errorf("claim %s is %s: %w", claimID, view.PaymentTier, apperr.ErrWrongPaymentTier)
	}
	switch view.State {
	case claimModel.StateCreated:
	case claimModel.StateDepositConfirmed:
		return nil, fmt.Errorf("claim %s: %w", claimID, apperr.ErrAlreadyConfirmed)
	case claimModel.StateRedeemed:
		return nil, fmt.Errorf("claim %s: %w", claimID, apperr.ErrAlreadyRedeemed)
	default:
		return nil, fmt.Errorf("claim %s: %w", claimID, apperr.ErrExpired)
	}

	deal, err := s.deals.Availability(ctx, view.DealID)
	if err != nil {
		return nil, err
	}

	// 已有会话时沿用，旧会话的回调仍能找到 claim
	var token string
	if view.SessionToken != nil {
		token = *view.SessionToken
	} else {
		token = newSessionToken(s.now())
		if _, err := s.claims.AttachSession(ctx, customerID, claimID, token); err != nil {
			return nil, err
		}
	}

	payParam, err := st.Pay(ctx, token, deal.Deposit, deal.Title)
	if err != nil {
		return nil, fmt.Errorf("%s pay: %w", channel, err)
	}

	s.logger.Info("payment session opened",
		zap.String("claim_id", claimID),
		zap.String("channel", channel),
		zap.String("session_token", token))
	return &model.Session{
		ClaimID:      claimID,
		Channel:      channel,
		SessionToken: token,
		Amount:       deal.Deposit,
		PayParam:     payParam,
	}, nil
}

// newSessionToken 时间前缀加随机串，30 位，满足各网关 out_trade_no 长度限制
func newSessionToken(now time.Time) string {
	return now.Format("20060102150405") + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
