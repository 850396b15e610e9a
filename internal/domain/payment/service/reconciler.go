package service

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/payment/model"
	"localdeals/internal/domain/payment/repository"
	"localdeals/internal/domain/payment/strategy"
	"localdeals/internal/pkg/apperr"
	"localdeals/internal/pkg/worker"
	"localdeals/pkg/cache"
	"localdeals/pkg/database"
	"localdeals/pkg/metrics"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// 去重只是快速路径，claim 确认本身幂等
const (
	dedupeTTL      = 24 * time.Hour
	confirmTimeout = 10 * time.Second
)

func dedupeKey(channel, eventID string) string {
	return "payment:event:" + channel + ":" + eventID
}

// HandleNotify 返回 ErrInvalidEvent 表示拒收；其他非 nil 错误表示网关应重投。
// 领域错误（已过期、容量不足等）重投也无济于事，记录后直接确认收到。
// 事件只有在确认成功或得到领域错误后才标记为已处理，失败的事件重投时总会再次进入引擎。
func (s *paymentService) HandleNotify(ctx context.Context, channel string, req *http.Request) error {
	st, ok := s.strategies[channel]
	if !ok {
		return fmt.Errorf("channel %q: %w", channel, apperr.ErrInvalidEvent)
	}

	n, err := st.Notify(ctx, req)
	if err != nil {
		s.metrics.RecordPaymentEvent(channel, "rejected")
		s.logger.Warn("payment event rejected", zap.String("channel", channel), zap.Error(err))
		return fmt.Errorf("%s notify: %w: %v", channel, apperr.ErrInvalidEvent, err)
	}

	log := s.logger.With(
		zap.String("channel", channel),
		zap.String("event_id", n.EventID),
		zap.String("session_token", n.SessionToken))

	if !n.Paid {
		s.metrics.RecordPaymentEvent(channel, "unpaid")
		log.Info("payment event without successful payment")
		return nil
	}

	key := dedupeKey(channel, n.EventID)
	if s.seen(ctx, key) {
		s.metrics.RecordPaymentEvent(channel, "duplicate")
		log.Info("duplicate payment event")
		return nil
	}

	// 网关断开连接不应打断已经开始的确认
	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()

	err = s.confirm(confirmCtx, channel, n)
	switch {
	case err == nil:
		s.markSeen(confirmCtx, key, n)
		return nil
	case apperr.IsDomain(err):
		log.Warn("payment event not applied", zap.Error(err))
		s.markSeen(confirmCtx, key, n)
		return nil
	case database.IsTransient(err):
		task := worker.Task{
			ID:      key,
			Kind:    channel,
			Attempt: 1,
			Payload: *n,
			Run: func(ctx context.Context) error {
				if err := s.confirm(ctx, channel, n); err != nil && !apperr.IsDomain(err) {
					return err
				}
				s.markSeen(ctx, key, n)
				return nil
			},
		}
		if qerr := s.retrier.AddTask(task); qerr != nil {
			log.Error("payment event not queued", zap.Error(err), zap.NamedError("queue_error", qerr))
			return err
		}
		s.metrics.RecordPaymentEvent(channel, "retrying")
		log.Warn("payment event queued for retry", zap.Error(err))
		return nil
	default:
		// 记录死信，同时让网关重投
		s.deadLetter(confirmCtx, channel, n, 1, err)
		return err
	}
}

// seen 去重存储不可用时按未处理对待
func (s *paymentService) seen(ctx context.Context, key string) bool {
	if s.dedupe == nil {
		return false
	}
	var session string
	err := s.dedupe.Get(ctx, key, &session)
	switch {
	case err == nil:
		return true
	case errors.Is(err, cache.ErrCacheMiss):
		return false
	default:
		s.logger.Warn("payment dedupe unavailable", zap.String("key", key), zap.Error(err))
		return false
	}
}

func (s *paymentService) markSeen(ctx context.Context, key string, n *strategy.Notification) {
	if s.dedupe == nil {
		return
	}
	if err := s.dedupe.Set(ctx, key, n.SessionToken, dedupeTTL); err != nil {
		s.logger.Warn("payment dedupe key not stored", zap.String("key", key), zap.Error(err))
	}
}

// confirm 驱动 claim 确认并记录结果
func (s *paymentService) confirm(ctx context.Context, channel string, n *strategy.Notification) error {
	res, err := s.claims.ConfirmBySession(ctx, n.SessionToken)
	switch {
	case err != nil:
		s.metrics.RecordPaymentEvent(channel, apperr.Label(err))
		return err
	case res.AlreadyConfirmed:
		s.metrics.RecordPaymentEvent(channel, "noop")
	default:
		s.metrics.RecordPaymentEvent(channel, "confirmed")
	}
	return nil
}

func (s *paymentService) deadLetter(ctx context.Context, channel string, n *strategy.Notification, attempts int, cause error) {
	pushDeadLetter(ctx, s.deadLetters, s.logger, s.metrics, &model.DeadLetter{
		Channel:      channel,
		EventID:      n.EventID,
		SessionToken: n.SessionToken,
		Attempts:     attempts,
		Error:        cause.Error(),
		FailedAt:     s.now(),
	})
}

// NewDeadLetterFunc 重试池的死信出口
func NewDeadLetterFunc(repo repository.DeadLetterRepository, logger *zap.Logger) worker.DeadLetterFunc {
	collector := metrics.GetGlobalCollector()
	return func(ctx context.Context, task worker.Task, err error) {
		n, _ := task.Payload.(strategy.Notification)
		pushDeadLetter(ctx, repo, logger, collector, &model.DeadLetter{
			Channel:      task.Kind,
			EventID:      n.EventID,
			SessionToken: n.SessionToken,
			Attempts:     task.Attempt,
			Error:        err.Error(),
			FailedAt:     time.Now(),
		})
	}
}

func pushDeadLetter(ctx context.Context, repo repository.DeadLetterRepository, logger *zap.Logger, collector *metrics.MetricsCollector, letter *model.DeadLetter) {
	collector.RecordDeadLetter(letter.Channel)
	logger.Error("payment event dead-lettered",
		zap.String("channel", letter.Channel),
		zap.String("event_id", letter.EventID),
		zap.String("session_token", letter.SessionToken),
		zap.Int("attempts", letter.Attempts),
		zap.String("error", letter.Error))
	if repo == nil {
		return
	}
	if err := repo.Push(ctx, letter); err != nil {
		logger.Error("dead letter not persisted", zap.String("event_id", letter.EventID), zap.Error(err))
	}
}
