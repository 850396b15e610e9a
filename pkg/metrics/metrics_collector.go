package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 数据库连接池
	dbConnectionsActive prometheus.Gauge
	dbConnectionsIdle   prometheus.Gauge
	dbWaitCount         prometheus.Gauge

	// 业务指标
	claimTransitions *prometheus.CounterVec
	capacityDenied   *prometheus.CounterVec
	ledgerAppends    *prometheus.CounterVec
	pointsRedeemed   prometheus.Counter
	paymentEvents    *prometheus.CounterVec
	deadLetters      *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，注册到给定的 Registerer
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		dbConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of in-use database connections",
		}),
		dbConnectionsIdle: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		}),
		dbWaitCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_wait_total",
			Help: "Total number of connections waited for",
		}),

		claimTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claim_transitions_total",
				Help: "Claim lifecycle transitions by outcome",
			},
			[]string{"transition", "result"},
		),
		capacityDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_capacity_denied_total",
				Help: "Slot reservations denied because the deal was full",
			},
			[]string{"stage"},
		),
		ledgerAppends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "points_ledger_appends_total",
				Help: "Ledger entries appended by type",
			},
			[]string{"type"},
		),
		pointsRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "points_redeemed_total",
			Help: "Points converted to account credit",
		}),
		paymentEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_events_total",
				Help: "Inbound payment events by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		deadLetters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_events_dead_lettered_total",
				Help: "Payment events given up after max retries",
			},
			[]string{"channel"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// UpdateDBStats 同步连接池状态
func (m *MetricsCollector) UpdateDBStats(stats sql.DBStats) {
	m.dbConnectionsActive.Set(float64(stats.InUse))
	m.dbConnectionsIdle.Set(float64(stats.Idle))
	m.dbWaitCount.Set(float64(stats.WaitCount))
}

// RecordClaimTransition 记录 claim 状态迁移，result 为 ok / noop / 错误名
func (m *MetricsCollector) RecordClaimTransition(transition, result string) {
	m.claimTransitions.WithLabelValues(transition, result).Inc()
}

// RecordCapacityDenied 记录容量不足
func (m *MetricsCollector) RecordCapacityDenied(stage string) {
	m.capacityDenied.WithLabelValues(stage).Inc()
}

// RecordLedgerAppend 记录积分流水写入
func (m *MetricsCollector) RecordLedgerAppend(entryType string) {
	m.ledgerAppends.WithLabelValues(entryType).Inc()
}

// RecordPointsRedeemed 记录积分兑换
func (m *MetricsCollector) RecordPointsRedeemed(points int64) {
	m.pointsRedeemed.Add(float64(points))
}

// RecordPaymentEvent 记录支付事件处理结果
func (m *MetricsCollector) RecordPaymentEvent(channel, outcome string) {
	m.paymentEvents.WithLabelValues(channel, outcome).Inc()
}

// RecordDeadLetter 记录进入死信的事件
func (m *MetricsCollector) RecordDeadLetter(channel string) {
	m.deadLetters.WithLabelValues(channel).Inc()
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// GetGlobalCollector 获取全局指标收集器（注册到默认 Registry）
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
