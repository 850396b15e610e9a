package database

import (
	"context"
	"database/sql"
	"localdeals/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

// PoolMonitor 定期把连接池状态同步到指标
type PoolMonitor struct {
	db        *sql.DB
	collector *metrics.MetricsCollector
	logger    *zap.Logger
	interval  time.Duration
	// 等待连接数超过该值时告警
	waitThreshold int64
	lastWait      int64
}

func NewPoolMonitor(db *sql.DB, collector *metrics.MetricsCollector, logger *zap.Logger, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PoolMonitor{
		db:            db,
		collector:     collector,
		logger:        logger,
		interval:      interval,
		waitThreshold: 100,
	}
}

// Run 阻塞直到 ctx 结束
func (pm *PoolMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.collect()
		}
	}
}

func (pm *PoolMonitor) collect() sql.DBStats {
	stats := pm.db.Stats()
	pm.collector.UpdateDBStats(stats)

	// 只对本周期新增的等待告警
	if delta := stats.WaitCount - pm.lastWait; delta > pm.waitThreshold {
		pm.logger.Warn("database pool saturated",
			zap.Int64("waits", delta),
			zap.Duration("wait_duration", stats.WaitDuration),
			zap.Int("in_use", stats.InUse),
			zap.Int("max_open", stats.MaxOpenConnections))
	}
	pm.lastWait = stats.WaitCount
	return stats
}
