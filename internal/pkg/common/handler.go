package common

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthHandler 存活与依赖检查
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client // 可为空
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

// Health 检查数据库与 Redis
// @Summary 健康检查
// @Tags Common
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			// Redis 只承担去重与缓存，不可用时降级而非下线
			checks["redis"] = err.Error()
		}
	}

	if !healthy {
		checks["status"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, checks)
		return
	}
	checks["status"] = "ok"
	c.JSON(http.StatusOK, checks)
}
