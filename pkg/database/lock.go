package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// AdvisoryXactLock 获取事务级 advisory lock，事务提交或回滚时自动释放。
// 必须在事务内调用，否则锁会在语句结束后立刻释放。
func AdvisoryXactLock(ctx context.Context, tx *gorm.DB, parts ...string) error {
	key := strings.Join(parts, ":")
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}
