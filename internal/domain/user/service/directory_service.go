package service

import (
	"context"
	"errors"
	"fmt"
	"localdeals/internal/domain/user/model"
	"localdeals/internal/domain/user/repository"
	"localdeals/internal/pkg/apperr"
	"localdeals/pkg/cache"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix  = "user:"
	EmailCacheKeyPrefix = "user_email:"
	UserCacheTTL        = time.Minute * 10
)

// Directory 转赠时按邮箱查找收件人
type Directory interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	// FindCustomerByEmail 找不到或对方不是顾客时返回 apperr.ErrRecipientNotFound
	FindCustomerByEmail(ctx context.Context, email string) (*model.User, error)
}

// CachedDirectory 带缓存的用户目录，缓存故障时直接查库
type CachedDirectory struct {
	repo   repository.UserRepository
	cache  cache.CacheService
	logger *zap.Logger
}

// NewCachedDirectory cache 可以为 nil
func NewCachedDirectory(repo repository.UserRepository, c cache.CacheService, logger *zap.Logger) *CachedDirectory {
	return &CachedDirectory{repo: repo, cache: c, logger: logger}
}

func (d *CachedDirectory) GetUser(ctx context.Context, id string) (*model.User, error) {
	return d.cached(ctx, UserCacheKeyPrefix+id, func() (*model.User, error) {
		return d.repo.GetByID(ctx, id)
	})
}

func (d *CachedDirectory) FindCustomerByEmail(ctx context.Context, email string) (*model.User, error) {
	key := EmailCacheKeyPrefix + strings.ToLower(strings.TrimSpace(email))
	user, err := d.cached(ctx, key, func() (*model.User, error) {
		return d.repo.GetByEmail(ctx, email)
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("recipient %s: %w", email, apperr.ErrRecipientNotFound)
	}
	if err != nil {
		return nil, err
	}
	if user.Role != model.RoleCustomer {
		return nil, fmt.Errorf("recipient %s has role %s: %w", email, user.Role, apperr.ErrRecipientNotFound)
	}
	return user, nil
}

func (d *CachedDirectory) cached(ctx context.Context, key string, load func() (*model.User, error)) (*model.User, error) {
	if d.cache != nil {
		var user model.User
		if err := d.cache.Get(ctx, key, &user); err == nil {
			return &user, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			d.logger.Warn("user cache get failed", zap.String("key", key), zap.Error(err))
		}
	}

	user, err := load()
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, key, user, UserCacheTTL); err != nil {
			// 缓存失败不影响业务逻辑，只记录日志
			d.logger.Warn("user cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return user, nil
}
