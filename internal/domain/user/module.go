package user

import (
	"localdeals/internal/domain/user/repository"
	"localdeals/internal/domain/user/service"
	"localdeals/internal/pkg/registry"
	"localdeals/pkg/cache"
)

// ServiceDirectory 其他模块通过该名称获取 service.Directory
const ServiceDirectory = "user.directory"

// UserModule 用户目录模块，不注册路由；登录注册由身份服务负责
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块可能依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	var c cache.CacheService
	if ctx.Redis != nil {
		c = cache.NewRedisCache(ctx.Redis, "localdeals:")
	}
	dir := service.NewCachedDirectory(repository.NewUserRepository(ctx.DB), c, ctx.Logger)
	ctx.Provide(ServiceDirectory, service.Directory(dir))
	return nil
}
