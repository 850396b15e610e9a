package middleware

import (
	"net/http"
	"strings"

	"localdeals/internal/domain/user/model"
	"localdeals/pkg/response"
	"localdeals/pkg/utils"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Principal 已验证的调用方身份
type Principal struct {
	UserID   string
	Email    string
	Role     string
	VendorID string
}

// SetPrincipal 写入上下文
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
	c.Set("userID", p.UserID)
}

// CurrentPrincipal 读取 AuthMiddleware 写入的身份
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		SetPrincipal(c, &Principal{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			VendorID: claims.VendorID,
		})
		c.Next()
	}
}

// RequireRole 角色检查，必须挂在 AuthMiddleware 之后
// vendor 角色还要求 token 带 vendor_id
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Unauthorized")
			c.Abort()
			return
		}

		for _, role := range roles {
			if p.Role != role {
				continue
			}
			if role == model.RoleVendor && p.VendorID == "" {
				break
			}
			c.Next()
			return
		}

		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "You don't have permission to do that.")
		c.Abort()
	}
}
