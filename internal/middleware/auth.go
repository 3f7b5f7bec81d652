package middleware

import (
	"strings"

	"chatlink_backend/internal/config"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验 JWT 并把用户信息放入上下文。
// WebSocket 握手无法带自定义头，允许从 token 查询参数取令牌。
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}
