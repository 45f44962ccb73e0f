package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"grade-planner/backend/pkg/jwt"
	"grade-planner/backend/pkg/response"
)

// 上下文键
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth JWT 认证中间件
// 优先读取 Authorization: Bearer <token>；allowQuery 为 true 时
// 回退到 ?token=（浏览器 WebSocket 无法设置请求头）
func JWTAuth(jwtMgr *jwt.Manager, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok && allowQuery {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			response.Unauthorized(c, 10002, "缺少或无效的认证头")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
