package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grade-planner/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 超限在 handler 绑定 JSON 时以 *http.MaxBytesError 暴露，由 handler 返回 400
// Content-Length 已知超限时直接拒绝
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
