package handler

import (
	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/realtime"
)

// RealtimeHandler WebSocket 推送入口
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler 创建 RealtimeHandler 实例
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect 升级为 WebSocket 连接，只接收当前用户的事件
// GET /api/v1/ws?token=<jwt>
func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	// 升级失败时 upgrader 已写入错误响应
	_ = h.hub.ServeWS(c.Writer, c.Request, userID)
}
