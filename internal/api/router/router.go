package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/api/handler"
	"grade-planner/backend/internal/api/middleware"
	"grade-planner/backend/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流（未配置 Redis）
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── WebSocket（token 经查询参数传递）──
	r.GET("/ws", middleware.JWTAuth(jwtMgr, true), h.Realtime.Connect)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	v1.Use(middleware.JWTAuth(jwtMgr, false))
	{
		// 课程目录（只读）
		v1.GET("/catalog/courses/:id", h.Catalog.GetCourse)

		// 无状态冲突检测
		v1.POST("/timetable/conflicts", h.Conflict.Detect)

		plans := v1.Group("/plans")
		{
			plans.GET("", h.Plan.ListPlans)
			plans.POST("", h.Plan.CreatePlan)
			plans.GET("/:id", h.Plan.GetPlan)
			plans.PUT("/:id", h.Plan.RenamePlan)
			plans.DELETE("/:id", h.Plan.DeletePlan)

			// 方案课程
			plans.POST("/:id/courses", h.Plan.AddCourse)
			plans.PUT("/:id/courses/:courseId", h.Plan.UpdateCourse)
			plans.DELETE("/:id/courses/:courseId", h.Plan.RemoveCourse)

			// 自定义时间块
			plans.POST("/:id/custom-items", h.Plan.AddCustomItem)
			plans.POST("/:id/custom-items/import", h.Plan.ImportCustomItems)
			plans.PUT("/:id/custom-items/:itemId", h.Plan.UpdateCustomItem)
			plans.DELETE("/:id/custom-items/:itemId", h.Plan.DeleteCustomItem)

			// 网格与冲突预检
			plans.POST("/:id/check-conflicts", h.Plan.CheckConflicts)
			plans.GET("/:id/grid", h.Plan.GetGrid)

			// 组合生成与浏览
			plans.POST("/:id/combinations/generate",
				middleware.RateLimit(limiter, cfg.Planner.GenerateRateLimit, time.Minute),
				h.Combination.Generate)
			plans.GET("/:id/combinations", h.Combination.GetState)
			plans.PUT("/:id/combinations/cursor", h.Combination.MoveCursor)
			plans.POST("/:id/combinations/apply", h.Combination.Apply)

			// 导出
			plans.GET("/:id/export/ics", h.Export.ExportICS)
			plans.GET("/:id/export/xlsx", h.Export.ExportExcel)
		}
	}

	return r
}
