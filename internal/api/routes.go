package api

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/auth"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/config"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/websocket"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Workflow     *WorkflowController
	Task         *TaskController
	Document     *DocumentController
	Notification *NotificationController
	Statistics   *StatisticsController
}

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, db *gorm.DB, hub *websocket.Hub, validator *auth.TokenValidator, ctrls *Controllers) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	}
	if cfg.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// 通知推送 WebSocket
	if hub != nil && validator != nil {
		router.GET("/ws/notifications", websocket.NotificationHandler(hub, validator))
	}

	// API v1 路由组,全部需要认证
	v1 := router.Group("/api/v1")
	v1.Use(auth.AuthMiddleware(validator))
	{
		// 工作流路由
		workflows := v1.Group("/workflows")
		{
			workflows.POST("", ctrls.Workflow.Create)
			workflows.GET("", ctrls.Workflow.List)
			workflows.GET("/:id", ctrls.Workflow.Get)
			workflows.POST("/:id/archive", ctrls.Workflow.Archive)
			workflows.PUT("/:id/status", auth.AdminRequired(), ctrls.Workflow.ForceStatus)
		}
		v1.GET("/archives", ctrls.Workflow.ListArchives)

		// 任务路由
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", ctrls.Task.List)
			tasks.GET("/:id", ctrls.Task.Get)
			tasks.POST("/:id/transition", ctrls.Task.Transition)
			tasks.POST("/:id/reassign", ctrls.Task.Reassign)
			tasks.POST("/:id/responses", ctrls.Task.Respond)
			tasks.GET("/:id/responses", ctrls.Task.Responses)
			tasks.GET("/:id/history", ctrls.Task.History)
		}

		// 目录路由
		dossiers := v1.Group("/dossiers")
		{
			dossiers.POST("", ctrls.Document.CreateDossier)
			dossiers.GET("/:id", ctrls.Document.GetDossier)
			dossiers.GET("/:id/documents", ctrls.Document.ListDossierDocuments)
		}

		// 文档路由
		documents := v1.Group("/documents")
		{
			documents.POST("", ctrls.Document.Create)
			documents.GET("/:id", ctrls.Document.Get)
			documents.POST("/:id/versions", ctrls.Document.CreateVersion)
			documents.POST("/:id/complete", ctrls.Document.Complete)
			documents.GET("/:id/permissions", ctrls.Document.Permissions)
			documents.GET("/:id/permissions/:userId", ctrls.Document.EffectivePermission)
			documents.POST("/:id/permissions/copy", ctrls.Document.CopyPermissions)
		}

		// 通知路由
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", ctrls.Notification.List)
			notifications.PUT("/:id/read", ctrls.Notification.MarkRead)
		}

		// 统计路由
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/workflows", ctrls.Statistics.WorkflowsByStatus)
			statistics.GET("/tasks", ctrls.Statistics.TasksByStatus)
			statistics.GET("/tasks/roles", ctrls.Statistics.TasksByRole)
			statistics.GET("/tasks/time", ctrls.Statistics.TasksByTime)
			statistics.GET("/completion", ctrls.Statistics.Completion)
		}
	}

	return router
}
