package container

import (
	"fmt"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/auth"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/config"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/database"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、引擎、服务与推送
type Container struct {
	db        *gorm.DB
	logger    *logrus.Logger
	registry  *engine.Registry
	factory   *engine.Factory
	machine   *engine.Machine
	hub       *websocket.Hub
	validator *auth.TokenValidator

	workflowSvc     service.WorkflowService
	taskSvc         service.TaskService
	documentSvc     service.DocumentService
	notificationSvc service.NotificationService
	statisticsSvc   service.StatisticsService
	auditLogSvc     service.AuditLogService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移并建索引
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := database.CreateIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	// 2. 初始化模板注册表
	registry, err := engine.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template registry: %w", err)
	}

	// 3. 推送 Hub 与通知服务
	hub := websocket.NewHub()
	go hub.Run()

	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := service.NewNotificationService(
		notificationRepo,
		hub,
		cfg.Notify.Workers,
		cfg.Notify.QueueSize,
		logger,
	)

	// 4. 工作流引擎
	directoryFor := func(conn *gorm.DB) engine.Directory { return repository.NewUserRepository(conn) }
	factory := engine.NewFactory(db, registry, directoryFor, notificationSvc, logger)
	machine := engine.NewMachine(db, notificationSvc, logger)

	// 5. 仓储与服务
	auditRepo := repository.NewAuditLogRepository(db)
	auditLogSvc := service.NewAuditLogService(auditRepo)

	wfRepo := repository.NewWorkflowRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	responseRepo := repository.NewTaskResponseRepository(db)
	historyRepo := repository.NewStateHistoryRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	dossierRepo := repository.NewDossierRepository(db)
	permRepo := repository.NewPermissionRepository(db)

	workflowSvc := service.NewWorkflowService(db, factory, wfRepo, taskRepo, archiveRepo, auditLogSvc)
	taskSvc := service.NewTaskService(machine, taskRepo, responseRepo, historyRepo, auditLogSvc)
	documentSvc := service.NewDocumentService(docRepo, dossierRepo, permRepo, notificationSvc, auditLogSvc, logger)
	statisticsSvc := service.NewStatisticsService(db)

	// 6. 身份令牌验证器
	validator := auth.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)

	return &Container{
		db:              db,
		logger:          logger,
		registry:        registry,
		factory:         factory,
		machine:         machine,
		hub:             hub,
		validator:       validator,
		workflowSvc:     workflowSvc,
		taskSvc:         taskSvc,
		documentSvc:     documentSvc,
		notificationSvc: notificationSvc,
		statisticsSvc:   statisticsSvc,
		auditLogSvc:     auditLogSvc,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Registry 获取模板注册表
func (c *Container) Registry() *engine.Registry {
	return c.registry
}

// Factory 获取工作流工厂
func (c *Container) Factory() *engine.Factory {
	return c.factory
}

// Machine 获取任务状态机
func (c *Container) Machine() *engine.Machine {
	return c.machine
}

// Hub 获取推送 Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Validator 获取身份令牌验证器
func (c *Container) Validator() *auth.TokenValidator {
	return c.validator
}

// WorkflowService 获取工作流服务
func (c *Container) WorkflowService() service.WorkflowService {
	return c.workflowSvc
}

// TaskService 获取任务服务
func (c *Container) TaskService() service.TaskService {
	return c.taskSvc
}

// DocumentService 获取文档服务
func (c *Container) DocumentService() service.DocumentService {
	return c.documentSvc
}

// NotificationService 获取通知服务
func (c *Container) NotificationService() service.NotificationService {
	return c.notificationSvc
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statisticsSvc
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	// 先停通知分发,保证落库的推送尽量送达
	if c.notificationSvc != nil {
		c.notificationSvc.Stop()
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
