package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/metrics"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowService 工作流服务接口
type WorkflowService interface {
	Create(ctx context.Context, req *CreateWorkflowRequest) (*WorkflowResult, error)
	Get(ctx context.Context, id string) (*WorkflowDetail, error)
	List(ctx context.Context, filter *repository.WorkflowFilter) ([]*model.WorkflowModel, error)
	Archive(ctx context.Context, id string, report string) (*model.WorkflowArchiveModel, error)
	ListArchives(ctx context.Context) ([]*model.WorkflowArchiveModel, error)
	ForceStatus(ctx context.Context, id string, status string) (*model.WorkflowModel, error)
}

// CreateWorkflowRequest 创建工作流请求
type CreateWorkflowRequest struct {
	Category   string `json:"category"`
	DossierID  string `json:"dossier_id"`
	DocumentID string `json:"document_id"`
}

// WorkflowResult 工作流创建结果
type WorkflowResult struct {
	Workflow *model.WorkflowModel       `json:"workflow"`
	Tasks    []*model.TaskModel         `json:"tasks"`
	Warnings []engine.AssignmentWarning `json:"warnings,omitempty"`
}

// WorkflowDetail 工作流详情
type WorkflowDetail struct {
	Workflow *model.WorkflowModel `json:"workflow"`
	Tasks    []*model.TaskModel   `json:"tasks"`
}

// workflowService 工作流服务实现
type workflowService struct {
	db          *gorm.DB
	factory     *engine.Factory
	wfRepo      repository.WorkflowRepository
	taskRepo    repository.TaskRepository
	archiveRepo repository.ArchiveRepository
	auditLogSvc AuditLogService
}

// NewWorkflowService 创建工作流服务
func NewWorkflowService(
	db *gorm.DB,
	factory *engine.Factory,
	wfRepo repository.WorkflowRepository,
	taskRepo repository.TaskRepository,
	archiveRepo repository.ArchiveRepository,
	auditLogSvc AuditLogService,
) WorkflowService {
	return &workflowService{
		db:          db,
		factory:     factory,
		wfRepo:      wfRepo,
		taskRepo:    taskRepo,
		archiveRepo: archiveRepo,
		auditLogSvc: auditLogSvc,
	}
}

// Create 从模板创建工作流
// 无匹配模板时返回 engine.ErrNoTemplate,不视为系统错误
func (s *workflowService) Create(ctx context.Context, req *CreateWorkflowRequest) (*WorkflowResult, error) {
	userID := getUserIDFromContext(ctx)

	result, err := s.factory.CreateWorkflow(ctx, &engine.CreateRequest{
		Category:   req.Category,
		DossierID:  req.DossierID,
		DocumentID: req.DocumentID,
		CreatedBy:  userID,
	})
	if err != nil {
		return nil, err
	}

	// 记录业务指标
	metrics.RecordWorkflowCreated()
	metrics.RecordTasksCreated(len(result.Tasks))

	// 记录审计日志
	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"workflow_id":"%s","category":"%s","task_count":%d}`,
			result.Workflow.ID, result.Workflow.Category, len(result.Tasks))
		_ = s.auditLogSvc.RecordAction(ctx, userID, "create", "workflow", result.Workflow.ID, details)
	}

	return &WorkflowResult{
		Workflow: result.Workflow,
		Tasks:    result.Tasks,
		Warnings: result.Warnings,
	}, nil
}

// Get 获取工作流详情(含任务,按 task_order 升序)
func (s *workflowService) Get(ctx context.Context, id string) (*WorkflowDetail, error) {
	wf, err := s.wfRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.FindByWorkflow(id)
	if err != nil {
		return nil, err
	}
	return &WorkflowDetail{Workflow: wf, Tasks: tasks}, nil
}

// List 按过滤条件查询工作流
func (s *workflowService) List(ctx context.Context, filter *repository.WorkflowFilter) ([]*model.WorkflowModel, error) {
	if filter == nil {
		return s.wfRepo.FindAll()
	}
	return s.wfRepo.FindByFilter(filter)
}

// Archive 归档工作流
// 只有 completed 状态可归档,且只允许归档一次;
// 状态检查与归档行插入在同一事务内,workflow_id 唯一索引兜底并发重复
func (s *workflowService) Archive(ctx context.Context, id string, report string) (*model.WorkflowArchiveModel, error) {
	archive := &model.WorkflowArchiveModel{
		ID:               uuid.New().String(),
		WorkflowID:       id,
		ValidationReport: report,
		ArchivedAt:       time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wf model.WorkflowModel
		if err := tx.Where("id = ?", id).First(&wf).Error; err != nil {
			return err
		}
		if wf.Status != model.WorkflowStatusCompleted {
			return engine.ErrNotCompleted
		}

		var count int64
		if err := tx.Model(&model.WorkflowArchiveModel{}).
			Where("workflow_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return engine.ErrAlreadyArchived
		}

		// 快照工作流字段,归档行独立于后续对工作流的任何改动。
		// 完成时间取最后一个任务的完成时间,
		// 强制覆盖状态等没有任务完成时间的场景退化为工作流更新时间
		archive.Name = wf.Name
		archive.Description = wf.Description
		archive.DocumentID = wf.DocumentID
		archive.CreatedBy = wf.CreatedBy
		archive.CompletedAt = wf.UpdatedAt
		var lastTask model.TaskModel
		err := tx.Where("workflow_id = ? AND completed_at IS NOT NULL", id).
			Order("completed_at DESC").First(&lastTask).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && lastTask.CompletedAt != nil {
			archive.CompletedAt = *lastTask.CompletedAt
		}
		if err := archive.Validate(); err != nil {
			return fmt.Errorf("invalid archive: %w", err)
		}

		if err := tx.Create(archive).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return engine.ErrAlreadyArchived
			}
			return fmt.Errorf("failed to create archive: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil {
		userID := getUserIDFromContext(ctx)
		if userID != "" {
			details := fmt.Sprintf(`{"workflow_id":"%s","archive_id":"%s"}`, id, archive.ID)
			_ = s.auditLogSvc.RecordAction(ctx, userID, "archive", "workflow", id, details)
		}
	}

	return archive, nil
}

// ListArchives 查询全部归档记录
func (s *workflowService) ListArchives(ctx context.Context) ([]*model.WorkflowArchiveModel, error) {
	return s.archiveRepo.FindAll()
}

// ForceStatus 管理员强制设置工作流状态
// 只接受 completed 与 rejected,绕过聚合规则,用于人工修正
func (s *workflowService) ForceStatus(ctx context.Context, id string, status string) (*model.WorkflowModel, error) {
	if status != model.WorkflowStatusCompleted && status != model.WorkflowStatusRejected {
		return nil, engine.ErrInvalidStatus
	}

	wf, err := s.wfRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	previous := wf.Status
	wf.Status = status
	wf.UpdatedAt = time.Now()
	if err := s.wfRepo.Save(wf); err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil {
		userID := getUserIDFromContext(ctx)
		if userID != "" {
			details := fmt.Sprintf(`{"workflow_id":"%s","from":"%s","to":"%s"}`, id, previous, status)
			_ = s.auditLogSvc.RecordAction(ctx, userID, "force_status", "workflow", id, details)
		}
	}

	return wf, nil
}

// getUserIDFromContext 从 context 获取当前用户 ID(由认证中间件设置)
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}

// getRoleFromContext 从 context 获取当前用户角色(由认证中间件设置)
func getRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if role, ok := ctx.Value("role").(string); ok {
		return role
	}
	return ""
}
