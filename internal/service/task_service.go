package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/metrics"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
)

// ErrForbidden 操作者既不是任务指派人也没有管理权限
var ErrForbidden = errors.New("operator is not the task assignee")

// TaskService 任务服务接口
type TaskService interface {
	Get(ctx context.Context, id string) (*model.TaskModel, error)
	List(ctx context.Context, filter *repository.TaskFilter) ([]*model.TaskModel, error)
	Transition(ctx context.Context, id string, req *TransitionRequest) (*model.TaskModel, error)
	Reassign(ctx context.Context, id string, req *ReassignRequest) (*model.TaskModel, error)
	RecordResponse(ctx context.Context, id string, req *ResponseRequest) (*model.TaskResponseModel, error)
	Responses(ctx context.Context, id string) ([]*model.TaskResponseModel, error)
	History(ctx context.Context, id string) ([]*model.StateHistoryModel, error)
}

// TransitionRequest 状态迁移请求
type TransitionRequest struct {
	Status string `json:"status" binding:"required"` // in_progress/completed/rejected/cancelled
	Reason string `json:"reason"`                    // rejected 时必填
}

// ReassignRequest 改派请求
type ReassignRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"` // 新指派人 ID
	Note       string `json:"note"`                           // 改派说明
}

// ResponseRequest 任务成果提交请求
type ResponseRequest struct {
	FilePath string `json:"file_path"` // 成果文件路径
	Comment  string `json:"comment"`   // 说明
}

// taskService 任务服务实现
type taskService struct {
	machine      *engine.Machine
	taskRepo     repository.TaskRepository
	responseRepo repository.TaskResponseRepository
	historyRepo  repository.StateHistoryRepository
	auditLogSvc  AuditLogService
}

// NewTaskService 创建任务服务
func NewTaskService(
	machine *engine.Machine,
	taskRepo repository.TaskRepository,
	responseRepo repository.TaskResponseRepository,
	historyRepo repository.StateHistoryRepository,
	auditLogSvc AuditLogService,
) TaskService {
	return &taskService{
		machine:      machine,
		taskRepo:     taskRepo,
		responseRepo: responseRepo,
		historyRepo:  historyRepo,
		auditLogSvc:  auditLogSvc,
	}
}

// Get 获取任务详情
func (s *taskService) Get(ctx context.Context, id string) (*model.TaskModel, error) {
	return s.taskRepo.FindByID(id)
}

// List 按过滤条件查询任务
func (s *taskService) List(ctx context.Context, filter *repository.TaskFilter) ([]*model.TaskModel, error) {
	return s.taskRepo.FindByFilter(filter)
}

// Transition 执行任务状态迁移
// 指派人本人或管理员可操作;取消只限管理员
func (s *taskService) Transition(ctx context.Context, id string, req *TransitionRequest) (*model.TaskModel, error) {
	userID := getUserIDFromContext(ctx)
	role := getRoleFromContext(ctx)

	current, err := s.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if req.Status == model.TaskStatusCancelled {
		if role != model.RoleAdmin {
			return nil, ErrForbidden
		}
	} else if !s.canOperate(current, userID, role) {
		return nil, ErrForbidden
	}

	task, err := s.machine.Transition(ctx, id, req.Status, userID, req.Reason)
	if err != nil {
		return nil, err
	}

	metrics.RecordTaskTransition(task.Status)

	// 记录审计日志
	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"task_id":"%s","status":"%s","reason":"%s"}`, id, req.Status, req.Reason)
		_ = s.auditLogSvc.RecordAction(ctx, userID, "transition", "task", id, details)
	}

	return task, nil
}

// Reassign 改派任务,管理员或经理可操作
func (s *taskService) Reassign(ctx context.Context, id string, req *ReassignRequest) (*model.TaskModel, error) {
	userID := getUserIDFromContext(ctx)
	role := getRoleFromContext(ctx)
	if role != model.RoleAdmin && role != model.RoleManager && role != model.RoleDirecteur {
		return nil, ErrForbidden
	}

	task, err := s.machine.Reassign(ctx, id, req.AssigneeID, userID, req.Note)
	if err != nil {
		return nil, err
	}

	// 记录审计日志
	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"task_id":"%s","assignee_id":"%s","note":"%s"}`, id, req.AssigneeID, req.Note)
		_ = s.auditLogSvc.RecordAction(ctx, userID, "reassign", "task", id, details)
	}

	return task, nil
}

// RecordResponse 提交任务成果,提交即完成信号
func (s *taskService) RecordResponse(ctx context.Context, id string, req *ResponseRequest) (*model.TaskResponseModel, error) {
	userID := getUserIDFromContext(ctx)
	role := getRoleFromContext(ctx)

	current, err := s.taskRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !s.canOperate(current, userID, role) {
		return nil, ErrForbidden
	}

	resp, err := s.machine.RecordResponse(ctx, id, userID, req.FilePath, req.Comment)
	if err != nil {
		return nil, err
	}

	metrics.RecordTaskTransition(model.TaskStatusCompleted)

	// 记录审计日志
	if s.auditLogSvc != nil && userID != "" {
		details := fmt.Sprintf(`{"task_id":"%s","response_id":"%s"}`, id, resp.ID)
		_ = s.auditLogSvc.RecordAction(ctx, userID, "respond", "task", id, details)
	}

	return resp, nil
}

// Responses 查询任务的成果提交记录
func (s *taskService) Responses(ctx context.Context, id string) ([]*model.TaskResponseModel, error) {
	return s.responseRepo.FindByTask(id)
}

// History 查询任务的状态变更历史
func (s *taskService) History(ctx context.Context, id string) ([]*model.StateHistoryModel, error) {
	return s.historyRepo.FindByTask(id)
}

// canOperate 指派人本人或管理员可操作任务
func (s *taskService) canOperate(task *model.TaskModel, userID, role string) bool {
	if role == model.RoleAdmin {
		return true
	}
	return task.IsAssignee(userID)
}
