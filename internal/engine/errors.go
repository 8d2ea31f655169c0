package engine

import (
	"errors"
	"fmt"
)

// 引擎错误定义
var (
	// ErrNoTemplate 类别没有匹配的模板,不创建工作流;属于调用方可预期的结果,不记为系统错误
	ErrNoTemplate = errors.New("no workflow template matches category")

	// ErrAlreadyArchived 工作流已归档,归档只允许发生一次
	ErrAlreadyArchived = errors.New("workflow already archived")

	// ErrNotCompleted 只有已完成的工作流才能归档
	ErrNotCompleted = errors.New("workflow is not completed")

	// ErrReasonRequired 拒绝必须携带原因
	ErrReasonRequired = errors.New("rejection reason is required")

	// ErrInvalidStatus 强制设置工作流状态只接受 completed/rejected
	ErrInvalidStatus = errors.New("status must be completed or rejected")
)

// InvalidTransitionError 非法状态迁移
// 携带当前状态,便于调用方提示
type InvalidTransitionError struct {
	TaskID string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for task %s: %s -> %s", e.TaskID, e.From, e.To)
}

// DependencyCycleError 模板依赖图存在环或非法引用
// 在模板注册时检测,带环模板不允许实例化
type DependencyCycleError struct {
	Template string
	Order    int
	Reason   string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("invalid dependency graph in template %s at order %d: %s", e.Template, e.Order, e.Reason)
}

// AssignmentWarning 无合格指派人警告
// 任务仍会创建,assignedTo 置空;作为创建结果的一部分上报,不作为错误
type AssignmentWarning struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
	Role   string `json:"role"`
}

func (w AssignmentWarning) String() string {
	return fmt.Sprintf("no eligible assignee for task %q (role %s)", w.Title, w.Role)
}
