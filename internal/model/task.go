package model

import (
	"errors"
	"time"
)

// 任务状态
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusBlocked    = "blocked"
	TaskStatusCompleted  = "completed"
	TaskStatusRejected   = "rejected"
	TaskStatusCancelled  = "cancelled"
)

// 任务类型
const (
	TaskTypeValidation = "validation" // 审批节点,优先路由给审批角色
	TaskTypeOperation  = "operation"  // 操作节点,提交成果即完成
)

// TaskModel 任务数据模型
// DependsOn 指向同一工作流中 order 更小的任务,模板构造时已保证无环
type TaskModel struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)"`
	WorkflowID      string     `gorm:"type:varchar(64);not null;index"`
	Title           string     `gorm:"type:varchar(255);not null"`
	Description     string     `gorm:"type:text"`
	Type            string     `gorm:"type:varchar(32);not null"`       // validation/operation
	Role            string     `gorm:"type:varchar(64);not null;index"` // 要求的角色
	AssignedTo      *string    `gorm:"type:varchar(64);index"`          // 被指派人 ID,可为空
	TaskOrder       int        `gorm:"column:task_order;type:int;not null"`
	DependsOn       *string    `gorm:"type:varchar(64);index"` // 前置任务 ID
	Status          string     `gorm:"type:varchar(32);not null;index"`
	DueDate         time.Time  `gorm:"not null"`
	CreatedAt       time.Time  `gorm:"not null;index"`
	UpdatedAt       time.Time  `gorm:"not null"`
	CompletedAt     *time.Time `gorm:""`
	RejectedAt      *time.Time `gorm:""`
	RejectedBy      string     `gorm:"type:varchar(64)"`
	RejectionReason string     `gorm:"type:text"`
	AssignmentNote  string     `gorm:"type:text"` // 指派/改派说明
}

// TableName 指定表名
func (TaskModel) TableName() string {
	return "tasks"
}

// Validate 验证任务模型
func (tm *TaskModel) Validate() error {
	if tm.ID == "" {
		return errors.New("task ID is required")
	}
	if tm.WorkflowID == "" {
		return errors.New("workflow ID is required")
	}
	if tm.Title == "" {
		return errors.New("task title is required")
	}
	if tm.Status == "" {
		return errors.New("task status is required")
	}
	if tm.Type != TaskTypeValidation && tm.Type != TaskTypeOperation {
		return errors.New("task type must be validation or operation")
	}
	return nil
}

// IsTerminal 判断任务是否处于终态
func (tm *TaskModel) IsTerminal() bool {
	switch tm.Status {
	case TaskStatusCompleted, TaskStatusRejected, TaskStatusCancelled:
		return true
	}
	return false
}

// IsAssignee 判断用户是否为当前被指派人
// 状态机本身不做权限校验,调用层用此方法检查操作人
func (tm *TaskModel) IsAssignee(userID string) bool {
	return tm.AssignedTo != nil && *tm.AssignedTo == userID
}
