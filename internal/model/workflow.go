package model

import (
	"errors"
	"time"
)

// 工作流状态
const (
	WorkflowStatusPending   = "pending"
	WorkflowStatusCompleted = "completed"
	WorkflowStatusRejected  = "rejected"
)

// WorkflowModel 工作流数据模型
// 状态由任务状态聚合推导,除管理员强制覆盖外不直接设置
type WorkflowModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(32);not null;index"`
	CreatedBy   string    `gorm:"type:varchar(64);not null;index"` // 创建人 ID
	DocumentID  string    `gorm:"type:varchar(64);index"`          // 关联文档 ID
	DossierID   string    `gorm:"type:varchar(64);index"`          // 关联目录 ID
	Category    string    `gorm:"type:varchar(64);index"`          // 实例化所用模板类别
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (WorkflowModel) TableName() string {
	return "workflows"
}

// Validate 验证工作流模型
func (wm *WorkflowModel) Validate() error {
	if wm.ID == "" {
		return errors.New("workflow ID is required")
	}
	if wm.Name == "" {
		return errors.New("workflow name is required")
	}
	if wm.Status == "" {
		return errors.New("workflow status is required")
	}
	if wm.CreatedBy == "" {
		return errors.New("workflow creator is required")
	}
	return nil
}

// IsTerminal 判断工作流是否处于终态
func (wm *WorkflowModel) IsTerminal() bool {
	return wm.Status == WorkflowStatusCompleted || wm.Status == WorkflowStatusRejected
}
