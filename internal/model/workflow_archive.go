package model

import (
	"errors"
	"time"
)

// WorkflowArchiveModel 工作流归档数据模型
// 不可变快照,每个工作流最多归档一次,且仅允许已完成的工作流归档
type WorkflowArchiveModel struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)"`
	WorkflowID       string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name             string    `gorm:"type:varchar(255);not null"`
	Description      string    `gorm:"type:text"`
	DocumentID       string    `gorm:"type:varchar(64);index"`
	CreatedBy        string    `gorm:"type:varchar(64);not null"`
	CompletedAt      time.Time `gorm:"not null"`
	ValidationReport string    `gorm:"type:text"`
	ArchivedAt       time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (WorkflowArchiveModel) TableName() string {
	return "workflow_archives"
}

// Validate 验证归档模型
func (wam *WorkflowArchiveModel) Validate() error {
	if wam.ID == "" {
		return errors.New("archive ID is required")
	}
	if wam.WorkflowID == "" {
		return errors.New("workflow ID is required")
	}
	if wam.Name == "" {
		return errors.New("archive name is required")
	}
	return nil
}
