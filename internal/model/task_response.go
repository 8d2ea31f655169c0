package model

import (
	"errors"
	"time"
)

// TaskResponseModel 任务成果数据模型
// 完成证据,创建后不可变;提交即任务的完成信号
type TaskResponseModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	TaskID      string    `gorm:"type:varchar(64);not null;index"`
	UserID      string    `gorm:"type:varchar(64);not null;index"`
	FilePath    string    `gorm:"type:varchar(512)"` // 成果文件路径,可选
	Comment     string    `gorm:"type:text"`
	SubmittedAt time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (TaskResponseModel) TableName() string {
	return "task_responses"
}

// Validate 验证任务成果模型
func (trm *TaskResponseModel) Validate() error {
	if trm.ID == "" {
		return errors.New("response ID is required")
	}
	if trm.TaskID == "" {
		return errors.New("task ID is required")
	}
	if trm.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
