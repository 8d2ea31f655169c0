package model

import (
	"errors"
	"time"
)

// NotificationModel 通知数据模型
// 逻辑契约 notify(userId, senderId, message, relatedTaskId);
// 投递是尽力而为的副作用,失败不回滚触发它的状态变更
type NotificationModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	UserID     string    `gorm:"type:varchar(64);not null;index"` // 接收人 ID
	SenderID   string    `gorm:"type:varchar(64)"`                // 触发人 ID,系统通知可为空
	Message    string    `gorm:"type:text;not null"`
	TaskID     string    `gorm:"type:varchar(64);index"` // 关联任务 ID,可为空
	DocumentID string    `gorm:"type:varchar(64);index"` // 关联文档 ID,可为空
	Read       bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}

// Validate 验证通知模型
func (nm *NotificationModel) Validate() error {
	if nm.ID == "" {
		return errors.New("notification ID is required")
	}
	if nm.UserID == "" {
		return errors.New("user ID is required")
	}
	if nm.Message == "" {
		return errors.New("message is required")
	}
	return nil
}
