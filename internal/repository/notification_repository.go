package repository

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Save(n *model.NotificationModel) error
	FindByUser(userID string, unreadOnly bool) ([]*model.NotificationModel, error)
	MarkRead(id, userID string) error
}

// notificationRepository 通知仓储实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 保存通知
func (r *notificationRepository) Save(n *model.NotificationModel) error {
	return r.db.Save(n).Error
}

// FindByUser 查找用户的通知
func (r *notificationRepository) FindByUser(userID string, unreadOnly bool) ([]*model.NotificationModel, error) {
	var notifications []*model.NotificationModel
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// MarkRead 标记通知已读,仅限通知属主
func (r *notificationRepository) MarkRead(id, userID string) error {
	res := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StateHistoryRepository 状态历史仓储接口
type StateHistoryRepository interface {
	Save(h *model.StateHistoryModel) error
	FindByTask(taskID string) ([]*model.StateHistoryModel, error)
	FindByWorkflow(workflowID string) ([]*model.StateHistoryModel, error)
}

// stateHistoryRepository 状态历史仓储实现
type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository 创建状态历史仓储
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

// Save 保存历史记录
func (r *stateHistoryRepository) Save(h *model.StateHistoryModel) error {
	return r.db.Save(h).Error
}

// FindByTask 查找任务的状态历史,按时间升序
func (r *stateHistoryRepository) FindByTask(taskID string) ([]*model.StateHistoryModel, error) {
	var history []*model.StateHistoryModel
	err := r.db.Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}

// FindByWorkflow 查找工作流的状态历史,按时间升序
func (r *stateHistoryRepository) FindByWorkflow(workflowID string) ([]*model.StateHistoryModel, error) {
	var history []*model.StateHistoryModel
	err := r.db.Where("workflow_id = ?", workflowID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}
