package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/metrics"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationService 通知服务接口
// 同时作为引擎的通知出口: 先落库,再异步推送在线用户
type NotificationService interface {
	Notify(ctx context.Context, userID, senderID, message, taskID string) error
	List(ctx context.Context, userID string, unreadOnly bool) ([]*model.NotificationModel, error)
	MarkRead(ctx context.Context, id, userID string) error
	Stop()
}

// pushMessage WebSocket 推送载荷
type pushMessage struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	SenderID  string    `json:"sender_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// pushJob 待推送任务
type pushJob struct {
	userID  string
	payload []byte
}

// notificationService 通知服务实现
type notificationService struct {
	repo   repository.NotificationRepository
	hub    *websocket.Hub
	logger *logrus.Logger

	jobs chan pushJob
	wg   sync.WaitGroup
	once sync.Once
}

// NewNotificationService 创建通知服务并启动推送工作池
// 队列有界,满载时丢弃推送(落库不受影响),避免慢消费者拖垮调用方
func NewNotificationService(
	repo repository.NotificationRepository,
	hub *websocket.Hub,
	workers int,
	queueSize int,
	logger *logrus.Logger,
) NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	s := &notificationService{
		repo:   repo,
		hub:    hub,
		logger: logger,
		jobs:   make(chan pushJob, queueSize),
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Notify 落库并异步推送
// 落库失败返回错误;推送队列满载时丢弃推送并记录,不返回错误
func (s *notificationService) Notify(ctx context.Context, userID, senderID, message, taskID string) error {
	n := &model.NotificationModel{
		ID:        uuid.New().String(),
		UserID:    userID,
		SenderID:  senderID,
		Message:   message,
		TaskID:    taskID,
		Read:      false,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Save(n); err != nil {
		return err
	}

	if s.hub == nil {
		return nil
	}

	payload, err := json.Marshal(pushMessage{
		ID:        n.ID,
		Message:   n.Message,
		SenderID:  n.SenderID,
		TaskID:    n.TaskID,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to marshal notification payload")
		return nil
	}

	select {
	case s.jobs <- pushJob{userID: userID, payload: payload}:
	default:
		metrics.RecordNotificationDropped()
		s.logger.WithFields(logrus.Fields{
			"user_id":         userID,
			"notification_id": n.ID,
		}).Warn("notification push queue full, dropping push")
	}
	return nil
}

// List 查询用户通知,按创建时间倒序
func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*model.NotificationModel, error) {
	return s.repo.FindByUser(userID, unreadOnly)
}

// MarkRead 标记通知已读,只允许本人操作
func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(id, userID)
}

// Stop 关闭推送队列并等待工作池清空
func (s *notificationService) Stop() {
	s.once.Do(func() {
		close(s.jobs)
	})
	s.wg.Wait()
}

// worker 消费推送队列
func (s *notificationService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.hub.BroadcastToUser(job.userID, job.payload)
		metrics.RecordNotificationSent()
	}
}
