package engine

import "context"

// Notifier 通知发射契约
// 引擎只负责调用,投递由外部实现;发射失败由实现方记录,
// 不会中断触发通知的状态变更
type Notifier interface {
	Notify(ctx context.Context, userID, senderID, message, taskID string) error
}

// NopNotifier 空实现,测试与通知未接线时使用
type NopNotifier struct{}

// Notify 丢弃通知
func (NopNotifier) Notify(ctx context.Context, userID, senderID, message, taskID string) error {
	return nil
}
