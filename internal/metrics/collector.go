package metrics

import (
	"context"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			// 更新数据库连接数指标
			_ = UpdateDatabaseConnections(c.db)
			c.collectTaskStatuses()
		}
	}
}

// collectTaskStatuses 统计各状态任务数并更新分布指标
func (c *Collector) collectTaskStatuses() {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := c.db.WithContext(c.ctx).Model(&model.TaskModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return
	}

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		UpdateTasksByStatus(r.Status, float64(r.Count))
		seen[r.Status] = true
	}

	// 没有任务的状态归零,避免陈旧样本
	for _, status := range []string{
		model.TaskStatusPending,
		model.TaskStatusInProgress,
		model.TaskStatusBlocked,
		model.TaskStatusCompleted,
		model.TaskStatusRejected,
		model.TaskStatusCancelled,
	} {
		if !seen[status] {
			UpdateTasksByStatus(status, 0)
		}
	}
}
