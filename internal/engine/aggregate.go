package engine

import (
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// Recompute 从任务状态集合推导工作流状态,在每次任务状态变更后调用
// 规则按优先级取首个命中:
//  1. 存在 rejected 任务 => 工作流 rejected
//  2. 全部任务 completed => 工作流 completed
//  3. 其他情况不变,部分进度本身不是一种状态
//
// 空任务集不变: 没有任务的工作流不会被自动判完成。
// 必须在触发它的状态变更同一事务内执行
func Recompute(tx *gorm.DB, workflowID string) (string, error) {
	var wf model.WorkflowModel
	if err := tx.Where("id = ?", workflowID).First(&wf).Error; err != nil {
		return "", err
	}

	var statuses []string
	if err := tx.Model(&model.TaskModel{}).
		Where("workflow_id = ?", workflowID).
		Pluck("status", &statuses).Error; err != nil {
		return "", err
	}

	next := deriveStatus(wf.Status, statuses)
	if next == wf.Status {
		return wf.Status, nil
	}

	err := tx.Model(&model.WorkflowModel{}).
		Where("id = ?", workflowID).
		Updates(map[string]interface{}{"status": next, "updated_at": time.Now()}).Error
	if err != nil {
		return "", err
	}
	return next, nil
}

// deriveStatus 纯推导规则
func deriveStatus(current string, taskStatuses []string) string {
	if len(taskStatuses) == 0 {
		return current
	}

	allCompleted := true
	for _, s := range taskStatuses {
		if s == model.TaskStatusRejected {
			return model.WorkflowStatusRejected
		}
		if s != model.TaskStatusCompleted {
			allCompleted = false
		}
	}

	if allCompleted {
		return model.WorkflowStatusCompleted
	}
	return current
}
