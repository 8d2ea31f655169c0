package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SystemOperator 级联与系统触发的状态变更在历史中的操作者标识
const SystemOperator = "system"

// transitions 用户可触发的任务状态迁移表
// blocked -> pending 只能由前置任务完成的级联触发,不在表内
var transitions = map[string]map[string]bool{
	model.TaskStatusPending: {
		model.TaskStatusInProgress: true,
		model.TaskStatusCompleted:  true,
		model.TaskStatusRejected:   true,
		model.TaskStatusCancelled:  true,
	},
	model.TaskStatusInProgress: {
		model.TaskStatusCompleted: true,
		model.TaskStatusRejected:  true,
		model.TaskStatusCancelled: true,
	},
	model.TaskStatusBlocked: {
		model.TaskStatusCancelled: true,
	},
}

// CanTransition 判断状态迁移是否合法
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// pendingNotice 事务提交后待发射的通知
type pendingNotice struct {
	userID   string
	senderID string
	message  string
	taskID   string
}

// Machine 任务状态机
// 每次状态变更是一个独立的工作单元,在单个事务内完成
// 任务更新、级联解锁、历史记录与工作流状态聚合;
// 通知在事务提交后尽力发射
type Machine struct {
	db       *gorm.DB
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

// NewMachine 创建任务状态机
func NewMachine(db *gorm.DB, notifier Notifier, logger *logrus.Logger) *Machine {
	if logger == nil {
		logger = logrus.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Machine{
		db:       db,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Transition 执行用户请求的状态迁移
func (m *Machine) Transition(ctx context.Context, taskID, newStatus, actorID, reason string) (*model.TaskModel, error) {
	switch newStatus {
	case model.TaskStatusInProgress:
		return m.Start(ctx, taskID, actorID)
	case model.TaskStatusCompleted:
		return m.Complete(ctx, taskID, actorID)
	case model.TaskStatusRejected:
		return m.Reject(ctx, taskID, actorID, reason)
	case model.TaskStatusCancelled:
		return m.Cancel(ctx, taskID, actorID)
	default:
		// pending/blocked 不是用户可请求的目标状态
		return nil, &InvalidTransitionError{TaskID: taskID, From: "", To: newStatus}
	}
}

// Start 开始处理任务: pending -> in_progress
func (m *Machine) Start(ctx context.Context, taskID, actorID string) (*model.TaskModel, error) {
	var task *model.TaskModel
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if !CanTransition(task.Status, model.TaskStatusInProgress) {
			return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: model.TaskStatusInProgress}
		}

		from := task.Status
		task.Status = model.TaskStatusInProgress
		task.UpdatedAt = m.now()
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return recordHistory(tx, task, from, actorID, "")
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Complete 完成任务: pending|in_progress -> completed
// 级联解锁所有依赖本任务且仍阻塞的任务,并通知其指派人
func (m *Machine) Complete(ctx context.Context, taskID, actorID string) (*model.TaskModel, error) {
	return m.complete(ctx, taskID, actorID, false)
}

// complete fromResponse 为真时允许从 blocked 完成:
// 提交成果即完成信号,不受当前非终态限制
func (m *Machine) complete(ctx context.Context, taskID, actorID string, fromResponse bool) (*model.TaskModel, error) {
	var task *model.TaskModel
	var notices []pendingNotice

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, notices, err = m.completeInTx(tx, taskID, actorID, fromResponse)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.emit(ctx, notices)
	return task, nil
}

// completeInTx 在既有事务内完成任务并级联
func (m *Machine) completeInTx(tx *gorm.DB, taskID, actorID string, fromResponse bool) (*model.TaskModel, []pendingNotice, error) {
	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, nil, err
	}

	allowed := CanTransition(task.Status, model.TaskStatusCompleted)
	if fromResponse {
		allowed = !task.IsTerminal()
	}
	if !allowed {
		return nil, nil, &InvalidTransitionError{TaskID: taskID, From: task.Status, To: model.TaskStatusCompleted}
	}

	from := task.Status
	now := m.now()
	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	task.UpdatedAt = now
	if err := tx.Save(task).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := recordHistory(tx, task, from, actorID, ""); err != nil {
		return nil, nil, err
	}

	notices, err := m.cascadeUnblock(tx, task, actorID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := Recompute(tx, task.WorkflowID); err != nil {
		return nil, nil, fmt.Errorf("failed to recompute workflow status: %w", err)
	}
	return task, notices, nil
}

// cascadeUnblock 解锁依赖刚完成任务的阻塞任务
// 条件更新 status='blocked' 保证幂等: 已解锁的任务不会被重复处理,
// 重复完成同一前置任务也不会二次触发通知
func (m *Machine) cascadeUnblock(tx *gorm.DB, completed *model.TaskModel, actorID string) ([]pendingNotice, error) {
	var dependents []*model.TaskModel
	err := tx.Where("depends_on = ? AND status = ?", completed.ID, model.TaskStatusBlocked).
		Find(&dependents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find dependent tasks: %w", err)
	}

	var notices []pendingNotice
	now := m.now()
	for _, dep := range dependents {
		res := tx.Model(&model.TaskModel{}).
			Where("id = ? AND status = ?", dep.ID, model.TaskStatusBlocked).
			Updates(map[string]interface{}{"status": model.TaskStatusPending, "updated_at": now})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to unblock task %s: %w", dep.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// 已被并发解锁,跳过
			continue
		}

		from := dep.Status
		dep.Status = model.TaskStatusPending
		if err := recordHistory(tx, dep, from, SystemOperator, "dependency completed"); err != nil {
			return nil, err
		}

		if dep.AssignedTo != nil {
			notices = append(notices, pendingNotice{
				userID:   *dep.AssignedTo,
				senderID: actorID,
				message:  fmt.Sprintf("task unblocked: %s", dep.Title),
				taskID:   dep.ID,
			})
		}
	}
	return notices, nil
}

// Reject 拒绝任务: pending|in_progress -> rejected
// 必须携带原因;不级联解锁后续任务,被拒绝的前置无法放行后继;
// 通知工作流创建人并把整个工作流置为 rejected
func (m *Machine) Reject(ctx context.Context, taskID, actorID, reason string) (*model.TaskModel, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	var task *model.TaskModel
	var notices []pendingNotice

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if !CanTransition(task.Status, model.TaskStatusRejected) {
			return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: model.TaskStatusRejected}
		}

		from := task.Status
		now := m.now()
		task.Status = model.TaskStatusRejected
		task.RejectedAt = &now
		task.RejectedBy = actorID
		task.RejectionReason = reason
		task.UpdatedAt = now
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := recordHistory(tx, task, from, actorID, reason); err != nil {
			return err
		}

		if _, err := Recompute(tx, task.WorkflowID); err != nil {
			return fmt.Errorf("failed to recompute workflow status: %w", err)
		}

		var wf model.WorkflowModel
		if err := tx.Where("id = ?", task.WorkflowID).First(&wf).Error; err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}
		notices = append(notices, pendingNotice{
			userID:   wf.CreatedBy,
			senderID: actorID,
			message:  fmt.Sprintf("task rejected: %s (reason: %s)", task.Title, reason),
			taskID:   task.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.emit(ctx, notices)
	return task, nil
}

// Cancel 取消任务: 管理覆盖,任意非终态可取消,不级联
// 任务已处于终态时为幂等空操作,返回当前任务
func (m *Machine) Cancel(ctx context.Context, taskID, actorID string) (*model.TaskModel, error) {
	var task *model.TaskModel
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.IsTerminal() {
			return nil
		}

		from := task.Status
		task.Status = model.TaskStatusCancelled
		task.UpdatedAt = m.now()
		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return recordHistory(tx, task, from, actorID, "")
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Reassign 改派任务
// in_progress 重置回 pending,已有进度作废;blocked 保持阻塞,
// 改派不改变依赖门控;追加改派说明并通知新指派人
func (m *Machine) Reassign(ctx context.Context, taskID, newAssigneeID, actorID, note string) (*model.TaskModel, error) {
	var task *model.TaskModel
	var notices []pendingNotice

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.IsTerminal() {
			return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: task.Status}
		}

		now := m.now()
		from := task.Status
		task.AssignedTo = &newAssigneeID
		if task.Status == model.TaskStatusInProgress {
			task.Status = model.TaskStatusPending
		}

		line := fmt.Sprintf("[%s] reassigned to %s by %s", now.Format(time.RFC3339), newAssigneeID, actorID)
		if note != "" {
			line += ": " + note
		}
		if task.AssignmentNote != "" {
			task.AssignmentNote += "\n"
		}
		task.AssignmentNote += line
		task.UpdatedAt = now

		if err := tx.Save(task).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if from != task.Status {
			if err := recordHistory(tx, task, from, actorID, "reassigned"); err != nil {
				return err
			}
		}

		notices = append(notices, pendingNotice{
			userID:   newAssigneeID,
			senderID: actorID,
			message:  fmt.Sprintf("new task assigned: %s", task.Title),
			taskID:   task.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.emit(ctx, notices)
	return task, nil
}

// RecordResponse 记录任务成果并完成任务
// 成果可在任意非终态提交,提交即操作类任务的完成信号
func (m *Machine) RecordResponse(ctx context.Context, taskID, userID, filePath, comment string) (*model.TaskResponseModel, error) {
	resp := &model.TaskResponseModel{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		UserID:      userID,
		FilePath:    filePath,
		Comment:     comment,
		SubmittedAt: m.now(),
	}

	var notices []pendingNotice
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resp).Error; err != nil {
			return fmt.Errorf("failed to record task response: %w", err)
		}
		var err error
		_, notices, err = m.completeInTx(tx, taskID, userID, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.emit(ctx, notices)
	return resp, nil
}

// emit 事务提交后发射通知,失败只记录
func (m *Machine) emit(ctx context.Context, notices []pendingNotice) {
	for _, n := range notices {
		if err := m.notifier.Notify(ctx, n.userID, n.senderID, n.message, n.taskID); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": n.userID,
				"task_id": n.taskID,
			}).Warn("failed to emit notification")
		}
	}
}

// loadTask 加载任务
func loadTask(tx *gorm.DB, taskID string) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}
	return &task, nil
}

// recordHistory 记录状态变更历史
func recordHistory(tx *gorm.DB, task *model.TaskModel, from, operator, reason string) error {
	h := &model.StateHistoryModel{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		WorkflowID: task.WorkflowID,
		FromStatus: from,
		ToStatus:   task.Status,
		Reason:     reason,
		Operator:   operator,
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(h).Error; err != nil {
		return fmt.Errorf("failed to record state history: %w", err)
	}
	return nil
}
