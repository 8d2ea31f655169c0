package service

import (
	"fmt"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetWorkflowStatisticsByStatus() ([]*WorkflowStatisticsByStatus, error)
	GetTaskStatisticsByStatus() ([]*TaskStatisticsByStatus, error)
	GetTaskStatisticsByRole() ([]*TaskStatisticsByRole, error)
	GetTaskStatisticsByTime() ([]*TaskStatisticsByTime, error)
	GetCompletionStatistics() (*CompletionStatistics, error)
}

// WorkflowStatisticsByStatus 按状态统计工作流
type WorkflowStatisticsByStatus struct {
	Status string
	Count  int64
}

// TaskStatisticsByStatus 按状态统计任务
type TaskStatisticsByStatus struct {
	Status string
	Count  int64
}

// TaskStatisticsByRole 按角色统计任务
type TaskStatisticsByRole struct {
	Role  string
	Count int64
}

// TaskStatisticsByTime 按时间统计任务
type TaskStatisticsByTime struct {
	Date  string
	Count int64
}

// CompletionStatistics 完成情况统计
type CompletionStatistics struct {
	TotalTasks            int64
	CompletedCount        int64
	RejectedCount         int64
	CompletionRate        float64
	AverageCompletionTime float64 // 单位：秒
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetWorkflowStatisticsByStatus 按状态统计工作流
func (s *statisticsService) GetWorkflowStatisticsByStatus() ([]*WorkflowStatisticsByStatus, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.Model(&model.WorkflowModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get workflow statistics by status: %w", err)
	}

	stats := make([]*WorkflowStatisticsByStatus, 0, len(results))
	for _, r := range results {
		stats = append(stats, &WorkflowStatisticsByStatus{
			Status: r.Status,
			Count:  r.Count,
		})
	}

	return stats, nil
}

// GetTaskStatisticsByStatus 按状态统计任务
func (s *statisticsService) GetTaskStatisticsByStatus() ([]*TaskStatisticsByStatus, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.Model(&model.TaskModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get task statistics by status: %w", err)
	}

	stats := make([]*TaskStatisticsByStatus, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TaskStatisticsByStatus{
			Status: r.Status,
			Count:  r.Count,
		})
	}

	return stats, nil
}

// GetTaskStatisticsByRole 按角色统计任务
func (s *statisticsService) GetTaskStatisticsByRole() ([]*TaskStatisticsByRole, error) {
	var results []struct {
		Role  string
		Count int64
	}

	err := s.db.Model(&model.TaskModel{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get task statistics by role: %w", err)
	}

	stats := make([]*TaskStatisticsByRole, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TaskStatisticsByRole{
			Role:  r.Role,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetTaskStatisticsByTime 按时间统计任务
func (s *statisticsService) GetTaskStatisticsByTime() ([]*TaskStatisticsByTime, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := s.db.Model(&model.TaskModel{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("date DESC").
		Scan(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get task statistics by time: %w", err)
	}

	stats := make([]*TaskStatisticsByTime, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TaskStatisticsByTime{
			Date:  r.Date,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetCompletionStatistics 获取任务完成情况统计
func (s *statisticsService) GetCompletionStatistics() (*CompletionStatistics, error) {
	var totalCount int64
	err := s.db.Model(&model.TaskModel{}).Count(&totalCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	var completedCount int64
	err = s.db.Model(&model.TaskModel{}).
		Where("status = ?", model.TaskStatusCompleted).
		Count(&completedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	var rejectedCount int64
	err = s.db.Model(&model.TaskModel{}).
		Where("status = ?", model.TaskStatusRejected).
		Count(&rejectedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rejected tasks: %w", err)
	}

	completionRate := 0.0
	if totalCount > 0 {
		completionRate = float64(completedCount) / float64(totalCount) * 100
	}

	// 平均完成时长: completed_at 与 created_at 的差值均值
	var avgSeconds float64
	err = s.db.Model(&model.TaskModel{}).
		Where("status = ? AND completed_at IS NOT NULL", model.TaskStatusCompleted).
		Select("COALESCE(AVG((JULIANDAY(completed_at) - JULIANDAY(created_at)) * 86400), 0)").
		Scan(&avgSeconds).Error
	if err != nil {
		// postgres 没有 JULIANDAY,改用 EXTRACT
		err = s.db.Model(&model.TaskModel{}).
			Where("status = ? AND completed_at IS NOT NULL", model.TaskStatusCompleted).
			Select("COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at))), 0)").
			Scan(&avgSeconds).Error
		if err != nil {
			return nil, fmt.Errorf("failed to compute average completion time: %w", err)
		}
	}

	return &CompletionStatistics{
		TotalTasks:            totalCount,
		CompletedCount:        completedCount,
		RejectedCount:         rejectedCount,
		CompletionRate:        completionRate,
		AverageCompletionTime: avgSeconds,
	}, nil
}
