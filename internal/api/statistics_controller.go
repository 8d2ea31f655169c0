package api

import (
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/gin-gonic/gin"
)

// StatisticsController 统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// WorkflowsByStatus 按状态统计工作流
func (c *StatisticsController) WorkflowsByStatus(ctx *gin.Context) {
	stats, err := c.statisticsService.GetWorkflowStatisticsByStatus()
	if err != nil {
		ServiceError(ctx, err, "get workflow statistics")
		return
	}
	Success(ctx, stats)
}

// TasksByStatus 按状态统计任务
func (c *StatisticsController) TasksByStatus(ctx *gin.Context) {
	stats, err := c.statisticsService.GetTaskStatisticsByStatus()
	if err != nil {
		ServiceError(ctx, err, "get task statistics")
		return
	}
	Success(ctx, stats)
}

// TasksByRole 按角色统计任务
func (c *StatisticsController) TasksByRole(ctx *gin.Context) {
	stats, err := c.statisticsService.GetTaskStatisticsByRole()
	if err != nil {
		ServiceError(ctx, err, "get task statistics by role")
		return
	}
	Success(ctx, stats)
}

// TasksByTime 按时间统计任务
func (c *StatisticsController) TasksByTime(ctx *gin.Context) {
	stats, err := c.statisticsService.GetTaskStatisticsByTime()
	if err != nil {
		ServiceError(ctx, err, "get task statistics by time")
		return
	}
	Success(ctx, stats)
}

// Completion 完成情况统计
func (c *StatisticsController) Completion(ctx *gin.Context) {
	stats, err := c.statisticsService.GetCompletionStatistics()
	if err != nil {
		ServiceError(ctx, err, "get completion statistics")
		return
	}
	Success(ctx, stats)
}
