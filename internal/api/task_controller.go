package api

import (
	"net/http"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/utils"
	"github.com/gin-gonic/gin"
)

// TaskController 任务控制器
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController 创建任务控制器
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

// validateTaskID 验证任务 ID 并返回错误响应（如果无效）
func (c *TaskController) validateTaskID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid task ID", err.Error())
		return false
	}
	return true
}

// Get 获取任务详情
func (c *TaskController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	task, err := c.taskService.Get(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "get task")
		return
	}

	Success(ctx, task)
}

// List 查询任务列表
func (c *TaskController) List(ctx *gin.Context) {
	filter := &repository.TaskFilter{}
	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
	}
	if workflowID := ctx.Query("workflow_id"); workflowID != "" {
		filter.WorkflowID = &workflowID
	}
	if assignedTo := ctx.Query("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}
	if role := ctx.Query("role"); role != "" {
		filter.Role = &role
	}

	tasks, err := c.taskService.List(ctx.Request.Context(), filter)
	if err != nil {
		ServiceError(ctx, err, "list tasks")
		return
	}

	Success(ctx, tasks)
}

// Transition 执行任务状态迁移
func (c *TaskController) Transition(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	var req service.TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.taskService.Transition(ctx.Request.Context(), id, &req)
	if err != nil {
		ServiceError(ctx, err, "transition task")
		return
	}

	Success(ctx, task)
}

// Reassign 改派任务
func (c *TaskController) Reassign(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	var req service.ReassignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	task, err := c.taskService.Reassign(ctx.Request.Context(), id, &req)
	if err != nil {
		ServiceError(ctx, err, "reassign task")
		return
	}

	Success(ctx, task)
}

// Respond 提交任务成果
func (c *TaskController) Respond(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	var req service.ResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	resp, err := c.taskService.RecordResponse(ctx.Request.Context(), id, &req)
	if err != nil {
		ServiceError(ctx, err, "record task response")
		return
	}

	Success(ctx, resp)
}

// Responses 查询任务成果提交记录
func (c *TaskController) Responses(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	responses, err := c.taskService.Responses(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "list task responses")
		return
	}

	Success(ctx, responses)
}

// History 查询任务状态历史
func (c *TaskController) History(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	history, err := c.taskService.History(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "get task history")
		return
	}

	Success(ctx, history)
}
