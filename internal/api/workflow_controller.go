package api

import (
	"net/http"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/utils"
	"github.com/gin-gonic/gin"
)

// WorkflowController 工作流控制器
type WorkflowController struct {
	workflowService service.WorkflowService
}

// NewWorkflowController 创建工作流控制器
func NewWorkflowController(workflowService service.WorkflowService) *WorkflowController {
	return &WorkflowController{
		workflowService: workflowService,
	}
}

// validateWorkflowID 验证工作流 ID 并返回错误响应（如果无效）
func (c *WorkflowController) validateWorkflowID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid workflow ID", err.Error())
		return false
	}
	return true
}

// Create 从模板创建工作流
func (c *WorkflowController) Create(ctx *gin.Context) {
	var req service.CreateWorkflowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if req.DossierID == "" && req.DocumentID == "" {
		Error(ctx, http.StatusBadRequest, "invalid request", "dossier_id or document_id is required")
		return
	}

	result, err := c.workflowService.Create(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "create workflow")
		return
	}

	Success(ctx, result)
}

// Get 获取工作流详情(含任务)
func (c *WorkflowController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	detail, err := c.workflowService.Get(ctx.Request.Context(), id)
	if err != nil {
		ServiceError(ctx, err, "get workflow")
		return
	}

	Success(ctx, detail)
}

// List 查询工作流列表
func (c *WorkflowController) List(ctx *gin.Context) {
	filter := &repository.WorkflowFilter{}
	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
	}
	if createdBy := ctx.Query("created_by"); createdBy != "" {
		filter.CreatedBy = &createdBy
	}
	if dossierID := ctx.Query("dossier_id"); dossierID != "" {
		filter.DossierID = &dossierID
	}
	if category := ctx.Query("category"); category != "" {
		filter.Category = &category
	}

	workflows, err := c.workflowService.List(ctx.Request.Context(), filter)
	if err != nil {
		ServiceError(ctx, err, "list workflows")
		return
	}

	Success(ctx, workflows)
}

// ArchiveRequest 归档请求
type ArchiveRequest struct {
	Report string `json:"report"` // 验证报告
}

// Archive 归档工作流
func (c *WorkflowController) Archive(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	var req ArchiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	archive, err := c.workflowService.Archive(ctx.Request.Context(), id, req.Report)
	if err != nil {
		ServiceError(ctx, err, "archive workflow")
		return
	}

	Success(ctx, archive)
}

// ListArchives 查询归档记录
func (c *WorkflowController) ListArchives(ctx *gin.Context) {
	archives, err := c.workflowService.ListArchives(ctx.Request.Context())
	if err != nil {
		ServiceError(ctx, err, "list archives")
		return
	}

	Success(ctx, archives)
}

// ForceStatusRequest 强制状态请求
type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"` // completed/rejected
}

// ForceStatus 管理员强制设置工作流状态
func (c *WorkflowController) ForceStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateWorkflowID(ctx, id) {
		return
	}

	var req ForceStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	wf, err := c.workflowService.ForceStatus(ctx.Request.Context(), id, req.Status)
	if err != nil {
		ServiceError(ctx, err, "force workflow status")
		return
	}

	Success(ctx, wf)
}
