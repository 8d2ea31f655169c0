package api

import (
	"errors"
	"net/http"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`    // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message"` // 响应消息
	Data    interface{} `json:"data"`    // 响应数据
}

// ErrorResponse 错误响应格式
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情(可选)
}

// PaginatedResponse 分页响应
type PaginatedResponse struct {
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`       // 数据列表
	Pagination PaginationInfo `json:"pagination"` // 分页信息
}

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int   `json:"page"`       // 当前页码
	PageSize  int   `json:"page_size"`  // 每页数量
	Total     int64 `json:"total"`      // 总记录数
	TotalPage int   `json:"total_page"` // 总页数
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// Paginated 分页响应
func Paginated(c *gin.Context, data interface{}, pagination PaginationInfo) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Code:       0,
		Message:    "success",
		Data:       data,
		Pagination: pagination,
	})
}

// ServiceError 把服务层错误映射为 HTTP 响应
// 引擎的业务错误是调用方可预期的结果,不归入 500
func ServiceError(c *gin.Context, err error, operation string) {
	var invalidTransition *engine.InvalidTransitionError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		Error(c, http.StatusNotFound, "resource not found", err.Error())
	case errors.Is(err, engine.ErrNoTemplate):
		Error(c, http.StatusUnprocessableEntity, "no matching workflow template", err.Error())
	case errors.Is(err, engine.ErrNotCompleted):
		Error(c, http.StatusConflict, "workflow is not completed", err.Error())
	case errors.Is(err, engine.ErrAlreadyArchived):
		Error(c, http.StatusConflict, "workflow already archived", err.Error())
	case errors.Is(err, engine.ErrReasonRequired):
		Error(c, http.StatusBadRequest, "rejection reason is required", err.Error())
	case errors.Is(err, engine.ErrInvalidStatus):
		Error(c, http.StatusBadRequest, "invalid workflow status", err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, http.StatusForbidden, "operation not allowed", err.Error())
	case errors.Is(err, service.ErrVersionNotCompleted):
		Error(c, http.StatusConflict, "previous version is not completed", err.Error())
	case errors.As(err, &invalidTransition):
		Error(c, http.StatusConflict, "invalid task transition", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "failed to "+operation, err.Error())
	}
}
