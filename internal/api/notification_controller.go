package api

import (
	"net/http"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/utils"
	"github.com/gin-gonic/gin"
)

// NotificationController 通知控制器
type NotificationController struct {
	notificationService service.NotificationService
}

// NewNotificationController 创建通知控制器
func NewNotificationController(notificationService service.NotificationService) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
	}
}

// List 查询当前用户的通知
func (c *NotificationController) List(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	unreadOnly := ctx.Query("unread") == "true"

	notifications, err := c.notificationService.List(ctx.Request.Context(), userID, unreadOnly)
	if err != nil {
		ServiceError(ctx, err, "list notifications")
		return
	}

	Success(ctx, notifications)
}

// MarkRead 标记通知已读
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid notification ID", err.Error())
		return
	}
	userID := ctx.GetString("user_id")

	if err := c.notificationService.MarkRead(ctx.Request.Context(), id, userID); err != nil {
		ServiceError(ctx, err, "mark notification read")
		return
	}

	Success(ctx, nil)
}
