package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/api"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/auth"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/config"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/engine"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/repository"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testServer 集成测试服务端
type testServer struct {
	router    *gin.Engine
	validator *auth.TokenValidator
	db        *gorm.DB
}

// newTestServer 以 sqlite 内存库组装完整路由
func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.UserModel{},
		&model.WorkflowModel{},
		&model.TaskModel{},
		&model.DossierModel{},
		&model.DocumentModel{},
		&model.PermissionModel{},
		&model.StateHistoryModel{},
		&model.TaskResponseModel{},
		&model.WorkflowArchiveModel{},
		&model.NotificationModel{},
		&model.AuditLogModel{},
	))

	users := []*model.UserModel{
		{ID: "admin", Name: "Admin", Role: model.RoleAdmin},
		{ID: "directeur-1", Name: "Directeur", Role: model.RoleDirecteur},
		{ID: "manager-1", Name: "Manager 1", Role: model.RoleManager, LoadMetric: 600},
		{ID: "employe-1", Name: "Employé 1", Role: model.RoleEmploye, LoadMetric: 300},
		{ID: "employe-2", Name: "Employé 2", Role: model.RoleEmploye, LoadMetric: 900},
	}
	for _, u := range users {
		require.NoError(t, db.Create(u).Error)
	}

	registry, err := engine.NewRegistry()
	require.NoError(t, err)

	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := service.NewNotificationService(notificationRepo, nil, 1, 10, nil)
	t.Cleanup(notificationSvc.Stop)

	directoryFor := func(conn *gorm.DB) engine.Directory { return repository.NewUserRepository(conn) }
	factory := engine.NewFactory(db, registry, directoryFor, notificationSvc, nil)
	machine := engine.NewMachine(db, notificationSvc, nil)

	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	workflowSvc := service.NewWorkflowService(db, factory,
		repository.NewWorkflowRepository(db),
		repository.NewTaskRepository(db),
		repository.NewArchiveRepository(db),
		auditLogSvc)
	taskSvc := service.NewTaskService(machine,
		repository.NewTaskRepository(db),
		repository.NewTaskResponseRepository(db),
		repository.NewStateHistoryRepository(db),
		auditLogSvc)
	documentSvc := service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewDossierRepository(db),
		repository.NewPermissionRepository(db),
		notificationSvc, auditLogSvc, nil)
	statisticsSvc := service.NewStatisticsService(db)

	validator := auth.NewTokenValidator("test-secret", "geide")
	cfg := config.Default()

	router := api.SetupRoutes(cfg, db, nil, validator, &api.Controllers{
		Workflow:     api.NewWorkflowController(workflowSvc),
		Task:         api.NewTaskController(taskSvc),
		Document:     api.NewDocumentController(documentSvc),
		Notification: api.NewNotificationController(notificationSvc),
		Statistics:   api.NewStatisticsController(statisticsSvc),
	})

	return &testServer{router: router, validator: validator, db: db}
}

// do 发起带认证的请求
func (s *testServer) do(t *testing.T, method, path, userID, role string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.validator.GenerateToken(userID, userID, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// createDossier 建目录并返回其 ID
func createDossier(t *testing.T, s *testServer, name, category string) string {
	w := s.do(t, http.MethodPost, "/api/v1/dossiers", "admin", model.RoleAdmin, gin.H{
		"name":     name,
		"category": category,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeData(t, w)["ID"].(string)
}

// createWorkflow 从指定类别建工作流,返回创建结果 data
func createWorkflow(t *testing.T, s *testServer, category string) map[string]interface{} {
	dossierID := createDossier(t, s, "Dossier "+category, category)
	w := s.do(t, http.MethodPost, "/api/v1/workflows", "admin", model.RoleAdmin, gin.H{
		"category":   category,
		"dossier_id": dossierID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeData(t, w)
}

// decodeData 解出统一响应中的 data
func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

// TestRoutesRequireAuth 测试 API 路由要求认证
func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/workflows", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 健康检查与指标不要求认证
	w = s.do(t, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestWorkflowLifecycleOverAPI 测试工作流全流程
func TestWorkflowLifecycleOverAPI(t *testing.T) {
	s := newTestServer(t)

	// 1. 缺少目录和文档时拒绝
	w := s.do(t, http.MethodPost, "/api/v1/workflows", "admin", model.RoleAdmin, gin.H{
		"category": model.CategoryFacture,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 2. 创建目录后从目录类别创建工作流
	dossierID := createDossier(t, s, "Factures 2026", model.CategoryFacture)
	w = s.do(t, http.MethodPost, "/api/v1/workflows", "admin", model.RoleAdmin, gin.H{
		"dossier_id": dossierID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	workflow := data["workflow"].(map[string]interface{})
	tasks := data["tasks"].([]interface{})
	workflowID := workflow["ID"].(string)
	require.Len(t, tasks, 3)

	// 3. 归档被拒: 工作流未完成
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workflows/%s/archive", workflowID), "admin", model.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 4. 按链序完成全部任务 (admin 可操作任意任务)
	for _, raw := range tasks {
		taskID := raw.(map[string]interface{})["ID"].(string)
		w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/transition", taskID), "admin", model.RoleAdmin, gin.H{
			"status": model.TaskStatusCompleted,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// 5. 工作流聚合为完成
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/workflows/%s", workflowID), "admin", model.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeData(t, w)
	assert.Equal(t, model.WorkflowStatusCompleted, detail["workflow"].(map[string]interface{})["Status"])

	// 6. 归档成功,重复归档报冲突
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workflows/%s/archive", workflowID), "admin", model.RoleAdmin, gin.H{
		"report": "validations conformes",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/workflows/%s/archive", workflowID), "admin", model.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 7. 归档列表
	w = s.do(t, http.MethodGet, "/api/v1/archives", "admin", model.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestTaskAuthorizationOverAPI 测试任务操作权限
func TestTaskAuthorizationOverAPI(t *testing.T) {
	s := newTestServer(t)

	tasks := createWorkflow(t, s, model.CategoryDemandeConge)["tasks"].([]interface{})
	firstTask := tasks[0].(map[string]interface{})
	taskID := firstTask["ID"].(string)
	assignee := firstTask["AssignedTo"].(string) // manager-1

	// 非指派人被拒
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/transition", taskID), "employe-1", model.RoleEmploye, gin.H{
		"status": model.TaskStatusInProgress,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 指派人可开始
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/transition", taskID), assignee, model.RoleManager, gin.H{
		"status": model.TaskStatusInProgress,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 拒绝必须携带原因
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%s/transition", taskID), assignee, model.RoleManager, gin.H{
		"status": model.TaskStatusRejected,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 历史记录可查询
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%s/history", taskID), assignee, model.RoleManager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestForceStatusAdminOnly 测试强制覆盖只限管理员
func TestForceStatusAdminOnly(t *testing.T) {
	s := newTestServer(t)

	workflowID := createWorkflow(t, s, model.CategoryCV)["workflow"].(map[string]interface{})["ID"].(string)

	w := s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/workflows/%s/status", workflowID), "manager-1", model.RoleManager, gin.H{
		"status": model.WorkflowStatusCompleted,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/workflows/%s/status", workflowID), "admin", model.RoleAdmin, gin.H{
		"status": model.WorkflowStatusCompleted,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// TestNotificationsOverAPI 测试通知查询与已读
func TestNotificationsOverAPI(t *testing.T) {
	s := newTestServer(t)

	// 创建 congé 工作流,首任务指派给 manager-1 并触发通知
	createWorkflow(t, s, model.CategoryDemandeConge)

	w := s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "manager-1", model.RoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)
	notificationID := resp.Data[0]["ID"].(string)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%s/read", notificationID), "manager-1", model.RoleManager, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 他人标记被拒
	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%s/read", notificationID), "employe-1", model.RoleEmploye, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestStatisticsOverAPI 测试统计端点
func TestStatisticsOverAPI(t *testing.T) {
	s := newTestServer(t)

	createWorkflow(t, s, model.CategoryFacture)

	for _, path := range []string{
		"/api/v1/statistics/workflows",
		"/api/v1/statistics/tasks",
		"/api/v1/statistics/tasks/roles",
		"/api/v1/statistics/tasks/time",
		"/api/v1/statistics/completion",
	} {
		w := s.do(t, http.MethodGet, path, "admin", model.RoleAdmin, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
