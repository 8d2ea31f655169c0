package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/auth"
	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateAndValidateToken 测试签发与验证 Token
func TestGenerateAndValidateToken(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "geide")

	token, err := validator.GenerateToken("employe-1", "Employé 1", model.RoleEmploye, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "employe-1", claims.Sub)
	assert.Equal(t, "Employé 1", claims.Name)
	assert.Equal(t, model.RoleEmploye, claims.Role)
	assert.Equal(t, "geide", claims.Issuer)
}

// TestValidateTokenFailures 测试 Token 验证失败场景
func TestValidateTokenFailures(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "geide")

	t.Run("错误签名密钥", func(t *testing.T) {
		other := auth.NewTokenValidator("other-secret", "geide")
		token, err := other.GenerateToken("employe-1", "x", model.RoleEmploye, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("过期 Token", func(t *testing.T) {
		token, err := validator.GenerateToken("employe-1", "x", model.RoleEmploye, -time.Minute)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("错误 issuer", func(t *testing.T) {
		other := auth.NewTokenValidator("test-secret", "autre")
		token, err := other.GenerateToken("employe-1", "x", model.RoleEmploye, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("畸形 Token", func(t *testing.T) {
		_, err := validator.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

// newAuthTestRouter 建带认证中间件的测试路由
func newAuthTestRouter(validator *auth.TokenValidator, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{auth.AuthMiddleware(validator)}
	if adminOnly {
		handlers = append(handlers, auth.AdminRequired())
	}
	handlers = append(handlers, func(c *gin.Context) {
		// 中间件须同时写入 gin 上下文与请求 context
		ginUserID, _ := c.Get("user_id")
		ctxUserID, _ := c.Request.Context().Value("user_id").(string)
		ctxRole, _ := c.Request.Context().Value("role").(string)
		c.JSON(http.StatusOK, gin.H{
			"gin_user_id": ginUserID,
			"ctx_user_id": ctxUserID,
			"ctx_role":    ctxRole,
		})
	})
	router.GET("/protected", handlers...)
	return router
}

// TestAuthMiddleware 测试认证中间件
func TestAuthMiddleware(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "geide")
	router := newAuthTestRouter(validator, false)

	t.Run("缺少凭证", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("非法凭证", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("合法凭证注入身份", func(t *testing.T) {
		token, err := validator.GenerateToken("manager-1", "Manager", model.RoleManager, time.Hour)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"gin_user_id":"manager-1"`)
		assert.Contains(t, w.Body.String(), `"ctx_user_id":"manager-1"`)
		assert.Contains(t, w.Body.String(), `"ctx_role":"manager"`)
	})
}

// TestAdminRequired 测试管理员门控
func TestAdminRequired(t *testing.T) {
	validator := auth.NewTokenValidator("test-secret", "geide")
	router := newAuthTestRouter(validator, true)

	t.Run("非管理员被拒绝", func(t *testing.T) {
		token, err := validator.GenerateToken("employe-1", "x", model.RoleEmploye, time.Hour)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("管理员放行", func(t *testing.T) {
		token, err := validator.GenerateToken("admin", "Admin", model.RoleAdmin, time.Hour)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
