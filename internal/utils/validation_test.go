package utils_test

import (
	"strings"
	"testing"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSanitizeString 测试字符串清理
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;gras&lt;/b&gt;", utils.SanitizeString("<b>gras</b>"))
	assert.Equal(t, "bonjour", utils.SanitizeString("bon\x00jour"))
	// 换行与制表符保留
	assert.Equal(t, "ligne1\nligne2\tfin", utils.SanitizeString("ligne1\nligne2\tfin"))
}

// TestValidateName 测试名称验证
func TestValidateName(t *testing.T) {
	assert.NoError(t, utils.ValidateName("Factures 2026"))
	assert.NoError(t, utils.ValidateName("Demandes de congé annuel"))

	assert.ErrorIs(t, utils.ValidateName(""), utils.ErrEmptyName)
	assert.ErrorIs(t, utils.ValidateName("   "), utils.ErrEmptyName)
	assert.ErrorIs(t, utils.ValidateName(strings.Repeat("a", 256)), utils.ErrNameTooLong)
	assert.ErrorIs(t, utils.ValidateName("<script>alert(1)</script>"), utils.ErrDangerousChars)
	assert.ErrorIs(t, utils.ValidateName("x'; drop table users"), utils.ErrDangerousChars)
	assert.ErrorIs(t, utils.ValidateName("a UNION SELECT b"), utils.ErrDangerousChars)
}

// TestValidateID 测试资源 ID 验证
func TestValidateID(t *testing.T) {
	assert.NoError(t, utils.ValidateID("dossier-1"))
	assert.NoError(t, utils.ValidateID("a1b2_c3-d4"))

	assert.ErrorIs(t, utils.ValidateID(""), utils.ErrEmptyID)
	assert.ErrorIs(t, utils.ValidateID("id with spaces"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID("id;drop"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID(strings.Repeat("a", 65)), utils.ErrIDTooLong)
}

// TestTrimAndValidate 测试清理并验证
func TestTrimAndValidate(t *testing.T) {
	out, err := utils.TrimAndValidate("  bonjour  ", 32)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)

	_, err = utils.TrimAndValidate("   ", 32)
	assert.ErrorIs(t, err, utils.ErrEmptyString)

	_, err = utils.TrimAndValidate(strings.Repeat("a", 33), 32)
	assert.ErrorIs(t, err, utils.ErrStringTooLong)

	out, err = utils.TrimAndValidate("<i>texte</i>", 0)
	require.NoError(t, err)
	assert.Equal(t, "&lt;i&gt;texte&lt;/i&gt;", out)
}

// TestValidateSortField 测试排序字段白名单
func TestValidateSortField(t *testing.T) {
	assert.NoError(t, utils.ValidateSortField("created_at"))
	assert.NoError(t, utils.ValidateSortField("tasks.task_order"))
	assert.Error(t, utils.ValidateSortField(""))
	assert.Error(t, utils.ValidateSortField("created_at; drop table tasks"))
	assert.Error(t, utils.ValidateSortField("union"))

	assert.NoError(t, utils.ValidateSortOrder("asc"))
	assert.NoError(t, utils.ValidateSortOrder(" DESC "))
	assert.Error(t, utils.ValidateSortOrder("sideways"))

	assert.Equal(t, "created_at", utils.SanitizeSortField("created_at;--"))
	assert.Equal(t, "DESC", utils.SanitizeSortOrder("nonsense"))
	assert.Equal(t, "ASC", utils.SanitizeSortOrder("asc"))
}
