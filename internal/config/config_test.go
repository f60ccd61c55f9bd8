package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikita-k/ai-chatbot/internal/config"
)

// TestDefault 默认配置零配置可用
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/approvals.db", cfg.Database.Path)
	assert.Equal(t, "data/reservations.db", cfg.Storage.Path)
	assert.Equal(t, "auto", cfg.Approval.Channel)
	assert.Equal(t, 60*time.Second, cfg.Approval.WaitTimeout)
	assert.Equal(t, time.Second, cfg.Approval.PollInterval)
	assert.NoError(t, cfg.Validate())
}

// TestLoad_FromFile 从 YAML 文件加载
func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
approval:
  channel: auto
  wait_timeout: 5s
database:
  path: ":memory:"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Approval.WaitTimeout)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	// 未覆盖的键保持默认值
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

// TestLoad_EnvOverride 环境变量覆盖配置
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AICHATBOT_SERVER_PORT", "7070")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

// TestValidate_UnknownChannel 未知审批通道拒绝
func TestValidate_UnknownChannel(t *testing.T) {
	cfg := config.Default()
	cfg.Approval.Channel = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

// TestValidate_TelegramRequiresCredentials telegram 通道要求凭据
func TestValidate_TelegramRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Approval.Channel = "telegram"
	assert.Error(t, cfg.Validate())

	cfg.Telegram.BotToken = "123:token"
	cfg.Telegram.AdminChatID = "42"
	assert.NoError(t, cfg.Validate())
}

// TestValidate_NonPositiveDurations 非正时长拒绝
func TestValidate_NonPositiveDurations(t *testing.T) {
	cfg := config.Default()
	cfg.Approval.WaitTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Approval.PollInterval = -time.Second
	assert.Error(t, cfg.Validate())
}
