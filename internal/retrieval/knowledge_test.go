package retrieval_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikita-k/ai-chatbot/internal/logging"
	"github.com/mikita-k/ai-chatbot/internal/retrieval"
)

// TestKnowledgeBase_Answer 相关文档按词项重合度返回
func TestKnowledgeBase_Answer(t *testing.T) {
	kb := retrieval.NewKnowledgeBase(nil, logging.NewLogger())

	answer, err := kb.Answer(context.Background(), "what are the parking hours?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "06:00")
	assert.NotEmpty(t, answer.Sources)
	assert.Greater(t, answer.Confidence, 0.0)
}

// TestKnowledgeBase_Fallback 无关问题得到兜底回答
func TestKnowledgeBase_Fallback(t *testing.T) {
	kb := retrieval.NewKnowledgeBase(nil, logging.NewLogger())

	answer, err := kb.Answer(context.Background(), "zzz qqq xxx")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "rephrase")
	assert.Equal(t, 0.0, answer.Confidence)
}

// TestKnowledgeBase_CancelledContext 取消的上下文直接返回错误
func TestKnowledgeBase_CancelledContext(t *testing.T) {
	kb := retrieval.NewKnowledgeBase(nil, logging.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := kb.Answer(ctx, "what are the parking hours?")
	assert.ErrorIs(t, err, context.Canceled)
}

// TestKnowledgeBase_GuardRails 回答中的邮箱和长数字序列被脱敏
func TestKnowledgeBase_GuardRails(t *testing.T) {
	docs := []string{
		"For billing questions contact billing@parking.example or call 1234567890 about parking price.",
	}
	kb := retrieval.NewKnowledgeBase(docs, logging.NewLogger())

	answer, err := kb.Answer(context.Background(), "parking price billing")
	require.NoError(t, err)

	assert.NotContains(t, answer.Text, "billing@parking.example")
	assert.NotContains(t, answer.Text, "1234567890")
	assert.Contains(t, answer.Text, "[REDACTED_EMAIL]")
	assert.Contains(t, answer.Text, "[REDACTED_NUMBER]")
}

// TestNewKnowledgeBaseFromFile 文件加载,文档以空行分隔
func TestNewKnowledgeBaseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.txt")
	content := "Parking hours are 08:00 to 20:00.\n\nParking price is 3 euro per hour.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	kb, err := retrieval.NewKnowledgeBaseFromFile(path, logging.NewLogger())
	require.NoError(t, err)

	answer, err := kb.Answer(context.Background(), "what is the parking price?")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "3 euro")
}

// TestNewKnowledgeBaseFromFile_Missing 文件不存在返回错误
func TestNewKnowledgeBaseFromFile_Missing(t *testing.T) {
	_, err := retrieval.NewKnowledgeBaseFromFile("/nonexistent/docs.txt", logging.NewLogger())
	assert.Error(t, err)
}
