package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikita-k/ai-chatbot/internal/router"
)

// TestClassify_StatusCheck 状态关键词开头且含请求 ID 时分类为 status_check
func TestClassify_StatusCheck(t *testing.T) {
	c := router.Classify("status REQ-20260305120000-001")
	assert.Equal(t, router.TypeStatusCheck, c.Type)
	assert.Equal(t, "REQ-20260305120000-001", c.RequestID)

	c = router.Classify("проверь статус REQ-20260305120000-002")
	assert.Equal(t, router.TypeStatusCheck, c.Type)
	assert.Equal(t, "REQ-20260305120000-002", c.RequestID)
}

// TestClassify_StatusKeywordWithoutID 状态关键词但无 ID 时落入后续规则
func TestClassify_StatusKeywordWithoutID(t *testing.T) {
	c := router.Classify("check the parking rules")
	assert.Equal(t, router.TypeInfo, c.Type)

	c = router.Classify("status of everything")
	assert.Equal(t, router.TypeUnknown, c.Type)
}

// TestClassify_Reservation 预约关键词开头时分类为 reservation
func TestClassify_Reservation(t *testing.T) {
	cases := []string{
		"reserve Ivan Petrov RS1234 from 5 march to 12 march 2026",
		"book a spot for me",
		"забронировать Иван Петров А123ВС с 5 по 12 июля 2026",
	}
	for _, msg := range cases {
		c := router.Classify(msg)
		assert.Equal(t, router.TypeReservation, c.Type, msg)
	}
}

// TestClassify_Info 信息标记出现在任意位置即可
func TestClassify_Info(t *testing.T) {
	cases := []string{
		"what are the parking hours?",
		"сколько стоит парковка?",
		"tell me the price",
	}
	for _, msg := range cases {
		c := router.Classify(msg)
		assert.Equal(t, router.TypeInfo, c.Type, msg)
	}
}

// TestClassify_Unknown 无规则命中时返回 unknown,从不失败
func TestClassify_Unknown(t *testing.T) {
	cases := []string{"", "   ", "asdf qwerty", "привет"}
	for _, msg := range cases {
		c := router.Classify(msg)
		assert.Equal(t, router.TypeUnknown, c.Type, msg)
	}
}

// TestClassify_OrderingStatusBeforeReservation 规则按顺序第一条命中即停
func TestClassify_OrderingStatusBeforeReservation(t *testing.T) {
	// "check" 是状态关键词,即使消息中也提到预约,含 ID 时状态查询优先
	c := router.Classify("check reservation REQ-20260305120000-003")
	assert.Equal(t, router.TypeStatusCheck, c.Type)
	assert.Equal(t, "REQ-20260305120000-003", c.RequestID)
}

// TestExtractRequestID 请求 ID 提取
func TestExtractRequestID(t *testing.T) {
	assert.Equal(t, "REQ-20260305120000-001", router.ExtractRequestID("see REQ-20260305120000-001 please"))
	assert.Equal(t, "", router.ExtractRequestID("no id here"))
	assert.Equal(t, "", router.ExtractRequestID("REQ-123-001"))
}
