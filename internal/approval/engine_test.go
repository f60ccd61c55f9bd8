package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/database"
	"github.com/mikita-k/ai-chatbot/internal/logging"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/parser"
	"github.com/mikita-k/ai-chatbot/internal/repository"
)

// silentChannel 从不做出决定的审批通道
type silentChannel struct{}

func (silentChannel) Notify(ctx context.Context, req *model.ReservationRequestModel) error {
	return nil
}

// setupEngineDB 创建审批引擎测试数据库
func setupEngineDB(t *testing.T) *gorm.DB {
	db, err := database.Open(":memory:", 1, 1)
	require.NoError(t, err)
	require.NoError(t, database.MigrateApprovals(db))
	return db
}

func testReservation() *parser.Reservation {
	return &parser.Reservation{
		Name:      "Ivan",
		Surname:   "Petrov",
		CarNumber: "RS1234",
		StartDate: "2026-03-05",
		EndDate:   "2026-03-12",
	}
}

// TestEngine_SubmitAndWait_AutoApproved auto 通道在等待窗口内批准
func TestEngine_SubmitAndWait_AutoApproved(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	channel := approval.NewAutoChannel(requests, 20*time.Millisecond, nil, logger)
	engine := approval.NewEngine(requests, channel, 10*time.Millisecond, nil, logger)

	decision, err := engine.SubmitAndWait(context.Background(), testReservation(), 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, decision.Status)
	assert.True(t, decision.Approved())
	assert.NotEmpty(t, decision.RequestID)
	assert.NotNil(t, decision.RespondedAt)
}

// TestEngine_SubmitAndWait_Timeout 等待耗尽后返回 pending,不视为错误
func TestEngine_SubmitAndWait_Timeout(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	engine := approval.NewEngine(requests, silentChannel{}, 10*time.Millisecond, nil, logger)

	wait := 100 * time.Millisecond
	start := time.Now()
	decision, err := engine.SubmitAndWait(context.Background(), testReservation(), wait)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, decision.Status)
	assert.False(t, decision.Approved())
	// 有界等待: 在 wait 之后的一个轮询间隔内返回
	assert.Less(t, elapsed, wait+200*time.Millisecond)

	// 请求保持 pending,可由后续查询承接
	again, err := engine.CheckStatus(decision.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, again.Status)
}

// TestEngine_LaterDecisionVisible 等待结束后的人工决定可被再次查询看到
func TestEngine_LaterDecisionVisible(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	engine := approval.NewEngine(requests, silentChannel{}, 10*time.Millisecond, nil, logger)

	decision, err := engine.SubmitAndWait(context.Background(), testReservation(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, decision.Status)

	_, err = requests.Transition(decision.RequestID, model.StatusRejected, "lot is full")
	require.NoError(t, err)

	later, err := engine.CheckStatus(decision.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, later.Status)
	assert.Equal(t, "lot is full", later.Feedback)
}

// TestEngine_CheckStatus_NotFound 未知请求 ID 返回 ErrRequestNotFound
func TestEngine_CheckStatus_NotFound(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	engine := approval.NewEngine(requests, silentChannel{}, 10*time.Millisecond, nil, logger)

	_, err := engine.CheckStatus("REQ-20260305120000-404")
	assert.ErrorIs(t, err, repository.ErrRequestNotFound)
}

// TestEngine_DistinctRequestIDs 同一秒内提交的请求拿到不同 ID
func TestEngine_DistinctRequestIDs(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	engine := approval.NewEngine(requests, silentChannel{}, 10*time.Millisecond, nil, logger)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		decision, err := engine.SubmitAndWait(context.Background(), testReservation(), 0)
		require.NoError(t, err)
		assert.False(t, seen[decision.RequestID], decision.RequestID)
		seen[decision.RequestID] = true
	}
}

// TestAutoChannel_TransitionsOnce auto 通道不会覆盖已有的人工决定
func TestAutoChannel_TransitionsOnce(t *testing.T) {
	db := setupEngineDB(t)
	requests := repository.NewRequestRepository(db)
	logger := logging.NewLogger()

	req := &model.ReservationRequestModel{
		RequestID: "REQ-20260305120000-001",
		Name:      "Ivan",
		Surname:   "Petrov",
		CarNumber: "RS1234",
		StartDate: "2026-03-05",
		EndDate:   "2026-03-12",
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, requests.Create(req))

	channel := approval.NewAutoChannel(requests, 30*time.Millisecond, nil, logger)
	require.NoError(t, channel.Notify(context.Background(), req))

	// 延迟到期前人工拒绝
	_, err := requests.Transition(req.RequestID, model.StatusRejected, "manual")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	saved, err := requests.FindByID(req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, saved.Status)
	assert.Equal(t, "manual", saved.AdminFeedback)
}
