package repository_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mikita-k/ai-chatbot/internal/database"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/repository"
)

// setupApprovalDB 创建审批测试数据库
func setupApprovalDB(t *testing.T) *gorm.DB {
	db, err := database.Open(":memory:", 1, 1)
	require.NoError(t, err)

	err = database.MigrateApprovals(db)
	require.NoError(t, err)

	return db
}

// newPendingRequest 构造一条待审批请求
func newPendingRequest(id string) *model.ReservationRequestModel {
	return &model.ReservationRequestModel{
		RequestID: id,
		Name:      "Ivan",
		Surname:   "Petrov",
		CarNumber: "RS1234",
		StartDate: "2026-03-05",
		EndDate:   "2026-03-12",
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// TestRequestRepository_Create 测试创建请求
func TestRequestRepository_Create(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	err := repo.Create(newPendingRequest("REQ-20260305120000-001"))
	assert.NoError(t, err)

	saved, err := repo.FindByID("REQ-20260305120000-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, saved.Status)
	assert.Equal(t, "RS1234", saved.CarNumber)
}

// TestRequestRepository_CreateDuplicate 重复 ID 返回 ErrDuplicateID
func TestRequestRepository_CreateDuplicate(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))
	err := repo.Create(newPendingRequest("REQ-20260305120000-001"))
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

// TestRequestRepository_FindByID_NotFound 不存在的请求返回 ErrRequestNotFound
func TestRequestRepository_FindByID_NotFound(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	_, err := repo.FindByID("REQ-20260305120000-404")
	assert.ErrorIs(t, err, repository.ErrRequestNotFound)
}

// TestRequestRepository_Transition 测试 pending 到终态的转换
func TestRequestRepository_Transition(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))

	updated, err := repo.Transition("REQ-20260305120000-001", model.StatusApproved, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, "ok", updated.AdminFeedback)
	require.NotNil(t, updated.RespondedAt)
}

// TestRequestRepository_TransitionTwice 终态后的再次转换返回 ErrInvalidTransition
func TestRequestRepository_TransitionTwice(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))

	_, err := repo.Transition("REQ-20260305120000-001", model.StatusApproved, "ok")
	require.NoError(t, err)

	_, err = repo.Transition("REQ-20260305120000-001", model.StatusRejected, "changed my mind")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	// 第一次的决策保持不变
	saved, err := repo.FindByID("REQ-20260305120000-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, saved.Status)
	assert.Equal(t, "ok", saved.AdminFeedback)
}

// TestRequestRepository_TransitionNotFound 不存在的请求返回 ErrRequestNotFound
func TestRequestRepository_TransitionNotFound(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	_, err := repo.Transition("REQ-20260305120000-404", model.StatusApproved, "ok")
	assert.ErrorIs(t, err, repository.ErrRequestNotFound)
}

// TestRequestRepository_TransitionInvalidTarget pending 不是合法的目标状态
func TestRequestRepository_TransitionInvalidTarget(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))

	_, err := repo.Transition("REQ-20260305120000-001", model.StatusPending, "")
	assert.Error(t, err)
}

// TestRequestRepository_ConcurrentTransition 并发转换至多一个生效
func TestRequestRepository_ConcurrentTransition(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.StatusApproved
			if i%2 == 1 {
				status = model.StatusRejected
			}
			_, errs[i] = repo.Transition("REQ-20260305120000-001", status, fmt.Sprintf("worker-%d", i))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

// TestRequestRepository_FindByFilter 按状态过滤,按创建时间倒序
func TestRequestRepository_FindByFilter(t *testing.T) {
	db := setupApprovalDB(t)
	repo := repository.NewRequestRepository(db)

	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-001")))
	require.NoError(t, repo.Create(newPendingRequest("REQ-20260305120000-002")))
	_, err := repo.Transition("REQ-20260305120000-002", model.StatusRejected, "full")
	require.NoError(t, err)

	pending := model.StatusPending
	requests, err := repo.FindByFilter(&repository.RequestFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "REQ-20260305120000-001", requests[0].RequestID)

	all, err := repo.FindByFilter(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
