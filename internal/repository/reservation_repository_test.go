package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mikita-k/ai-chatbot/internal/database"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/repository"
)

// setupStorageDB 创建预约存储测试数据库
func setupStorageDB(t *testing.T) *gorm.DB {
	db, err := database.Open(":memory:", 1, 1)
	require.NoError(t, err)

	err = database.MigrateStorage(db)
	require.NoError(t, err)

	return db
}

// newApprovedReservation 构造一条已批准预约
func newApprovedReservation(id string) *model.ApprovedReservationModel {
	return &model.ApprovedReservationModel{
		ReservationID: id,
		UserName:      "Ivan Petrov",
		CarNumber:     "RS1234",
		StartDate:     "2026-03-05",
		EndDate:       "2026-03-12",
		ApprovedAt:    time.Now(),
		CreatedAt:     time.Now(),
	}
}

// TestReservationRepository_Persist 首次写入返回 created=true
func TestReservationRepository_Persist(t *testing.T) {
	db := setupStorageDB(t)
	repo := repository.NewReservationRepository(db)

	created, err := repo.Persist(newApprovedReservation("REQ-20260305120000-001"))
	require.NoError(t, err)
	assert.True(t, created)

	saved, err := repo.FindByID("REQ-20260305120000-001")
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", saved.UserName)
}

// TestReservationRepository_PersistIdempotent 重复写入静默跳过,保留首次内容
func TestReservationRepository_PersistIdempotent(t *testing.T) {
	db := setupStorageDB(t)
	repo := repository.NewReservationRepository(db)

	created, err := repo.Persist(newApprovedReservation("REQ-20260305120000-001"))
	require.NoError(t, err)
	assert.True(t, created)

	dup := newApprovedReservation("REQ-20260305120000-001")
	dup.UserName = "Someone Else"
	created, err = repo.Persist(dup)
	require.NoError(t, err)
	assert.False(t, created)

	saved, err := repo.FindByID("REQ-20260305120000-001")
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", saved.UserName)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestReservationRepository_FindByID_NotFound 不存在的预约返回 ErrReservationNotFound
func TestReservationRepository_FindByID_NotFound(t *testing.T) {
	db := setupStorageDB(t)
	repo := repository.NewReservationRepository(db)

	_, err := repo.FindByID("REQ-20260305120000-404")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

// TestReservationRepository_FindAll 按批准时间倒序
func TestReservationRepository_FindAll(t *testing.T) {
	db := setupStorageDB(t)
	repo := repository.NewReservationRepository(db)

	first := newApprovedReservation("REQ-20260305120000-001")
	first.ApprovedAt = time.Now().Add(-time.Hour)
	second := newApprovedReservation("REQ-20260305120000-002")

	_, err := repo.Persist(first)
	require.NoError(t, err)
	_, err = repo.Persist(second)
	require.NoError(t, err)

	all, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "REQ-20260305120000-002", all[0].ReservationID)
	assert.Equal(t, "REQ-20260305120000-001", all[1].ReservationID)
}
