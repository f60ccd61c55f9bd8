package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikita-k/ai-chatbot/internal/repository"
)

// ReservationController 已批准预约控制器
type ReservationController struct {
	reservations repository.ReservationRepository
}

// NewReservationController 创建已批准预约控制器
func NewReservationController(reservations repository.ReservationRepository) *ReservationController {
	return &ReservationController{
		reservations: reservations,
	}
}

// Get 获取单条已批准预约
func (c *ReservationController) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	reservation, err := c.reservations.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			Error(ctx, http.StatusNotFound, "reservation not found", id)
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to get reservation", err.Error())
		return
	}

	Success(ctx, reservation)
}

// List 列表查询已批准预约,按批准时间倒序
func (c *ReservationController) List(ctx *gin.Context) {
	reservations, err := c.reservations.FindAll()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list reservations", err.Error())
		return
	}

	Success(ctx, reservations)
}
