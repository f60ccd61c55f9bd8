package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	approvalDB *gorm.DB
	storageDB  *gorm.DB
}

// NewHealthController 创建健康检查控制器
func NewHealthController(approvalDB, storageDB *gorm.DB) *HealthController {
	return &HealthController{
		approvalDB: approvalDB,
		storageDB:  storageDB,
	}
}

// Check 健康检查
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if c.approvalDB != nil {
		if err := checkDatabase(ctx.Request.Context(), c.approvalDB); err != nil {
			status = "unhealthy"
			checks["approval_db"] = "unhealthy: " + err.Error()
		} else {
			checks["approval_db"] = "healthy"
		}
	} else {
		checks["approval_db"] = "not configured"
	}

	if c.storageDB != nil {
		if err := checkDatabase(ctx.Request.Context(), c.storageDB); err != nil {
			status = "unhealthy"
			checks["storage_db"] = "unhealthy: " + err.Error()
		} else {
			checks["storage_db"] = "healthy"
		}
	} else {
		checks["storage_db"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func checkDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
