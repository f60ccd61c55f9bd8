package container

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/database"
	"github.com/mikita-k/ai-chatbot/internal/logging"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/mikita-k/ai-chatbot/internal/retrieval"
	"github.com/mikita-k/ai-chatbot/internal/websocket"
	"github.com/mikita-k/ai-chatbot/internal/workflow"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括两个数据库、仓储、审批引擎和工作流编排器
type Container struct {
	cfg             *config.Config
	logger          *logrus.Logger
	approvalDB      *gorm.DB
	storageDB       *gorm.DB
	requests        repository.RequestRepository
	reservations    repository.ReservationRepository
	workflows       repository.WorkflowRepository
	hub             *websocket.Hub
	channel         approval.Channel
	telegramChannel *approval.TelegramChannel
	engine          *approval.Engine
	knowledge       *retrieval.KnowledgeBase
	orchestrator    *workflow.Orchestrator
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, err := logging.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetDefault(logger)

	// 1. 初始化审批库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	approvalDB, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize approval database: %w", err)
	}
	if err := database.MigrateApprovals(approvalDB); err != nil {
		return nil, fmt.Errorf("failed to migrate approval database: %w", err)
	}

	// 2. 初始化预约存储库,与审批库物理隔离
	storageDB, err := database.Open(cfg.Storage.Path, cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage database: %w", err)
	}
	if err := database.MigrateStorage(storageDB); err != nil {
		return nil, fmt.Errorf("failed to migrate storage database: %w", err)
	}

	// 3. 初始化仓储层
	requests := repository.NewRequestRepository(approvalDB)
	reservations := repository.NewReservationRepository(storageDB)
	workflows := repository.NewWorkflowRepository(approvalDB)

	// 4. 初始化 WebSocket Hub,向连接的客户端推送审批状态变更
	hub := websocket.NewHub()
	go hub.Run()

	// 5. 初始化审批通道
	var channel approval.Channel
	var telegramChannel *approval.TelegramChannel
	switch cfg.Approval.Channel {
	case "telegram":
		telegramChannel = approval.NewTelegramChannel(cfg.Telegram, logger)
		channel = telegramChannel
	default:
		channel = approval.NewAutoChannel(requests, cfg.Approval.AutoApproveDelay, hub, logger)
	}

	// 6. 初始化审批引擎
	engine := approval.NewEngine(requests, channel, cfg.Approval.PollInterval, hub, logger)

	// 7. 初始化知识库
	var knowledge *retrieval.KnowledgeBase
	if cfg.Retrieval.DocsPath != "" {
		knowledge, err = retrieval.NewKnowledgeBaseFromFile(cfg.Retrieval.DocsPath, logger, retrieval.WithReservations(reservations))
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge base: %w", err)
		}
	} else {
		knowledge = retrieval.NewKnowledgeBase(nil, logger, retrieval.WithReservations(reservations))
	}

	// 8. 初始化工作流编排器
	orchestrator := workflow.New(
		engine,
		knowledge,
		reservations,
		workflows,
		cfg.Approval.WaitTimeout,
		cfg.Retrieval.Timeout,
		logger,
	)

	return &Container{
		cfg:             cfg,
		logger:          logger,
		approvalDB:      approvalDB,
		storageDB:       storageDB,
		requests:        requests,
		reservations:    reservations,
		workflows:       workflows,
		hub:             hub,
		channel:         channel,
		telegramChannel: telegramChannel,
		engine:          engine,
		knowledge:       knowledge,
		orchestrator:    orchestrator,
	}, nil
}

// Config 获取应用配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger 获取日志器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// ApprovalDB 获取审批库连接
func (c *Container) ApprovalDB() *gorm.DB {
	return c.approvalDB
}

// StorageDB 获取预约存储库连接
func (c *Container) StorageDB() *gorm.DB {
	return c.storageDB
}

// Requests 获取预约申请仓储
func (c *Container) Requests() repository.RequestRepository {
	return c.requests
}

// Reservations 获取已批准预约仓储
func (c *Container) Reservations() repository.ReservationRepository {
	return c.reservations
}

// Workflows 获取工作流记录仓储
func (c *Container) Workflows() repository.WorkflowRepository {
	return c.workflows
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Engine 获取审批引擎
func (c *Container) Engine() *approval.Engine {
	return c.engine
}

// TelegramChannel 获取 Telegram 通道,auto 模式下为 nil
func (c *Container) TelegramChannel() *approval.TelegramChannel {
	return c.telegramChannel
}

// AdminResolver 构造 Telegram 管理员决策轮询器,auto 模式下为 nil
func (c *Container) AdminResolver() *approval.AdminResolver {
	if c.telegramChannel == nil {
		return nil
	}
	return approval.NewAdminResolver(c.telegramChannel, c.requests, c.hub, c.logger)
}

// Orchestrator 获取工作流编排器
func (c *Container) Orchestrator() *workflow.Orchestrator {
	return c.orchestrator
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	var errs []error
	if c.approvalDB != nil {
		if err := database.Close(c.approvalDB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close approval database: %w", err))
		}
	}
	if c.storageDB != nil {
		if err := database.Close(c.storageDB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage database: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
