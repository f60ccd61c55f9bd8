package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikita-k/ai-chatbot/internal/config"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramChannel 基于 Telegram Bot API 的审批通道
// Notify 只把请求投递到管理员会话后立即返回,审批结果由独立的
// 管理员解析进程(cmd admin)消费 getUpdates 后直接写入审批库
type TelegramChannel struct {
	client      *http.Client
	baseURL     string
	adminChatID string
	pollTimeout int
	logger      *logrus.Logger
}

// NewTelegramChannel 创建 Telegram 审批通道
func NewTelegramChannel(cfg config.TelegramConfig, logger *logrus.Logger) *TelegramChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &TelegramChannel{
		// 长轮询调用会挂起 pollTimeout 秒,客户端超时需要留出余量
		client:      &http.Client{Timeout: timeout + time.Duration(pollTimeout)*time.Second},
		baseURL:     fmt.Sprintf("%s/bot%s", telegramAPIBase, cfg.BotToken),
		adminChatID: cfg.AdminChatID,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Notify 把预约请求发送到管理员会话
func (c *TelegramChannel) Notify(ctx context.Context, req *model.ReservationRequestModel) error {
	text := fmt.Sprintf(
		"New reservation request\n\n"+
			"Request ID: %s\n"+
			"Name: %s %s\n"+
			"Car number: %s\n"+
			"Period: %s - %s\n\n"+
			"Reply with:\n"+
			"approve %s\n"+
			"reject %s <reason>",
		req.RequestID, req.Name, req.Surname, req.CarNumber,
		req.StartDate, req.EndDate, req.RequestID, req.RequestID,
	)
	return c.SendMessage(ctx, text)
}

// SendMessage 向管理员会话发送文本消息
func (c *TelegramChannel) SendMessage(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id": c.adminChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram sendMessage returned %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

// UpdateMessage 更新中携带的消息体
type UpdateMessage struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// Update Telegram getUpdates 返回的单条更新
type Update struct {
	UpdateID int64          `json:"update_id"`
	Message  *UpdateMessage `json:"message"`
}

// getUpdatesResponse getUpdates 响应体
type getUpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []Update `json:"result"`
}

// GetUpdates 长轮询拉取机器人更新
func (c *TelegramChannel) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", c.baseURL, offset, c.pollTimeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("telegram getUpdates returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram getUpdates returned ok=false")
	}
	return parsed.Result, nil
}

// AdminChatID 返回管理员会话 ID
func (c *TelegramChannel) AdminChatID() string {
	return c.adminChatID
}
