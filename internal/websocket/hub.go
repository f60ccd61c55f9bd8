package websocket

import (
	"encoding/json"
	"sync"
	"time"
)

// StatusEvent 推送给订阅方的审批状态变更事件
type StatusEvent struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	Feedback  string    `json:"feedback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 广播消息到所有客户端
	Broadcast chan []byte

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁，保护 clients map
	mu sync.RWMutex
}

// NewHub 创建新的 Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishStatus 广播审批状态变更事件
// 实现 approval.Publisher;无订阅方或队列已满时事件被丢弃,推送是尽力而为的
func (h *Hub) PublishStatus(requestID, status, feedback string) {
	data, err := json.Marshal(StatusEvent{
		RequestID: requestID,
		Status:    status,
		Feedback:  feedback,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	select {
	case h.Broadcast <- data:
	default:
	}
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
