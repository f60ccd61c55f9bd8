package workflow

import (
	"time"

	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/parser"
	"github.com/mikita-k/ai-chatbot/internal/retrieval"
	"github.com/mikita-k/ai-chatbot/internal/router"
)

// Result 一次消息处理的对外结果
type Result struct {
	FinalResponse  string             `json:"final_response"`
	RequestID      string             `json:"request_id"`
	RequestType    router.RequestType `json:"request_type"`
	ApprovalStatus string             `json:"approval_status,omitempty"`
	StorageSuccess bool               `json:"storage_success"`
	StorageMessage string             `json:"storage_message,omitempty"`
	StateHistory   []string           `json:"state_history"`
	Errors         []string           `json:"errors"`
}

// state 单条消息的工作流内部状态
// 每条消息新建,处理结束后丢弃;持久化由 WorkflowRepository 承担
type state struct {
	flowID    string
	userID    string
	message   string
	startedAt time.Time

	classification router.Classification
	reservation    *parser.Reservation
	decision       *approval.Decision
	answer         *retrieval.Answer

	result *Result
}

// visit 记录节点访问
func (s *state) visit(node string) {
	s.result.StateHistory = append(s.result.StateHistory, node)
}

// fail 记录节点错误
func (s *state) fail(node string, err error) {
	s.result.Errors = append(s.result.Errors, node+": "+err.Error())
}
