package workflow

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikita-k/ai-chatbot/internal/approval"
	"github.com/mikita-k/ai-chatbot/internal/metrics"
	"github.com/mikita-k/ai-chatbot/internal/model"
	"github.com/mikita-k/ai-chatbot/internal/parser"
	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/mikita-k/ai-chatbot/internal/retrieval"
	"github.com/mikita-k/ai-chatbot/internal/router"
	"github.com/sirupsen/logrus"
)

// 各节点的兜底响应,节点失败时替换为用户可读文本
const (
	fallbackRetrieval = "Sorry, I couldn't retrieve information about that right now. Please try again later."
	fallbackStatus    = "Sorry, I couldn't check the request status right now. Please try again later."
	fallbackGeneric   = "Something went wrong while processing your request. Please try again."

	unknownResponse = "I didn't understand your request. Try:\n" +
		"- a question about the parking service (price, hours, location)\n" +
		"- 'reserve <name> <surname> <car number> <dates>' to make a reservation\n" +
		"- 'status REQ-...' to check a reservation request"

	notParseableResponse = "I couldn't read the reservation details. Please use the format:\n" +
		"reserve <name> <surname> <car number> from <day> <month> to <day> <month> <year>\n" +
		"For example: reserve Ivan Petrov RS1234 from 5 march to 12 march 2026"
)

// Orchestrator 工作流编排器
// 固定状态机: initialize -> router -> {retrieval | collection -> approval -> (storage) | status} -> response
// 每个节点的故障都被就地捕获,换成兜底文本并记入错误列表,response 节点始终会执行
type Orchestrator struct {
	engine           *approval.Engine
	answerer         retrieval.Answerer
	reservations     repository.ReservationRepository
	workflows        repository.WorkflowRepository
	waitTimeout      time.Duration
	retrievalTimeout time.Duration
	logger           *logrus.Logger
}

// New 创建工作流编排器
func New(
	engine *approval.Engine,
	answerer retrieval.Answerer,
	reservations repository.ReservationRepository,
	workflows repository.WorkflowRepository,
	waitTimeout time.Duration,
	retrievalTimeout time.Duration,
	logger *logrus.Logger,
) *Orchestrator {
	if waitTimeout <= 0 {
		waitTimeout = time.Minute
	}
	if retrievalTimeout <= 0 {
		retrievalTimeout = 10 * time.Second
	}
	return &Orchestrator{
		engine:           engine,
		answerer:         answerer,
		reservations:     reservations,
		workflows:        workflows,
		waitTimeout:      waitTimeout,
		retrievalTimeout: retrievalTimeout,
		logger:           logger,
	}
}

// Process 处理一条用户消息并返回最终结果
func (o *Orchestrator) Process(ctx context.Context, message, userID string) *Result {
	st := &state{
		flowID:    newFlowID(),
		userID:    userID,
		message:   message,
		startedAt: time.Now(),
		result: &Result{
			RequestType:  router.TypeUnknown,
			StateHistory: []string{},
			Errors:       []string{},
		},
	}

	log := o.logger.WithFields(logrus.Fields{
		"flow_id": st.flowID,
		"user_id": userID,
	})
	log.WithField("message", message).Debug("processing chat message")

	st.visit("initialize")

	o.runNode(ctx, st, "router", o.nodeRouter)

	switch st.classification.Type {
	case router.TypeInfo:
		o.runNode(ctx, st, "retrieval", o.nodeRetrieval)
	case router.TypeReservation:
		o.runNode(ctx, st, "collection", o.nodeCollection)
		if st.reservation != nil {
			o.runNode(ctx, st, "approval", o.nodeApproval)
			// 只有批准后才写入持久预约;rejected/pending 直接进入 response
			if st.decision != nil && st.decision.Approved() {
				o.runNode(ctx, st, "storage", o.nodeStorage)
			}
		}
	case router.TypeStatusCheck:
		o.runNode(ctx, st, "status", o.nodeStatus)
	}

	o.runNode(ctx, st, "response", o.nodeResponse)

	o.persistRecord(st)
	metrics.RecordChatRequest(string(st.result.RequestType))

	log.WithFields(logrus.Fields{
		"request_type": st.result.RequestType,
		"path":         strings.Join(st.result.StateHistory, " -> "),
		"errors":       len(st.result.Errors),
		"elapsed":      time.Since(st.startedAt).String(),
	}).Info("chat message processed")

	return st.result
}

// runNode 执行单个节点并就地隔离故障
func (o *Orchestrator) runNode(ctx context.Context, st *state, name string, fn func(context.Context, *state) error) {
	st.visit(name)

	defer func() {
		if r := recover(); r != nil {
			st.fail(name, fmt.Errorf("panic: %v", r))
			metrics.RecordNodeError(name)
			o.logger.WithFields(logrus.Fields{
				"flow_id": st.flowID,
				"node":    name,
			}).Errorf("workflow node panicked: %v", r)
		}
	}()

	if err := fn(ctx, st); err != nil {
		st.fail(name, err)
		metrics.RecordNodeError(name)
		o.logger.WithFields(logrus.Fields{
			"flow_id": st.flowID,
			"node":    name,
		}).WithError(err).Warn("workflow node failed")
	}
}

// nodeRouter 对消息分类
func (o *Orchestrator) nodeRouter(_ context.Context, st *state) error {
	st.classification = router.Classify(st.message)
	st.result.RequestType = st.classification.Type
	return nil
}

// nodeRetrieval 信息查询,调用外部检索协作方
// 协作方调用受调用级超时约束,协作方故障不会卡住整条消息
func (o *Orchestrator) nodeRetrieval(ctx context.Context, st *state) error {
	callCtx, cancel := context.WithTimeout(ctx, o.retrievalTimeout)
	defer cancel()

	answer, err := o.answerer.Answer(callCtx, st.message)
	if err != nil {
		st.result.FinalResponse = fallbackRetrieval
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("retrieval timed out after %s", o.retrievalTimeout)
		}
		return err
	}

	st.answer = answer
	st.result.FinalResponse = answer.Text
	return nil
}

// nodeCollection 从消息中提取预约字段
// 提取失败是用户可纠正的错误:记录后交给 response 节点生成澄清提示
func (o *Orchestrator) nodeCollection(_ context.Context, st *state) error {
	reservation, err := parser.Parse(st.message)
	if err != nil {
		return err
	}
	st.reservation = reservation
	return nil
}

// nodeApproval 提交审批请求并有界等待
func (o *Orchestrator) nodeApproval(ctx context.Context, st *state) error {
	decision, err := o.engine.SubmitAndWait(ctx, st.reservation, o.waitTimeout)
	if err != nil {
		return err
	}
	st.decision = decision
	st.result.RequestID = decision.RequestID
	st.result.ApprovalStatus = decision.Status
	return nil
}

// nodeStorage 把已批准的请求投影到持久预约库
// Persist 幂等,同一 ID 的重复调用不会产生第二条记录
func (o *Orchestrator) nodeStorage(_ context.Context, st *state) error {
	created, err := o.persistApproved(st.reservation.Name+" "+st.reservation.Surname, &model.ReservationRequestModel{
		RequestID:   st.decision.RequestID,
		CarNumber:   st.reservation.CarNumber,
		StartDate:   st.reservation.StartDate,
		EndDate:     st.reservation.EndDate,
		RespondedAt: st.decision.RespondedAt,
	})
	if err != nil {
		st.result.StorageMessage = "Reservation approved but could not be saved, please contact support."
		return err
	}

	st.result.StorageSuccess = true
	if created {
		st.result.StorageMessage = fmt.Sprintf("Reservation %s saved.", st.decision.RequestID)
	} else {
		st.result.StorageMessage = fmt.Sprintf("Reservation %s was already saved.", st.decision.RequestID)
	}
	return nil
}

// nodeStatus 按请求 ID 查询审批状态
// 观察到 approved 且尚未投影时,顺带完成持久预约写入(按需写入策略)
func (o *Orchestrator) nodeStatus(_ context.Context, st *state) error {
	requestID := st.classification.RequestID
	if requestID == "" {
		requestID = router.ExtractRequestID(st.message)
	}
	if requestID == "" {
		st.result.FinalResponse = "I couldn't find a request ID. Please provide one like: status REQ-20260225225539-001"
		return errors.New("status check without request id")
	}
	st.result.RequestID = requestID

	req, err := o.engine.GetRequest(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			st.result.FinalResponse = fmt.Sprintf("Request %s not found. Please check the ID and try again.", requestID)
			return fmt.Errorf("request %s not found", requestID)
		}
		st.result.FinalResponse = fallbackStatus
		return err
	}

	st.result.ApprovalStatus = req.Status

	parts := []string{
		fmt.Sprintf("Request %s: %s", req.RequestID, strings.ToUpper(req.Status)),
	}
	if req.AdminFeedback != "" {
		parts = append(parts, "Feedback: "+req.AdminFeedback)
	}
	if req.RespondedAt != nil {
		parts = append(parts, "Resolved at: "+req.RespondedAt.Format(time.RFC3339))
	}

	if req.Status == model.StatusApproved {
		created, err := o.persistApproved(req.Name+" "+req.Surname, req)
		if err != nil {
			st.result.FinalResponse = strings.Join(parts, "\n")
			return err
		}
		st.result.StorageSuccess = true
		if created {
			parts = append(parts, fmt.Sprintf("Reservation %s saved.", req.RequestID))
		}
	}

	st.result.FinalResponse = strings.Join(parts, "\n")
	return nil
}

// nodeResponse 汇合节点,确保任何路径都产出最终响应
func (o *Orchestrator) nodeResponse(_ context.Context, st *state) error {
	if st.result.FinalResponse != "" {
		return nil
	}

	switch st.classification.Type {
	case router.TypeReservation:
		st.result.FinalResponse = o.reservationResponse(st)
	case router.TypeInfo:
		st.result.FinalResponse = fallbackRetrieval
	case router.TypeStatusCheck:
		st.result.FinalResponse = fallbackStatus
	case router.TypeUnknown:
		st.result.FinalResponse = unknownResponse
	default:
		st.result.FinalResponse = fallbackGeneric
	}
	return nil
}

// reservationResponse 按审批结果组装预约路径的响应
func (o *Orchestrator) reservationResponse(st *state) string {
	if st.reservation == nil {
		return notParseableResponse
	}
	if st.decision == nil {
		return fallbackGeneric
	}

	switch st.decision.Status {
	case model.StatusApproved:
		msg := fmt.Sprintf("Your reservation has been APPROVED.\nRequest ID: %s", st.decision.RequestID)
		if st.result.StorageMessage != "" {
			msg += "\n" + st.result.StorageMessage
		}
		return msg
	case model.StatusRejected:
		feedback := st.decision.Feedback
		if feedback == "" {
			feedback = "no feedback provided"
		}
		return fmt.Sprintf(
			"Your reservation was REJECTED.\nRequest ID: %s\nFeedback: %s\nPlease try again or contact support.",
			st.decision.RequestID, feedback,
		)
	default:
		return fmt.Sprintf(
			"Your reservation is still pending review.\nRequest ID: %s\nCheck the status later with: status %s",
			st.decision.RequestID, st.decision.RequestID,
		)
	}
}

// persistApproved 幂等写入持久预约投影
func (o *Orchestrator) persistApproved(userName string, req *model.ReservationRequestModel) (bool, error) {
	approvedAt := time.Now()
	if req.RespondedAt != nil {
		approvedAt = *req.RespondedAt
	}

	created, err := o.reservations.Persist(&model.ApprovedReservationModel{
		ReservationID: req.RequestID,
		UserName:      userName,
		CarNumber:     req.CarNumber,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		ApprovedAt:    approvedAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to persist approved reservation: %w", err)
	}
	if created {
		metrics.RecordReservationStored()
	}
	return created, nil
}

// persistRecord 保存工作流执行记录,失败只记日志
func (o *Orchestrator) persistRecord(st *state) {
	nodes, _ := json.Marshal(st.result.StateHistory)
	errs, _ := json.Marshal(st.result.Errors)

	record := &model.WorkflowRecordModel{
		FlowID:      st.flowID,
		UserID:      st.userID,
		Message:     st.message,
		RequestType: string(st.result.RequestType),
		RequestID:   st.result.RequestID,
		Nodes:       string(nodes),
		Errors:      string(errs),
		Response:    st.result.FinalResponse,
		CreatedAt:   st.startedAt,
	}
	if err := o.workflows.Save(record); err != nil {
		o.logger.WithError(err).WithField("flow_id", st.flowID).Warn("failed to persist workflow record")
	}
}

// newFlowID 生成工作流 ID,格式 FLOW-<时间戳>-<随机后缀>
func newFlowID() string {
	id := uuid.New()
	return fmt.Sprintf("FLOW-%s-%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(id[:3])),
	)
}
