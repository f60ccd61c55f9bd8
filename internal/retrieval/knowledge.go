package retrieval

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/mikita-k/ai-chatbot/internal/repository"
	"github.com/sirupsen/logrus"
)

// 兜底回答,检索结果与问题无关时返回
const fallbackAnswer = "I can only answer questions about the parking service: prices, working hours, location, rules and contacts. Please rephrase your question."

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	longDigitsPattern = regexp.MustCompile(`\b\d{6,}\b`)
)

// 内置停车场知识库,docs_path 未配置时使用
var defaultDocs = []string{
	"The parking lot is open from 06:00 to 23:00 every day, including weekends and holidays.",
	"Parking costs 5 euro per hour or 30 euro per day. Monthly passes are available for 300 euro.",
	"The parking lot is located at Central Station, entrance from Main Street 12.",
	"To reserve a parking spot, send a message starting with 'reserve' followed by your name, car number and dates.",
	"Reservations must be approved by an administrator. You will receive a request ID to check the approval status.",
	"Parking rules: maximum vehicle height 2.1 meters, no trailers, engines must be switched off in the parking area.",
	"For support contact the parking office by phone or visit the information desk at the main entrance.",
}

// KnowledgeBase 关键词打分的本地知识库
// 语义检索子系统是外部协作方,这里实现其关键词兜底版本作为默认 Answerer
type KnowledgeBase struct {
	docs         []string
	reservations repository.ReservationRepository // 可选,用于动态上下文
	topK         int
	logger       *logrus.Logger
}

// KnowledgeBaseOption 知识库可选配置
type KnowledgeBaseOption func(*KnowledgeBase)

// WithReservations 附加已批准预约仓储,回答可用性问题时带上当前预约数
func WithReservations(repo repository.ReservationRepository) KnowledgeBaseOption {
	return func(kb *KnowledgeBase) {
		kb.reservations = repo
	}
}

// NewKnowledgeBase 基于给定文档创建知识库
func NewKnowledgeBase(docs []string, logger *logrus.Logger, opts ...KnowledgeBaseOption) *KnowledgeBase {
	if len(docs) == 0 {
		docs = defaultDocs
	}
	kb := &KnowledgeBase{
		docs:   docs,
		topK:   3,
		logger: logger,
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// NewKnowledgeBaseFromFile 从文件加载知识库,文档以空行分隔
func NewKnowledgeBaseFromFile(path string, logger *logrus.Logger, opts ...KnowledgeBaseOption) (*KnowledgeBase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base file: %w", err)
	}

	var docs []string
	for _, part := range strings.Split(string(raw), "\n\n") {
		if doc := strings.TrimSpace(part); doc != "" {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("knowledge base file %s contains no documents", path)
	}

	return NewKnowledgeBase(docs, logger, opts...), nil
}

// Answer 按词项重合度对文档打分并拼装回答
func (kb *KnowledgeBase) Answer(ctx context.Context, query string) (*Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := kb.retrieve(query)
	if len(scored) == 0 {
		return &Answer{Text: fallbackAnswer, Confidence: 0}, nil
	}

	var sources []string
	var parts []string
	for _, s := range scored {
		sources = append(sources, kb.docs[s.index])
		parts = append(parts, kb.docs[s.index])
	}

	text := strings.Join(parts, "\n")
	if extra := kb.dynamicContext(query); extra != "" {
		text += "\n" + extra
	}

	return &Answer{
		Text:       guardRails(text),
		Sources:    sources,
		Confidence: scored[0].score,
	}, nil
}

type scoredDoc struct {
	index int
	score float64
}

// retrieve 返回与查询词项重合度最高的 topK 篇文档
func (kb *KnowledgeBase) retrieve(query string) []scoredDoc {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var scored []scoredDoc
	for i, doc := range kb.docs {
		docTokens := tokenize(doc)
		overlap := 0
		for tok := range queryTokens {
			if docTokens[tok] {
				overlap++
			}
		}
		if overlap > 0 {
			scored = append(scored, scoredDoc{
				index: i,
				score: float64(overlap) / float64(len(queryTokens)),
			})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})
	if len(scored) > kb.topK {
		scored = scored[:kb.topK]
	}
	return scored
}

// dynamicContext 针对可用性问题附加当前预约数
func (kb *KnowledgeBase) dynamicContext(query string) string {
	if kb.reservations == nil {
		return ""
	}
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "available") && !strings.Contains(lower, "свободно") {
		return ""
	}
	count, err := kb.reservations.Count()
	if err != nil {
		if kb.logger != nil {
			kb.logger.WithError(err).Warn("failed to load reservation count for dynamic context")
		}
		return ""
	}
	return fmt.Sprintf("Currently there are %d approved reservations.", count)
}

// tokenize 拆分为小写词项集合
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(field)) > 2 {
			tokens[field] = true
		}
	}
	return tokens
}

// guardRails 在返回给用户前脱敏邮箱和长数字序列
func guardRails(text string) string {
	text = emailPattern.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = longDigitsPattern.ReplaceAllString(text, "[REDACTED_NUMBER]")
	return text
}
