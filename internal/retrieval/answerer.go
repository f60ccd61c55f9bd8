package retrieval

import "context"

// Answer 信息查询的应答结果
type Answer struct {
	Text       string   `json:"text"`
	Sources    []string `json:"sources"`    // 支撑答案的文档片段
	Confidence float64  `json:"confidence"` // 0 到 1 之间的置信度
}

// Answerer 信息查询协作方接口
// 语义检索和答案生成子系统在本服务之外,核心只依赖这一个契约
type Answerer interface {
	Answer(ctx context.Context, query string) (*Answer, error)
}
