package router

import (
	"regexp"
	"strings"
)

// RequestType 请求分类结果
type RequestType string

const (
	TypeInfo        RequestType = "info"         // 信息查询
	TypeReservation RequestType = "reservation"  // 预约请求
	TypeStatusCheck RequestType = "status_check" // 审批状态查询
	TypeUnknown     RequestType = "unknown"      // 无法识别
)

// Classification 分类结果,状态查询时附带提取出的请求 ID
type Classification struct {
	Type      RequestType
	RequestID string
}

// 状态查询关键词,要求出现在消息头部
var statusKeywords = []string{
	"status", "check",
	"статус", "проверь", "проверка",
}

// 预约关键词,要求出现在消息头部
var reservationKeywords = []string{
	"reserve", "book", "reservation",
	"зарезервировать", "забронировать", "бронь", "резерв",
}

// 信息查询意图标记,出现在消息任意位置即可
var infoKeywords = []string{
	"info", "how", "what", "where", "when", "cost", "price", "hours",
	"location", "rules", "contact", "available", "parking",
	"информация", "как", "что", "где", "когда", "стоимость", "цена",
	"часы", "время", "правила", "контакт", "свободно", "парковка",
}

var requestIDPattern = regexp.MustCompile(`(REQ-\d{14}-\d{3})`)

// Classify 对用户消息进行分类
// 规则按顺序第一条命中即停:状态查询 -> 预约 -> 信息查询 -> unknown
// 对任意输入都返回恰好一个分类,从不失败
func Classify(message string) Classification {
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)

	// 规则 1: 状态查询关键词开头且消息中含请求 ID
	if hasLeadingKeyword(lower, statusKeywords) {
		if id := ExtractRequestID(msg); id != "" {
			return Classification{Type: TypeStatusCheck, RequestID: id}
		}
	}

	// 规则 2: 预约关键词开头
	if hasLeadingKeyword(lower, reservationKeywords) {
		return Classification{Type: TypeReservation}
	}

	// 规则 3: 信息查询意图标记
	for _, kw := range infoKeywords {
		if strings.Contains(lower, kw) {
			return Classification{Type: TypeInfo}
		}
	}

	return Classification{Type: TypeUnknown}
}

// ExtractRequestID 从消息中提取请求 ID,未找到返回空串
func ExtractRequestID(message string) string {
	return requestIDPattern.FindString(message)
}

// hasLeadingKeyword 判断消息是否以给定关键词之一开头
func hasLeadingKeyword(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if lower == kw || strings.HasPrefix(lower, kw+" ") {
			return true
		}
	}
	return false
}
