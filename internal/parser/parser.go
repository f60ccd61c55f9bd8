package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrNotParseable 消息不是可解析的预约请求
// 任一必填字段(姓名、车牌、起止日期)缺失都返回该错误,不产生部分结果
var ErrNotParseable = errors.New("reservation request not parseable")

// Reservation 从用户消息中提取出的结构化预约字段
type Reservation struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	CarNumber string `json:"car_number"`
	StartDate string `json:"start_date"` // ISO 格式 yyyy-mm-dd
	EndDate   string `json:"end_date"`
}

// Period 返回预约时段的展示形式
func (r *Reservation) Period() string {
	return fmt.Sprintf("%s - %s", r.StartDate, r.EndDate)
}

// 俄语月份使用属格形式("5 марта"),与英语月份共用一张表
var months = map[string]string{
	"января": "01", "февраля": "02", "марта": "03", "апреля": "04",
	"мая": "05", "июня": "06", "июля": "07", "августа": "08",
	"сентября": "09", "октября": "10", "ноября": "11", "декабря": "12",
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// 预约动词,提取姓名前从消息头部剥离
var leadingKeywords = []string{
	"reserve", "book",
	"зарезервировать", "забронировать", "бронь", "резерв",
}

// 支持的日期语法,按完整形式优先的顺序匹配
var (
	// 俄语完整形式: "с 20 марта 2026 по 21 апреля 2027"
	ruFullPattern = regexp.MustCompile(`с\s+(\d{1,2})\s+(\S+)\s+(\d{4})\s+по\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)
	// 俄语简短形式: "с 5 по 12 июля 2026"(两端共用月份和年份)
	ruShortPattern = regexp.MustCompile(`с\s+(\d{1,2})\s+по\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)
	// 英语完整形式: "from 20 march 2026 to 21 april 2027"
	enFullPattern = regexp.MustCompile(`from\s+(\d{1,2})\s+([a-z]+)\s+(\d{4})\s+to\s+(\d{1,2})\s+([a-z]+)\s+(\d{4})`)
	// 英语简短形式: "from 5 march to 12 march 2026"(两端共用年份)
	enShortPattern = regexp.MustCompile(`from\s+(\d{1,2})\s+([a-z]+)\s+to\s+(\d{1,2})\s+([a-z]+)\s+(\d{4})`)
)

// Parse 从原始消息中提取预约字段
// 全有或全无:要么返回完整的 Reservation,要么返回 ErrNotParseable
func Parse(message string) (*Reservation, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrNotParseable
	}

	startDate, endDate, err := parseDates(strings.ToLower(msg))
	if err != nil {
		return nil, err
	}

	name, surname, carNumber, err := parseSubject(msg)
	if err != nil {
		return nil, err
	}

	return &Reservation{
		Name:      name,
		Surname:   surname,
		CarNumber: carNumber,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

// parseDates 按四种语法依次尝试解析日期区间
func parseDates(lower string) (string, string, error) {
	if m := ruFullPattern.FindStringSubmatch(lower); m != nil {
		start, ok1 := buildDate(m[3], m[2], m[1])
		end, ok2 := buildDate(m[6], m[5], m[4])
		if ok1 && ok2 {
			return orderedRange(start, end)
		}
	}
	if m := ruShortPattern.FindStringSubmatch(lower); m != nil {
		start, ok1 := buildDate(m[4], m[3], m[1])
		end, ok2 := buildDate(m[4], m[3], m[2])
		if ok1 && ok2 {
			return orderedRange(start, end)
		}
	}
	if m := enFullPattern.FindStringSubmatch(lower); m != nil {
		start, ok1 := buildDate(m[3], m[2], m[1])
		end, ok2 := buildDate(m[6], m[5], m[4])
		if ok1 && ok2 {
			return orderedRange(start, end)
		}
	}
	if m := enShortPattern.FindStringSubmatch(lower); m != nil {
		// 只有一个年份时两端共用
		start, ok1 := buildDate(m[5], m[2], m[1])
		end, ok2 := buildDate(m[5], m[4], m[3])
		if ok1 && ok2 {
			return orderedRange(start, end)
		}
	}
	return "", "", ErrNotParseable
}

// buildDate 将年、月名、日组装为 ISO 日期
func buildDate(year, monthName, day string) (string, bool) {
	monthNum, ok := months[strings.ToLower(monthName)]
	if !ok {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%s-%02d", year, monthNum, d), true
}

// orderedRange 校验结束日期不早于开始日期,不做自动交换
func orderedRange(start, end string) (string, string, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return "", "", ErrNotParseable
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return "", "", ErrNotParseable
	}
	if e.Before(s) {
		return "", "", ErrNotParseable
	}
	return start, end, nil
}

// parseSubject 提取姓名和车牌
// 车牌是第一个同时含字母和数字的令牌,姓名是紧邻其前的同一文字系统的字母令牌串
func parseSubject(msg string) (string, string, string, error) {
	tokens := strings.Fields(msg)
	if len(tokens) > 0 && isLeadingKeyword(tokens[0]) {
		tokens = tokens[1:]
	}

	carIdx := -1
	for i, tok := range tokens {
		if isCarNumber(trimToken(tok)) {
			carIdx = i
			break
		}
	}
	if carIdx < 0 {
		return "", "", "", ErrNotParseable
	}
	carNumber := strings.ToUpper(trimToken(tokens[carIdx]))

	// 车牌前连续的字母令牌构成姓名候选
	var run []string
	for i := carIdx - 1; i >= 0; i-- {
		tok := trimToken(tokens[i])
		if !isAlphabetic(tok) {
			break
		}
		run = append([]string{tok}, run...)
	}
	if len(run) < 2 {
		return "", "", "", ErrNotParseable
	}
	if !sameScript(run) {
		return "", "", "", ErrNotParseable
	}

	return capitalize(run[0]), capitalize(run[1]), carNumber, nil
}

// isLeadingKeyword 判断令牌是否为预约动词
func isLeadingKeyword(tok string) bool {
	lower := strings.ToLower(trimToken(tok))
	for _, kw := range leadingKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

// trimToken 去除令牌两侧的标点
func trimToken(tok string) string {
	return strings.Trim(tok, ",.!?;:\"'()")
}

// isCarNumber 判断令牌是否为车牌
// 允许连字符分段,各段为字母数字,整体至少含一个字母和一个数字
func isCarNumber(tok string) bool {
	if tok == "" {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, segment := range strings.Split(tok, "-") {
		if segment == "" {
			return false
		}
		for _, r := range segment {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case r >= '0' && r <= '9':
				hasDigit = true
			default:
				return false
			}
		}
	}
	return hasLetter && hasDigit
}

// isAlphabetic 判断令牌是否全部由字母组成
func isAlphabetic(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// sameScript 校验所有令牌使用同一文字系统(拉丁或西里尔),不允许混用
func sameScript(tokens []string) bool {
	sawLatin, sawCyrillic := false, false
	for _, tok := range tokens {
		for _, r := range tok {
			switch {
			case unicode.Is(unicode.Latin, r):
				sawLatin = true
			case unicode.Is(unicode.Cyrillic, r):
				sawCyrillic = true
			default:
				return false
			}
		}
	}
	return !(sawLatin && sawCyrillic)
}

// capitalize 首字母大写,其余小写
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
