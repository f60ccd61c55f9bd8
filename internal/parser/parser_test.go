package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikita-k/ai-chatbot/internal/parser"
)

// TestParse_EnglishShortForm 测试英语简短日期语法(两端共用年份)
func TestParse_EnglishShortForm(t *testing.T) {
	res, err := parser.Parse("reserve Ivan Petrov RS1234 from 5 march to 12 march 2026")
	require.NoError(t, err)

	assert.Equal(t, "Ivan", res.Name)
	assert.Equal(t, "Petrov", res.Surname)
	assert.Equal(t, "RS1234", res.CarNumber)
	assert.Equal(t, "2026-03-05", res.StartDate)
	assert.Equal(t, "2026-03-12", res.EndDate)
}

// TestParse_EnglishFullForm 测试英语完整日期语法(各自带年份)
func TestParse_EnglishFullForm(t *testing.T) {
	res, err := parser.Parse("book Anna Smith AB-123-CD from 20 december 2026 to 3 january 2027")
	require.NoError(t, err)

	assert.Equal(t, "Anna", res.Name)
	assert.Equal(t, "Smith", res.Surname)
	assert.Equal(t, "AB-123-CD", res.CarNumber)
	assert.Equal(t, "2026-12-20", res.StartDate)
	assert.Equal(t, "2027-01-03", res.EndDate)
}

// TestParse_RussianFullForm 测试俄语完整日期语法
func TestParse_RussianFullForm(t *testing.T) {
	res, err := parser.Parse("забронировать Иван Петров А123ВС с 20 марта 2026 по 21 апреля 2027")
	require.NoError(t, err)

	assert.Equal(t, "Иван", res.Name)
	assert.Equal(t, "Петров", res.Surname)
	assert.Equal(t, "А123ВС", res.CarNumber)
	assert.Equal(t, "2026-03-20", res.StartDate)
	assert.Equal(t, "2027-04-21", res.EndDate)
}

// TestParse_RussianShortForm 测试俄语简短日期语法(两端共用月份和年份)
func TestParse_RussianShortForm(t *testing.T) {
	res, err := parser.Parse("резерв Мария Иванова B777XM с 5 по 12 июля 2026")
	require.NoError(t, err)

	assert.Equal(t, "Мария", res.Name)
	assert.Equal(t, "Иванова", res.Surname)
	assert.Equal(t, "B777XM", res.CarNumber)
	assert.Equal(t, "2026-07-05", res.StartDate)
	assert.Equal(t, "2026-07-12", res.EndDate)
}

// TestParse_EndBeforeStart 结束早于开始的区间不自动交换,直接拒绝
func TestParse_EndBeforeStart(t *testing.T) {
	_, err := parser.Parse("reserve Ivan Petrov RS1234 from 12 march to 5 march 2026")
	assert.ErrorIs(t, err, parser.ErrNotParseable)
}

// TestParse_MissingFields 缺失任一必填字段都不产生部分结果
func TestParse_MissingFields(t *testing.T) {
	cases := []struct {
		name    string
		message string
	}{
		{"空消息", ""},
		{"无日期", "reserve Ivan Petrov RS1234"},
		{"无车牌", "reserve Ivan Petrov from 5 march to 12 march 2026"},
		{"只有一个姓名令牌", "reserve Ivan RS1234 from 5 march to 12 march 2026"},
		{"未知月份", "reserve Ivan Petrov RS1234 from 5 marhc to 12 march 2026"},
		{"日期超界", "reserve Ivan Petrov RS1234 from 35 march to 12 april 2026"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse(tc.message)
			assert.ErrorIs(t, err, parser.ErrNotParseable)
		})
	}
}

// TestParse_MixedScriptName 姓名令牌混用拉丁和西里尔字母时拒绝
func TestParse_MixedScriptName(t *testing.T) {
	_, err := parser.Parse("reserve Ivan Петров RS1234 from 5 march to 12 march 2026")
	assert.ErrorIs(t, err, parser.ErrNotParseable)
}

// TestParse_Normalization 姓名首字母大写,车牌转大写
func TestParse_Normalization(t *testing.T) {
	res, err := parser.Parse("reserve ivan petrov rs1234 from 5 march to 12 march 2026")
	require.NoError(t, err)

	assert.Equal(t, "Ivan", res.Name)
	assert.Equal(t, "Petrov", res.Surname)
	assert.Equal(t, "RS1234", res.CarNumber)
}

// TestParse_NoLeadingKeyword 没有预约动词时仍可提取
func TestParse_NoLeadingKeyword(t *testing.T) {
	res, err := parser.Parse("Ivan Petrov RS1234 from 5 march to 12 march 2026")
	require.NoError(t, err)

	assert.Equal(t, "Ivan", res.Name)
	assert.Equal(t, "RS1234", res.CarNumber)
}

// TestReservation_Period 时段展示形式
func TestReservation_Period(t *testing.T) {
	res := &parser.Reservation{StartDate: "2026-03-05", EndDate: "2026-03-12"}
	assert.Equal(t, "2026-03-05 - 2026-03-12", res.Period())
}
