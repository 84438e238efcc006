package models

import "strings"

// OptionCount 每道题最多保存的选项数（A..F）
const OptionCount = 6

// OptionLabels 选项列标签，与 Options 下标一一对应
var OptionLabels = [OptionCount]string{"A", "B", "C", "D", "E", "F"}

const (
	// AnswerCorrect 判断题的"正确"答案
	AnswerCorrect = "correct"
	// AnswerIncorrect 判断题的"错误"答案
	AnswerIncorrect = "incorrect"
	// AnswerUnknown 页面上找不到答案时的占位值
	AnswerUnknown = "unknown"
)

// Question 题库中的一条题目记录
//
// 判断题的六个选项槽位全部为空；选择题从 A 开始依次填充，不会出现中间空洞。
type Question struct {
	Title   string              `json:"title"`
	Answer  string              `json:"answer"`
	Options [OptionCount]string `json:"options"`
}

// Key 返回题库去重使用的键
func (q Question) Key() string {
	return TitleKey(q.Title)
}

// TitleKey 规范化题目文本作为去重键
func TitleKey(title string) string {
	return strings.TrimSpace(title)
}

// IsJudgment 是否为判断题形态（所有选项为空且答案为正确/错误）
func (q Question) IsJudgment() bool {
	if q.Answer != AnswerCorrect && q.Answer != AnswerIncorrect {
		return false
	}
	for _, opt := range q.Options {
		if opt != "" {
			return false
		}
	}
	return true
}

// OptionsUsed 返回已填充的选项数量
func (q Question) OptionsUsed() int {
	n := 0
	for _, opt := range q.Options {
		if opt == "" {
			break
		}
		n++
	}
	return n
}

// Row 按持久化列顺序返回：题目, 答案, A..F
func (q Question) Row() []string {
	row := make([]string, 0, 2+OptionCount)
	row = append(row, q.Title, q.Answer)
	row = append(row, q.Options[:]...)
	return row
}

// FromRow 从持久化的一行还原题目，缺失的列视为空
func FromRow(row []string) Question {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	q := Question{
		Title:  cell(0),
		Answer: cell(1),
	}
	for i := range q.Options {
		q.Options[i] = cell(2 + i)
	}
	return q
}

// Columns 持久化表头
func Columns() []string {
	cols := []string{"题目", "答案"}
	return append(cols, OptionLabels[:]...)
}
