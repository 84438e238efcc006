package extract

import (
	"strings"

	"tiku/internal/models"
)

// Kind 题型
type Kind int

const (
	KindChoice   Kind = iota // 单选/多选
	KindJudgment             // 判断题
)

func (k Kind) String() string {
	if k == KindJudgment {
		return "判断题"
	}
	return "选择题"
}

var (
	judgmentTokens = []string{"正确", "错误", "对", "错"}
	// 英文页面的判断题选项，小写比较
	judgmentWords = []string{"true", "false", "correct", "incorrect", "right", "wrong"}

	affirmativeTokens = []string{"正确", "对"}
	affirmativeWords  = []string{"true", "right"}
)

// Classify 判断题型：恰好两个非空选项且包含"正确/错误"字样时为判断题
func Classify(options []string) Kind {
	var nonEmpty []string
	for _, opt := range options {
		if opt != "" {
			nonEmpty = append(nonEmpty, opt)
		}
	}
	if len(nonEmpty) != 2 {
		return KindChoice
	}

	joined := strings.Join(nonEmpty, "")
	if containsAny(joined, judgmentTokens) || containsAny(strings.ToLower(joined), judgmentWords) {
		return KindJudgment
	}
	return KindChoice
}

// BuildRecord 组装一条题目记录，题目为空时返回 false 表示丢弃该题
//
// 判断题只要答案中出现字母 A 就视为"正确"，与页面上正确选项的实际位置无关。
func BuildRecord(title string, options []string, rawAnswer string, kind Kind) (models.Question, bool) {
	title = models.TitleKey(title)
	if title == "" {
		return models.Question{}, false
	}

	q := models.Question{Title: title}

	if kind == KindJudgment {
		if isAffirmative(rawAnswer) {
			q.Answer = models.AnswerCorrect
		} else {
			q.Answer = models.AnswerIncorrect
		}
		return q, true
	}

	q.Answer = rawAnswer
	slot := 0
	for _, opt := range options {
		if slot == models.OptionCount {
			break
		}
		if opt == "" {
			continue
		}
		q.Options[slot] = opt
		slot++
	}
	return q, true
}

func isAffirmative(rawAnswer string) bool {
	if strings.Contains(rawAnswer, "A") || containsAny(rawAnswer, affirmativeTokens) {
		return true
	}
	return containsAny(strings.ToLower(rawAnswer), affirmativeWords)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
