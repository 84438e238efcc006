package extract

import (
	"regexp"
	"strings"
	"unicode"

	"tiku/internal/models"
)

// \p{Zs} 覆盖 RE2 的 \s 不包含的空白，如 &nbsp; (U+00A0) 和全角空格 (U+3000)
var answerPattern = regexp.MustCompile(`(?:正确答案|(?i:correct answer))[：:][\s\p{Zs}]*([A-Za-z\s\p{Zs},\x{4e00}-\x{9fa5}]+)`)

// ParseAnswer 从题目块全文中提取正确答案，找不到时返回 models.AnswerUnknown
func ParseAnswer(blockText string) string {
	match := answerPattern.FindStringSubmatch(blockText)
	if match == nil {
		return models.AnswerUnknown
	}

	answer := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, match[1])

	if answer == "" {
		return models.AnswerUnknown
	}
	return answer
}
