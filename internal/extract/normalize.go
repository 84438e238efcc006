package extract

import (
	"regexp"
	"strings"
)

// 选项编号：A-F（不区分大小写）后至少跟一个分隔符，分隔符包括 &nbsp; 和全角空格
var enumeratorPattern = regexp.MustCompile(`^[A-Fa-f][.\s\p{Zs}、．]+`)

// NormalizeOption 清洗选项文本：去除开头的 "A." "B、" "C " 之类的编号
//
// 编号会反复去除直到没有为止，因此 "A. B cells" 会变成 "cells"；
// 没有分隔符的 "Apple" 保持不变。
func NormalizeOption(raw string) string {
	text := strings.TrimSpace(raw)
	for text != "" {
		loc := enumeratorPattern.FindStringIndex(text)
		if loc == nil {
			break
		}
		text = strings.TrimSpace(text[loc[1]:])
	}
	return text
}
