package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"tiku/internal/models"
)

func TestNormalizeOption(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"A. Paris", "Paris"},
		{"B、东京", "东京"},
		{"C．柏林", "柏林"},
		{"d  lowercase", "lowercase"},
		{"  E.  spaced  ", "spaced"},
		{"just text", "just text"},
		{"Apple", "Apple"},
		{"F", "F"},
		{"A.", ""},
		{"", ""},
		{"   ", ""},
		{"Paris A. Rome", "Paris A. Rome"},
		{"A. B. nested", "nested"},
		{"G. not an enumerator", "G. not an enumerator"},
		{"A\u00a0Paris", "Paris"},
		{"B\u3000东京", "东京"},
		{"C.\u00a0\u3000柏林", "柏林"},
		{"A. B cells", "cells"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizeOption(c.in), "input %q", c.in)
	}
}

func TestNormalizeOptionIdempotent(t *testing.T) {
	inputs := []string{
		"A. Paris", "B、东京", "A. B. C. x", "a b c", "Apple", "A .A .A", "E. coli",
		"  ", "", "F．．  F", "选项", "AB", "A、、 b、c",
		"A\u00a0Paris", "B\u3000\u3000C\u00a0x",
	}
	for _, in := range inputs {
		once := NormalizeOption(in)
		require.Equal(t, once, NormalizeOption(once), "input %q", in)
	}
}

func TestParseAnswer(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"题目内容\n正确答案：AC\n", "AC"},
		{"...正确答案：AC...", "AC"},
		{"正确答案: B, C", "BC"},
		{"正确答案：A B D", "ABD"},
		{"Correct answer: a, b", "ab"},
		{"correct ANSWER：D", "D"},
		{"正确答案：正确", "正确"},
		{"no marker here", models.AnswerUnknown},
		{"正确答案：", models.AnswerUnknown},
		{"正确答案： , ", models.AnswerUnknown},
		{"", models.AnswerUnknown},
		{"正确答案：\u00a0AC", "AC"},
		{"正确答案：A\u00a0C", "AC"},
		{"正确答案：\u3000B", "B"},
		{"正确答案：A\u3000,\u3000D\n", "AD"},
		{"正确答案：\u00a0正确", "正确"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ParseAnswer(c.in), "input %q", c.in)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		options []string
		want    Kind
	}{
		{[]string{"正确", "错误"}, KindJudgment},
		{[]string{"对", "错"}, KindJudgment},
		{[]string{"True", "False"}, KindJudgment},
		{[]string{"对", ""}, KindChoice},
		{[]string{"", "对", "", "错"}, KindJudgment},
		{[]string{"Paris", "Tokyo", "Berlin"}, KindChoice},
		{[]string{"Paris", "Tokyo"}, KindChoice},
		{[]string{"正确", "错误", "不确定"}, KindChoice},
		{nil, KindChoice},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.options), "options %q", c.options)
	}
}

func TestBuildRecordJudgment(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"A", models.AnswerCorrect},
		{"正确", models.AnswerCorrect},
		{"对", models.AnswerCorrect},
		{"True", models.AnswerCorrect},
		{"B", models.AnswerIncorrect},
		{"错误", models.AnswerIncorrect},
		{models.AnswerUnknown, models.AnswerIncorrect},
	}
	for _, c := range cases {
		q, ok := BuildRecord(" 地球是圆的 ", []string{"正确", "错误"}, c.raw, KindJudgment)
		require.True(t, ok)
		require.Equal(t, "地球是圆的", q.Title)
		require.Equal(t, c.want, q.Answer, "raw %q", c.raw)
		require.Equal(t, [models.OptionCount]string{}, q.Options)
		require.True(t, q.IsJudgment())
	}
}

func TestBuildRecordChoice(t *testing.T) {
	q, ok := BuildRecord("Capital of France?", []string{"Paris", "London", "Berlin", "Rome"}, "A", KindChoice)
	require.True(t, ok)

	want := models.Question{
		Title:   "Capital of France?",
		Answer:  "A",
		Options: [models.OptionCount]string{"Paris", "London", "Berlin", "Rome", "", ""},
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	again, _ := BuildRecord("Capital of France?", []string{"Paris", "London", "Berlin", "Rome"}, "A", KindChoice)
	require.Equal(t, q, again)
}

func TestBuildRecordChoiceEdges(t *testing.T) {
	q, ok := BuildRecord("q", []string{"1", "", "2", "3", "4", "5", "6", "7"}, models.AnswerUnknown, KindChoice)
	require.True(t, ok)
	require.Equal(t, models.AnswerUnknown, q.Answer)
	require.Equal(t, [models.OptionCount]string{"1", "2", "3", "4", "5", "6"}, q.Options)

	_, ok = BuildRecord("   ", []string{"a"}, "A", KindChoice)
	require.False(t, ok)
}
