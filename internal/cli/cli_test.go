package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tiku/internal/config"
	"tiku/internal/models"
	"tiku/internal/store"
)

const reviewPage = "../snapshot/testdata/review.html"

func TestImportBuildsBank(t *testing.T) {
	ctx := context.Background()
	cfg := config.New()
	cfg.BankPath = filepath.Join(t.TempDir(), "题库.xlsx")

	// 同一页面导入两次，第二次全部重复
	require.NoError(t, runImport(ctx, cfg, []string{reviewPage, reviewPage, "missing.html"}))

	s, err := store.Open(cfg.BankPath)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, models.AnswerCorrect, records[0].Answer)
}

func TestImportIntoSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.New()
	cfg.BankPath = filepath.Join(t.TempDir(), "bank.db")

	require.NoError(t, runImport(ctx, cfg, []string{reviewPage}))

	s, err := store.Open(cfg.BankPath)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestRenderBankLimit(t *testing.T) {
	records := []models.Question{
		{Title: "第一题", Answer: "A", Options: [models.OptionCount]string{"甲", "乙"}},
		{Title: "第二题", Answer: "B"},
		{Title: "第三题", Answer: "C"},
	}

	out := &bytes.Buffer{}
	renderBank(out, records, 2)

	require.Contains(t, out.String(), "题目")
	require.Contains(t, out.String(), "第一题")
	require.Contains(t, out.String(), "第二题")
	require.NotContains(t, out.String(), "第三题")
	require.Contains(t, out.String(), "共 3 题")
}
