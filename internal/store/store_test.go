package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tiku/internal/bank"
	"tiku/internal/models"
)

func sampleRecords() []models.Question {
	return []models.Question{
		{Title: "地球是圆的", Answer: models.AnswerCorrect},
		{
			Title:   "下列哪些城市位于欧洲？",
			Answer:  "BC",
			Options: [models.OptionCount]string{"Tokyo", "Paris", "Berlin", "Beijing"},
		},
		{
			Title:   "六选一",
			Answer:  models.AnswerUnknown,
			Options: [models.OptionCount]string{"1", "2", "3", "4", "5", "6"},
		},
	}
}

func TestOpenByExtension(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(filepath.Join(dir, "bank.xlsx"))
	require.NoError(t, err)
	require.IsType(t, &XLSX{}, s)

	s, err = Open(filepath.Join(dir, "bank.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(filepath.Join(dir, "bank.txt"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"bank.xlsx", "bank.db"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), name)

			s, err := Open(path)
			require.NoError(t, err)
			defer s.Close()

			empty, err := s.Load(ctx)
			require.NoError(t, err)
			require.Empty(t, empty)

			b := bank.New()
			b.Load(sampleRecords())
			require.NoError(t, s.Save(ctx, b.Snapshot()))

			// 覆盖写入而不是追加
			require.NoError(t, s.Save(ctx, b.Snapshot()))

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(b.Snapshot(), loaded); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestXLSXHeaderOrderAndAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"A", "B", "answer", "title"},
		{"正确", "错误", "correct", "判断"},
		{"", "", "", ""},
		{"x", "y", "B", "选择"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	loaded, err := NewXLSX(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.Question{
		{Title: "判断", Answer: "correct", Options: [models.OptionCount]string{"正确", "错误"}},
		{Title: "选择", Answer: "B", Options: [models.OptionCount]string{"x", "y"}},
	}, loaded)
}

func TestXLSXMissingTitleColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")

	f := excelize.NewFile()
	row := []interface{}{"答案", "A"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &row))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s := NewXLSX(path)
	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.Empty(t, LoadOrEmpty(context.Background(), s))
}

func TestXLSXCorruptFileDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	require.Empty(t, LoadOrEmpty(context.Background(), NewXLSX(path)))
}
