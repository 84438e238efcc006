package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"tiku/internal/models"
	"tiku/internal/store"
)

var showLimit int

func init() {
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "最多显示的题目数（0 表示全部）")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [--limit N]",
	Short: "以表格形式打印题库内容。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := store.Open(cfg.BankPath)
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("读取题库失败: %w", err)
		}
		renderBank(os.Stdout, records, showLimit)
		return nil
	},
}

// renderBank 打印题库表格，limit <= 0 时全部打印
func renderBank(w io.Writer, records []models.Question, limit int) {
	total := len(records)
	if limit > 0 && limit < total {
		records = records[:limit]
	}

	header := table.Row{}
	for _, c := range models.Columns() {
		header = append(header, c)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	for _, q := range records {
		row := table.Row{}
		for _, v := range q.Row() {
			row = append(row, v)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("共 %d 题", total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 40},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
