package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"tiku/internal/models"
)

const sheetName = "Sheet1"

// 兼容英文表头
var headerAliases = map[string]string{
	"title":  "题目",
	"answer": "答案",
}

// XLSX 以 Excel 表格保存题库，列顺序：题目, 答案, A..F
type XLSX struct {
	path string
}

// NewXLSX 创建表格存储
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

// Load 读取表格，文件不存在时返回空题库
func (x *XLSX) Load(ctx context.Context) ([]models.Question, error) {
	if _, err := os.Stat(x.path); os.IsNotExist(err) {
		return nil, nil
	}

	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("打开题库文件失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	positions, err := columnPositions(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]models.Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		ordered := make([]string, len(positions))
		for i, pos := range positions {
			if pos >= 0 && pos < len(row) {
				ordered[i] = row[pos]
			}
		}
		q := models.FromRow(ordered)
		if q.Title == "" {
			continue
		}
		records = append(records, q)
	}
	return records, nil
}

// columnPositions 按表头定位每个标准列，缺失的列为 -1
func columnPositions(header []string) ([]int, error) {
	found := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if alias, ok := headerAliases[strings.ToLower(name)]; ok {
			name = alias
		}
		if _, dup := found[name]; !dup {
			found[name] = i
		}
	}

	cols := models.Columns()
	positions := make([]int, len(cols))
	for i, col := range cols {
		pos, ok := found[col]
		if !ok {
			pos = -1
		}
		positions[i] = pos
	}
	if positions[0] < 0 {
		return nil, fmt.Errorf("题库文件缺少【%s】列", cols[0])
	}
	return positions, nil
}

// Save 用完整快照覆盖表格
func (x *XLSX) Save(ctx context.Context, records []models.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 0, 2+models.OptionCount)
	for _, col := range models.Columns() {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, q := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := make([]interface{}, 0, 2+models.OptionCount)
		for _, v := range q.Row() {
			row = append(row, v)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+2, err)
		}
	}

	if dir := filepath.Dir(x.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	// 先写临时文件再替换，避免中途失败损坏旧题库
	tmp := x.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("写入题库文件失败: %w", err)
	}
	if err := os.Rename(tmp, x.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("替换题库文件失败: %w", err)
	}
	return nil
}

// Close 表格存储无需释放资源
func (x *XLSX) Close() error {
	return nil
}
