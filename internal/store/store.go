package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"tiku/internal/models"
)

// ErrUnsupportedFormat 无法识别的题库文件类型
var ErrUnsupportedFormat = errors.New("不支持的题库文件类型")

// Store 题库持久化
//
// Save 总是用完整快照覆盖已有内容，而不是追加。
type Store interface {
	Load(ctx context.Context) ([]models.Question, error)
	Save(ctx context.Context, records []models.Question) error
	Close() error
}

// Open 根据文件扩展名选择存储：.xlsx 使用表格，.db/.sqlite 使用 SQLite
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewXLSX(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadOrEmpty 加载历史题库，失败时记录日志并从空题库开始
func LoadOrEmpty(ctx context.Context, s Store) []models.Question {
	records, err := s.Load(ctx)
	if err != nil {
		slog.Warn("读取旧题库失败，将重新开始", "err", err)
		return nil
	}
	return records
}
