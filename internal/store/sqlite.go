package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"tiku/internal/models"
)

//go:embed schema.sql
var Schema string

// SQLite 以 SQLite 数据库保存题库，seq 记录插入顺序
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）SQLite 题库
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// :memory: 数据库每个连接各自独立
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load 按插入顺序读取全部题目
func (s *SQLite) Load(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, answer, option_a, option_b, option_c, option_d, option_e, option_f
		FROM questions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("查询题库失败: %w", err)
	}
	defer rows.Close()

	var records []models.Question
	for rows.Next() {
		var q models.Question
		o := &q.Options
		if err := rows.Scan(&q.Title, &q.Answer, &o[0], &o[1], &o[2], &o[3], &o[4], &o[5]); err != nil {
			return nil, err
		}
		records = append(records, q)
	}
	return records, rows.Err()
}

// Save 在一个事务中清空并重写全部题目
func (s *SQLite) Save(ctx context.Context, records []models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("清空题库失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO questions
		(seq, title, answer, option_a, option_b, option_c, option_d, option_e, option_f)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, q := range records {
		o := q.Options
		if _, err := stmt.ExecContext(ctx, i+1, q.Title, q.Answer, o[0], o[1], o[2], o[3], o[4], o[5]); err != nil {
			return fmt.Errorf("写入题目失败 %q: %w", q.Title, err)
		}
	}
	return tx.Commit()
}

// Close 关闭数据库
func (s *SQLite) Close() error {
	return s.db.Close()
}
