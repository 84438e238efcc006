package bank

import (
	"sync"

	"tiku/internal/models"
)

// Bank 以题目文本为键的去重题库
//
// 先入为主：同一题目一旦入库，之后再次抓取到也不会覆盖。题库只增不减。
type Bank struct {
	mu      sync.RWMutex
	index   map[string]int
	records []models.Question
}

// New 创建空题库
func New() *Bank {
	return &Bank{
		index: make(map[string]int),
	}
}

// Load 用历史数据整体替换题库内容，返回实际载入的题目数
//
// 题目为空或重复的行会被丢弃，重复时保留先出现的一行。
func (b *Bank) Load(records []models.Question) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.index = make(map[string]int, len(records))
	b.records = make([]models.Question, 0, len(records))
	for _, q := range records {
		b.insert(q)
	}
	return len(b.records)
}

// Contains 题库中是否已有该题目
func (b *Bank) Contains(title string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.index[models.TitleKey(title)]
	return ok
}

// AddIfAbsent 题目不存在时插入，返回是否发生了插入
func (b *Bank) AddIfAbsent(q models.Question) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(q)
}

// insert 内部插入方法（不加锁）
func (b *Bank) insert(q models.Question) bool {
	key := q.Key()
	if key == "" {
		return false
	}
	if _, exists := b.index[key]; exists {
		return false
	}
	q.Title = key
	b.index[key] = len(b.records)
	b.records = append(b.records, q)
	return true
}

// Get 按题目查找记录
func (b *Bank) Get(title string) (models.Question, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i, ok := b.index[models.TitleKey(title)]
	if !ok {
		return models.Question{}, false
	}
	return b.records[i], true
}

// Size 题库题目总数
func (b *Bank) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Snapshot 按插入顺序返回题库副本，用于持久化
func (b *Bank) Snapshot() []models.Question {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Question, len(b.records))
	copy(out, b.records)
	return out
}
