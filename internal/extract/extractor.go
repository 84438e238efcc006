package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tiku/internal/bank"
	"tiku/internal/models"
)

// ErrNoBlocks 当前页面没有找到任何题目块
var ErrNoBlocks = errors.New("没找到题目，请确认当前在【查看试卷】页面")

// BlockHandle 页面上一个题目块
type BlockHandle interface {
	Title() (string, error)
	OptionTexts() ([]string, error)
	FullText() (string, error)
}

// Provider 提供当前页面渲染出的题目块
type Provider interface {
	ListBlocks(ctx context.Context) ([]BlockHandle, error)
}

// Saver 持久化题库快照
type Saver interface {
	Save(ctx context.Context, records []models.Question) error
}

// Outcome 单个题目块的处理结果
type Outcome int

const (
	OutcomeAdded     Outcome = iota // 新增入库
	OutcomeDuplicate                // 题库中已存在
	OutcomeSkipped                  // 提取失败，丢弃
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "新增"
	case OutcomeDuplicate:
		return "已存在"
	default:
		return "跳过"
	}
}

// BlockResult 单个题目块的处理结果
type BlockResult struct {
	Index   int
	Outcome Outcome
	Title   string
	Kind    Kind
	Reason  error
}

// BatchReport 一轮抓取的汇总
type BatchReport struct {
	Blocks     int
	Added      int
	Duplicates int
	Skipped    int
	Total      int  // 本轮结束后题库总数
	Saved      bool // 本轮是否写入了存储
	SaveErr    error
	Results    []BlockResult
}

// Extractor 批量抓取器：逐个处理题目块并合并进题库
type Extractor struct {
	bank    *bank.Bank
	saver   Saver
	pending bool // 有尚未成功落盘的新题
}

// NewExtractor 创建批量抓取器
func NewExtractor(b *bank.Bank, saver Saver) *Extractor {
	return &Extractor{
		bank:  b,
		saver: saver,
	}
}

// Pending 是否有尚未成功保存的新题
func (e *Extractor) Pending() bool {
	return e.pending
}

// RunBatch 执行一轮抓取
//
// 单个题目块出错只会跳过该题；获取题目块失败时整轮作废，题库不受影响。
func (e *Extractor) RunBatch(ctx context.Context, provider Provider) (BatchReport, error) {
	var report BatchReport

	blocks, err := provider.ListBlocks(ctx)
	if err != nil {
		return report, fmt.Errorf("获取题目块失败: %w", err)
	}
	if len(blocks) == 0 {
		return report, ErrNoBlocks
	}

	report.Blocks = len(blocks)
	report.Results = make([]BlockResult, 0, len(blocks))
	for i, block := range blocks {
		result := e.processBlock(block)
		result.Index = i

		switch result.Outcome {
		case OutcomeAdded:
			report.Added++
		case OutcomeDuplicate:
			report.Duplicates++
		default:
			report.Skipped++
			slog.Debug("跳过题目块", "index", i, "reason", result.Reason)
		}
		report.Results = append(report.Results, result)
	}

	if report.Added > 0 {
		e.pending = true
	}
	report.Total = e.bank.Size()

	if e.pending {
		report.SaveErr = e.Flush(ctx)
		report.Saved = report.SaveErr == nil
	}
	return report, nil
}

// Flush 有待保存的新题时写入存储
func (e *Extractor) Flush(ctx context.Context) error {
	if !e.pending {
		return nil
	}
	if err := e.saver.Save(ctx, e.bank.Snapshot()); err != nil {
		return fmt.Errorf("保存题库失败: %w", err)
	}
	e.pending = false
	return nil
}

// processBlock 处理单个题目块：题目 → 查重 → 选项 → 答案 → 题型 → 组装 → 入库
func (e *Extractor) processBlock(block BlockHandle) BlockResult {
	title, err := block.Title()
	if err != nil {
		return BlockResult{Outcome: OutcomeSkipped, Reason: fmt.Errorf("提取题目失败: %w", err)}
	}
	title = models.TitleKey(title)
	if title == "" {
		return BlockResult{Outcome: OutcomeSkipped, Reason: errors.New("题目为空")}
	}
	if e.bank.Contains(title) {
		return BlockResult{Outcome: OutcomeDuplicate, Title: title}
	}

	rawOptions, err := block.OptionTexts()
	if err != nil {
		return BlockResult{Outcome: OutcomeSkipped, Title: title, Reason: fmt.Errorf("提取选项失败: %w", err)}
	}
	options := make([]string, 0, len(rawOptions))
	for _, raw := range rawOptions {
		if opt := NormalizeOption(raw); opt != "" {
			options = append(options, opt)
		}
	}

	fullText, err := block.FullText()
	if err != nil {
		return BlockResult{Outcome: OutcomeSkipped, Title: title, Reason: fmt.Errorf("提取答案失败: %w", err)}
	}
	rawAnswer := ParseAnswer(fullText)

	kind := Classify(options)
	record, ok := BuildRecord(title, options, rawAnswer, kind)
	if !ok {
		return BlockResult{Outcome: OutcomeSkipped, Title: title, Kind: kind, Reason: errors.New("题目为空")}
	}

	if !e.bank.AddIfAbsent(record) {
		return BlockResult{Outcome: OutcomeDuplicate, Title: title, Kind: kind}
	}
	return BlockResult{Outcome: OutcomeAdded, Title: title, Kind: kind}
}
