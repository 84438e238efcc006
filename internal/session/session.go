package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"tiku/internal/bank"
	"tiku/internal/extract"
)

// quitToken 退出指令（不区分大小写）
const quitToken = "q"

// Event 会话事件，供进度页面订阅
type Event struct {
	Type    string // batch, empty, error, saved, quit
	Message string
	Batch   int
	Added   int
	Total   int
	Time    time.Time
}

// EventCallback 事件回调函数类型
type EventCallback func(event Event)

// Prompter 阻塞等待操作员输入一行
type Prompter interface {
	Ask(query string) (string, error)
}

// Session 交互式抓取会话：每次回车抓取一轮，输入 q 退出
type Session struct {
	bank      *bank.Bank
	extractor *extract.Extractor
	provider  extract.Provider
	prompter  Prompter
	out       io.Writer
	callback  EventCallback
	batch     int
	verbose   bool
}

// Options 会话配置
type Options struct {
	Bank      *bank.Bank
	Extractor *extract.Extractor
	Provider  extract.Provider
	Prompter  Prompter
	Out       io.Writer
	Callback  EventCallback
	Verbose   bool // 每轮打印逐题明细表
}

// New 创建会话
func New(opts Options) *Session {
	return &Session{
		bank:      opts.Bank,
		extractor: opts.Extractor,
		provider:  opts.Provider,
		prompter:  opts.Prompter,
		out:       opts.Out,
		callback:  opts.Callback,
		batch:     1,
		verbose:   opts.Verbose,
	}
}

// BatchCount 已成功完成的抓取轮数
func (s *Session) BatchCount() int {
	return s.batch - 1
}

// emit 发送事件
func (s *Session) emit(eventType, message string, added int) {
	if s.callback == nil {
		return
	}
	s.callback(Event{
		Type:    eventType,
		Message: message,
		Batch:   s.batch,
		Added:   added,
		Total:   s.bank.Size(),
		Time:    time.Now(),
	})
}

// printf 打印给操作员看的提示
func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Run 运行提示循环，直到输入 q 或输入流结束
//
// 退出只发生在两轮抓取之间，不会打断正在进行的一轮。
func (s *Session) Run(ctx context.Context) error {
	for {
		line, err := s.prompter.Ask("waiting... 请操作到【答案页面】后按回车 (输入 q 退出): ")
		if err != nil {
			slog.Debug("读取输入结束", "err", err)
			break
		}
		if strings.EqualFold(strings.TrimSpace(line), quitToken) {
			break
		}

		s.RunOnce(ctx)
	}

	return s.Finish(ctx)
}

// RunOnce 执行一轮抓取并打印结果，错误只报告不中断会话
func (s *Session) RunOnce(ctx context.Context) {
	s.printf("   ⚡️ 正在第 %d 次抓取...", s.batch)

	report, err := s.extractor.RunBatch(ctx, s.provider)
	if errors.Is(err, extract.ErrNoBlocks) {
		s.printf("   ⚠️ %v！", err)
		s.emit("empty", err.Error(), 0)
		return
	}
	if err != nil {
		s.printf("   ❌ 全局错误: %v", err)
		s.emit("error", err.Error(), 0)
		return
	}

	s.printf("   ✅ 抓取成功！本轮【新增】: %d 题 | 题库总计: %d 题", report.Added, report.Total)
	if report.Skipped > 0 {
		s.printf("   ⏭  跳过无法解析的题目: %d 题", report.Skipped)
	}
	if s.verbose {
		s.renderReport(report)
	}

	switch {
	case report.SaveErr != nil:
		s.printf("   ❌ 保存失败: %v（题目仍保留在内存中，下一轮会重试）", report.SaveErr)
		s.emit("error", report.SaveErr.Error(), report.Added)
	case report.Saved:
		s.printf("   📁 题库已保存更新")
		s.emit("saved", "题库已保存", report.Added)
	case report.Added == 0:
		s.printf("   💤 本页题目都已存在。")
	}
	s.emit("batch", fmt.Sprintf("本轮新增 %d 题", report.Added), report.Added)

	s.printf("%s", strings.Repeat("-", 40))
	s.batch++
}

// renderReport 打印逐题处理结果表
func (s *Session) renderReport(report extract.BatchReport) {
	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "结果", "题型", "选项", "题目", "原因"})
	for _, r := range report.Results {
		reason := ""
		if r.Reason != nil {
			reason = r.Reason.Error()
		}
		kind, options := "", ""
		if r.Outcome == extract.OutcomeAdded {
			kind = r.Kind.String()
			if q, ok := s.bank.Get(r.Title); ok && !q.IsJudgment() {
				options = fmt.Sprintf("%d 项", q.OptionsUsed())
			}
		}
		t.AppendRow(table.Row{r.Index + 1, r.Outcome, kind, options, truncate(r.Title, 30), reason})
	}
	t.Render()
}

// Finish 退出前补存未落盘的题目
func (s *Session) Finish(ctx context.Context) error {
	if s.extractor.Pending() {
		if err := s.extractor.Flush(ctx); err != nil {
			s.printf("   ❌ 退出前保存失败: %v", err)
			s.emit("quit", err.Error(), 0)
			return err
		}
		s.printf("   📁 题库已保存更新")
	}
	s.printf("程序结束。")
	s.emit("quit", "会话结束", 0)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
