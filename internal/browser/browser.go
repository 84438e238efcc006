package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"tiku/internal/config"
	"tiku/internal/extract"
	"tiku/internal/snapshot"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

	// 时间常量
	pageLoadWaitTime = 3 * time.Second  // 页面加载等待时间
	snapshotTimeout  = 30 * time.Second // 单次抓取超时
	shutdownWaitTime = 500 * time.Millisecond
)

// BrowserExecutor 浏览器执行器：启动可见的 Chrome，由操作员手动登录和翻页
type BrowserExecutor struct {
	cfg         *config.Config
	allocCtx    context.Context
	allocCancel context.CancelFunc
	rootCtx     context.Context // 第一个标签页
	rootCancel  context.CancelFunc
	ctx         context.Context // 当前激活的标签页
	tabs        *tabSet         // 切换过的其他标签页
	activeID    target.ID
	seen        map[target.ID]bool
}

// tabSet 已连接的标签页 context
//
// chromedp 取消非首个标签页的 context 时会关闭该标签页，
// 因此只在标签页已被操作员关闭或浏览器退出时才取消。
type tabSet struct {
	ctxs    map[target.ID]context.Context
	cancels map[target.ID]context.CancelFunc
}

func newTabSet() *tabSet {
	return &tabSet{
		ctxs:    make(map[target.ID]context.Context),
		cancels: make(map[target.ID]context.CancelFunc),
	}
}

// get 返回已连接的标签页 context
func (t *tabSet) get(id target.ID) (context.Context, bool) {
	ctx, ok := t.ctxs[id]
	return ctx, ok
}

// add 记录新连接的标签页
func (t *tabSet) add(id target.ID, ctx context.Context, cancel context.CancelFunc) {
	t.ctxs[id] = ctx
	t.cancels[id] = cancel
}

// prune 释放已不存在的标签页，返回被释放的 ID
func (t *tabSet) prune(pages []*target.Info) []target.ID {
	alive := make(map[target.ID]bool, len(pages))
	for _, p := range pages {
		alive[p.TargetID] = true
	}

	var gone []target.ID
	for id, cancel := range t.cancels {
		if alive[id] {
			continue
		}
		cancel()
		delete(t.cancels, id)
		delete(t.ctxs, id)
		gone = append(gone, id)
	}
	return gone
}

// closeAll 取消全部标签页 context
func (t *tabSet) closeAll() {
	for id, cancel := range t.cancels {
		cancel()
		delete(t.cancels, id)
		delete(t.ctxs, id)
	}
}

// NewBrowserExecutor 创建浏览器执行器
func NewBrowserExecutor(cfg *config.Config) *BrowserExecutor {
	return &BrowserExecutor{
		cfg:  cfg,
		tabs: newTabSet(),
		seen: make(map[target.ID]bool),
	}
}

// Start 启动浏览器并打开起始页面
func (b *BrowserExecutor) Start() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	// 设置Chrome路径
	if b.cfg.ChromeBinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromeBinaryPath))
	}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.rootCtx, b.rootCancel = chromedp.NewContext(b.allocCtx)
	b.ctx = b.rootCtx

	if err := chromedp.Run(b.ctx,
		chromedp.Navigate(b.cfg.URL),
		chromedp.Sleep(pageLoadWaitTime),
	); err != nil {
		b.Stop()
		return fmt.Errorf("打开起始页面失败: %w", err)
	}

	if c := chromedp.FromContext(b.ctx); c != nil && c.Target != nil {
		b.activeID = c.Target.TargetID
		b.seen[b.activeID] = true
	}

	slog.Info("浏览器已启动", "url", b.cfg.URL)
	return nil
}

// Stop 关闭浏览器
func (b *BrowserExecutor) Stop() {
	slog.Debug("正在关闭浏览器...")

	// 先关闭切换出来的标签页 context
	b.tabs.closeAll()

	if b.rootCancel != nil {
		b.rootCancel()
		b.rootCancel = nil
	}

	// 等待一下让浏览器有时间关闭
	time.Sleep(shutdownWaitTime)

	// 最后取消 allocator（会杀掉 chrome 进程）
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}

	slog.Debug("浏览器已关闭")
}

// activate 切换到最新打开的标签页（查看试卷通常在新标签页中打开）
func (b *BrowserExecutor) activate() error {
	targets, err := chromedp.Targets(b.rootCtx)
	if err != nil {
		return fmt.Errorf("获取标签页失败: %w", err)
	}

	var pages []*target.Info
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, t)
		}
	}
	if len(pages) == 0 {
		return fmt.Errorf("没有可用的标签页")
	}

	if gone := b.tabs.prune(pages); len(gone) > 0 {
		slog.Debug("已释放关闭的标签页", "targets", gone)
	}

	next := pickTarget(pages, b.activeID, b.seen)
	for _, p := range pages {
		b.seen[p.TargetID] = true
	}
	if next == b.activeID {
		return nil
	}

	// 切换时不取消旧标签页的 context，否则 chromedp 会关闭操作员的标签页
	if rc := chromedp.FromContext(b.rootCtx); rc != nil && rc.Target != nil && rc.Target.TargetID == next {
		b.ctx = b.rootCtx
	} else if ctx, ok := b.tabs.get(next); ok {
		b.ctx = ctx
	} else {
		ctx, cancel := chromedp.NewContext(b.rootCtx, chromedp.WithTargetID(next))
		b.tabs.add(next, ctx, cancel)
		b.ctx = ctx
	}
	b.activeID = next
	slog.Debug("已切换标签页", "target", next)
	return nil
}

// pickTarget 选择要抓取的标签页：优先新出现的页面，其次保持当前页面，当前页面已关闭时用最后一个
func pickTarget(pages []*target.Info, active target.ID, seen map[target.ID]bool) target.ID {
	var newest target.ID
	activeAlive := false
	for _, p := range pages {
		if !seen[p.TargetID] {
			newest = p.TargetID
		}
		if p.TargetID == active {
			activeAlive = true
		}
	}
	switch {
	case newest != "":
		return newest
	case activeAlive:
		return active
	default:
		return pages[len(pages)-1].TargetID
	}
}

// ListBlocks 实现 extract.Provider：抓取当前标签页中渲染好的题目块
func (b *BrowserExecutor) ListBlocks(ctx context.Context) ([]extract.BlockHandle, error) {
	if err := b.activate(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(b.ctx, snapshotTimeout)
	defer cancel()
	// 操作员的退出信号也能打断正在等待的浏览器调用
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	blocks, err := b.evaluateBlocks(runCtx)
	if err != nil {
		slog.Debug("JavaScript获取题目失败，回退到HTML解析", "err", err)
		blocks, err = b.parseOuterHTML(runCtx)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("抓取到题目块", "count", len(blocks))
	return snapshot.Handles(blocks), nil
}

// blocksScript 在页面中用 innerText 提取题目块，返回 JSON 字符串
func blocksScript(sel config.Selectors) string {
	quote := func(s string) string {
		data, _ := json.Marshal(s)
		return string(data)
	}
	return fmt.Sprintf(`
	(function() {
		var results = [];
		var blocks = document.querySelectorAll(%s);
		for (var i = 0; i < blocks.length; i++) {
			var block = blocks[i];
			var titleEl = block.querySelector(%s);

			// 优先找最精准的选项节点，没找到再用 ElementUI 的通用标签
			var optionEls = block.querySelectorAll(%s);
			if (!optionEls.length && %s) {
				optionEls = block.querySelectorAll(%s);
			}

			var options = [];
			for (var j = 0; j < optionEls.length; j++) {
				var txt = (optionEls[j].innerText || '').trim();
				if (txt) {
					options.push(txt);
				}
			}

			results.push({
				has_title: !!titleEl,
				title: titleEl ? titleEl.innerText.trim() : '',
				options: options,
				text: block.innerText || ''
			});
		}
		return JSON.stringify(results);
	})()
	`, quote(sel.Block), quote(sel.Title), quote(sel.Options), quote(sel.FallbackOptions), quote(sel.FallbackOptions))
}

// evaluateBlocks 使用JavaScript在浏览器中直接获取题目块
func (b *BrowserExecutor) evaluateBlocks(ctx context.Context) ([]snapshot.Block, error) {
	var jsonResult string
	if err := chromedp.Run(ctx, chromedp.Evaluate(blocksScript(b.cfg.GetSelectors()), &jsonResult)); err != nil {
		return nil, err
	}

	var blocks []snapshot.Block
	if err := json.Unmarshal([]byte(jsonResult), &blocks); err != nil {
		return nil, fmt.Errorf("解析JavaScript结果失败: %w", err)
	}
	return blocks, nil
}

// parseOuterHTML 获取页面HTML并用 goquery 解析（备用方法）
func (b *BrowserExecutor) parseOuterHTML(ctx context.Context) ([]snapshot.Block, error) {
	var htmlContent string
	if err := chromedp.Run(ctx, chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("获取页面内容失败: %w", err)
	}
	return snapshot.FromHTML(strings.NewReader(htmlContent), b.cfg.GetSelectors())
}
