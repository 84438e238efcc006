package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"tiku/internal/config"
	"tiku/internal/extract"
)

// ErrTitleMissing 题目块中没有题干节点
var ErrTitleMissing = errors.New("未找到题干节点")

// Block 一个已渲染题目块的文本快照
type Block struct {
	HasTitle bool     `json:"has_title"`
	Heading  string   `json:"title"`
	Options  []string `json:"options"`
	Text     string   `json:"text"`
}

// Title 题干文本
func (b Block) Title() (string, error) {
	if !b.HasTitle {
		return "", ErrTitleMissing
	}
	return strings.TrimSpace(b.Heading), nil
}

// OptionTexts 选项原始文本（未清洗）
func (b Block) OptionTexts() ([]string, error) {
	return b.Options, nil
}

// FullText 题目块全文，用于匹配答案
func (b Block) FullText() (string, error) {
	return b.Text, nil
}

// Handles 转换为抓取器使用的题目块列表
func Handles(blocks []Block) []extract.BlockHandle {
	handles := make([]extract.BlockHandle, len(blocks))
	for i, b := range blocks {
		handles[i] = b
	}
	return handles
}

// FromDocument 从 HTML 文档中解析所有题目块
func FromDocument(doc *goquery.Document, sel config.Selectors) []Block {
	var blocks []Block
	doc.Find(sel.Block).Each(func(i int, s *goquery.Selection) {
		blocks = append(blocks, fromSelection(s, sel))
	})
	return blocks
}

// fromSelection 解析单个题目块
func fromSelection(s *goquery.Selection, sel config.Selectors) Block {
	var b Block

	title := s.Find(sel.Title).First()
	if title.Length() > 0 {
		b.HasTitle = true
		b.Heading = strings.TrimSpace(title.Text())
	}

	// 优先找 .radioText / .checkboxText，只包含选项内容
	opts := s.Find(sel.Options)
	if opts.Length() == 0 && sel.FallbackOptions != "" {
		opts = s.Find(sel.FallbackOptions)
	}
	opts.Each(func(i int, o *goquery.Selection) {
		if txt := strings.TrimSpace(o.Text()); txt != "" {
			b.Options = append(b.Options, txt)
		}
	})

	b.Text = blockText(s)
	return b
}

// blockText 近似浏览器的 innerText：块级元素之间换行
func blockText(s *goquery.Selection) string {
	var buf strings.Builder
	for _, n := range s.Nodes {
		writeText(n, &buf)
	}

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var blockElements = map[string]bool{
	"div": true, "p": true, "li": true, "ul": true, "ol": true, "br": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "label": true,
}

func writeText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		buf.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, buf)
	}
	if block {
		buf.WriteByte('\n')
	}
}

// FromHTML 解析 HTML 文本
func FromHTML(r io.Reader, sel config.Selectors) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return FromDocument(doc, sel), nil
}

// FileProvider 从保存的网页文件中读取题目块
type FileProvider struct {
	Path      string
	Selectors config.Selectors
}

// ListBlocks 实现 extract.Provider
func (p FileProvider) ListBlocks(ctx context.Context) ([]extract.BlockHandle, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("打开网页文件失败: %w", err)
	}
	defer f.Close()

	blocks, err := FromHTML(f, p.Selectors)
	if err != nil {
		return nil, err
	}
	return Handles(blocks), nil
}
