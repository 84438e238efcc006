package session

import (
	"errors"
	"io"

	input "github.com/tcnksm/go-input"
)

// ConsolePrompter 基于终端的输入提示
type ConsolePrompter struct {
	ui *input.UI
}

// NewConsolePrompter 创建终端输入提示
func NewConsolePrompter(r io.Reader, w io.Writer) *ConsolePrompter {
	return &ConsolePrompter{
		ui: &input.UI{Reader: r, Writer: w},
	}
}

// Ask 读取一行输入，空行视为确认
func (p *ConsolePrompter) Ask(query string) (string, error) {
	line, err := p.ui.Ask(query, &input.Options{
		Default:     "",
		HideDefault: true,
		HideOrder:   true,
		Required:    false,
		Loop:        false,
	})
	if errors.Is(err, input.ErrEmpty) {
		return "", nil
	}
	return line, err
}
