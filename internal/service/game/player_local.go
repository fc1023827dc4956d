package game

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LocalPlayer 终端里的人类参与者，本地调试模式使用
type LocalPlayer struct {
	*playerCore

	in  *bufio.Reader
	out io.Writer
}

func NewLocalPlayer(name string, in io.Reader, out io.Writer, retries int) *LocalPlayer {
	p := &LocalPlayer{
		in:  bufio.NewReader(in),
		out: out,
	}

	core := newPlayerCore(name, retries)
	core.ask = p.promptWith
	core.printer = p.print
	p.playerCore = core

	return p
}

func (p *LocalPlayer) promptWith(req PromptRequest) string {
	fmt.Fprintln(p.out, req.Text)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}

	return strings.TrimSpace(line)
}

func (p *LocalPlayer) print(e Event) {
	if e.Message != "" {
		fmt.Fprintln(p.out, e.Message)
		return
	}

	fmt.Fprintf(p.out, "Event: %s\n", e.Type)
}
