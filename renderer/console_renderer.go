package renderer

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// NewConsoleRenderer は、w に書き出す ConsoleRenderer を生成します。
// typing が 0 より大きければ、発言を1文字ずつその間隔で表示します。
func NewConsoleRenderer(w io.Writer, typing time.Duration) *ConsoleRenderer {
	return &ConsoleRenderer{
		w:      w,
		typing: typing,
	}
}

type ConsoleRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	typing time.Duration
}

func (c *ConsoleRenderer) Say(name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s: ", name)
	if c.typing <= 0 {
		fmt.Fprintln(c.w, text)
		return
	}
	for _, r := range text {
		fmt.Fprint(c.w, string(r))
		time.Sleep(c.typing)
	}
	fmt.Fprintln(c.w)
}

func (c *ConsoleRenderer) Notice(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[System] %s\n", text)
}

func (c *ConsoleRenderer) Error(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[Error] %s\n", text)
}

var _ Renderer = (*ConsoleRenderer)(nil)
