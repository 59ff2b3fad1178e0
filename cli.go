package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sat8bit/moodchat/character"
	"github.com/sat8bit/moodchat/renderer"
	"github.com/sat8bit/moodchat/session"
	"github.com/sat8bit/moodchat/turn"
)

// cli は、標準入力の行を読み、結果を renderer に表示します。
// キャラクター選択の session.Selector も兼ねます。
type cli struct {
	out      io.Writer
	renderer renderer.Renderer
	lines    <-chan string
}

func newCLI(in io.Reader, out io.Writer, r renderer.Renderer) *cli {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return &cli{out: out, renderer: r, lines: lines}
}

func (c *cli) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// Choose は、一覧を表示し、登録済みの名前が入力されるまで聞き直します。
func (c *cli) Choose(ctx context.Context, registry *character.Registry) (string, error) {
	fmt.Fprintln(c.out, "Choose the character to have a conversation with:")
	for _, name := range registry.Names() {
		fmt.Fprintf(c.out, "- %s\n", name)
	}
	for {
		line, err := c.readLine(ctx, "Your choice: ")
		if err != nil {
			return "", err
		}
		name := strings.TrimSpace(line)
		if registry.Contains(name) {
			return name, nil
		}
		fmt.Fprintln(c.out, "Character not found. Please choose from the list.")
	}
}

// Run は、quit か入力の終わりかターン上限か ctx の終了までセッションを回します。
func (c *cli) Run(ctx context.Context, o *session.Orchestrator) error {
	if err := o.Start(ctx); err != nil {
		return ignoreEnd(err)
	}
	c.announce(o)

	for {
		line, err := c.readLine(ctx, "You: ")
		if err != nil {
			c.farewell()
			return ignoreEnd(err)
		}

		res, err := o.Handle(ctx, line)
		if err != nil {
			c.farewell()
			return ignoreEnd(err)
		}

		switch res.Action {
		case session.ActionQuit:
			return nil
		case session.ActionSwitched:
			if res.Err != nil {
				c.renderer.Error(fmt.Sprintf("%s's mood was left as %s: %v", res.Previous, res.Emotion, res.Err))
			} else {
				c.renderer.Notice(fmt.Sprintf("%s is now feeling %s.", res.Previous, res.Emotion))
			}
			c.announce(o)
		default:
			if res.Err != nil {
				c.renderer.Error(res.Reply)
				continue
			}
			c.renderer.Say(res.Character, res.Reply)
			if res.Limited {
				c.limitReached(o)
				return nil
			}
		}
	}
}

func (c *cli) announce(o *session.Orchestrator) {
	cur := o.Current()
	c.renderer.Notice(fmt.Sprintf("Starting conversation with %s. Type '%s' to exit or '%s' to change character.", cur.Name, session.CommandQuit, session.CommandSwitch))
}

func (c *cli) farewell() {
	fmt.Fprintln(c.out)
}

func (c *cli) limitReached(turns turn.Provider) {
	c.renderer.Notice(fmt.Sprintf("Reached the limit of %d turns (%d recorded).", turns.GetMaxTurns(), turns.GetCurrentTurn()))
}

// ignoreEnd は、入力の終わりやシグナルによる終了を正常終了として扱います。
func ignoreEnd(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
