package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

type ConsoleChatUI struct {
	In  io.Reader
	Out io.Writer
}

func (u *ConsoleChatUI) Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error {
	in := u.In
	if in == nil {
		return fmt.Errorf("console ui: In is nil")
	}
	out := u.Out
	if out == nil {
		return fmt.Errorf("console ui: Out is nil")
	}

	reader := bufio.NewReader(in)
	var history []*schema.Message

	fmt.Fprintln(out, "TechGear customer support. Type exit/quit to leave.")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Goodbye.")
			return nil
		default:
		}

		fmt.Fprint(out, "You: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye.")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}

		res, err := backend.Run(ctx, line, TrimHistory(history, opts.HistoryWindow))
		if err != nil {
			fmt.Fprintf(out, "Agent: Sorry, something went wrong: %v\n\n", err)
			continue
		}

		fmt.Fprintf(out, "Agent: %s\n", strings.TrimSpace(res.Response))
		if opts.ShowTrace {
			fmt.Fprintf(out, "  [intent=%s status=%s steps=%s %s]\n",
				res.Intent, res.Status, strings.Join(res.AgentSequence, ">"),
				res.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(out)

		history = append(history,
			schema.UserMessage(line),
			schema.AssistantMessage(res.Response, nil),
		)
	}
}
