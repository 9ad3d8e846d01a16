// Package console implements the line-oriented practice loop: read a line,
// exchange one turn with the remote agent, print the reply, repeat until
// the user quits.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/soyeahso/part5/internal/logging"
)

// Sentinel is the input value that ends the session.
const Sentinel = "q"

// TurnFunc exchanges one conversation turn with the remote agent.
type TurnFunc func(ctx context.Context, text string) (string, error)

// Options configures a Loop.
type Options struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// Interactive enables prompts and the welcome banner. Off when stdin
	// is a pipe so redirected input produces clean output.
	Interactive bool

	Turn TurnFunc
	Log  *logging.Logger
}

// Loop is the interactive read loop.
type Loop struct {
	opts   Options
	prompt *color.Color
	rule   *color.Color
	log    *logging.Logger
}

// New creates a Loop.
func New(opts Options) *Loop {
	return &Loop{
		opts:   opts,
		prompt: color.New(color.FgCyan, color.Bold),
		rule:   color.New(color.FgHiBlack),
		log:    opts.Log.Sub("console"),
	}
}

// Run processes input lines until the sentinel, end of input, or context
// cancellation. All three are clean terminations and return nil; per-turn
// service failures are reported and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	if l.opts.Interactive {
		fmt.Fprintln(l.opts.Out, "TOEIC Part 5 practice session")
		fmt.Fprintf(l.opts.Out, "quit: %s / Ctrl+C — try: 穴埋め問題を1問ください\n\n", Sentinel)
	}

	lines := l.readLines(ctx)

	for {
		if l.opts.Interactive {
			l.prompt.Fprint(l.opts.Out, "you> ")
		}

		select {
		case <-ctx.Done():
			l.finish("interrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				l.finish("end of input")
				return nil
			}

			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if strings.EqualFold(text, Sentinel) {
				l.finish("sentinel")
				return nil
			}

			if err := l.turn(ctx, text); err != nil {
				return err
			}
		}
	}
}

// turn runs one exchange. Only context cancellation ends the loop; every
// other failure is rendered and swallowed.
func (l *Loop) turn(ctx context.Context, text string) error {
	reply, err := l.opts.Turn(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			l.finish("interrupted")
			return nil
		}
		l.log.Warn().Err(err).Msg("turn failed")
		fmt.Fprintf(l.opts.ErrOut, "%v\nPlease try again.\n", err)
		return nil
	}

	l.rule.Fprintln(l.opts.Out, "--- agent ---")
	fmt.Fprintln(l.opts.Out, reply)
	l.rule.Fprintln(l.opts.Out, "-------------")
	return nil
}

// readLines pumps input lines into a channel so the select loop stays
// responsive to cancellation while blocked on a terminal read.
func (l *Loop) readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	scanner := bufio.NewScanner(l.opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	go func() {
		defer close(out)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		// A read failure (or an oversized line) ends the loop like EOF,
		// but should not end it silently.
		if err := scanner.Err(); err != nil {
			l.log.Warn().Err(err).Msg("input read failed")
		}
	}()
	return out
}

func (l *Loop) finish(reason string) {
	l.log.Debug().Str("reason", reason).Msg("loop finished")
	if l.opts.Interactive {
		fmt.Fprintln(l.opts.Out, "\nまた練習しましょう。") // see you next session
	}
}
