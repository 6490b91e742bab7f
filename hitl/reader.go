package hitl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ReaderPort adapts a line-oriented reader (stdin in the CLI) to the
// workflow input port. One request at a time; the prompt and prior
// context are written to out before reading.
type ReaderPort struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewReaderPort creates a port reading answers from in and writing
// prompts to out.
func NewReaderPort(in io.Reader, out io.Writer) *ReaderPort {
	return &ReaderPort{in: bufio.NewReader(in), out: out}
}

// RequestUserInput implements workflow.InputPort. The underlying read is
// not interruptible, so a canceled context returns once the next line
// arrives or the reader closes.
func (p *ReaderPort) RequestUserInput(ctx context.Context, node, priorContext string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if priorContext != "" {
		fmt.Fprintf(p.out, "--- %s ---\n%s\n", node, priorContext)
	}
	fmt.Fprintf(p.out, "[%s] input> ", node)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			ch <- result{err: err}
			return
		}
		ch <- result{line: strings.TrimRight(line, "\r\n")}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("read user input for node %s: %w", node, r.err)
		}
		return r.line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
