package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/effective-security/mcpclient/callbacks"
	"github.com/effective-security/mcpclient/chatmodel"
	"github.com/effective-security/mcpclient/processor"
	"github.com/fatih/color"
)

// answerFn returns the answer to the query.
type answerFn func(ctx context.Context, query string) (string, error)

var (
	bannerColor = color.New(color.FgCyan, color.Bold)
	promptColor = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed)
)

// answerFunc runs the query in its own QueryContext,
// the transcript is printed when pad is set.
func (c *cli) answerFunc(proc *processor.Processor, pad *callbacks.Scratchpad) answerFn {
	return func(ctx context.Context, query string) (string, error) {
		ctx = chatmodel.WithQueryContext(ctx, chatmodel.NewQueryContext("", query))
		if pad == nil {
			return proc.ProcessQuery(ctx, query)
		}

		pad.StartRun(ctx)
		res, err := proc.ProcessQuery(ctx, query)
		if _, transcript := pad.EndRun(ctx); len(transcript) > 0 {
			_, _ = c.errOut.Write(transcript)
		}
		return res, err
	}
}

// chatLoop reads queries from in until `quit`, EOF or ctx is cancelled.
// Errors of a query are printed and the loop continues.
//
// When ctx can be cancelled, in is read by a separate goroutine. A blocked
// read can not be interrupted, so after the loop returns that goroutine
// exits only once in yields the next line or EOF.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, answer answerFn) error {
	_, _ = bannerColor.Fprintln(out, "\nMCP Client Started!")
	fmt.Fprintln(out, "Type your queries or 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}
	if ctx.Done() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		next = scanLines(ctx, scanner)
	}

	for {
		_, _ = promptColor.Fprint(out, "\nQuery: ")

		line, ok := next()
		if !ok {
			fmt.Fprintln(out)
			return nil
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}

		res, err := answer(ctx, query)
		if err != nil {
			_, _ = errorColor.Fprintf(out, "\nError: %s\n", err.Error())
			continue
		}
		fmt.Fprintf(out, "\n%s\n", res)
	}
}

// scanLines scans in the background, the returned func reports false
// on EOF or when ctx is done.
func scanLines(ctx context.Context, scanner *bufio.Scanner) func() (string, bool) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() (string, bool) {
		select {
		case <-ctx.Done():
			return "", false
		case line, ok := <-lines:
			return line, ok
		}
	}
}
